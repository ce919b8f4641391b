package models

import "time"

// Reason объясняет результат проверки доступа.
type Reason string

const (
	// ReasonAdmin — администратор, проверка подписки не выполнялась.
	ReasonAdmin Reason = "admin"
	// ReasonActiveSubscription — действующая оплаченная подписка.
	ReasonActiveSubscription Reason = "active-subscription"
	// ReasonActiveTrial — действующий пробный период.
	ReasonActiveTrial Reason = "active-trial"
	// ReasonExpired — срок подписки истёк.
	ReasonExpired Reason = "expired"
	// ReasonNoSubscription — записи подписки нет либо она отозвана.
	ReasonNoSubscription Reason = "no-subscription"
)

// AccessDecision — результат единственной авторитетной проверки доступа.
type AccessDecision struct {
	HasAccess bool   `json:"has_access"`
	Reason    Reason `json:"reason"`
}

// StatusProjection — отображаемое пользователю состояние подписки.
// Один и тот же payload используется бейджем пользователя и
// административным списком.
type StatusProjection struct {
	Status        Status     `json:"status"`
	StatusDisplay string     `json:"status_display"`
	DaysLeft      int        `json:"days_left"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	PlanName      string     `json:"plan_name,omitempty"`
	ColorClass    string     `json:"color_class"`
}
