// Package models содержит доменные структуры платформы:
// подписки, тарифные планы, пользователей и торговые сигналы,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Status перечисляет возможные состояния подписки.
type Status string

const (
	// StatusTrial — пробный период, выданный при регистрации.
	StatusTrial Status = "trial"
	// StatusActive — оплаченная подписка по тарифному плану.
	StatusActive Status = "active"
	// StatusExpired — срок действия подписки истёк.
	StatusExpired Status = "expired"
	// StatusInactive — подписка отозвана администратором.
	StatusInactive Status = "inactive"
)

// Valid сообщает, является ли значение одним из известных статусов.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusExpired, StatusInactive:
		return true
	}
	return false
}

// Subscription представляет текущую запись подписки пользователя.
// На одного пользователя существует ровно одна актуальная запись:
// каждый переход состояния целиком заменяет её новой.
// Поля StartDate и EndDate описывают окно текущего статуса; EndDate
// является авторитетным источником истечения — поле Status лишь
// объясняет, почему доступ был выдан.
type Subscription struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	PlanID    *int      `json:"plan_id,omitempty"` // nil только до назначения тарифа по умолчанию
	Status    Status    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"` // используется только для упорядочивания истории
}

// DummySubscriptionUpdate используется для приёма административного
// запроса на смену статуса подписки из JSON до валидации.
type DummySubscriptionUpdate struct {
	Status string `json:"status" validate:"required,oneof=trial active expired inactive"` // Новый статус
	PlanID *int   `json:"plan_id,omitempty" validate:"omitempty,gt=0"`                    // Тариф (обязателен при активации без текущей записи)
}

// DummyTrialCreate используется для приёма запроса на выдачу
// пробного периода с переопределением длительности.
type DummyTrialCreate struct {
	DurationDays int `json:"duration_days" validate:"required"` // Длительность в днях (>0 проверяется бизнес-логикой)
}
