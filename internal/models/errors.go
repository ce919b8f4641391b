package models

import "errors"

// Ошибки доменного уровня. Обработчики HTTP сопоставляют их
// с кодами ответов, бизнес-логика оборачивает через fmt.Errorf("%s: %w", ...).
var (
	// ErrPlanNotFound — тарифный план не найден по ID или имени.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrPlanRequired — активация подписки без указания тарифа.
	ErrPlanRequired = errors.New("plan id is required to activate subscription")
	// ErrInvalidDuration — неположительная длительность пробного периода.
	ErrInvalidDuration = errors.New("trial duration must be positive")
	// ErrConsistencyViolation — переход породил некорректную запись,
	// фиксация отклонена.
	ErrConsistencyViolation = errors.New("subscription record failed consistency check")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubscriptionNotFound — у пользователя нет текущей записи подписки.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
