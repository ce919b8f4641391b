// Package access содержит единственную авторитетную реализацию проверки
// доступа к закрытому контенту и проекцию статуса подписки для отображения.
//
// Все потребители — middleware, обработчик статуса, административный
// список — обязаны вызывать Evaluate и Project отсюда и не пересчитывать
// даты самостоятельно.
package access

import (
	"time"

	"github.com/forexhub/signals-platform/internal/models"
)

// Evaluate принимает текущую запись подписки (nil, если записи нет),
// признак администратора и текущий момент времени, и возвращает решение
// о доступе.
//
// Правила:
//  1. Администратор получает доступ без обращения к подписке.
//  2. Отсутствие записи — отказ с причиной no-subscription.
//  3. now строго позже EndDate — отказ с причиной expired независимо
//     от значения Status: дата истечения авторитетна над статусом.
//  4. Иначе статус trial или active даёт доступ, expired и inactive — нет.
//
// Evaluate никогда не возвращает ошибку: отсутствие данных деградирует
// до отказа в доступе.
func Evaluate(sub *models.Subscription, isAdmin bool, now time.Time) models.AccessDecision {
	if isAdmin {
		return models.AccessDecision{HasAccess: true, Reason: models.ReasonAdmin}
	}
	if sub == nil {
		return models.AccessDecision{HasAccess: false, Reason: models.ReasonNoSubscription}
	}
	if now.After(sub.EndDate) {
		return models.AccessDecision{HasAccess: false, Reason: models.ReasonExpired}
	}
	switch sub.Status {
	case models.StatusActive:
		return models.AccessDecision{HasAccess: true, Reason: models.ReasonActiveSubscription}
	case models.StatusTrial:
		return models.AccessDecision{HasAccess: true, Reason: models.ReasonActiveTrial}
	}
	return models.AccessDecision{HasAccess: false, Reason: models.ReasonNoSubscription}
}

// DaysLeft возвращает целое число дней до endDate, округлённое вверх
// и не меньше нуля. Это единственная реализация этой арифметики:
// бейдж пользователя и административный список обязаны использовать её,
// чтобы показывать одинаковое количество дней.
func DaysLeft(endDate, now time.Time) int {
	remaining := endDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
