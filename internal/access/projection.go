package access

import (
	"time"

	"github.com/forexhub/signals-platform/internal/models"
)

// Подписи статусов для отображения.
const (
	displayTrial    = "Free Trial"
	displayActive   = "Active"
	displayExpired  = "Expired"
	displayInactive = "Inactive"
)

// Project собирает отображаемое состояние подписки из решения о доступе
// и записи подписки. planName может быть пустым, если тариф не назначен.
//
// Истёкшая по дате запись проецируется как expired независимо от
// сохранённого статуса — та же логика, что и в Evaluate.
func Project(decision models.AccessDecision, sub *models.Subscription, planName string, now time.Time) models.StatusProjection {
	if sub == nil {
		return models.StatusProjection{
			Status:        models.StatusInactive,
			StatusDisplay: displayInactive,
			DaysLeft:      0,
			ColorClass:    colorFor(models.StatusInactive),
		}
	}

	status := sub.Status
	if decision.Reason == models.ReasonExpired {
		status = models.StatusExpired
	}

	endDate := sub.EndDate
	return models.StatusProjection{
		Status:        status,
		StatusDisplay: displayFor(status),
		DaysLeft:      DaysLeft(endDate, now),
		EndDate:       &endDate,
		PlanName:      planName,
		ColorClass:    colorFor(status),
	}
}

func displayFor(status models.Status) string {
	switch status {
	case models.StatusTrial:
		return displayTrial
	case models.StatusActive:
		return displayActive
	case models.StatusExpired:
		return displayExpired
	}
	return displayInactive
}

func colorFor(status models.Status) string {
	switch status {
	case models.StatusTrial:
		return "badge-blue"
	case models.StatusActive:
		return "badge-green"
	case models.StatusExpired:
		return "badge-red"
	}
	return "badge-gray"
}
