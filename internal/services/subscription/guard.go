package subscription

import (
	"fmt"
	"time"

	"github.com/forexhub/signals-platform/internal/models"
)

// guardToleranceDays — допустимое расхождение между фактической
// длительностью записи и длительностью назначенного гранта.
const guardToleranceDays = 1

// checkConsistency проверяет инварианты записи подписки перед фиксацией:
// дата окончания строго позже даты начала, а длительность окна совпадает
// с назначенной длительностью гранта с точностью до guardToleranceDays.
//
// Нарушение означает, что переход собрал повреждённую запись; она
// отклоняется с models.ErrConsistencyViolation и не попадает в хранилище.
func checkConsistency(sub models.Subscription, intendedDays int) error {
	const op = "subscription.checkConsistency"

	if !sub.EndDate.After(sub.StartDate) {
		return fmt.Errorf("%s: end date %s is not after start date %s: %w",
			op, sub.EndDate.Format(time.RFC3339), sub.StartDate.Format(time.RFC3339),
			models.ErrConsistencyViolation)
	}

	actualDays := sub.EndDate.Sub(sub.StartDate).Hours() / 24
	diff := actualDays - float64(intendedDays)
	if diff < 0 {
		diff = -diff
	}
	if diff > guardToleranceDays {
		return fmt.Errorf("%s: window is %.1f days, grant is %d days: %w",
			op, actualDays, intendedDays, models.ErrConsistencyViolation)
	}
	return nil
}
