package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/forexhub/signals-platform/internal/models"
)

// GetCurrentSubscription возвращает текущую запись подписки пользователя
// или models.ErrSubscriptionNotFound, если записи нет.
func (s *Storage) GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "repository.GetCurrentSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, status, start_date, end_date, created_at
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	var sub models.Subscription
	var planID sql.NullInt64
	if err := row.Scan(&sub.ID, &sub.UserUID, &planID, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if planID.Valid {
		id := int(planID.Int64)
		sub.PlanID = &id
	}
	return &sub, nil
}

// ReplaceSubscription целиком заменяет текущую запись подписки пользователя
// новой в одной транзакции: удаление и вставка либо фиксируются вместе,
// либо не происходят вовсе. Возвращает ID новой записи.
func (s *Storage) ReplaceSubscription(ctx context.Context, sub models.Subscription) (int, error) {
	const op = "repository.ReplaceSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_uid = $1`, sub.UserUID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var planID sql.NullInt64
	if sub.PlanID != nil {
		planID = sql.NullInt64{Int64: int64(*sub.PlanID), Valid: true}
	}
	var newID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_uid, plan_id, status, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		sub.UserUID, planID, sub.Status, sub.StartDate, sub.EndDate).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// RemoveSubscription удаляет запись подписки пользователя и возвращает
// количество удалённых строк.
func (s *Storage) RemoveSubscription(ctx context.Context, userUID string) (int, error) {
	const op = "repository.RemoveSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_uid = $1`, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
