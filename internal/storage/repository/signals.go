package repository

import (
	"context"
	"fmt"

	"github.com/forexhub/signals-platform/internal/models"
)

// ListSignals возвращает торговые сигналы с пагинацией,
// новые сигналы первыми.
func (s *Storage) ListSignals(ctx context.Context, limit, offset int) ([]*models.Signal, error) {
	const op = "repository.ListSignals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, pair, action, entry_price, stop_loss, take_profit, published_at
			  FROM signals
			  ORDER BY published_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Signal
	for rows.Next() {
		var sig models.Signal
		if err = rows.Scan(&sig.ID, &sig.Pair, &sig.Action, &sig.EntryPrice,
			&sig.StopLoss, &sig.TakeProfit, &sig.PublishedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &sig)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
