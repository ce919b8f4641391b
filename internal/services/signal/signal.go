// Package signal содержит бизнес-логику выдачи торговых сигналов.
// Проверка доступа выполняется middleware до вызова сервиса,
// здесь происходит только чтение контента.
package signal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forexhub/signals-platform/internal/models"
)

// SignalRepository определяет чтение сигналов из хранилища.
type SignalRepository interface {
	ListSignals(ctx context.Context, limit, offset int) ([]*models.Signal, error)
}

// Service реализует выдачу торговых сигналов.
type Service struct {
	repo SignalRepository
	log  *slog.Logger
}

// New создает новый Service.
func New(repo SignalRepository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List возвращает страницу сигналов, новые первыми.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Signal, error) {
	const op = "signal.List"

	result, err := s.repo.ListSignals(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("signals listed", slog.Int("count", len(result)))
	return result, nil
}
