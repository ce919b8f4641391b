// Package list реализует HTTP-обработчик выдачи торговых сигналов.
// Проверку подписки выполняет middleware AccessGate до этого обработчика.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/forexhub/signals-platform/internal/http/response"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler обрабатывает запросы списка сигналов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выдачу торговых сигналов.
type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Signal, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список торговых сигналов
// @Description Возвращает страницу сигналов, доступно только при действующей подписке.
// @Tags Signals
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список сигналов"
// @Failure 403 {object} response.ErrorResponse "Подписка не действует"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /signals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.signals.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= maxLimit {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	signals, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list signals", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list signals"))
		return
	}

	log.Info("signals listed", slog.Int("count", len(signals)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":   len(signals),
		"signals": signals,
	}))
}
