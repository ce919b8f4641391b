// Package list реализует HTTP-обработчик каталога тарифных планов.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/forexhub/signals-platform/internal/http/response"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/models"
)

// Handler обрабатывает запросы каталога тарифов.
type Handler struct {
	log   *slog.Logger
	plans PlanRepository
}

// PlanRepository описывает чтение каталога тарифов.
type PlanRepository interface {
	ListPlans(ctx context.Context) ([]*models.Plan, error)
}

// New создает новый Handler.
func New(log *slog.Logger, plans PlanRepository) *Handler {
	return &Handler{log: log, plans: plans}
}

// ServeHTTP godoc
// @Summary Каталог тарифных планов
// @Tags Plans
// @Produce  json
// @Success 200 {object} map[string]any "Список тарифов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plans.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	plans, err := h.plans.ListPlans(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list plans"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"plans": plans,
	}))
}
