// Package subscriptionupdate реализует административный HTTP-обработчик
// смены статуса подписки пользователя.
//
// Обработчик не трогает даты сам: окно действия целиком пересчитывает
// бизнес-логика перехода, что исключает перенос устаревшей даты
// окончания из предыдущей записи.
package subscriptionupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/forexhub/signals-platform/internal/http/response"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/models"
)

// Handler обрабатывает административные запросы смены статуса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает переход состояния и чтение проекции после него.
type Service interface {
	ChangeStatus(ctx context.Context, userUID string, newStatus models.Status, planID *int) (*models.Subscription, error)
	GetStatus(ctx context.Context, userUID string, isAdmin bool) (models.AccessDecision, models.StatusProjection, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сменить статус подписки пользователя
// @Description Административная операция: целиком заменяет запись подписки с пересчитанным окном действия.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Param request body models.DummySubscriptionUpdate true "Новый статус и (опционально) тариф"
// @Success 200 {object} map[string]any "Обновлённая запись и проекция"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос, тариф не найден или не указан"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/users/{uid}/subscription [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.subscriptionupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")
	if userUID == "" {
		log.Error("missing user uid")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing user uid"))
		return
	}

	var req models.DummySubscriptionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.ChangeStatus(r.Context(), userUID, models.Status(req.Status), req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound):
			log.Error("user not found", sl.UID(userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, models.ErrPlanRequired):
			log.Error("plan required", sl.UID(userUID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("plan id is required to activate subscription"))
		case errors.Is(err, models.ErrPlanNotFound):
			log.Error("plan not found", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("plan not found"))
		default:
			log.Error("failed to change subscription status", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not change subscription status"))
		}
		return
	}

	_, projection, err := h.service.GetStatus(r.Context(), userUID, false)
	if err != nil {
		log.Error("failed to project updated subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read updated subscription"))
		return
	}

	log.Info("subscription status changed", sl.UID(userUID), slog.String("status", req.Status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": sub,
		"projection":   projection,
	}))
}
