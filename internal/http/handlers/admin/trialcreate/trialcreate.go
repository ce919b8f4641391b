// Package trialcreate реализует административный HTTP-обработчик выдачи
// пробного периода с переопределением длительности.
package trialcreate

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

// Handler обрабатывает выдачу пробного периода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate

	defaultPlanID int
}

// Service описывает выдачу пробного периода.
type Service interface {
	CreateTrial(ctx context.Context, userUID string, durationDays, defaultPlanID int) (*models.Subscription, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, defaultPlanID int) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		validate:      validator.New(),
		defaultPlanID: defaultPlanID,
	}
}

// ServeHTTP godoc
// @Summary Выдать пробный период пользователю
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Param request body models.DummyTrialCreate true "Длительность пробного периода в днях"
// @Success 200 {object} map[string]any "Новая запись подписки"
// @Failure 400 {object} response.ErrorResponse "Некорректная длительность"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/users/{uid}/trial [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.trialcreate"

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

	var req models.DummyTrialCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.CreateTrial(r.Context(), userUID, req.DurationDays, h.defaultPlanID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidDuration) {
			log.Error("invalid trial duration", slog.Int("days", req.DurationDays))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("trial duration must be positive"))
			return
		}
		log.Error("failed to create trial", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create trial"))
		return
	}

	log.Info("trial created", sl.UID(userUID), slog.Int("days", req.DurationDays))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"subscription": sub,
	}))
}
