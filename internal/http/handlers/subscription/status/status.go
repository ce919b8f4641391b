// Package status реализует HTTP-обработчик статуса подписки текущего
// пользователя. Возвращает проекцию состояния — подпись, цвет, число
// оставшихся дней — собранную той же функцией, что и административный
// список.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/forexhub/signals-platform/internal/http/middlewarectx"
	"github.com/forexhub/signals-platform/internal/http/response"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/models"
)

// Handler обрабатывает запросы статуса подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение статуса подписки.
type Service interface {
	GetStatus(ctx context.Context, userUID string, isAdmin bool) (models.AccessDecision, models.StatusProjection, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус подписки текущего пользователя
// @Description Возвращает отображаемое состояние подписки: статус, подпись, число оставшихся дней.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} map[string]any "Статус подписки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /user/subscription-status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	decision, projection, err := h.service.GetStatus(r.Context(), userUID, middlewarectx.IsAdmin(r.Context()))
	if err != nil {
		log.Error("failed to get subscription status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get subscription status"))
		return
	}

	log.Info("status resolved", sl.UID(userUID), slog.String("reason", string(decision.Reason)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"has_access": decision.HasAccess,
		"reason":     decision.Reason,
		"projection": projection,
	}))
}
