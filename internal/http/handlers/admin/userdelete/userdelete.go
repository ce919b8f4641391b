// Package userdelete реализует административный HTTP-обработчик
// каскадного удаления пользователя вместе с записью подписки.
package userdelete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/forexhub/signals-platform/internal/http/response"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/models"
)

// Handler обрабатывает удаление пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает каскадное удаление пользователя.
type Service interface {
	DeleteUser(ctx context.Context, userUID string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить пользователя
// @Description Удаляет запись подписки, затем пользователя.
// @Tags Admin
// @Produce  json
// @Param uid path string true "UID пользователя"
// @Success 200 {object} map[string]any "Пользователь удалён"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/users/{uid} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userdelete"

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

	if err := h.service.DeleteUser(r.Context(), userUID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Error("user not found", sl.UID(userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to delete user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not delete user"))
		return
	}

	log.Info("user deleted", sl.UID(userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted": userUID,
	}))
}
