// Package userlist реализует административный HTTP-обработчик списка
// пользователей с проекцией статуса подписки для каждого.
//
// Проекция собирается той же функцией, что и пользовательский бейдж,
// поэтому администратор и пользователь всегда видят одинаковое
// количество оставшихся дней.
package userlist

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
	defaultLimit = 50
	maxLimit     = 200
)

// Handler обрабатывает административный список пользователей.
type Handler struct {
	log     *slog.Logger
	users   UserRepository
	service Service
}

// UserRepository описывает чтение пользователей.
type UserRepository interface {
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// Service строит проекцию статуса подписки пользователя.
type Service interface {
	ProjectFor(ctx context.Context, user *models.User) (models.StatusProjection, error)
}

// New создает новый Handler.
func New(log *slog.Logger, users UserRepository, service Service) *Handler {
	return &Handler{log: log, users: users, service: service}
}

// userRow — строка административного списка.
type userRow struct {
	UID        string                  `json:"uid"`
	Email      string                  `json:"email"`
	Username   string                  `json:"username"`
	Role       string                  `json:"role"`
	Projection models.StatusProjection `json:"projection"`
}

// ServeHTTP godoc
// @Summary Список пользователей со статусами подписок
// @Tags Admin
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Пользователи с проекциями"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userlist"

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

	users, err := h.users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list users"))
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		projection, perr := h.service.ProjectFor(r.Context(), u)
		if perr != nil {
			log.Error("failed to project subscription", sl.UID(u.UID), sl.Err(perr))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not project subscriptions"))
			return
		}
		rows = append(rows, userRow{
			UID:        u.UID,
			Email:      u.Email,
			Username:   u.Username,
			Role:       u.Role,
			Projection: projection,
		})
	}

	log.Info("users listed", slog.Int("count", len(rows)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count": len(rows),
		"users": rows,
	}))
}
