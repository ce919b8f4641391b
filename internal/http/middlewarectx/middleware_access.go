package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/forexhub/signals-platform/internal/http/response"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/models"
)

// AccessChecker описывает единственную авторитетную проверку доступа.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userUID string, isAdmin bool) (models.AccessDecision, error)
}

// AccessGate закрывает группу маршрутов с платным контентом.
// Решение принимает сервис подписок; middleware только сопоставляет
// отказ с HTTP 403 и отдаёт клиенту код причины.
func AccessGate(service AccessChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			decision, err := service.CheckAccess(r.Context(), userUID, IsAdmin(r.Context()))
			if err != nil {
				log.Error("failed to check access", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if !decision.HasAccess {
				log.Info("access denied", sl.UID(userUID),
					slog.String("reason", string(decision.Reason)))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.AccessDenied("subscription required", string(decision.Reason)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
