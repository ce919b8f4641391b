// Package signals собирает приложение: маршруты, middleware и зависимости.
package signals

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/forexhub/signals-platform/docs"
	"github.com/forexhub/signals-platform/internal/http/handlers/admin/subscriptionupdate"
	"github.com/forexhub/signals-platform/internal/http/handlers/admin/trialcreate"
	"github.com/forexhub/signals-platform/internal/http/handlers/admin/userdelete"
	"github.com/forexhub/signals-platform/internal/http/handlers/admin/userlist"
	"github.com/forexhub/signals-platform/internal/http/handlers/auth/login"
	"github.com/forexhub/signals-platform/internal/http/handlers/auth/register"
	"github.com/forexhub/signals-platform/internal/http/handlers/health"
	planlist "github.com/forexhub/signals-platform/internal/http/handlers/plans/list"
	signallist "github.com/forexhub/signals-platform/internal/http/handlers/signals/list"
	"github.com/forexhub/signals-platform/internal/http/handlers/subscription/status"
	"github.com/forexhub/signals-platform/internal/http/middlewarectx"
	authservice "github.com/forexhub/signals-platform/internal/services/auth"
	signalservice "github.com/forexhub/signals-platform/internal/services/signal"
	subservice "github.com/forexhub/signals-platform/internal/services/subscription"
	"github.com/forexhub/signals-platform/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	subscriptionService *subservice.Service, authService *authservice.Service,
	signalService *signalservice.Service, defaultTrialPlanID int) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/plans", planlist.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/user/subscription-status", status.New(logger, subscriptionService).ServeHTTP)

			// Закрытый контент: доступ решает единый AccessGate
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AccessGate(subscriptionService, logger))
				r.Get("/signals", signallist.New(logger, signalService).ServeHTTP)
			})

			// Административная группа
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Get("/users", userlist.New(logger, db, subscriptionService).ServeHTTP)
				r.Patch("/users/{uid}/subscription", subscriptionupdate.New(logger, subscriptionService).ServeHTTP)
				r.Post("/users/{uid}/trial", trialcreate.New(logger, subscriptionService, defaultTrialPlanID).ServeHTTP)
				r.Delete("/users/{uid}", userdelete.New(logger, subscriptionService).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
