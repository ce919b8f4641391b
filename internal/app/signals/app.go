package signals

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/forexhub/signals-platform/internal/cache"
	"github.com/forexhub/signals-platform/internal/config"
	"github.com/forexhub/signals-platform/internal/events"
	"github.com/forexhub/signals-platform/internal/lib/clock"
	"github.com/forexhub/signals-platform/internal/lib/jwt"
	"github.com/forexhub/signals-platform/internal/lib/sl"
	"github.com/forexhub/signals-platform/internal/migrations"
	authservice "github.com/forexhub/signals-platform/internal/services/auth"
	signalservice "github.com/forexhub/signals-platform/internal/services/signal"
	subservice "github.com/forexhub/signals-platform/internal/services/subscription"
	"github.com/forexhub/signals-platform/internal/storage/repository"
)

const rabbitConnectRetries = 5

// App инкапсулирует HTTP-сервер и зависимости приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New собирает приложение из конфига: хранилище, миграции, кеш,
// публикацию событий, сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher
	publisher, err = events.Connect(cfg.RabbitURL, rabbitConnectRetries)
	if err != nil {
		// Сервис работоспособен и без шины событий
		logger.Warn("rabbitmq unavailable, subscription events disabled", sl.Err(err))
		publisher = events.Noop{}
	}

	clk := clock.Real{}
	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	subscriptionService := subservice.New(db, db, db, cacheRedis, publisher, clk, logger,
		cfg.Trial.DurationDays, cfg.Trial.DefaultPlanID)
	authService := authservice.New(db, subscriptionService, jwtMaker,
		cfg.Trial.DurationDays, cfg.Trial.DefaultPlanID)
	signalService := signalservice.New(db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, subscriptionService, authService, signalService,
		cfg.Trial.DefaultPlanID)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и корректно останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.DB.Close()
		return err
	}
}
