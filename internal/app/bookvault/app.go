// Package bookvault собирает основное приложение: HTTP API библиотеки
// и фоновую зачистку просроченных подписок.
package bookvault

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/okunevama/bookvault/internal/cache"
	"github.com/okunevama/bookvault/internal/config"
	"github.com/okunevama/bookvault/internal/lib/jwt"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/migrations"
	"github.com/okunevama/bookvault/internal/rabbitmq"
	authservice "github.com/okunevama/bookvault/internal/services/auth"
	catalogservice "github.com/okunevama/bookvault/internal/services/catalog"
	"github.com/okunevama/bookvault/internal/services/entitlement"
	requestservice "github.com/okunevama/bookvault/internal/services/request"
	"github.com/okunevama/bookvault/internal/services/sweeper"
	"github.com/okunevama/bookvault/internal/storage/repository"
)

// App объединяет HTTP-сервер, хранилище и фоновые компоненты приложения.
type App struct {
	server  *http.Server
	sweeper *sweeper.Sweeper
	logger  *slog.Logger
	db      *repository.Storage
	mqConn  *amqp.Connection
	mqChan  *amqp.Channel
}

// New создает приложение: подключает хранилище, применяет миграции,
// инициализирует кеш, брокер уведомлений и все сервисы, собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Брокер уведомлений опционален: без него одобрение заявок работает,
	// но письма не отправляются.
	var (
		mqConn    *amqp.Connection
		mqChan    *amqp.Channel
		publisher requestservice.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		mqConn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, err
		}
		mqChan, err = rabbitmq.SetupChannel(mqConn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = mqConn.Close()
			return nil, err
		}
		publisher = &rabbitmq.GrantedPublisher{Ch: mqChan}
	} else {
		logger.Warn("rabbitmq url is empty, granted notifications are disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.New(db, jwtMaker)
	engine := entitlement.New(db, logger)
	catalogService := catalogservice.New(db, cacheRedis, logger)
	requestService := requestservice.New(db, publisher, logger)
	sweep := sweeper.New(db, logger, cfg.SweepInterval)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, authService, engine, catalogService, requestService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		sweeper: sweep,
		logger:  logger,
		db:      db,
		mqConn:  mqConn,
		mqChan:  mqChan,
	}, nil
}

// Run запускает зачистку и HTTP-сервер, блокируясь до отмены контекста
// или ошибки сервера. При завершении закрывает соединения.
func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Run(ctx)

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
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.mqChan != nil {
		if err := a.mqChan.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.mqConn != nil {
		if err := a.mqConn.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
