// Package bookvault предоставляет маршруты для основного приложения.
package bookvault

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/okunevama/bookvault/internal/http/handlers/auth/login"
	"github.com/okunevama/bookvault/internal/http/handlers/auth/register"
	catalogcreate "github.com/okunevama/bookvault/internal/http/handlers/catalog/create"
	cataloglist "github.com/okunevama/bookvault/internal/http/handlers/catalog/list"
	"github.com/okunevama/bookvault/internal/http/handlers/content/download"
	contentread "github.com/okunevama/bookvault/internal/http/handlers/content/read"
	"github.com/okunevama/bookvault/internal/http/handlers/health"
	"github.com/okunevama/bookvault/internal/http/handlers/request/approve"
	"github.com/okunevama/bookvault/internal/http/handlers/request/dismiss"
	requestlist "github.com/okunevama/bookvault/internal/http/handlers/request/list"
	"github.com/okunevama/bookvault/internal/http/handlers/request/submit"
	"github.com/okunevama/bookvault/internal/http/handlers/subscription/bulk"
	"github.com/okunevama/bookvault/internal/http/handlers/subscription/cancel"
	"github.com/okunevama/bookvault/internal/http/handlers/subscription/grant"
	"github.com/okunevama/bookvault/internal/http/middlewarectx"
	authservice "github.com/okunevama/bookvault/internal/services/auth"
	catalogservice "github.com/okunevama/bookvault/internal/services/catalog"
	"github.com/okunevama/bookvault/internal/services/entitlement"
	requestservice "github.com/okunevama/bookvault/internal/services/request"
	"github.com/okunevama/bookvault/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	authService *authservice.Service, engine *entitlement.Engine,
	catalogService *catalogservice.Service, requestService *requestservice.Service) {
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
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/books", cataloglist.New(logger, catalogService).ServeHTTP)
			r.Post("/books/{id}/read", contentread.New(logger, engine, catalogService).ServeHTTP)
			r.Post("/books/{id}/download", download.New(logger, engine, catalogService).ServeHTTP)
			r.Post("/requests", submit.New(logger, requestService).ServeHTTP)

			// Административные конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))

				r.Post("/admin/books", catalogcreate.New(logger, catalogService).ServeHTTP)
				r.Post("/admin/subscriptions/grant", grant.New(logger, engine).ServeHTTP)
				r.Post("/admin/subscriptions/cancel", cancel.New(logger, engine).ServeHTTP)
				r.Post("/admin/subscriptions/bulk", bulk.New(logger, engine).ServeHTTP)
				r.Get("/admin/requests", requestlist.New(logger, requestService).ServeHTTP)
				r.Post("/admin/requests/{id}/approve", approve.New(logger, requestService).ServeHTTP)
				r.Post("/admin/requests/{id}/dismiss", dismiss.New(logger, requestService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
