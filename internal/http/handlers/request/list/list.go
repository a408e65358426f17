// Package list реализует HTTP-обработчик просмотра очереди заявок.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/okunevama/bookvault/internal/http/response"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
)

// Handler обрабатывает запросы на листинг заявок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики очереди заявок.
type Service interface {
	List(ctx context.Context, status string) ([]*models.SubscriptionRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список заявок на подписку
// @Description Возвращает заявки очереди. Параметр status фильтрует по pending или processed; без него возвращаются все.
// @Tags Requests
// @Produce  json
// @Param status query string false "Фильтр по статусу (pending или processed)"
// @Success 200 {object} map[string]any "Список заявок"
// @Failure 422 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/requests [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	status := r.URL.Query().Get("status")
	if status != "" && status != models.RequestPending && status != models.RequestProcessed {
		log.Error("unknown status filter", slog.String("status", status))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown status filter"))
		return
	}

	requests, err := h.service.List(r.Context(), status)
	if err != nil {
		log.Error("failed to list requests", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list requests"))
		return
	}

	log.Info("list requests", "count", len(requests))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(requests),
		"requests":   requests,
	}))
}
