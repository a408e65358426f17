// Package dismiss реализует HTTP-обработчик отклонения заявки на подписку.
package dismiss

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/okunevama/bookvault/internal/http/response"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
	"github.com/okunevama/bookvault/internal/storage/repository"
)

// Handler обрабатывает запросы на отклонение заявки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики очереди заявок.
type Service interface {
	Dismiss(ctx context.Context, requestID string) (*models.SubscriptionRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отклонить заявку на подписку
// @Description Помечает заявку обработанной без выдачи подписки. Повторный вызов безопасен.
// @Tags Requests
// @Produce  json
// @Param id path string true "ID заявки"
// @Success 200 {object} map[string]any "Заявка отклонена"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/requests/{id}/dismiss [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.dismiss"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requestID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(requestID); err != nil {
		log.Error("invalid request id", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("request not found"))
		return
	}

	req, err := h.service.Dismiss(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			log.Error("request not found", slog.String("id", requestID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
			return
		}
		log.Error("failed to dismiss request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not dismiss request"))
		return
	}

	log.Info("request dismissed", slog.String("id", req.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"request_id": req.ID,
		"status":     req.Status,
	}))
}
