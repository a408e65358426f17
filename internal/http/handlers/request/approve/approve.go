// Package approve реализует HTTP-обработчик одобрения заявки на подписку.
package approve

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

// Handler обрабатывает запросы на одобрение заявки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики очереди заявок.
type Service interface {
	Approve(ctx context.Context, requestID string) (*models.SubscriptionRequest, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Одобрить заявку на подписку
// @Description Выдает пользователю подписку на запрошенный план и помечает заявку обработанной. Пользователь получает письмо с уведомлением.
// @Tags Requests
// @Produce  json
// @Param id path string true "ID заявки"
// @Success 200 {object} map[string]any "Заявка одобрена"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Failure 409 {object} response.ErrorResponse "Заявка уже обработана"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/requests/{id}/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.approve"

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

	req, err := h.service.Approve(r.Context(), requestID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotFound):
			log.Error("request not found", slog.String("id", requestID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("request not found"))
		case errors.Is(err, repository.ErrRequestProcessed):
			log.Error("request already processed", slog.String("id", requestID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("request already processed"))
		default:
			log.Error("failed to approve request", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not approve request"))
		}
		return
	}

	log.Info("request approved",
		slog.String("id", req.ID), slog.String("username", req.Username))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"request_id": req.ID,
		"username":   req.Username,
		"plan":       req.Plan,
		"status":     req.Status,
	}))
}
