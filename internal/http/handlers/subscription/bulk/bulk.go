// Package bulk реализует HTTP-обработчик массовой выдачи и отмены подписок.
package bulk

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/okunevama/bookvault/internal/http/response"
	"github.com/okunevama/bookvault/internal/lib/sl"
)

// Request — входные данные массовой операции. Plan обязателен только
// для действия grant.
type Request struct {
	Action    string   `json:"action" validate:"required,oneof=grant cancel"`
	Usernames []string `json:"usernames" validate:"required,min=1,dive,required"`
	Plan      string   `json:"plan,omitempty" validate:"omitempty,oneof=basic premium"`
}

// Handler обрабатывает массовые операции над подписками.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс движка прав доступа для массовых операций.
type Service interface {
	BulkGrant(ctx context.Context, usernames []string, plan string) (int, error)
	BulkCancel(ctx context.Context, usernames []string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Массовая выдача или отмена подписок
// @Description Применяет действие к каждому пользователю независимо: ошибка по одному не прерывает остальных. Возвращает количество обработанных.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body Request true "Действие, пользователи и план"
// @Success 200 {object} map[string]any "Количество обработанных пользователей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/subscriptions/bulk [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.bulk"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("action", req.Action))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	if req.Action == "grant" && req.Plan == "" {
		log.Error("plan is required for grant action")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("plan is required for grant action"))
		return
	}
	log.Info("all fields are validated")

	var affected int
	var err error
	switch req.Action {
	case "grant":
		affected, err = h.service.BulkGrant(r.Context(), req.Usernames, req.Plan)
	case "cancel":
		affected, err = h.service.BulkCancel(r.Context(), req.Usernames)
	}
	if err != nil {
		log.Error("bulk operation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("bulk operation failed"))
		return
	}

	log.Info("bulk operation finished",
		slog.String("action", req.Action), slog.Int("affected", affected))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"action":    req.Action,
		"requested": len(req.Usernames),
		"affected":  affected,
	}))
}
