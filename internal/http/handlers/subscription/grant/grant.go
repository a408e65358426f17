// Package grant реализует HTTP-обработчик административной выдачи подписки.
package grant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/okunevama/bookvault/internal/http/response"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/storage/repository"
)

// Request — входные данные для выдачи подписки.
type Request struct {
	Username string `json:"username" validate:"required"`
	Plan     string `json:"plan" validate:"required,oneof=basic premium"`
}

// Handler обрабатывает запросы на выдачу подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс движка прав доступа для выдачи подписки.
type Service interface {
	Grant(ctx context.Context, username, plan string) error
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
// @Summary Выдать подписку пользователю
// @Description Безусловно выдает подписку на указанный план сроком на 30 дней, с чистым окном использования.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь и план"
// @Success 200 {object} map[string]any "Подписка выдана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/subscriptions/grant [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.grant"

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
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	if err := h.service.Grant(r.Context(), req.Username, req.Plan); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("user not found", slog.String("username", req.Username))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to grant subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not grant subscription"))
		return
	}

	log.Info("subscription granted",
		slog.String("username", req.Username), slog.String("plan", req.Plan))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"username": req.Username,
		"plan":     req.Plan,
	}))
}
