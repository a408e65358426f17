// Package submit реализует HTTP-обработчик подачи заявки на подписку.
//
// Handler принимает JSON с желаемым планом, валидирует его и создает
// заявку от имени текущего пользователя. Повторная подача при уже
// ожидающей заявке возвращает существующую заявку без создания новой.
package submit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/okunevama/bookvault/internal/http/middlewarectx"
	"github.com/okunevama/bookvault/internal/http/response"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
)

// Handler обрабатывает запросы на подачу заявки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики очереди заявок.
type Service interface {
	Submit(ctx context.Context, username, plan, note string) (*models.SubscriptionRequest, bool, error)
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
// @Summary Подать заявку на подписку
// @Description Создает заявку на указанный план. Если у пользователя уже есть необработанная заявка на этот план, возвращается она.
// @Tags Requests
// @Accept  json
// @Produce  json
// @Param request body models.DummySubmitRequest true "План и комментарий"
// @Success 200 {object} map[string]any "Заявка создана или уже существует"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /requests [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.request.submit"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubmitRequest
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

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	request, created, err := h.service.Submit(r.Context(), username, req.Plan, req.Note)
	if err != nil {
		log.Error("failed to submit request", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not submit request"))
		return
	}

	log.Info("request submitted",
		slog.String("request_id", request.ID), slog.Bool("created", created))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"request_id": request.ID,
		"status":     request.Status,
		"created":    created,
	}))
}
