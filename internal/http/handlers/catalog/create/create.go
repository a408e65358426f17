// Package create реализует HTTP-обработчик добавления книги в каталог.
//
// Handler принимает JSON-запрос с данными книги, валидирует их и вызывает
// бизнес-логику каталога. При слишком похожем названии возвращает 409 со
// списком совпадений.
package create

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
	"github.com/okunevama/bookvault/internal/models"
	"github.com/okunevama/bookvault/internal/services/catalog"
)

// Handler обрабатывает запросы на добавление книги.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	AddBook(ctx context.Context, book models.Book) (string, error)
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
// @Summary Добавить книгу в каталог
// @Description Добавляет новую книгу. Если название слишком похоже на существующее, возвращает 409 со списком совпадений.
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Param request body models.DummyBook true "Данные новой книги"
// @Success 200 {object} map[string]any "Книга добавлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} map[string]any "Название дублирует существующую книгу"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/books [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBook
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

	id, err := h.service.AddBook(r.Context(), models.Book{
		Title:   req.Title,
		Author:  req.Author,
		FileKey: req.FileKey,
	})
	if err != nil {
		var dupErr *catalog.DuplicateTitleError
		if errors.As(err, &dupErr) {
			log.Info("duplicate title rejected", slog.String("title", req.Title))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Response{
				Status: response.StatusError,
				Error:  "title duplicates existing books",
				Data:   map[string]any{"matches": dupErr.Matches},
			})
			return
		}
		log.Error("failed to add book", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not add book"))
		return
	}

	log.Info("book added", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
