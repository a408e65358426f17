// Package list реализует HTTP-обработчик просмотра каталога книг.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/okunevama/bookvault/internal/http/response"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
)

// Handler обрабатывает запросы на листинг каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список книг каталога
// @Description Возвращает страницу каталога. Параметры limit и offset управляют пагинацией.
// @Tags Catalog
// @Produce  json
// @Param limit query int false "Размер страницы (по умолчанию 10)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Success 200 {object} map[string]any "Страница каталога"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /books [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	books, err := h.service.ListBooks(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list books", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list books"))
		return
	}

	log.Info("list books", "count", len(books))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(books),
		"books":      books,
	}))
}
