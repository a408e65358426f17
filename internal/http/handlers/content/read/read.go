// Package read реализует HTTP-обработчик для онлайн-чтения книги.
//
// Handler извлекает ID книги из URL, проверяет право пользователя через
// движок прав доступа и при разрешении возвращает данные книги. Успешное
// обращение учитывается в квоте чтения текущего окна.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/okunevama/bookvault/internal/http/middlewarectx"
	"github.com/okunevama/bookvault/internal/http/response"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
	"github.com/okunevama/bookvault/internal/services/entitlement"
)

// Handler обрабатывает запросы на чтение книги.
type Handler struct {
	log     *slog.Logger
	engine  Engine
	catalog Catalog
}

// Engine описывает интерфейс движка прав доступа.
type Engine interface {
	CheckAndConsume(ctx context.Context, username, bookID string, action entitlement.Action) (entitlement.Decision, error)
}

// Catalog описывает интерфейс каталога для получения книги.
type Catalog interface {
	GetBook(ctx context.Context, id string) (*models.Book, error)
}

// New создает новый Handler с переданными логгером, движком и каталогом.
func New(log *slog.Logger, engine Engine, catalog Catalog) *Handler {
	return &Handler{
		log:     log,
		engine:  engine,
		catalog: catalog,
	}
}

// ServeHTTP godoc
// @Summary Читать книгу онлайн
// @Description Проверяет право текущего пользователя на чтение книги и учитывает его в квоте. Повторное чтение той же книги в текущем окне квоту не расходует.
// @Tags Content
// @Produce  json
// @Param id path string true "ID книги"
// @Success 200 {object} map[string]any "Доступ разрешен, данные книги"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Доступ запрещен"
// @Failure 404 {object} response.ErrorResponse "Книга не найдена"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /books/{id}/read [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	username, ok := r.Context().Value(middlewarectx.User).(string)
	if !ok || username == "" {
		log.Error("username not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	bookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(bookID); err != nil {
		log.Error("invalid book id", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("book not found"))
		return
	}

	book, err := h.catalog.GetBook(r.Context(), bookID)
	if err != nil {
		log.Error("failed to read book", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("book not found"))
		return
	}

	decision, err := h.engine.CheckAndConsume(r.Context(), username, bookID, entitlement.ActionRead)
	if err != nil {
		log.Error("failed to check entitlement", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check access"))
		return
	}
	if !decision.Allowed {
		log.Info("read access denied",
			slog.String("username", username),
			slog.String("reason", string(decision.Reason)))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error(decision.Message))
		return
	}

	log.Info("read access granted",
		slog.String("username", username), slog.String("book_id", bookID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"book": book,
	}))
}
