// Package catalog реализует бизнес-логику каталога книг: добавление с
// проверкой на дубликаты по схожести названий, чтение и листинг с
// кешированием в Redis.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/okunevama/bookvault/internal/lib/similarity"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
)

// DuplicateThreshold порог схожести названий, выше которого новая книга
// считается дубликатом существующей.
const DuplicateThreshold = 0.8

const (
	listCacheKey = "catalog:books"
	listCacheTTL = 5 * time.Minute
)

// Match существующая книга, похожая на добавляемую.
type Match struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// DuplicateTitleError возвращается при попытке добавить книгу, название
// которой слишком похоже на уже имеющиеся. Содержит все совпадения,
// отсортированные по убыванию схожести.
type DuplicateTitleError struct {
	Title   string
	Matches []Match
}

func (e *DuplicateTitleError) Error() string {
	return fmt.Sprintf("title %q duplicates %d existing book(s)", e.Title, len(e.Matches))
}

// BookRepository определяет методы хранилища для работы с каталогом.
type BookRepository interface {
	CreateBook(ctx context.Context, book models.Book) (string, error)
	ReadBook(ctx context.Context, id string) (*models.Book, error)
	ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error)
	ListBookTitles(ctx context.Context) ([]string, error)
}

// ListCache кеш списка книг.
type ListCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует операции каталога.
type Service struct {
	repo  BookRepository
	cache ListCache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo BookRepository, cache ListCache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// AddBook добавляет книгу в каталог. Перед вставкой название сравнивается
// со всеми существующими; при схожести выше порога возвращается
// *DuplicateTitleError со списком совпадений, и книга не сохраняется.
// Сравнение нечувствительно к регистру.
func (s *Service) AddBook(ctx context.Context, book models.Book) (string, error) {
	const op = "catalog.AddBook"

	titles, err := s.repo.ListBookTitles(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	normalized := strings.ToLower(book.Title)
	var matches []Match
	for _, title := range titles {
		score := similarity.Score(normalized, strings.ToLower(title))
		if score > DuplicateThreshold {
			matches = append(matches, Match{Title: title, Score: score})
		}
	}
	if len(matches) > 0 {
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].Score > matches[j].Score
		})
		return "", &DuplicateTitleError{Title: book.Title, Matches: matches}
	}

	id, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(listCacheKey); err != nil {
		s.log.Warn("failed to invalidate book list cache", sl.Err(err))
	}

	s.log.Info("book added",
		slog.String("id", id), slog.String("title", book.Title))
	return id, nil
}

// GetBook возвращает книгу по ID.
func (s *Service) GetBook(ctx context.Context, id string) (*models.Book, error) {
	const op = "catalog.GetBook"

	book, err := s.repo.ReadBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return book, nil
}

// ListBooks возвращает страницу каталога. Первая страница кешируется:
// при промахе результат кладётся в Redis с коротким TTL, кеш
// сбрасывается при добавлении книги.
func (s *Service) ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	const op = "catalog.ListBooks"

	cacheable := offset == 0
	if cacheable {
		var cached []*models.Book
		found, err := s.cache.Get(listCacheKey, &cached)
		if err != nil {
			s.log.Warn("failed to read book list cache", sl.Err(err))
		}
		if found && len(cached) >= limit {
			return cached[:limit], nil
		}
	}

	books, err := s.repo.ListBooks(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cacheable {
		if err := s.cache.Set(listCacheKey, books, listCacheTTL); err != nil {
			s.log.Warn("failed to write book list cache", sl.Err(err))
		}
	}
	return books, nil
}
