package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okunevama/bookvault/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateBook(ctx context.Context, book models.Book) (string, error) {
	args := m.Called(ctx, book)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) ReadBook(ctx context.Context, id string) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}
func (m *RepoMock) ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Book), args.Error(1)
}
func (m *RepoMock) ListBookTitles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	if books, ok := args.Get(2).([]*models.Book); ok {
		*result.(*[]*models.Book) = books
	}
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestAddBook(t *testing.T) {
	tests := []struct {
		name       string
		book       models.Book
		setupMocks func(r *RepoMock, c *CacheMock)
		wantID     string
		wantDup    bool
		wantErr    bool
	}{
		{
			name: "уникальное название",
			book: models.Book{Title: "Война и мир", Author: "Толстой"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ListBookTitles", mock.Anything).Return([]string{"Анна Каренина"}, nil)
				r.On("CreateBook", mock.Anything, mock.Anything).Return("id-1", nil)
				c.On("Invalidate", listCacheKey).Return(nil)
			},
			wantID: "id-1",
		},
		{
			name: "точный дубликат в другом регистре",
			book: models.Book{Title: "WAR AND PEACE", Author: "Tolstoy"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ListBookTitles", mock.Anything).Return([]string{"War and Peace"}, nil)
			},
			wantDup: true,
		},
		{
			name: "ошибка хранилища",
			book: models.Book{Title: "Idiot"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ListBookTitles", mock.Anything).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
		{
			name: "ошибка кеша не мешает добавлению",
			book: models.Book{Title: "Обломов", Author: "Гончаров"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("ListBookTitles", mock.Anything).Return([]string{}, nil)
				r.On("CreateBook", mock.Anything, mock.Anything).Return("id-2", nil)
				c.On("Invalidate", listCacheKey).Return(errors.New("redis down"))
			},
			wantID: "id-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repoMock := new(RepoMock)
			cacheMock := new(CacheMock)
			tt.setupMocks(repoMock, cacheMock)

			service := New(repoMock, cacheMock, newNoopLogger())
			id, err := service.AddBook(context.Background(), tt.book)

			switch {
			case tt.wantDup:
				var dupErr *DuplicateTitleError
				require.ErrorAs(t, err, &dupErr)
				assert.NotEmpty(t, dupErr.Matches)
			case tt.wantErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repoMock.AssertExpectations(t)
		})
	}
}

func TestAddBook_MatchesSortedByScore(t *testing.T) {
	repoMock := new(RepoMock)
	cacheMock := new(CacheMock)
	repoMock.On("ListBookTitles", mock.Anything).
		Return([]string{"The Great Gatsby!", "The Great Gatsby"}, nil)

	service := New(repoMock, cacheMock, newNoopLogger())
	_, err := service.AddBook(context.Background(), models.Book{Title: "The Great Gatsby"})

	var dupErr *DuplicateTitleError
	require.ErrorAs(t, err, &dupErr)
	require.Len(t, dupErr.Matches, 2)
	assert.Equal(t, "The Great Gatsby", dupErr.Matches[0].Title)
	assert.Equal(t, 1.0, dupErr.Matches[0].Score)
	assert.Greater(t, dupErr.Matches[0].Score, dupErr.Matches[1].Score)
}

func TestListBooks(t *testing.T) {
	books := []*models.Book{
		{ID: "id-1", Title: "Книга 1"},
		{ID: "id-2", Title: "Книга 2"},
	}

	t.Run("промах кеша и запись", func(t *testing.T) {
		repoMock := new(RepoMock)
		cacheMock := new(CacheMock)
		cacheMock.On("Get", listCacheKey, mock.Anything).Return(false, nil, nil)
		repoMock.On("ListBooks", mock.Anything, 10, 0).Return(books, nil)
		cacheMock.On("Set", listCacheKey, mock.Anything, listCacheTTL).Return(nil)

		service := New(repoMock, cacheMock, newNoopLogger())
		got, err := service.ListBooks(context.Background(), 10, 0)

		require.NoError(t, err)
		assert.Equal(t, books, got)
		cacheMock.AssertExpectations(t)
	})

	t.Run("попадание в кеш", func(t *testing.T) {
		repoMock := new(RepoMock)
		cacheMock := new(CacheMock)
		cacheMock.On("Get", listCacheKey, mock.Anything).Return(true, nil, books)

		service := New(repoMock, cacheMock, newNoopLogger())
		got, err := service.ListBooks(context.Background(), 2, 0)

		require.NoError(t, err)
		assert.Equal(t, books, got)
		repoMock.AssertNotCalled(t, "ListBooks")
	})

	t.Run("страница с offset кеш обходит", func(t *testing.T) {
		repoMock := new(RepoMock)
		cacheMock := new(CacheMock)
		repoMock.On("ListBooks", mock.Anything, 10, 20).Return(books, nil)

		service := New(repoMock, cacheMock, newNoopLogger())
		_, err := service.ListBooks(context.Background(), 10, 20)

		require.NoError(t, err)
		cacheMock.AssertNotCalled(t, "Get")
	})
}

func TestGetBook(t *testing.T) {
	repoMock := new(RepoMock)
	book := &models.Book{ID: "id-1", Title: "Книга"}
	repoMock.On("ReadBook", mock.Anything, "id-1").Return(book, nil)

	service := New(repoMock, new(CacheMock), newNoopLogger())
	got, err := service.GetBook(context.Background(), "id-1")

	require.NoError(t, err)
	assert.Equal(t, book, got)
}
