package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okunevama/bookvault/internal/models"
)

// CreateBook вставляет новую книгу каталога и возвращает её ID.
func (s *Storage) CreateBook(ctx context.Context, book models.Book) (string, error) {
	const op = "storage.CreateBook"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO books (title, author, file_key)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		book.Title, book.Author, book.FileKey).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadBook возвращает книгу по её ID.
func (s *Storage) ReadBook(ctx context.Context, id string) (*models.Book, error) {
	const op = "storage.ReadBook"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, author, file_key, created_at
			  FROM books WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Book
	if err := row.Scan(&result.ID, &result.Title, &result.Author,
		&result.FileKey, &result.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListBooks возвращает список книг каталога с пагинацией.
func (s *Storage) ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	const op = "storage.ListBooks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, author, file_key, created_at
			  FROM books
			  ORDER BY created_at
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Book
	for rows.Next() {
		var item models.Book
		if err := rows.Scan(&item.ID, &item.Title, &item.Author,
			&item.FileKey, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListBookTitles возвращает названия всех книг каталога. Используется
// проверкой на дубликаты при добавлении новой книги.
func (s *Storage) ListBookTitles(ctx context.Context) ([]string, error) {
	const op = "storage.ListBookTitles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT title FROM books`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, title)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
