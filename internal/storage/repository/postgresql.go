// Package repository реализует хранилище данных на основе PostgreSQL
// для библиотеки: пользователи с состоянием подписки и окнами использования,
// каталог книг и заявки на смену тарифа.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ожидаемые ошибки хранилища. Вызывающие слои сопоставляют их через errors.Is
// и превращают в типизированные отказы, а не в падение обработчика.
var (
	// ErrUserNotFound пользователь с таким именем не существует.
	ErrUserNotFound = errors.New("user not found")
	// ErrBookNotFound книга с таким идентификатором не существует.
	ErrBookNotFound = errors.New("book not found")
	// ErrRequestNotFound заявка с таким идентификатором не существует.
	ErrRequestNotFound = errors.New("subscription request not found")
	// ErrRequestProcessed заявка уже обработана.
	ErrRequestProcessed = errors.New("subscription request already processed")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями, книгами и заявками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}
