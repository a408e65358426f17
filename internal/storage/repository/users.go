package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okunevama/bookvault/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Подписка нового пользователя отсутствует: план none, статус none.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username вместе
// с состоянием подписки и окна использования.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role,
			      subscription_plan, subscription_status,
			      subscription_start, subscription_end, period_started_at,
			      array_to_string(read_in_period, ','),
			      array_to_string(downloaded_in_period, ',')
			  FROM users
			  WHERE username = $1`
	row := s.DB.QueryRowContext(ctx, query, username)

	u := &models.User{}
	var start, end, periodStart sql.NullTime
	var readList, downloadedList string
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.SubscriptionPlan, &u.SubscriptionStatus,
		&start, &end, &periodStart, &readList, &downloadedList); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if start.Valid {
		u.SubscriptionStart = &start.Time
	}
	if end.Valid {
		u.SubscriptionEnd = &end.Time
	}
	if periodStart.Valid {
		u.PeriodStartedAt = &periodStart.Time
	}
	u.ReadInPeriod = splitSet(readList)
	u.DownloadedInPeriod = splitSet(downloadedList)
	return u, nil
}

// GrantEntitlement безусловно выдаёт пользователю подписку: план, статус
// active, начало и окончание, свежее окно использования. Возвращает
// количество затронутых строк — 0 означает, что пользователя нет.
func (s *Storage) GrantEntitlement(ctx context.Context, username, plan string, now, end time.Time) (int64, error) {
	const op = "storage.GrantEntitlement"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_plan = $2,
			      subscription_status = 'active',
			      subscription_start = $3,
			      subscription_end = $4,
			      period_started_at = $3,
			      read_in_period = '{}',
			      downloaded_in_period = '{}'
			  WHERE username = $1`
	res, err := s.DB.ExecContext(ctx, query, username, plan, now, end)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// CancelEntitlement немедленно отменяет подписку: статус expired, план none,
// окончание — сейчас. Дата начала и история использования не трогаются.
func (s *Storage) CancelEntitlement(ctx context.Context, username string, now time.Time) (int64, error) {
	const op = "storage.CancelEntitlement"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = 'expired',
			      subscription_plan = 'none',
			      subscription_end = $2
			  WHERE username = $1`
	res, err := s.DB.ExecContext(ctx, query, username, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// ResetUsagePeriod открывает новое окно использования: обнуляет оба набора
// и переносит якорь. Условие в WHERE оставляет запрос идемпотентным при
// конкурентных вызовах — свежее окно повторно не обнуляется.
func (s *Storage) ResetUsagePeriod(ctx context.Context, username string, now time.Time) error {
	const op = "storage.ResetUsagePeriod"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET period_started_at = $2,
			      read_in_period = '{}',
			      downloaded_in_period = '{}'
			  WHERE username = $1
			    AND (period_started_at IS NULL OR period_started_at < $2 - INTERVAL '30 days')`
	if _, err := s.DB.ExecContext(ctx, query, username, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConsumeRead добавляет книгу в набор прочитанных за окно одним условным
// обновлением: вставка происходит только если книги ещё нет в наборе и
// квота не исчерпана. Возвращает true, если книга была добавлена.
func (s *Storage) ConsumeRead(ctx context.Context, username, bookID string, limit int) (bool, error) {
	const op = "storage.ConsumeRead"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET read_in_period = array_append(read_in_period, $2)
			  WHERE username = $1
			    AND NOT (read_in_period @> ARRAY[$2])
			    AND cardinality(read_in_period) < $3`
	res, err := s.DB.ExecContext(ctx, query, username, bookID, limit)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// ConsumeDownload добавляет книгу в набор скачанных за окно, по тем же
// правилам, что и ConsumeRead.
func (s *Storage) ConsumeDownload(ctx context.Context, username, bookID string, limit int) (bool, error) {
	const op = "storage.ConsumeDownload"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET downloaded_in_period = array_append(downloaded_in_period, $2)
			  WHERE username = $1
			    AND NOT (downloaded_in_period @> ARRAY[$2])
			    AND cardinality(downloaded_in_period) < $3`
	res, err := s.DB.ExecContext(ctx, query, username, bookID, limit)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// ExpireLapsedSubscriptions переводит в expired все активные подписки,
// срок которых уже прошёл. Повторный запуск по тем же строкам ничего
// не меняет, поэтому пересечение двух проходов безопасно.
func (s *Storage) ExpireLapsedSubscriptions(ctx context.Context) (int64, error) {
	const op = "storage.ExpireLapsedSubscriptions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = 'expired'
			  WHERE subscription_status = 'active'
			    AND subscription_end IS NOT NULL
			    AND subscription_end < now()`
	res, err := s.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

func splitSet(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
