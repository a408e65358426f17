package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okunevama/bookvault/internal/models"
)

// SubmitRequest создаёт заявку на смену тарифа либо возвращает уже
// существующую pending-заявку той же пары (пользователь, план).
// Уникальность обеспечивает частичный индекс в базе, поэтому два
// конкурентных запроса не создадут дубликат. Второй результат — true,
// если заявка была создана этим вызовом.
func (s *Storage) SubmitRequest(ctx context.Context, username, plan, note string) (*models.SubscriptionRequest, bool, error) {
	const op = "storage.SubmitRequest"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	insert := `INSERT INTO subscription_requests (username, plan, note)
			   VALUES ($1, $2, $3)
			   ON CONFLICT (username, plan) WHERE status = 'pending' DO NOTHING
			   RETURNING id, username, plan, status, COALESCE(note, ''), created_at`
	req := &models.SubscriptionRequest{}
	err := s.DB.QueryRowContext(ctx, insert, username, plan, nullableText(note)).Scan(
		&req.ID, &req.Username, &req.Plan, &req.Status, &req.Note, &req.CreatedAt)
	if err == nil {
		return req, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	// Вставка не прошла по индексу: возвращаем существующую pending-заявку.
	query := `SELECT id, username, plan, status, COALESCE(note, ''), created_at
			  FROM subscription_requests
			  WHERE username = $1 AND plan = $2 AND status = 'pending'`
	if err := s.DB.QueryRowContext(ctx, query, username, plan).Scan(
		&req.ID, &req.Username, &req.Plan, &req.Status, &req.Note, &req.CreatedAt); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return req, false, nil
}

// ApproveRequest обрабатывает заявку и выдаёт подписку одной транзакцией:
// либо заявка помечена processed и права пользователя обновлены, либо
// не произошло ничего. Возвращает обработанную заявку с почтой
// пользователя для уведомления.
func (s *Storage) ApproveRequest(ctx context.Context, requestID string, now, end time.Time) (*models.SubscriptionRequest, error) {
	const op = "storage.ApproveRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	req := &models.SubscriptionRequest{}
	var processedAt sql.NullTime
	query := `SELECT r.id, r.username, u.email, r.plan, r.status, COALESCE(r.note, ''),
			      r.created_at, r.processed_at
			  FROM subscription_requests r
			  JOIN users u ON u.username = r.username
			  WHERE r.id = $1
			  FOR UPDATE OF r`
	if err := tx.QueryRowContext(ctx, query, requestID).Scan(
		&req.ID, &req.Username, &req.Email, &req.Plan, &req.Status, &req.Note,
		&req.CreatedAt, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrRequestNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.Status == models.RequestProcessed {
		return nil, fmt.Errorf("%s: %w", op, ErrRequestProcessed)
	}

	grant := `UPDATE users
			  SET subscription_plan = $2,
			      subscription_status = 'active',
			      subscription_start = $3,
			      subscription_end = $4,
			      period_started_at = $3,
			      read_in_period = '{}',
			      downloaded_in_period = '{}'
			  WHERE username = $1`
	if _, err := tx.ExecContext(ctx, grant, req.Username, req.Plan, now, end); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mark := `UPDATE subscription_requests
			 SET status = 'processed', processed_at = $2
			 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, mark, requestID, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req.Status = models.RequestProcessed
	req.ProcessedAt = &now
	return req, nil
}

// DismissRequest помечает заявку обработанной без выдачи подписки.
// Повторный вызов по уже обработанной заявке — no-op.
func (s *Storage) DismissRequest(ctx context.Context, requestID string, now time.Time) (*models.SubscriptionRequest, error) {
	const op = "storage.DismissRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscription_requests
			  SET status = 'processed',
			      processed_at = COALESCE(processed_at, $2)
			  WHERE id = $1
			  RETURNING id, username, plan, status, COALESCE(note, ''), created_at, processed_at`
	req := &models.SubscriptionRequest{}
	var processedAt sql.NullTime
	if err := s.DB.QueryRowContext(ctx, query, requestID, now).Scan(
		&req.ID, &req.Username, &req.Plan, &req.Status, &req.Note,
		&req.CreatedAt, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrRequestNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if processedAt.Valid {
		req.ProcessedAt = &processedAt.Time
	}
	return req, nil
}

// ListRequests возвращает заявки с фильтром по статусу (пустая строка —
// без фильтра). Исторические дубликаты по тройке (пользователь, план,
// статус) схлопываются до самой свежей записи.
func (s *Storage) ListRequests(ctx context.Context, status string) ([]*models.SubscriptionRequest, error) {
	const op = "storage.ListRequests"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT DISTINCT ON (username, plan, status)
			      id, username, plan, status, COALESCE(note, ''), created_at, processed_at
			  FROM subscription_requests
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY username, plan, status, created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionRequest
	for rows.Next() {
		req := &models.SubscriptionRequest{}
		var processedAt sql.NullTime
		if err := rows.Scan(&req.ID, &req.Username, &req.Plan, &req.Status, &req.Note,
			&req.CreatedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if processedAt.Valid {
			req.ProcessedAt = &processedAt.Time
		}
		result = append(result, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
