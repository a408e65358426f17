// Package entitlement реализует бизнес-логику прав доступа к библиотеке:
// жизненный цикл подписки (выдача, отмена, истечение) и контроль квот
// чтения и скачивания в пределах 30-дневного окна использования.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/okunevama/bookvault/internal/lib/period"
	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
	"github.com/okunevama/bookvault/internal/storage/repository"
)

// Term длительность подписки, выдаваемой одним grant.
const Term = 30 * 24 * time.Hour

// Action тип действия пользователя с книгой.
type Action string

// Допустимые действия.
const (
	ActionRead     Action = "read"
	ActionDownload Action = "download"
)

// Reason типизированная причина отказа в доступе.
type Reason string

// Причины отказа.
const (
	ReasonNotFound      Reason = "not_found"
	ReasonInactive      Reason = "subscription_inactive"
	ReasonNoActivePlan  Reason = "no_active_plan"
	ReasonQuotaExceeded Reason = "quota_exceeded"
)

// Decision результат проверки доступа. При отказе Message содержит
// человекочитаемое объяснение для показа пользователю.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

func allowed() Decision {
	return Decision{Allowed: true}
}

func denied(reason Reason, message string) Decision {
	return Decision{Reason: reason, Message: message}
}

// UserRepository определяет методы хранилища, нужные движку прав доступа.
type UserRepository interface {
	// GetUserByUsername возвращает пользователя с состоянием подписки.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GrantEntitlement безусловно выдаёт подписку, 0 строк — пользователя нет.
	GrantEntitlement(ctx context.Context, username, plan string, now, end time.Time) (int64, error)
	// CancelEntitlement отменяет подписку, 0 строк — пользователя нет.
	CancelEntitlement(ctx context.Context, username string, now time.Time) (int64, error)
	// ResetUsagePeriod открывает новое окно использования.
	ResetUsagePeriod(ctx context.Context, username string, now time.Time) error
	// ConsumeRead условно добавляет книгу в набор прочитанных.
	ConsumeRead(ctx context.Context, username, bookID string, limit int) (bool, error)
	// ConsumeDownload условно добавляет книгу в набор скачанных.
	ConsumeDownload(ctx context.Context, username, bookID string, limit int) (bool, error)
}

// Engine проверяет и изменяет права доступа пользователей.
type Engine struct {
	repo UserRepository
	log  *slog.Logger
}

// New создает новый экземпляр Engine.
func New(repo UserRepository, log *slog.Logger) *Engine {
	return &Engine{
		repo: repo,
		log:  log,
	}
}

// CheckAndConsume проверяет право пользователя на действие с книгой и,
// если действие разрешено, учитывает его в квоте текущего окна.
//
// Статус в базе не является истиной в последней инстанции: подписка с
// прошедшей датой окончания отклоняется даже при статусе active. Запись
// статуса при этом не исправляется — это делает фоновая зачистка или
// явная отмена.
//
// Повторное обращение к уже учтённой книге разрешается без расхода квоты.
func (e *Engine) CheckAndConsume(ctx context.Context, username, bookID string, action Action) (Decision, error) {
	const op = "entitlement.CheckAndConsume"
	now := time.Now()

	u, err := e.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return denied(ReasonNotFound, "user not found"), nil
		}
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	if u.SubscriptionStatus != models.StatusActive ||
		u.SubscriptionEnd == nil || u.SubscriptionEnd.Before(now) {
		return denied(ReasonInactive, "subscription is not active"), nil
	}

	if period.ResetIfNeeded(u, now) {
		if err := e.repo.ResetUsagePeriod(ctx, username, now); err != nil {
			return Decision{}, fmt.Errorf("%s: %w", op, err)
		}
		e.log.Info("usage period reset", slog.String("username", username))
	}

	limits := models.LimitsFor(u.SubscriptionPlan)
	if limits.MaxReads == 0 && limits.MaxDownloads == 0 {
		return denied(ReasonNoActivePlan, "no active plan"), nil
	}

	usageSet, limit := u.ReadInPeriod, limits.MaxReads
	consume := e.repo.ConsumeRead
	if action == ActionDownload {
		usageSet, limit = u.DownloadedInPeriod, limits.MaxDownloads
		consume = e.repo.ConsumeDownload
	}

	if slices.Contains(usageSet, bookID) {
		return allowed(), nil
	}

	added, err := consume(ctx, username, bookID, limit)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if added {
		return allowed(), nil
	}

	// Условное обновление не прошло: либо квота исчерпана, либо книгу
	// успел учесть конкурентный запрос. Перечитываем и различаем.
	fresh, err := e.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	freshSet := fresh.ReadInPeriod
	if action == ActionDownload {
		freshSet = fresh.DownloadedInPeriod
	}
	if slices.Contains(freshSet, bookID) {
		return allowed(), nil
	}
	return denied(ReasonQuotaExceeded, fmt.Sprintf("%s limit reached for the current period", action)), nil
}

// Grant безусловно выдаёт пользователю подписку на план: статус active,
// начало — сейчас, окончание — через 30 дней, свежее окно использования.
// Работает из любого предыдущего состояния.
func (e *Engine) Grant(ctx context.Context, username, plan string) error {
	const op = "entitlement.Grant"
	now := time.Now()

	rows, err := e.repo.GrantEntitlement(ctx, username, plan, now, now.Add(Term))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrUserNotFound)
	}

	e.log.Info("entitlement granted",
		slog.String("username", username), slog.String("plan", plan))
	return nil
}

// Cancel немедленно отменяет подписку пользователя: статус expired,
// план none, окончание — сейчас. История использования не трогается.
func (e *Engine) Cancel(ctx context.Context, username string) error {
	const op = "entitlement.Cancel"

	rows, err := e.repo.CancelEntitlement(ctx, username, time.Now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrUserNotFound)
	}

	e.log.Info("entitlement cancelled", slog.String("username", username))
	return nil
}

// BulkGrant выдаёт подписку каждому из пользователей независимо.
// Ошибка по одному пользователю не прерывает остальных; возвращается
// количество успешно обработанных записей.
func (e *Engine) BulkGrant(ctx context.Context, usernames []string, plan string) (int, error) {
	var affected int
	for _, username := range usernames {
		if err := ctx.Err(); err != nil {
			return affected, err
		}
		if err := e.Grant(ctx, username, plan); err != nil {
			e.log.Warn("bulk grant: skipping user",
				slog.String("username", username), sl.Err(err))
			continue
		}
		affected++
	}
	return affected, nil
}

// BulkCancel отменяет подписку каждому из пользователей независимо,
// по тем же правилам, что и BulkGrant.
func (e *Engine) BulkCancel(ctx context.Context, usernames []string) (int, error) {
	var affected int
	for _, username := range usernames {
		if err := ctx.Err(); err != nil {
			return affected, err
		}
		if err := e.Cancel(ctx, username); err != nil {
			e.log.Warn("bulk cancel: skipping user",
				slog.String("username", username), sl.Err(err))
			continue
		}
		affected++
	}
	return affected, nil
}
