// Package request реализует бизнес-логику заявок на подписку: подача
// пользователем, одобрение и отклонение администратором, листинг очереди.
package request

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/okunevama/bookvault/internal/lib/sl"
	"github.com/okunevama/bookvault/internal/models"
	"github.com/okunevama/bookvault/internal/services/entitlement"
)

// RequestRepository определяет методы хранилища для очереди заявок.
type RequestRepository interface {
	// SubmitRequest создаёт заявку либо возвращает уже существующую
	// pending-заявку этой пары (пользователь, план). Второй результат —
	// была ли заявка создана этим вызовом.
	SubmitRequest(ctx context.Context, username, plan, note string) (*models.SubscriptionRequest, bool, error)
	// ApproveRequest в одной транзакции выдаёт подписку и помечает
	// заявку обработанной.
	ApproveRequest(ctx context.Context, requestID string, now, end time.Time) (*models.SubscriptionRequest, error)
	// DismissRequest помечает заявку обработанной без выдачи подписки.
	DismissRequest(ctx context.Context, requestID string, now time.Time) (*models.SubscriptionRequest, error)
	// ListRequests возвращает заявки, опционально фильтруя по статусу.
	ListRequests(ctx context.Context, status string) ([]*models.SubscriptionRequest, error)
}

// EventPublisher отправляет событие об одобренной заявке в очередь
// уведомлений.
type EventPublisher interface {
	Publish(event any) error
}

// Service реализует операции над очередью заявок.
type Service struct {
	repo      RequestRepository
	publisher EventPublisher
	log       *slog.Logger
}

// New создает новый экземпляр Service. publisher может быть nil, если
// уведомления отключены.
func New(repo RequestRepository, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Submit подаёт заявку на подписку. Если у пользователя уже есть
// необработанная заявка на этот план, возвращается она, а не создаётся
// новая. Второй результат — была ли заявка создана этим вызовом.
func (s *Service) Submit(ctx context.Context, username, plan, note string) (*models.SubscriptionRequest, bool, error) {
	const op = "request.Submit"

	if !models.KnownPlan(plan) {
		return nil, false, fmt.Errorf("%s: unknown plan %q", op, plan)
	}

	req, created, err := s.repo.SubmitRequest(ctx, username, plan, note)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if created {
		s.log.Info("subscription request submitted",
			slog.String("username", username), slog.String("plan", plan))
	}
	return req, created, nil
}

// Approve одобряет заявку: пользователю выдаётся подписка на запрошенный
// план, заявка переводится в processed. Обе записи меняются в одной
// транзакции. После фиксации публикуется событие для отправки письма;
// сбой публикации не откатывает одобрение.
func (s *Service) Approve(ctx context.Context, requestID string) (*models.SubscriptionRequest, error) {
	const op = "request.Approve"
	now := time.Now()

	req, err := s.repo.ApproveRequest(ctx, requestID, now, now.Add(entitlement.Term))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription request approved",
		slog.String("request_id", req.ID),
		slog.String("username", req.Username),
		slog.String("plan", req.Plan))

	if s.publisher != nil {
		event := models.GrantedEvent{
			Email:    req.Email,
			Username: req.Username,
			Plan:     req.Plan,
			EndDate:  now.Add(entitlement.Term),
		}
		if err := s.publisher.Publish(event); err != nil {
			s.log.Warn("failed to publish granted event",
				slog.String("username", req.Username), sl.Err(err))
		}
	}
	return req, nil
}

// Dismiss отклоняет заявку: она помечается обработанной, подписка
// пользователя не меняется. Повторный вызов безопасен.
func (s *Service) Dismiss(ctx context.Context, requestID string) (*models.SubscriptionRequest, error) {
	const op = "request.Dismiss"

	req, err := s.repo.DismissRequest(ctx, requestID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription request dismissed", slog.String("request_id", req.ID))
	return req, nil
}

// List возвращает заявки очереди. Пустой статус — все заявки.
func (s *Service) List(ctx context.Context, status string) ([]*models.SubscriptionRequest, error) {
	const op = "request.List"

	requests, err := s.repo.ListRequests(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return requests, nil
}
