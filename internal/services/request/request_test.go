package request

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
	"github.com/okunevama/bookvault/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) SubmitRequest(ctx context.Context, username, plan, note string) (*models.SubscriptionRequest, bool, error) {
	args := m.Called(ctx, username, plan, note)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.SubscriptionRequest), args.Bool(1), args.Error(2)
}
func (m *RepoMock) ApproveRequest(ctx context.Context, requestID string, now, end time.Time) (*models.SubscriptionRequest, error) {
	args := m.Called(ctx, requestID, now, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionRequest), args.Error(1)
}
func (m *RepoMock) DismissRequest(ctx context.Context, requestID string, now time.Time) (*models.SubscriptionRequest, error) {
	args := m.Called(ctx, requestID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionRequest), args.Error(1)
}
func (m *RepoMock) ListRequests(ctx context.Context, status string) ([]*models.SubscriptionRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionRequest), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(event any) error {
	return m.Called(event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func pendingRequest() *models.SubscriptionRequest {
	return &models.SubscriptionRequest{
		ID:        "req-1",
		Username:  "testuser",
		Email:     "test@example.com",
		Plan:      models.PlanPremium,
		Status:    models.RequestPending,
		CreatedAt: time.Now(),
	}
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name        string
		plan        string
		setupMocks  func(r *RepoMock)
		wantCreated bool
		wantErr     bool
	}{
		{
			name: "новая заявка",
			plan: models.PlanPremium,
			setupMocks: func(r *RepoMock) {
				r.On("SubmitRequest", mock.Anything, "testuser", models.PlanPremium, "hi").
					Return(pendingRequest(), true, nil)
			},
			wantCreated: true,
		},
		{
			name: "повторная подача возвращает существующую заявку",
			plan: models.PlanPremium,
			setupMocks: func(r *RepoMock) {
				r.On("SubmitRequest", mock.Anything, "testuser", models.PlanPremium, "hi").
					Return(pendingRequest(), false, nil)
			},
			wantCreated: false,
		},
		{
			name:       "неизвестный план",
			plan:       "platinum",
			setupMocks: func(r *RepoMock) {},
			wantErr:    true,
		},
		{
			name: "ошибка хранилища",
			plan: models.PlanBasic,
			setupMocks: func(r *RepoMock) {
				r.On("SubmitRequest", mock.Anything, "testuser", models.PlanBasic, "hi").
					Return(nil, false, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repoMock := new(RepoMock)
			tt.setupMocks(repoMock)

			service := New(repoMock, nil, newNoopLogger())
			req, created, err := service.Submit(context.Background(), "testuser", tt.plan, "hi")

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, "req-1", req.ID)
			repoMock.AssertExpectations(t)
		})
	}
}

func TestApprove(t *testing.T) {
	t.Run("одобрение публикует событие", func(t *testing.T) {
		repoMock := new(RepoMock)
		publisherMock := new(PublisherMock)

		approved := pendingRequest()
		approved.Status = models.RequestProcessed
		repoMock.On("ApproveRequest", mock.Anything, "req-1", mock.Anything, mock.Anything).
			Return(approved, nil)
		publisherMock.On("Publish", mock.MatchedBy(func(event any) bool {
			granted, ok := event.(models.GrantedEvent)
			return ok && granted.Email == "test@example.com" && granted.Plan == models.PlanPremium
		})).Return(nil)

		service := New(repoMock, publisherMock, newNoopLogger())
		req, err := service.Approve(context.Background(), "req-1")

		require.NoError(t, err)
		assert.Equal(t, models.RequestProcessed, req.Status)
		publisherMock.AssertExpectations(t)
	})

	t.Run("сбой публикации не срывает одобрение", func(t *testing.T) {
		repoMock := new(RepoMock)
		publisherMock := new(PublisherMock)

		approved := pendingRequest()
		approved.Status = models.RequestProcessed
		repoMock.On("ApproveRequest", mock.Anything, "req-1", mock.Anything, mock.Anything).
			Return(approved, nil)
		publisherMock.On("Publish", mock.Anything).Return(errors.New("broker down"))

		service := New(repoMock, publisherMock, newNoopLogger())
		_, err := service.Approve(context.Background(), "req-1")

		require.NoError(t, err)
	})

	t.Run("уже обработанная заявка", func(t *testing.T) {
		repoMock := new(RepoMock)
		repoMock.On("ApproveRequest", mock.Anything, "req-1", mock.Anything, mock.Anything).
			Return(nil, repository.ErrRequestProcessed)

		service := New(repoMock, nil, newNoopLogger())
		_, err := service.Approve(context.Background(), "req-1")

		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrRequestProcessed)
	})
}

func TestDismiss(t *testing.T) {
	repoMock := new(RepoMock)
	dismissed := pendingRequest()
	dismissed.Status = models.RequestProcessed
	repoMock.On("DismissRequest", mock.Anything, "req-1", mock.Anything).Return(dismissed, nil)

	service := New(repoMock, nil, newNoopLogger())
	req, err := service.Dismiss(context.Background(), "req-1")

	require.NoError(t, err)
	assert.Equal(t, models.RequestProcessed, req.Status)
}

func TestList(t *testing.T) {
	repoMock := new(RepoMock)
	repoMock.On("ListRequests", mock.Anything, models.RequestPending).
		Return([]*models.SubscriptionRequest{pendingRequest()}, nil)

	service := New(repoMock, nil, newNoopLogger())
	requests, err := service.List(context.Background(), models.RequestPending)

	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "req-1", requests[0].ID)
}
