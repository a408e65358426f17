package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okunevama/bookvault/internal/models"
)

func TestStorage_GetUserByUsername(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	end := now.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		username string
		wantErr  error
		check    func(t *testing.T, got *models.User)
		setup    func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name:     "user with active subscription",
			username: "reader",
			check: func(t *testing.T, got *models.User) {
				assert.Equal(t, models.PlanPremium, got.SubscriptionPlan)
				assert.Equal(t, models.StatusActive, got.SubscriptionStatus)
				require.NotNil(t, got.SubscriptionEnd)
				assert.WithinDuration(t, end, *got.SubscriptionEnd, time.Second)
				assert.Empty(t, got.ReadInPeriod)
			},
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUserWithSubscription(t, "reader", "reader@example.com",
					models.PlanPremium, models.StatusActive, now, end, now)
			},
		},
		{
			name:     "fresh user without subscription",
			username: "newbie",
			check: func(t *testing.T, got *models.User) {
				assert.Equal(t, models.PlanNone, got.SubscriptionPlan)
				assert.Equal(t, models.StatusNone, got.SubscriptionStatus)
				assert.Nil(t, got.SubscriptionEnd)
				assert.Nil(t, got.PeriodStartedAt)
			},
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "newbie", "newbie@example.com")
			},
		},
		{
			name:     "non-existing user",
			username: "ghost",
			wantErr:  ErrUserNotFound,
			setup:    func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()

			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			got, err := storage.GetUserByUsername(context.Background(), tt.username)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestStorage_RegisterUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	uid, err := storage.RegisterUser(ctx, models.User{
		Email:              "new@example.com",
		Username:           "newbie",
		PasswordHash:       "hashedpassword",
		Role:               "user",
		SubscriptionPlan:   models.PlanNone,
		SubscriptionStatus: models.StatusNone,
	})
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	got, err := storage.GetUserByUsername(ctx, "newbie")
	require.NoError(t, err)
	assert.Equal(t, uid, got.UUID)
	assert.Equal(t, models.PlanNone, got.SubscriptionPlan)
	assert.Equal(t, models.StatusNone, got.SubscriptionStatus)

	// Повторная регистрация того же имени нарушает уникальность.
	_, err = storage.RegisterUser(ctx, models.User{
		Email:        "other@example.com",
		Username:     "newbie",
		PasswordHash: "hashedpassword",
		Role:         "user",
	})
	require.Error(t, err)
}

func TestStorage_ConsumeRead(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	factory.CreateUserWithSubscription(t, "reader", "reader@example.com",
		models.PlanBasic, models.StatusActive, now, now.AddDate(0, 1, 0), now)
	ctx := context.Background()

	// Первое чтение книги попадает в набор.
	added, err := storage.ConsumeRead(ctx, "reader", "book-1", 2)
	require.NoError(t, err)
	assert.True(t, added)
	verify.VerifyUsageCounts(t, "reader", 1, 0)

	// Повторное чтение той же книги квоту не тратит.
	added, err = storage.ConsumeRead(ctx, "reader", "book-1", 2)
	require.NoError(t, err)
	assert.False(t, added)
	verify.VerifyUsageCounts(t, "reader", 1, 0)

	// Вторая книга занимает последний слот.
	added, err = storage.ConsumeRead(ctx, "reader", "book-2", 2)
	require.NoError(t, err)
	assert.True(t, added)
	verify.VerifyUsageCounts(t, "reader", 2, 0)

	// Квота исчерпана: третья книга не проходит.
	added, err = storage.ConsumeRead(ctx, "reader", "book-3", 2)
	require.NoError(t, err)
	assert.False(t, added)
	verify.VerifyUsageCounts(t, "reader", 2, 0)

	// Но уже прочитанная книга по-прежнему не добавляется и не ломается.
	added, err = storage.ConsumeRead(ctx, "reader", "book-2", 2)
	require.NoError(t, err)
	assert.False(t, added)
	verify.VerifyUsageCounts(t, "reader", 2, 0)
}

func TestStorage_ConsumeDownload(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	factory.CreateUserWithSubscription(t, "reader", "reader@example.com",
		models.PlanBasic, models.StatusActive, now, now.AddDate(0, 1, 0), now)
	ctx := context.Background()

	added, err := storage.ConsumeDownload(ctx, "reader", "book-1", 1)
	require.NoError(t, err)
	assert.True(t, added)

	// Скачивания считаются отдельно от чтений.
	verify.VerifyUsageCounts(t, "reader", 0, 1)

	added, err = storage.ConsumeDownload(ctx, "reader", "book-2", 1)
	require.NoError(t, err)
	assert.False(t, added)
	verify.VerifyUsageCounts(t, "reader", 0, 1)
}

func TestStorage_GrantEntitlement(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	end := now.AddDate(0, 1, 0)
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	factory.CreateUserWithSubscription(t, "reader", "reader@example.com",
		models.PlanBasic, models.StatusExpired, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0), now.AddDate(0, -2, 0))
	ctx := context.Background()

	// Накопленное использование должно сброситься при выдаче.
	_, err := storage.DB.Exec(
		`UPDATE users SET read_in_period = ARRAY['book-1'] WHERE username = 'reader'`)
	require.NoError(t, err)

	affected, err := storage.GrantEntitlement(ctx, "reader", models.PlanPremium, now, end)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	verify.VerifySubscriptionStatus(t, "reader", models.StatusActive, models.PlanPremium)
	verify.VerifyUsageCounts(t, "reader", 0, 0)

	affected, err = storage.GrantEntitlement(ctx, "ghost", models.PlanPremium, now, end)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestStorage_CancelEntitlement(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	factory.CreateUserWithSubscription(t, "reader", "reader@example.com",
		models.PlanPremium, models.StatusActive, now, now.AddDate(0, 1, 0), now)
	ctx := context.Background()

	affected, err := storage.CancelEntitlement(ctx, "reader", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	verify.VerifySubscriptionStatus(t, "reader", models.StatusExpired, models.PlanNone)

	affected, err = storage.CancelEntitlement(ctx, "ghost", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestStorage_ResetUsagePeriod(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	factory.CreateUserWithSubscription(t, "reader", "reader@example.com",
		models.PlanBasic, models.StatusActive, now.AddDate(0, -2, 0), now.AddDate(0, 1, 0), now.AddDate(0, 0, -31))
	ctx := context.Background()

	_, err := storage.DB.Exec(
		`UPDATE users SET read_in_period = ARRAY['book-1'], downloaded_in_period = ARRAY['book-2']
		 WHERE username = 'reader'`)
	require.NoError(t, err)

	// Окно старше 30 дней открывается заново.
	require.NoError(t, storage.ResetUsagePeriod(ctx, "reader", now))
	verify.VerifyUsageCounts(t, "reader", 0, 0)

	var periodStart time.Time
	err = storage.DB.QueryRow(
		`SELECT period_started_at FROM users WHERE username = 'reader'`).Scan(&periodStart)
	require.NoError(t, err)
	assert.WithinDuration(t, now, periodStart, time.Second)

	// Свежее окно повторный вызов не трогает.
	_, err = storage.DB.Exec(
		`UPDATE users SET read_in_period = ARRAY['book-3'] WHERE username = 'reader'`)
	require.NoError(t, err)
	require.NoError(t, storage.ResetUsagePeriod(ctx, "reader", now))
	verify.VerifyUsageCounts(t, "reader", 1, 0)
}

func TestStorage_SubmitRequest(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "reader", "reader@example.com")
	ctx := context.Background()

	first, created, err := storage.SubmitRequest(ctx, "reader", models.PlanBasic, "please")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RequestPending, first.Status)
	assert.Equal(t, "please", first.Note)

	// Повторная заявка на тот же план возвращает существующую.
	second, created, err := storage.SubmitRequest(ctx, "reader", models.PlanBasic, "again")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "please", second.Note)

	// Заявка на другой план живёт отдельно.
	third, created, err := storage.SubmitRequest(ctx, "reader", models.PlanPremium, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestStorage_ApproveRequest(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	end := now.AddDate(0, 1, 0)
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	factory.CreateUser(t, "reader", "reader@example.com")
	requestID := factory.CreateRequest(t, "reader", models.PlanPremium, models.RequestPending)
	ctx := context.Background()

	req, err := storage.ApproveRequest(ctx, requestID, now, end)
	require.NoError(t, err)
	assert.Equal(t, models.RequestProcessed, req.Status)
	assert.Equal(t, "reader@example.com", req.Email)
	require.NotNil(t, req.ProcessedAt)

	// Подписка выдана и заявка помечена одной транзакцией.
	verify.VerifySubscriptionStatus(t, "reader", models.StatusActive, models.PlanPremium)
	verify.VerifyRequestStatus(t, requestID, models.RequestProcessed)

	_, err = storage.ApproveRequest(ctx, requestID, now, end)
	require.ErrorIs(t, err, ErrRequestProcessed)

	_, err = storage.ApproveRequest(ctx, "00000000-0000-0000-0000-000000000000", now, end)
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestStorage_DismissRequest(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	factory.CreateUser(t, "reader", "reader@example.com")
	requestID := factory.CreateRequest(t, "reader", models.PlanBasic, models.RequestPending)
	ctx := context.Background()

	req, err := storage.DismissRequest(ctx, requestID, now)
	require.NoError(t, err)
	assert.Equal(t, models.RequestProcessed, req.Status)
	require.NotNil(t, req.ProcessedAt)

	// Отклонение подписку не выдаёт.
	verify.VerifySubscriptionStatus(t, "reader", models.StatusNone, models.PlanNone)

	// Повторный вызов — no-op с исходным временем обработки.
	again, err := storage.DismissRequest(ctx, requestID, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, again.ProcessedAt)
	assert.WithinDuration(t, *req.ProcessedAt, *again.ProcessedAt, time.Second)

	_, err = storage.DismissRequest(ctx, "00000000-0000-0000-0000-000000000000", now)
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestStorage_ListRequests(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "reader", "reader@example.com")
	factory.CreateUser(t, "other", "other@example.com")
	factory.CreateRequest(t, "reader", models.PlanBasic, models.RequestPending)
	factory.CreateRequest(t, "reader", models.PlanPremium, models.RequestProcessed)
	factory.CreateRequest(t, "other", models.PlanBasic, models.RequestPending)
	ctx := context.Background()

	all, err := storage.ListRequests(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := storage.ListRequests(ctx, models.RequestPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, req := range pending {
		assert.Equal(t, models.RequestPending, req.Status)
	}
}

func TestStorage_ExpireLapsedSubscriptions(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	now := time.Now().UTC()
	factory := NewTestDataFactory(storage)
	verify := NewTestVerification(storage)
	// Просроченная активная, действующая активная и уже погашенная.
	factory.CreateUserWithSubscription(t, "lapsed", "lapsed@example.com",
		models.PlanBasic, models.StatusActive, now.AddDate(0, -2, 0), now.AddDate(0, -1, 0), now.AddDate(0, -2, 0))
	factory.CreateUserWithSubscription(t, "current", "current@example.com",
		models.PlanPremium, models.StatusActive, now, now.AddDate(0, 1, 0), now)
	factory.CreateUserWithSubscription(t, "gone", "gone@example.com",
		models.PlanBasic, models.StatusExpired, now.AddDate(0, -3, 0), now.AddDate(0, -2, 0), now.AddDate(0, -3, 0))
	ctx := context.Background()

	affected, err := storage.ExpireLapsedSubscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	verify.VerifySubscriptionStatus(t, "lapsed", models.StatusExpired, models.PlanBasic)
	verify.VerifySubscriptionStatus(t, "current", models.StatusActive, models.PlanPremium)

	// Повторный проход ничего не находит.
	affected, err = storage.ExpireLapsedSubscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestStorage_Books(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	id, err := storage.CreateBook(ctx, models.Book{
		Title:   "Мастер и Маргарита",
		Author:  "Булгаков",
		FileKey: "books/master.epub",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := storage.ReadBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Мастер и Маргарита", got.Title)
	assert.Equal(t, "books/master.epub", got.FileKey)

	_, err = storage.ReadBook(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrBookNotFound)

	_, err = storage.CreateBook(ctx, models.Book{Title: "Ревизор", Author: "Гоголь", FileKey: "books/revizor.epub"})
	require.NoError(t, err)

	list, err := storage.ListBooks(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	page, err := storage.ListBooks(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	titles, err := storage.ListBookTitles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Мастер и Маргарита", "Ревизор"}, titles)
}
