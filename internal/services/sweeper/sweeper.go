// Package sweeper реализует фоновую зачистку просроченных подписок:
// периодически переводит записи со статусом active и прошедшей датой
// окончания в expired.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/okunevama/bookvault/internal/lib/sl"
)

// SubscriptionExpirer определяет метод хранилища для массового перевода
// просроченных подписок в expired.
type SubscriptionExpirer interface {
	ExpireLapsedSubscriptions(ctx context.Context) (int64, error)
}

// Sweeper периодически запускает зачистку просроченных подписок.
type Sweeper struct {
	repo     SubscriptionExpirer
	log      *slog.Logger
	interval time.Duration
}

// New создает новый экземпляр Sweeper с заданным интервалом запуска.
func New(repo SubscriptionExpirer, log *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		repo:     repo,
		log:      log,
		interval: interval,
	}
}

// Run выполняет зачистку сразу при старте и далее по тикеру до отмены
// контекста. Ошибка одного прохода логируется и не останавливает цикл.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("sweeper started", slog.Duration("interval", s.interval))

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.repo.ExpireLapsedSubscriptions(ctx)
	if err != nil {
		s.log.Error("sweep failed", sl.Err(err))
		return
	}
	if expired > 0 {
		s.log.Info("subscriptions expired", slog.Int64("count", expired))
	}
}
