package listener

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/feed"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Scheduler periodically claims the sources whose sync interval has elapsed.
// Claimed sources are announced on the sync results topic by the use case.
type Scheduler struct {
	uc       feed.UseCase
	logger   logger.ZapLogger
	interval time.Duration
	now      func() time.Time
}

func NewScheduler(uc feed.UseCase, interval time.Duration, logger logger.ZapLogger) *Scheduler {
	return &Scheduler{
		uc:       uc,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start checks once immediately, then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting sync scheduler", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping sync scheduler")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	due, err := s.uc.SyncDue(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Failed to claim due sources", zap.Error(err))
		}
		return
	}
	for _, src := range due {
		s.logger.Info("Source due for sync",
			zap.String("source_id", src.ID),
			zap.String("kind", string(src.Kind)),
		)
	}
}
