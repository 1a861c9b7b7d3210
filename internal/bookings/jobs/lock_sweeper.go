package jobs

import (
	"context"
	"fmt"
	"time"

	"roomly/internal/bookings/repository"
	"roomly/pkg/logger"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 30 * time.Second

// LockSweeper periodically deletes booking locks whose holders crashed or
// timed out before releasing them. Acquire already takes over expired
// locks, so sweeping only keeps the lock store small.
type LockSweeper struct {
	locks repository.BookingLockRepository
	cron  *cron.Cron
	log   *logger.Logger
	now   func() time.Time
}

func NewLockSweeper(locks repository.BookingLockRepository, schedule string, log *logger.Logger) (*LockSweeper, error) {
	s := &LockSweeper{
		locks: locks,
		cron:  cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:   log,
		now:   time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid lock sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *LockSweeper) Start() {
	s.cron.Start()
	s.log.Info("Booking lock sweeper started", "entries", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (s *LockSweeper) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep deletes every lock that expired before now.
func (s *LockSweeper) Sweep(ctx context.Context) (int64, error) {
	return s.locks.DeleteExpired(ctx, s.now().UTC())
}

func (s *LockSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	deleted, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("Failed to sweep expired booking locks", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("Expired booking locks removed", "count", deleted)
	}
}
