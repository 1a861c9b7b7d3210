package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomly/pkg/logger"
	"roomly/pkg/model"
)

type stubLockRepo struct {
	deleteExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (s *stubLockRepo) Acquire(context.Context, *model.BookingLock) error { return nil }

func (s *stubLockRepo) Release(context.Context, *model.BookingLock) error { return nil }

func (s *stubLockRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.deleteExpiredFunc(ctx, now)
}

func TestNewLockSweeper_RejectsBadSchedule(t *testing.T) {
	_, err := NewLockSweeper(&stubLockRepo{}, "every minute please", logger.Discard())
	if err == nil {
		t.Fatal("expected an error for an unparsable schedule")
	}
}

func TestLockSweeper_SweepPassesCurrentTime(t *testing.T) {
	fixed := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	var got time.Time
	repo := &stubLockRepo{deleteExpiredFunc: func(_ context.Context, now time.Time) (int64, error) {
		got = now
		return 2, nil
	}}

	s, err := NewLockSweeper(repo, "@every 1m", logger.Discard())
	if err != nil {
		t.Fatalf("NewLockSweeper() error = %v", err)
	}
	s.now = func() time.Time { return fixed }

	n, err := s.Sweep(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("Sweep() = %d, %v; want 2, nil", n, err)
	}
	if !got.Equal(fixed) {
		t.Errorf("DeleteExpired called with %v, want %v", got, fixed)
	}
}

func TestLockSweeper_RunSurvivesRepositoryError(t *testing.T) {
	calls := 0
	repo := &stubLockRepo{deleteExpiredFunc: func(context.Context, time.Time) (int64, error) {
		calls++
		return 0, errors.New("store unavailable")
	}}

	s, err := NewLockSweeper(repo, "@every 1m", logger.Discard())
	if err != nil {
		t.Fatalf("NewLockSweeper() error = %v", err)
	}
	s.run()
	if calls != 1 {
		t.Errorf("expected one sweep, got %d", calls)
	}
}

func TestLockSweeper_StartStop(t *testing.T) {
	repo := &stubLockRepo{deleteExpiredFunc: func(context.Context, time.Time) (int64, error) { return 0, nil }}
	s, err := NewLockSweeper(repo, "@every 1h", logger.Discard())
	if err != nil {
		t.Fatalf("NewLockSweeper() error = %v", err)
	}

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
