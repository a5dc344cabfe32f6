package scheduler

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/config"
	"github.com/danpilch/maxfinder/internal/trips"
)

type countingChecker struct {
	mu     sync.Mutex
	checks map[string]int
	resets int
}

func (c *countingChecker) Check(ctx context.Context, w config.WatchConfig) ([]trips.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[w.Name]++
	return nil, nil
}

func (c *countingChecker) ResetNotificationState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
}

func newTestScheduler(watches []config.WatchConfig, checker Checker, clock *time.Time) *Scheduler {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewScheduler(watches, checker, logger)
	s.now = func() time.Time { return *clock }
	return s
}

func TestScheduler_RunsDueWatchesOnInterval(t *testing.T) {
	clock := time.Date(2025, 6, 27, 8, 0, 0, 0, time.UTC) // a Friday
	checker := &countingChecker{checks: make(map[string]int)}
	s := newTestScheduler([]config.WatchConfig{
		{Name: "fast", Interval: 10 * time.Minute},
		{Name: "slow", Interval: time.Hour},
		{Name: "sunday", Interval: time.Minute, Weekdays: []string{"sunday"}},
	}, checker, &clock)

	s.setupDailyTasks()
	if len(s.Tasks()) != 2 {
		t.Fatalf("expected 2 tasks for a Friday, got %d", len(s.Tasks()))
	}

	ctx := context.Background()
	s.runDue(ctx)
	clock = clock.Add(10 * time.Minute)
	s.runDue(ctx)
	clock = clock.Add(5 * time.Minute)
	s.runDue(ctx)

	if checker.checks["fast"] != 2 || checker.checks["slow"] != 1 || checker.checks["sunday"] != 0 {
		t.Errorf("unexpected check counts: %v", checker.checks)
	}
}

func TestScheduler_DayRolloverResets(t *testing.T) {
	clock := time.Date(2025, 6, 27, 23, 50, 0, 0, time.UTC)
	checker := &countingChecker{checks: make(map[string]int)}
	s := newTestScheduler([]config.WatchConfig{{Name: "w", Interval: time.Hour}}, checker, &clock)

	s.setupDailyTasks()
	s.runDue(context.Background())
	clock = clock.Add(20 * time.Minute)
	s.runDue(context.Background())

	if checker.resets != 1 {
		t.Errorf("expected one reset at day rollover, got %d", checker.resets)
	}
	if checker.checks["w"] != 2 {
		t.Errorf("expected the watch to run again on the new day, got %d", checker.checks["w"])
	}
}
