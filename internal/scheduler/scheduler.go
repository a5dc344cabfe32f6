package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/danpilch/maxfinder/internal/config"
	"github.com/danpilch/maxfinder/internal/trips"
)

const maxConcurrentWatches = 4

// Checker runs one watch.
type Checker interface {
	Check(ctx context.Context, w config.WatchConfig) ([]trips.Trip, error)
	ResetNotificationState()
}

type Task struct {
	Watch config.WatchConfig
	Next  time.Time
}

type Scheduler struct {
	watches []config.WatchConfig
	checker Checker
	logger  *logrus.Logger
	tick    time.Duration
	now     func() time.Time

	mu         sync.Mutex
	tasks      []Task
	currentDay int
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

func NewScheduler(watches []config.WatchConfig, checker Checker, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		watches: watches,
		checker: checker,
		logger:  logger,
		tick:    time.Minute,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.setupDailyTasks()
	s.runDue(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped: context cancelled")
			return
		case <-s.stopCh:
			s.logger.Info("scheduler stopped: stop signal received")
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// runDue executes every task whose time has come, a few at a time.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()

	if now.Day() != s.day() {
		s.logger.Info("day changed, resetting tasks")
		s.checker.ResetNotificationState()
		s.setupDailyTasks()
	}

	s.mu.Lock()
	var due []*Task
	for i := range s.tasks {
		if !now.Before(s.tasks[i].Next) {
			due = append(due, &s.tasks[i])
		}
	}
	s.mu.Unlock()

	p := pool.New().WithMaxGoroutines(maxConcurrentWatches)
	for _, task := range due {
		task := task
		p.Go(func() {
			s.executeTask(ctx, task.Watch)
		})
	}
	p.Wait()

	s.mu.Lock()
	for _, task := range due {
		task.Next = now.Add(task.Watch.Interval)
	}
	s.mu.Unlock()
}

func (s *Scheduler) day() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentDay
}

func (s *Scheduler) setupDailyTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.currentDay = now.Day()
	s.tasks = nil

	for _, w := range s.watches {
		if !w.IsActiveDay(now.Weekday()) {
			continue
		}
		s.tasks = append(s.tasks, Task{Watch: w, Next: now})
	}

	if len(s.tasks) == 0 {
		s.logger.WithField("weekday", now.Weekday().String()).Info("no watches scheduled for today")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"weekday":     now.Weekday().String(),
		"total_tasks": len(s.tasks),
	}).Info("daily tasks scheduled")
}

func (s *Scheduler) executeTask(ctx context.Context, w config.WatchConfig) {
	s.logger.WithFields(logrus.Fields{
		"watch":    w.Name,
		"interval": w.Interval.String(),
	}).Debug("executing task")

	if _, err := s.checker.Check(ctx, w); err != nil {
		s.logger.WithFields(logrus.Fields{
			"watch": w.Name,
			"error": err,
		}).Error("task execution failed")
	}
}

// Tasks returns a snapshot of the scheduled tasks.
func (s *Scheduler) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks...)
}
