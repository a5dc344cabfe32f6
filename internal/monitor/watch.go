package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/config"
	"github.com/danpilch/maxfinder/internal/session"
	"github.com/danpilch/maxfinder/internal/trips"
)

// Alerter delivers new-trip alerts.
type Alerter interface {
	SendNewTrips(watch string, ts []trips.Trip) error
}

// WatchMonitor re-runs configured searches and alerts on trips it has not
// reported before. Each watch keeps its own session.
type WatchMonitor struct {
	searcher session.Searcher
	alerter  Alerter
	outbound trips.Filter
	inbound  trips.Filter
	logger   *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*session.Controller
	notified map[string]map[string]bool
}

// NewWatchMonitor creates a monitor. alerter may be nil, in which case new
// trips are only logged.
func NewWatchMonitor(searcher session.Searcher, alerter Alerter, outbound, inbound trips.Filter, logger *logrus.Logger) *WatchMonitor {
	return &WatchMonitor{
		searcher: searcher,
		alerter:  alerter,
		outbound: outbound,
		inbound:  inbound,
		logger:   logger,
		sessions: make(map[string]*session.Controller),
		notified: make(map[string]map[string]bool),
	}
}

// ResetNotificationState forgets every reported trip.
func (m *WatchMonitor) ResetNotificationState() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = make(map[string]map[string]bool)
}

func (m *WatchMonitor) controller(name string) *session.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[name]
	if !ok {
		c = session.NewController(m.searcher, m.logger)
		m.sessions[name] = c
	}
	return c
}

// Check runs the watch once and returns the trips not reported before.
func (m *WatchMonitor) Check(ctx context.Context, w config.WatchConfig) ([]trips.Trip, error) {
	req, err := w.Request()
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"watch":       w.Name,
		"mode":        req.Mode.String(),
		"origin":      req.Origin,
		"destination": req.Destination,
	}).Info("checking watch")

	result, err := m.controller(w.Name).RunSearch(ctx, session.Params{
		Request:  req,
		Outbound: m.outbound,
		Inbound:  m.inbound,
	})
	if err != nil {
		return nil, err
	}

	fresh := m.unseen(w.Name, result.All())
	if len(fresh) == 0 {
		m.logger.WithFields(logrus.Fields{
			"watch": w.Name,
			"trips": result.Count(),
		}).Debug("no new trips")
		return nil, nil
	}

	m.logger.WithFields(logrus.Fields{
		"watch":     w.Name,
		"new_trips": len(fresh),
		"trips":     result.Count(),
	}).Warn("new trips available")

	// Trips are marked seen only once the alert went out.
	if m.alerter != nil {
		if err := m.alerter.SendNewTrips(w.Name, fresh); err != nil {
			return fresh, fmt.Errorf("sending alert: %w", err)
		}
	}
	m.markSeen(w.Name, fresh)
	return fresh, nil
}

// unseen returns the trips of ts not reported for watch yet, without
// duplicates.
func (m *WatchMonitor) unseen(watch string, ts []trips.Trip) []trips.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := m.notified[watch]
	batch := make(map[string]bool)
	var fresh []trips.Trip
	for _, t := range ts {
		id := t.ID()
		if !seen[id] && !batch[id] {
			batch[id] = true
			fresh = append(fresh, t)
		}
	}
	return fresh
}

func (m *WatchMonitor) markSeen(watch string, ts []trips.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen, ok := m.notified[watch]
	if !ok {
		seen = make(map[string]bool)
		m.notified[watch] = seen
	}
	for _, t := range ts {
		seen[t.ID()] = true
	}
}
