package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/api/tgvmax"
	"github.com/danpilch/maxfinder/internal/trips"
)

// ErrSuperseded is returned by RunSearch when a newer search started before
// this one completed. Its outcome was discarded.
var ErrSuperseded = errors.New("search superseded by a newer search")

// Searcher fetches and normalizes one search from the upstream service.
type Searcher interface {
	Search(ctx context.Context, req tgvmax.Request) (trips.Input, error)
}

// SearchError is the single failure surfaced for transport, service and
// decoding problems. Err keeps the underlying cause.
type SearchError struct {
	Message string
	Err     error
}

func (e *SearchError) Error() string { return e.Message }

func (e *SearchError) Unwrap() error { return e.Err }

// Params is a search request plus the client-side filters applied to its
// results. Inbound only applies to round trips.
type Params struct {
	Request  tgvmax.Request
	Outbound trips.Filter
	Inbound  trips.Filter
}

// Controller owns the session state of one user: the displayed mode, the
// aggregated result and the view state.
type Controller struct {
	searcher Searcher
	logger   *logrus.Logger

	mu      sync.Mutex
	seq     uint64
	mode    trips.Mode
	result  trips.Result
	view    ViewState
	err     error
	pending bool
}

func NewController(searcher Searcher, logger *logrus.Logger) *Controller {
	return &Controller{
		searcher: searcher,
		logger:   logger,
	}
}

// RunSearch starts a new search, resetting the session, and blocks until it
// completes. The outcome is only committed if no newer search started in the
// meantime; otherwise ErrSuperseded is returned.
func (c *Controller) RunSearch(ctx context.Context, p Params) (trips.Result, error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mode = p.Request.Mode
	c.result = trips.Result{}
	c.view = ViewState{Screen: Overview}
	c.err = nil
	c.pending = true
	c.mu.Unlock()

	log := c.logger.WithFields(logrus.Fields{
		"search_seq": seq,
		"mode":       p.Request.Mode.String(),
		"origin":     p.Request.Origin,
	})
	log.Debug("search started")

	in, err := c.searcher.Search(ctx, p.Request)

	var result trips.Result
	if err == nil {
		in = trips.ApplyInput(in, p.Outbound, p.Inbound)
		result = trips.Aggregate(p.Request.Mode, in)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		log.WithField("current_seq", c.seq).Debug("discarding stale search outcome")
		return trips.Result{}, ErrSuperseded
	}
	c.pending = false

	if err != nil {
		searchErr := &SearchError{Message: fmt.Sprintf("search failed: %v", err), Err: err}
		c.err = searchErr
		log.WithField("error", err).Error("search failed")
		return trips.Result{}, searchErr
	}

	c.result = result
	log.WithField("trips", result.Count()).Info("search completed")
	return result, nil
}

// SelectGroup opens the detail view of the group named key. Unknown keys
// leave the state unchanged and return false.
func (c *Controller) SelectGroup(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending || !c.result.Has(key) {
		c.logger.WithField("key", key).Debug("ignoring selection of unknown group")
		return false
	}
	c.view = ViewState{Screen: Detail, SelectedKey: key}
	return true
}

// GoBack returns to the overview.
func (c *Controller) GoBack() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = ViewState{Screen: Overview}
}

// ViewState returns the current view state.
func (c *Controller) ViewState() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// CurrentGroups returns the result of the latest completed search.
func (c *Controller) CurrentGroups() trips.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Mode returns the mode of the latest search.
func (c *Controller) Mode() trips.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Err returns the failure of the latest search, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pending reports whether the latest search is still in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Selected resolves the open detail view. It returns nil in the overview.
func (c *Controller) Selected() *Selection {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Screen != Detail {
		return nil
	}
	return ResolveSelected(c.mode, c.result, c.view.SelectedKey)
}
