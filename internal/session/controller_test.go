package session

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxfinder/internal/api/tgvmax"
	"github.com/danpilch/maxfinder/internal/trips"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type reply struct {
	in  trips.Input
	err error
}

// fakeSearcher answers each search with the reply queued for its origin,
// waiting on the matching gate channel if one is set.
type fakeSearcher struct {
	replies map[string]reply
	gates   map[string]chan struct{}
	started chan string
}

func (f *fakeSearcher) Search(ctx context.Context, req tgvmax.Request) (trips.Input, error) {
	if f.started != nil {
		f.started <- req.Origin
	}
	if gate, ok := f.gates[req.Origin]; ok {
		<-gate
	}
	r := f.replies[req.Origin]
	return r.in, r.err
}

func params(mode trips.Mode, origin string) Params {
	return Params{Request: tgvmax.Request{Mode: mode, Origin: origin, Date: time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)}}
}

func mkTrip(dest, date, dep string) trips.Trip {
	return trips.Trip{Origin: "PARIS", Destination: dest, Date: date, DepartureTime: dep}
}

func TestController_SelectAndGoBack(t *testing.T) {
	searcher := &fakeSearcher{replies: map[string]reply{
		"PARIS": {in: trips.Input{Trips: []trips.Trip{
			mkTrip("LYON", "27/06/2025", "08:00"),
			mkTrip("NICE", "27/06/2025", "07:00"),
		}}},
	}}
	c := NewController(searcher, testLogger())

	res, err := c.RunSearch(context.Background(), params(trips.ModeSingle, "PARIS"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := c.CurrentGroups()

	if !c.SelectGroup("NICE") {
		t.Fatalf("expected NICE to be selectable")
	}
	if got := c.ViewState(); got != (ViewState{Screen: Detail, SelectedKey: "NICE"}) {
		t.Errorf("unexpected view state %+v", got)
	}
	sel := c.Selected()
	if sel == nil || sel.Key != "NICE" || len(sel.Trips) != 1 {
		t.Fatalf("unexpected selection %+v", sel)
	}

	c.GoBack()
	if got := c.ViewState(); got.Screen != Overview || got.SelectedKey != "" {
		t.Errorf("expected overview, got %+v", got)
	}
	if !reflect.DeepEqual(c.CurrentGroups(), before) || !reflect.DeepEqual(res, before) {
		t.Errorf("result changed across select/back")
	}
	if c.Selected() != nil {
		t.Errorf("expected no selection in overview")
	}
}

func TestController_SelectUnknownKeyIsNoop(t *testing.T) {
	searcher := &fakeSearcher{replies: map[string]reply{
		"PARIS": {in: trips.Input{Trips: []trips.Trip{mkTrip("LYON", "27/06/2025", "08:00")}}},
	}}
	c := NewController(searcher, testLogger())

	if c.SelectGroup("LYON") {
		t.Errorf("selection must fail before any search")
	}
	if _, err := c.RunSearch(context.Background(), params(trips.ModeSingle, "PARIS")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.SelectGroup("BREST") {
		t.Errorf("expected selection of unknown key to fail")
	}
	if got := c.ViewState(); got.Screen != Overview {
		t.Errorf("expected overview, got %+v", got)
	}
}

func TestController_NewSearchResetsView(t *testing.T) {
	searcher := &fakeSearcher{replies: map[string]reply{
		"PARIS": {in: trips.Input{Trips: []trips.Trip{mkTrip("LYON", "27/06/2025", "08:00")}}},
		"LILLE": {in: trips.Input{Trips: []trips.Trip{mkTrip("LYON", "27/06/2025", "10:00")}}},
	}}
	c := NewController(searcher, testLogger())

	c.RunSearch(context.Background(), params(trips.ModeSingle, "PARIS"))
	c.SelectGroup("LYON")
	c.RunSearch(context.Background(), params(trips.ModeSingle, "LILLE"))

	if got := c.ViewState(); got.Screen != Overview || got.SelectedKey != "" {
		t.Errorf("expected reset to overview, got %+v", got)
	}
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	searcher := &fakeSearcher{
		replies: map[string]reply{
			"SLOW": {in: trips.Input{Trips: []trips.Trip{mkTrip("BREST", "27/06/2025", "06:00")}}},
			"FAST": {in: trips.Input{Trips: []trips.Trip{mkTrip("LYON", "27/06/2025", "08:00")}}},
		},
		gates:   map[string]chan struct{}{"SLOW": gate},
		started: make(chan string, 2),
	}
	c := NewController(searcher, testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := c.RunSearch(context.Background(), params(trips.ModeSingle, "SLOW"))
		done <- err
	}()
	<-searcher.started
	if !c.Pending() {
		t.Errorf("expected the slow search to be pending")
	}

	if _, err := c.RunSearch(context.Background(), params(trips.ModeSingle, "FAST")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-searcher.started
	close(gate)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Errorf("expected ErrSuperseded for the stale search, got %v", err)
	}
	if keys := c.CurrentGroups().Keys(); !reflect.DeepEqual(keys, []string{"LYON"}) {
		t.Errorf("stale response overwrote newer result: %v", keys)
	}
	if c.Pending() {
		t.Errorf("expected no pending search")
	}
}

func TestController_FailureSurfacesSingleError(t *testing.T) {
	cause := &tgvmax.MalformedResponseError{Reason: "body is neither a list nor an object"}
	searcher := &fakeSearcher{replies: map[string]reply{
		"PARIS": {in: trips.Input{Trips: []trips.Trip{mkTrip("LYON", "27/06/2025", "08:00")}}},
		"BAD":   {err: cause},
	}}
	c := NewController(searcher, testLogger())

	c.RunSearch(context.Background(), params(trips.ModeSingle, "PARIS"))
	_, err := c.RunSearch(context.Background(), params(trips.ModeSingle, "BAD"))

	var searchErr *SearchError
	if !errors.As(err, &searchErr) {
		t.Fatalf("expected SearchError, got %v", err)
	}
	var malformed *tgvmax.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Errorf("expected the cause to be kept, got %v", err)
	}
	if c.Err() == nil {
		t.Errorf("expected the error to be visible in session state")
	}
	if !c.CurrentGroups().Empty() {
		t.Errorf("expected empty result after failure")
	}
}

func TestController_AppliesFilters(t *testing.T) {
	searcher := &fakeSearcher{replies: map[string]reply{
		"PARIS": {in: trips.Input{Trips: []trips.Trip{
			mkTrip("LYON", "27/06/2025", "05:00"),
			mkTrip("LYON", "27/06/2025", "08:00"),
		}}},
	}}
	c := NewController(searcher, testLogger())

	p := params(trips.ModeSingle, "PARIS")
	p.Outbound = trips.Filter{DepartStart: "06:00"}
	res, err := c.RunSearch(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count() != 1 {
		t.Errorf("expected filter to keep 1 trip, got %d", res.Count())
	}
}
