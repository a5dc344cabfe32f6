package session

import "github.com/danpilch/maxfinder/internal/trips"

// Screen is the navigation level of a ViewState.
type Screen int

const (
	Overview Screen = iota
	Detail
)

func (s Screen) String() string {
	if s == Detail {
		return "detail"
	}
	return "overview"
}

// ViewState is either Overview, or Detail with the key of the opened group.
type ViewState struct {
	Screen      Screen
	SelectedKey string
}

// Selection is the content of a detail view. Round trips fill Outbound and
// Inbound; every other mode fills Trips.
type Selection struct {
	Key      string
	Trips    []trips.Trip
	Outbound []trips.Trip
	Inbound  []trips.Trip
}

// Count returns the number of trips in the selection.
func (s *Selection) Count() int {
	return len(s.Trips) + len(s.Outbound) + len(s.Inbound)
}

// ResolveSelected finds the group named key in result and orders its trips
// for detail display. It returns nil when nothing matches; callers render an
// explicit "no data" state for nil.
func ResolveSelected(mode trips.Mode, result trips.Result, key string) *Selection {
	order := trips.ByDateTime
	if mode == trips.ModeDateRange {
		order = trips.ByDeparture
	}

	switch result.Kind {
	case trips.KindDestinations:
		return fromGroups(result.ByDestination, key, order)
	case trips.KindDates:
		return fromGroups(result.ByDate, key, order)
	case trips.KindTrips:
		if len(result.Trips) == 0 {
			return nil
		}
		return &Selection{Key: key, Trips: order(result.Trips)}
	case trips.KindRoundTrips:
		for _, p := range result.RoundTrips {
			if p.Destination == key {
				return &Selection{Key: key, Outbound: order(p.Outbound), Inbound: order(p.Inbound)}
			}
		}
	}
	return nil
}

func fromGroups(groups []trips.Group, key string, order func([]trips.Trip) []trips.Trip) *Selection {
	for _, g := range groups {
		if g.Key == key {
			return &Selection{Key: key, Trips: order(g.Trips)}
		}
	}
	return nil
}
