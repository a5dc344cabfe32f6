package trips

import (
	"sort"
	"time"
)

// UnparseableDateKey is the key of the group collecting trips whose date
// could not be parsed. It is always the last date group.
const UnparseableDateKey = "date inconnue"

// DefaultPreview is how many trips per side a round-trip overview shows.
const DefaultPreview = 2

// Kind tags which field of a Result is populated.
type Kind int

const (
	KindTrips Kind = iota
	KindDestinations
	KindDates
	KindRoundTrips
)

// Group is a keyed, ordered set of trips. Count always equals len(Trips).
type Group struct {
	Key   string
	Trips []Trip
	Count int
}

func newGroup(key string, ts []Trip) Group {
	return Group{Key: key, Trips: ts, Count: len(ts)}
}

// RoundTripPair holds the outbound and inbound trips for one destination.
type RoundTripPair struct {
	Destination string
	Outbound    []Trip
	Inbound     []Trip
}

// Preview returns the pair with each side truncated to n trips. The receiver
// keeps every trip.
func (p RoundTripPair) Preview(n int) RoundTripPair {
	return RoundTripPair{
		Destination: p.Destination,
		Outbound:    head(p.Outbound, n),
		Inbound:     head(p.Inbound, n),
	}
}

func head(ts []Trip, n int) []Trip {
	if n < 0 || len(ts) <= n {
		return ts
	}
	return ts[:n:n]
}

// Input is the normalized upstream payload.
type Input struct {
	Trips []Trip
	Pairs []RoundTripPair
	// DestinationFixed is set when the request named a destination.
	DestinationFixed bool
}

// Result is the aggregated form of an Input. Only the field matching Kind is
// populated.
type Result struct {
	Kind          Kind
	Trips         []Trip
	ByDestination []Group
	ByDate        []Group
	RoundTrips    []RoundTripPair
}

// Empty reports whether the result holds no trips at all.
func (r Result) Empty() bool {
	return r.Count() == 0
}

// Count returns the number of trips held, over every group and side.
func (r Result) Count() int {
	switch r.Kind {
	case KindTrips:
		return len(r.Trips)
	case KindDestinations:
		return sumCounts(r.ByDestination)
	case KindDates:
		return sumCounts(r.ByDate)
	case KindRoundTrips:
		n := 0
		for _, p := range r.RoundTrips {
			n += len(p.Outbound) + len(p.Inbound)
		}
		return n
	}
	return 0
}

// All returns every trip held, in display order.
func (r Result) All() []Trip {
	var out []Trip
	switch r.Kind {
	case KindTrips:
		out = append(out, r.Trips...)
	case KindDestinations:
		for _, g := range r.ByDestination {
			out = append(out, g.Trips...)
		}
	case KindDates:
		for _, g := range r.ByDate {
			out = append(out, g.Trips...)
		}
	case KindRoundTrips:
		for _, p := range r.RoundTrips {
			out = append(out, p.Outbound...)
			out = append(out, p.Inbound...)
		}
	}
	return out
}

// Departures returns the trips leaving the searched origin: every trip, or
// only the outbound legs of round trips.
func (r Result) Departures() []Trip {
	if r.Kind != KindRoundTrips {
		return r.All()
	}
	var out []Trip
	for _, p := range r.RoundTrips {
		out = append(out, p.Outbound...)
	}
	return out
}

// Keys lists the selectable group keys in display order.
func (r Result) Keys() []string {
	var keys []string
	switch r.Kind {
	case KindTrips:
		seen := make(map[string]bool)
		for _, t := range r.Trips {
			if !seen[t.Destination] {
				seen[t.Destination] = true
				keys = append(keys, t.Destination)
			}
		}
	case KindDestinations:
		for _, g := range r.ByDestination {
			keys = append(keys, g.Key)
		}
	case KindDates:
		for _, g := range r.ByDate {
			keys = append(keys, g.Key)
		}
	case KindRoundTrips:
		for _, p := range r.RoundTrips {
			keys = append(keys, p.Destination)
		}
	}
	return keys
}

// Has reports whether key names a selectable group.
func (r Result) Has(key string) bool {
	for _, k := range r.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

func sumCounts(gs []Group) int {
	n := 0
	for _, g := range gs {
		n += g.Count
	}
	return n
}

// Aggregate groups and orders in according to mode. It is pure: in is never
// modified and equal inputs give equal results.
func Aggregate(mode Mode, in Input) Result {
	switch mode {
	case ModeDateRange:
		return Result{Kind: KindDates, ByDate: GroupByDate(in.Trips)}
	case ModeRoundTrip:
		pairs := make([]RoundTripPair, len(in.Pairs))
		for i, p := range in.Pairs {
			pairs[i] = RoundTripPair{
				Destination: p.Destination,
				Outbound:    clone(p.Outbound),
				Inbound:     clone(p.Inbound),
			}
		}
		return Result{Kind: KindRoundTrips, RoundTrips: pairs}
	default:
		if in.DestinationFixed {
			return Result{Kind: KindTrips, Trips: ByDeparture(in.Trips)}
		}
		return Result{Kind: KindDestinations, ByDestination: GroupByDestination(in.Trips)}
	}
}

// GroupByDestination partitions ts by destination. Groups keep the order in
// which their destination first appears in ts; trips within a group are
// ordered by departure time.
func GroupByDestination(ts []Trip) []Group {
	index := make(map[string]int)
	var keys []string
	var buckets [][]Trip

	for _, t := range ts {
		i, ok := index[t.Destination]
		if !ok {
			i = len(keys)
			index[t.Destination] = i
			keys = append(keys, t.Destination)
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], t)
	}

	groups := make([]Group, len(keys))
	for i, key := range keys {
		groups[i] = newGroup(key, ByDeparture(buckets[i]))
	}
	return groups
}

// GroupByDate partitions ts by calendar date. Groups are ordered
// chronologically with the UnparseableDateKey group, if any, last; trips
// within a group are ordered by departure time.
func GroupByDate(ts []Trip) []Group {
	type bucket struct {
		date  time.Time
		trips []Trip
	}
	buckets := make(map[string]*bucket)
	var keys []string
	var unparseable []Trip

	for _, t := range ts {
		d, err := ParseDate(t.Date)
		if err != nil {
			unparseable = append(unparseable, t)
			continue
		}
		key := DateKey(d)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{date: d}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.trips = append(b.trips, t)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return buckets[keys[i]].date.Before(buckets[keys[j]].date)
	})

	groups := make([]Group, 0, len(keys)+1)
	for _, key := range keys {
		groups = append(groups, newGroup(key, ByDeparture(buckets[key].trips)))
	}
	if len(unparseable) > 0 {
		groups = append(groups, newGroup(UnparseableDateKey, ByDeparture(unparseable)))
	}
	return groups
}
