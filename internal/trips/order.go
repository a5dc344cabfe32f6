package trips

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ByDeparture returns a copy of ts ordered by departure time. HH:MM is fixed
// width, so string comparison is chronological.
func ByDeparture(ts []Trip) []Trip {
	out := clone(ts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DepartureTime < out[j].DepartureTime
	})
	return out
}

// ByDateTime returns a copy of ts ordered by calendar date, then departure
// time. Trips with an unparseable date sort after every dated trip.
func ByDateTime(ts []Trip) []Trip {
	type keyed struct {
		trip Trip
		date time.Time
		ok   bool
	}
	ks := make([]keyed, len(ts))
	for i, t := range ts {
		d, err := ParseDate(t.Date)
		ks[i] = keyed{trip: t, date: d, ok: err == nil}
	}

	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		return a.trip.DepartureTime < b.trip.DepartureTime
	})

	out := make([]Trip, len(ks))
	for i, k := range ks {
		out[i] = k.trip
	}
	return out
}

func clone(ts []Trip) []Trip {
	if ts == nil {
		return nil
	}
	out := make([]Trip, len(ts))
	copy(out, ts)
	return out
}

// SortKey is a user-selected presentation order. SortNone keeps the order
// the aggregator produced.
type SortKey string

const (
	SortNone        SortKey = ""
	SortDeparture   SortKey = "departure"
	SortDuration    SortKey = "duration"
	SortDestination SortKey = "destination"
)

// ParseSortKey maps a flag value to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortDeparture, SortDuration, SortDestination:
		return k, nil
	}
	return SortNone, fmt.Errorf("unknown sort key %q, expected departure, duration or destination", s)
}

// Sort returns a copy of ts stably ordered by key, descending if desc is set.
// Trips whose duration does not parse sort last in either direction.
func Sort(ts []Trip, key SortKey, desc bool) []Trip {
	out := clone(ts)
	if key == SortNone {
		return out
	}

	var durations map[int]time.Duration
	if key == SortDuration {
		durations = make(map[int]time.Duration, len(out))
		for i, t := range out {
			if d, err := ParseDuration(t.Duration); err == nil {
				durations[i] = d
			}
		}
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		switch key {
		case SortDuration:
			di, iok := durations[i]
			dj, jok := durations[j]
			if iok != jok {
				return iok
			}
			if desc {
				return di > dj
			}
			return di < dj
		case SortDestination:
			if desc {
				return out[i].Destination > out[j].Destination
			}
			return out[i].Destination < out[j].Destination
		default:
			if desc {
				return out[i].DepartureTime > out[j].DepartureTime
			}
			return out[i].DepartureTime < out[j].DepartureTime
		}
	})

	sorted := make([]Trip, len(out))
	for n, i := range idx {
		sorted[n] = out[i]
	}
	return sorted
}
