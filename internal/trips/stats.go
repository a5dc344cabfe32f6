package trips

import (
	"sort"
	"time"
)

// Summary describes a set of trips for overview display.
type Summary struct {
	Count           int
	FirstDeparture  string
	LastDeparture   string
	AverageDuration time.Duration

	Destinations        int
	TopDestination      string
	TopDestinationCount int
	// DepartureHours counts trips per departure hour.
	DepartureHours [24]int
}

// Summarize computes a Summary. Trips whose duration does not parse are
// excluded from the average only.
func Summarize(ts []Trip) Summary {
	s := Summary{Count: len(ts)}
	var total time.Duration
	var timed int

	perDestination := make(map[string]int)

	for _, t := range ts {
		if t.Destination != "" {
			perDestination[t.Destination]++
		}
		if dep, err := time.Parse("15:04", t.DepartureTime); err == nil {
			s.DepartureHours[dep.Hour()]++
		}
		if t.DepartureTime != "" {
			if s.FirstDeparture == "" || t.DepartureTime < s.FirstDeparture {
				s.FirstDeparture = t.DepartureTime
			}
			if t.DepartureTime > s.LastDeparture {
				s.LastDeparture = t.DepartureTime
			}
		}
		if d, err := ParseDuration(t.Duration); err == nil {
			total += d
			timed++
		}
	}

	if timed > 0 {
		s.AverageDuration = (total / time.Duration(timed)).Truncate(time.Minute)
	}

	// Ties go to the alphabetically first destination.
	s.Destinations = len(perDestination)
	for _, d := range Destinations(ts) {
		if n := perDestination[d]; n > s.TopDestinationCount {
			s.TopDestination, s.TopDestinationCount = d, n
		}
	}
	return s
}

// Destinations returns the distinct destinations of ts, sorted.
func Destinations(ts []Trip) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range ts {
		if t.Destination != "" && !seen[t.Destination] {
			seen[t.Destination] = true
			out = append(out, t.Destination)
		}
	}
	sort.Strings(out)
	return out
}
