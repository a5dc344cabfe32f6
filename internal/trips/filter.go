package trips

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filter narrows raw trips before aggregation. Zero fields disable the
// corresponding check.
type Filter struct {
	DepartStart string // HH:MM, inclusive
	DepartEnd   string // HH:MM, inclusive
	MaxDuration time.Duration
}

// Keep reports whether t passes the filter. A trip whose duration cannot be
// parsed is kept.
func (f Filter) Keep(t Trip) bool {
	if f.DepartStart != "" && t.DepartureTime < f.DepartStart {
		return false
	}
	if f.DepartEnd != "" && t.DepartureTime > f.DepartEnd {
		return false
	}
	if f.MaxDuration > 0 {
		if d, err := ParseDuration(t.Duration); err == nil && d > f.MaxDuration {
			return false
		}
	}
	return true
}

// Apply returns the trips of ts passing the filter, in their original order.
func (f Filter) Apply(ts []Trip) []Trip {
	var out []Trip
	for _, t := range ts {
		if f.Keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// ApplyInput filters in. Single-trip lists and outbound legs use outbound;
// inbound legs use inbound. Round-trip pairs left with an empty side are
// dropped.
func ApplyInput(in Input, outbound, inbound Filter) Input {
	out := Input{
		Trips:            outbound.Apply(in.Trips),
		DestinationFixed: in.DestinationFixed,
	}
	for _, p := range in.Pairs {
		fp := RoundTripPair{
			Destination: p.Destination,
			Outbound:    outbound.Apply(p.Outbound),
			Inbound:     inbound.Apply(p.Inbound),
		}
		if len(fp.Outbound) > 0 && len(fp.Inbound) > 0 {
			out.Pairs = append(out.Pairs, fp)
		}
	}
	return out
}

// ParseDuration parses duration labels such as "1h30", "2h", "45" or "45min".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "min"), "m")
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if h, m, ok := strings.Cut(s, "h"); ok {
		hours, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		minutes := 0
		if m = strings.TrimSpace(m); m != "" {
			if minutes, err = strconv.Atoi(m); err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", s, err)
			}
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}

	minutes, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// FormatDuration renders d as "1h30". Zero renders as "N/A".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	minutes := int(d.Minutes())
	return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
}
