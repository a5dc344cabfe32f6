package trips

import (
	"reflect"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1h30":  90 * time.Minute,
		"2h":    2 * time.Hour,
		"2h05":  125 * time.Minute,
		"45":    45 * time.Minute,
		"45min": 45 * time.Minute,
		"1h30m": 90 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: expected %v, got %v", in, want, got)
		}
	}

	for _, in := range []string{"", "-", "abc", "xh10"} {
		if _, err := ParseDuration(in); err == nil {
			t.Errorf("%q: expected an error", in)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(95 * time.Minute); got != "1h35" {
		t.Errorf("expected 1h35, got %s", got)
	}
	if got := FormatDuration(0); got != "N/A" {
		t.Errorf("expected N/A, got %s", got)
	}
}

func TestFilter_Apply(t *testing.T) {
	ts := []Trip{
		{Destination: "LYON", DepartureTime: "05:45", Duration: "2h00"},
		{Destination: "LYON", DepartureTime: "06:00", Duration: "2h00"},
		{Destination: "NICE", DepartureTime: "12:00", Duration: "5h40"},
		{Destination: "BREST", DepartureTime: "13:00", Duration: "?"},
		{Destination: "LILLE", DepartureTime: "23:30", Duration: "1h00"},
	}
	f := Filter{DepartStart: "06:00", DepartEnd: "23:00", MaxDuration: 4 * time.Hour}

	got := Destinations(f.Apply(ts))

	want := []string{"BREST", "LYON"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestApplyInput_DropsPairsWithEmptySide(t *testing.T) {
	in := Input{Pairs: []RoundTripPair{
		{
			Destination: "LYON",
			Outbound:    []Trip{{DepartureTime: "08:00"}},
			Inbound:     []Trip{{DepartureTime: "19:00"}},
		},
		{
			Destination: "NICE",
			Outbound:    []Trip{{DepartureTime: "08:00"}},
			Inbound:     []Trip{{DepartureTime: "05:00"}},
		},
	}}

	out := ApplyInput(in, Filter{}, Filter{DepartStart: "06:00"})

	if len(out.Pairs) != 1 || out.Pairs[0].Destination != "LYON" {
		t.Errorf("unexpected pairs: %+v", out.Pairs)
	}
	if len(in.Pairs) != 2 {
		t.Errorf("input was modified")
	}
}

func TestByDateTime(t *testing.T) {
	ts := []Trip{
		{Date: "28/06/2025", DepartureTime: "06:00"},
		{Date: "n/a", DepartureTime: "01:00"},
		{Date: "27/06/2025", DepartureTime: "22:00"},
		{Date: "27/06/2025", DepartureTime: "07:00"},
	}

	got := ByDateTime(ts)

	var order []string
	for _, tr := range got {
		order = append(order, tr.Date+" "+tr.DepartureTime)
	}
	want := []string{"27/06/2025 07:00", "27/06/2025 22:00", "28/06/2025 06:00", "n/a 01:00"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("expected %v, got %v", want, order)
	}
	if ts[0].Date != "28/06/2025" {
		t.Errorf("input was reordered")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Trip{
		{DepartureTime: "09:10", Duration: "2h00"},
		{DepartureTime: "06:40", Duration: "1h00"},
		{DepartureTime: "18:05", Duration: "?"},
	})

	if s.Count != 3 || s.FirstDeparture != "06:40" || s.LastDeparture != "18:05" {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.AverageDuration != 90*time.Minute {
		t.Errorf("expected 1h30 average, got %v", s.AverageDuration)
	}
}

func TestDestinations(t *testing.T) {
	got := Destinations([]Trip{
		{Destination: "NICE"},
		{Destination: "LYON"},
		{Destination: ""},
		{Destination: "NICE"},
	})
	want := []string{"LYON", "NICE"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSummarize_GlobalStats(t *testing.T) {
	s := Summarize([]Trip{
		{Destination: "NICE", DepartureTime: "06:10"},
		{Destination: "LYON", DepartureTime: "06:50"},
		{Destination: "NICE", DepartureTime: "18:05"},
		{Destination: "LYON", DepartureTime: "07:00"},
		{Destination: "MARSEILLE", DepartureTime: "bad"},
	})

	if s.Destinations != 3 {
		t.Errorf("expected 3 destinations, got %d", s.Destinations)
	}
	if s.TopDestination != "LYON" || s.TopDestinationCount != 2 {
		t.Errorf("expected LYON (2) on a tie, got %s (%d)", s.TopDestination, s.TopDestinationCount)
	}
	if s.DepartureHours[6] != 2 || s.DepartureHours[7] != 1 || s.DepartureHours[18] != 1 {
		t.Errorf("unexpected hour distribution: %v", s.DepartureHours)
	}
}
