package trips

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Trip is one scheduled journey segment as returned by the search service.
type Trip struct {
	Origin        string      `json:"origine"`
	Destination   string      `json:"destination"`
	Date          string      `json:"date"`
	DepartureTime string      `json:"heure_depart"`
	ArrivalTime   string      `json:"heure_arrivee"`
	Duration      string      `json:"duree"`
	TrainNumber   TrainNumber `json:"train_no,omitempty"`
}

// ID identifies a trip across repeated searches.
func (t Trip) ID() string {
	return strings.Join([]string{t.Date, t.DepartureTime, t.Origin, t.Destination, string(t.TrainNumber)}, "|")
}

// TrainNumber accepts both JSON strings and numbers.
type TrainNumber string

func (n *TrainNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = TrainNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("train_no: %w", err)
	}
	*n = TrainNumber(num.String())
	return nil
}

// Mode selects the grouping strategy and detail-view semantics.
type Mode int

const (
	ModeSingle Mode = iota
	ModeRoundTrip
	ModeDateRange
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeRoundTrip:
		return "round-trip"
	case ModeDateRange:
		return "date-range"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

const dateKeyLayout = "02/01/2006"

var dateLayouts = []string{dateKeyLayout, "2/1/2006", "2006-01-02"}

// ParseDate parses a trip date. DD/MM/YYYY is the wire format; ISO dates are
// tolerated.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// DateKey renders a date as a DD/MM/YYYY group key.
func DateKey(d time.Time) string {
	return d.Format(dateKeyLayout)
}
