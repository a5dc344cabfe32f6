package tgvmax

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danpilch/maxfinder/internal/trips"
)

const (
	MaxRangeDays     = 30
	DefaultRangeDays = 7
)

const isoDate = "2006-01-02"

// Request describes one search against the service.
type Request struct {
	Mode        trips.Mode
	Origin      string
	Destination string
	Date        time.Time
	ReturnDate  time.Time // round trip only
	Days        int       // date range only

	// Departure window forwarded to single searches, HH:MM.
	StartTime string
	EndTime   string
}

// Validate checks the request before it is sent.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Origin) == "" {
		return &RequestError{Field: "origin", Reason: "is required"}
	}
	if r.Date.IsZero() {
		return &RequestError{Field: "date", Reason: "is required"}
	}
	switch r.Mode {
	case trips.ModeDateRange:
		if r.Days < 1 || r.Days > MaxRangeDays {
			return &RequestError{Field: "days", Reason: "must be between 1 and " + strconv.Itoa(MaxRangeDays)}
		}
	case trips.ModeRoundTrip:
		if r.ReturnDate.IsZero() {
			return &RequestError{Field: "return_date", Reason: "is required"}
		}
		if r.ReturnDate.Before(r.Date) {
			return &RequestError{Field: "return_date", Reason: "is before the departure date"}
		}
	case trips.ModeSingle:
	default:
		return &RequestError{Field: "mode", Reason: "unknown search mode " + r.Mode.String()}
	}
	return nil
}

// DestinationFixed reports whether results are restricted to one destination.
func (r Request) DestinationFixed() bool {
	return r.Mode != trips.ModeRoundTrip && strings.TrimSpace(r.Destination) != ""
}

// Path returns the endpoint path for the request mode.
func (r Request) Path() string {
	switch r.Mode {
	case trips.ModeDateRange:
		return "/api/trains/range"
	case trips.ModeRoundTrip:
		return "/api/trains/round-trip"
	default:
		return "/api/trains/single"
	}
}

// Query returns the encoded query parameters.
func (r Request) Query() url.Values {
	q := url.Values{}
	q.Set("origin", r.Origin)

	switch r.Mode {
	case trips.ModeDateRange:
		q.Set("start_date", r.Date.Format(isoDate))
		q.Set("days", strconv.Itoa(r.Days))
	case trips.ModeRoundTrip:
		q.Set("depart_date", r.Date.Format(isoDate))
		q.Set("return_date", r.ReturnDate.Format(isoDate))
	default:
		q.Set("date", r.Date.Format(isoDate))
		if r.StartTime != "" {
			q.Set("start_time", r.StartTime)
		}
		if r.EndTime != "" {
			q.Set("end_time", r.EndTime)
		}
	}

	if r.DestinationFixed() {
		q.Set("destination", r.Destination)
	}
	return q
}
