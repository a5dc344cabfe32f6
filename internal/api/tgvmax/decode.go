package tgvmax

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/danpilch/maxfinder/internal/trips"
)

// envelope is the object form of a search response.
type envelope struct {
	Trips json.RawMessage `json:"trips"`
}

// legs is a round-trip payload for a single destination.
type legs struct {
	Depart *[]trips.Trip `json:"depart"`
	Return *[]trips.Trip `json:"return"`
}

// destinationLegs is one entry of a per-destination round-trip payload.
// aller/retour are accepted as aliases of depart/return. An entry carrying
// none of them is not a round trip.
type destinationLegs struct {
	Destination string        `json:"destination"`
	Depart      *[]trips.Trip `json:"depart"`
	Aller       *[]trips.Trip `json:"aller"`
	Return      *[]trips.Trip `json:"return"`
	Retour      *[]trips.Trip `json:"retour"`
}

func (e destinationLegs) outbound() *[]trips.Trip {
	if e.Depart != nil {
		return e.Depart
	}
	return e.Aller
}

func (e destinationLegs) inbound() *[]trips.Trip {
	if e.Return != nil {
		return e.Return
	}
	return e.Retour
}

// Decode normalizes a response body into aggregator input. The expected
// shape is chosen by mode; anything else yields a *MalformedResponseError.
func Decode(mode trips.Mode, body []byte) (trips.Input, error) {
	payload := bytes.TrimSpace(body)
	if len(payload) == 0 {
		return trips.Input{}, &MalformedResponseError{Reason: "empty body"}
	}

	switch payload[0] {
	case '[':
		return decodeTrips(mode, payload)
	case '{':
		var env envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return trips.Input{}, &MalformedResponseError{Reason: "decoding response object", Err: err}
		}
		if env.Trips == nil {
			return trips.Input{}, &MalformedResponseError{Reason: `object has no "trips" field`}
		}
		raw := bytes.TrimSpace(env.Trips)
		if bytes.Equal(raw, []byte("null")) {
			return trips.Input{}, nil
		}
		if mode == trips.ModeRoundTrip && len(raw) > 0 && raw[0] == '{' {
			return decodeLegs(raw)
		}
		return decodeTrips(mode, raw)
	default:
		return trips.Input{}, &MalformedResponseError{Reason: "body is neither a list nor an object"}
	}
}

func decodeTrips(mode trips.Mode, raw []byte) (trips.Input, error) {
	if len(raw) == 0 || raw[0] != '[' {
		return trips.Input{}, &MalformedResponseError{Reason: `"trips" is not a list`}
	}

	if mode == trips.ModeRoundTrip {
		var entries []destinationLegs
		if err := json.Unmarshal(raw, &entries); err != nil {
			return trips.Input{}, &MalformedResponseError{Reason: "decoding round trips", Err: err}
		}
		in := trips.Input{Pairs: make([]trips.RoundTripPair, 0, len(entries))}
		for i, e := range entries {
			out, back := e.outbound(), e.inbound()
			if out == nil && back == nil {
				return trips.Input{}, &MalformedResponseError{
					Reason: fmt.Sprintf(`round trip entry %d has neither "depart" nor "return"`, i),
				}
			}
			pair := trips.RoundTripPair{Destination: e.Destination}
			if out != nil {
				pair.Outbound = *out
			}
			if back != nil {
				pair.Inbound = *back
			}
			if pair.Destination == "" {
				pair.Destination = pairKey(pair.Outbound, pair.Inbound)
			}
			in.Pairs = append(in.Pairs, pair)
		}
		return in, nil
	}

	var ts []trips.Trip
	if err := json.Unmarshal(raw, &ts); err != nil {
		return trips.Input{}, &MalformedResponseError{Reason: "decoding trips", Err: err}
	}
	return trips.Input{Trips: ts}, nil
}

func decodeLegs(raw []byte) (trips.Input, error) {
	var l legs
	if err := json.Unmarshal(raw, &l); err != nil {
		return trips.Input{}, &MalformedResponseError{Reason: "decoding round trip", Err: err}
	}
	if l.Depart == nil && l.Return == nil {
		return trips.Input{}, &MalformedResponseError{Reason: `round trip has neither "depart" nor "return"`}
	}

	var pair trips.RoundTripPair
	if l.Depart != nil {
		pair.Outbound = *l.Depart
	}
	if l.Return != nil {
		pair.Inbound = *l.Return
	}
	pair.Destination = pairKey(pair.Outbound, pair.Inbound)
	return trips.Input{Pairs: []trips.RoundTripPair{pair}}, nil
}

// pairKey names a round trip after the outbound destination, falling back to
// the inbound origin.
func pairKey(outbound, inbound []trips.Trip) string {
	if len(outbound) > 0 {
		return outbound[0].Destination
	}
	if len(inbound) > 0 {
		return inbound[0].Origin
	}
	return ""
}
