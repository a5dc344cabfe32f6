package trips

import (
	"encoding/json"
	"testing"
)

func TestTrip_UnmarshalSNCFRecord(t *testing.T) {
	raw := `{"origine":"PARIS (intramuros)","destination":"LYON (intramuros)","date":"27/06/2025",
		"heure_depart":"06:30","heure_arrivee":"08:28","duree":"1h58","train_no":6601}`

	var tr Trip
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Destination != "LYON (intramuros)" || tr.DepartureTime != "06:30" || tr.Duration != "1h58" {
		t.Errorf("unexpected trip: %+v", tr)
	}
	if tr.TrainNumber != "6601" {
		t.Errorf("expected numeric train_no to decode, got %q", tr.TrainNumber)
	}

	if err := json.Unmarshal([]byte(`{"train_no":"TGV 6601"}`), &tr); err != nil || tr.TrainNumber != "TGV 6601" {
		t.Errorf("expected string train_no, got %q (%v)", tr.TrainNumber, err)
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"27/06/2025", "27/6/2025", "2025-06-27", " 27/06/2025 "} {
		d, err := ParseDate(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if DateKey(d) != "27/06/2025" {
			t.Errorf("%q: expected key 27/06/2025, got %s", in, DateKey(d))
		}
	}
	for _, in := range []string{"", "31/02/2025", "27-06-2025x"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("%q: expected an error", in)
		}
	}
}
