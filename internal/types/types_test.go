package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDayHelpers(t *testing.T) {
	late := time.Date(2025, 6, 2, 23, 59, 59, 0, time.UTC)
	early := time.Date(2025, 6, 2, 0, 0, 1, 0, time.UTC)

	if got := Day(late); got.Hour() != 0 || got.Day() != 2 {
		t.Errorf("Day() = %s, want midnight same day", got)
	}
	if !SameDay(late, early) {
		t.Error("SameDay false for two instants on the same day")
	}
	if SameDay(late, late.Add(time.Second)) {
		t.Error("SameDay true across midnight")
	}
	if got := NextDay(late); got.Day() != 3 || got.Hour() != 0 {
		t.Errorf("NextDay() = %s, want next midnight", got)
	}

	// Non-UTC instants normalize to their UTC calendar day.
	est := time.FixedZone("EST", -5*3600)
	if got := Day(time.Date(2025, 6, 2, 22, 0, 0, 0, est)); got.Day() != 3 {
		t.Errorf("Day() of late EST evening = %s, want UTC day 3", got)
	}
}

func TestRiderProfile_MarshalNilSlices(t *testing.T) {
	data, err := json.Marshal(RiderProfile{Type: RiderAllRounder})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "null") {
		t.Errorf("nil slices marshaled as null: %s", s)
	}
	if !strings.Contains(s, `"strengths":[]`) || !strings.Contains(s, `"limiters":[]`) {
		t.Errorf("expected empty arrays: %s", s)
	}
}
