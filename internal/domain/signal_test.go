package domain

import (
	"testing"
	"time"
)

func TestValidSignalDomain(t *testing.T) {
	for _, d := range []string{
		"journal", "tasks", "location", "stressors", "calendar",
		"food", "social", "health", "weather",
	} {
		if !ValidSignalDomain(d) {
			t.Errorf("%q should be a valid domain", d)
		}
	}
	for _, d := range []string{"", "Journal", "astrology", "task"} {
		if ValidSignalDomain(d) {
			t.Errorf("%q should be rejected", d)
		}
	}
}

func TestValidSignalType(t *testing.T) {
	for _, ty := range []string{
		"mood", "energy", "task_completed", "task_created", "location_change",
		"stressor_triggered", "meeting", "meal", "sleep", "interaction",
		"weather_change",
	} {
		if !ValidSignalType(ty) {
			t.Errorf("%q should be a valid type", ty)
		}
	}
	for _, ty := range []string{"", "Mood", "vibe", "tasks_completed"} {
		if ValidSignalType(ty) {
			t.Errorf("%q should be rejected", ty)
		}
	}
}

func TestParseSignalTimestamp(t *testing.T) {
	ts, err := ParseSignalTimestamp("2025-06-01T08:30:00Z")
	if err != nil {
		t.Fatalf("RFC 3339 parse failed: %v", err)
	}
	if !ts.Equal(time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("ts = %v", ts)
	}

	ts, err = ParseSignalTimestamp("2025-06-01T08:30:00+05:30")
	if err != nil {
		t.Fatalf("offset parse failed: %v", err)
	}
	if !ts.Equal(time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("offset ts = %v", ts.UTC())
	}

	ts, err = ParseSignalTimestamp("2025-06-01")
	if err != nil {
		t.Fatalf("bare date parse failed: %v", err)
	}
	if got := ts.Format("2006-01-02"); got != "2025-06-01" {
		t.Errorf("bare date = %s", got)
	}

	for _, bad := range []string{"", "yesterday", "06/01/2025", "2025-6-1"} {
		if _, err := ParseSignalTimestamp(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}
