package backend

import (
	"testing"
	"time"
)

func TestParseTimestamp_RFC3339(t *testing.T) {
	got, err := ParseTimestamp("2026-08-29T12:02:00Z")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	want := time.Date(2026, 8, 29, 12, 2, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseTimestamp_ZonelessIsUTC(t *testing.T) {
	for _, s := range []string{"2026-08-29T12:02:00", "2026-08-29T12:02:00.123"} {
		got, err := ParseTimestamp(s)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", s, err)
		}
		if got.Location() != time.UTC {
			t.Errorf("ParseTimestamp(%q) location = %v, want UTC", s, got.Location())
		}
		if got.Hour() != 12 || got.Minute() != 2 {
			t.Errorf("ParseTimestamp(%q) = %v", s, got)
		}
	}
}

func TestParseTimestamp_OffsetNormalizedToUTC(t *testing.T) {
	got, err := ParseTimestamp("2026-08-29T14:02:00+02:00")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	want := time.Date(2026, 8, 29, 12, 2, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseTimestamp_Garbage(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-time", "2026-13-45T99:99:99Z", "1234567890"} {
		if _, err := ParseTimestamp(s); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded, want error", s)
		}
	}
}
