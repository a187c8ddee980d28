package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-06-03T09:00", time.Date(2024, 6, 3, 9, 0, 0, 0, loc)},
		{"2024-06-03T09:00:30", time.Date(2024, 6, 3, 9, 0, 30, 0, loc)},
		{"2024-06-03T07:00:00Z", time.Date(2024, 6, 3, 9, 0, 0, 0, loc)},
		{"2024-06-03T07:00:00.000Z", time.Date(2024, 6, 3, 9, 0, 0, 0, loc)},
		{"2024-06-03T09:00:00+02:00", time.Date(2024, 6, 3, 9, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in, loc)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) || got.Hour() != tt.want.Hour() {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestampErrors(t *testing.T) {
	if _, err := ParseTimestamp("  ", nil); !errors.Is(err, ErrEmptyTimestamp) {
		t.Errorf("blank input error = %v, want ErrEmptyTimestamp", err)
	}
	if _, err := ParseTimestamp("next tuesday", nil); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestDraftWithID(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	d := Draft{Title: "Standup", Start: start, End: start.Add(30 * time.Minute), Color: "blue"}
	e := d.WithID("abc")
	if e.ID != "abc" || e.Title != "Standup" || e.Color != "blue" {
		t.Errorf("WithID() = %+v", e)
	}
	if e.Duration() != 30*time.Minute {
		t.Errorf("Duration() = %v, want 30m", e.Duration())
	}
}

func TestParseDay(t *testing.T) {
	loc := time.FixedZone("UTC-4", -4*60*60)
	d, err := ParseDay(" 2024-06-03 ", loc)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 6, 3, 0, 0, 0, 0, loc); !d.Equal(want) || d.Location() != loc {
		t.Errorf("ParseDay() = %v, want %v", d, want)
	}
	if _, err := ParseDay("06/03/2024", loc); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestDayStartSkippedMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skipf("timezone unavailable: %v", err)
	}

	// Clocks went from 00:00 to 01:00 on 2024-09-08.
	got := DayStart(2024, 9, 8, loc)
	if y, m, d := got.Date(); y != 2024 || m != 9 || d != 8 {
		t.Fatalf("DayStart() = %v, want a time on 2024-09-08", got)
	}
	if got.Hour() != 1 {
		t.Errorf("DayStart() = %v, want 01:00", got)
	}

	parsed, err := ParseDay("2024-09-08", loc)
	if err != nil || !parsed.Equal(got) {
		t.Errorf("ParseDay() = %v, %v; want %v", parsed, err, got)
	}

	if got := DayStart(2024, 9, 9, loc); got.Hour() != 0 || got.Day() != 9 {
		t.Errorf("DayStart(next day) = %v, want midnight", got)
	}
}
