package recurrence

import (
	"testing"
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestOccursOn(t *testing.T) {
	tests := []struct {
		name  string
		kind  model.Recurrence
		start string
		date  string
		want  bool
	}{
		{"weekly start day", model.Weekly, "2024-01-01", "2024-01-01", true},
		{"weekly next week", model.Weekly, "2024-01-01", "2024-01-08", true},
		{"weekly mid week", model.Weekly, "2024-01-01", "2024-01-05", false},
		{"weekly before start", model.Weekly, "2024-01-08", "2024-01-01", false},
		{"biweekly two weeks", model.BiWeekly, "2024-01-01", "2024-01-15", true},
		{"biweekly one week", model.BiWeekly, "2024-01-01", "2024-01-08", false},
		{"monthly same day", model.Monthly, "2024-01-05", "2024-03-05", true},
		{"monthly other day", model.Monthly, "2024-01-05", "2024-03-06", false},
		{"monthly 31st in april", model.Monthly, "2024-01-31", "2024-04-30", false},
		{"custom never", model.Custom, "2024-01-01", "2024-01-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OccursOn(mustDate(t, tt.start), nil, tt.kind, mustDate(t, tt.date))
			if got != tt.want {
				t.Fatalf("OccursOn(%s, %s, %s) = %v, want %v", tt.start, tt.kind, tt.date, got, tt.want)
			}
		})
	}
}

func TestOccursOn_EndDateInclusive(t *testing.T) {
	end := mustDate(t, "2024-01-15")
	s := Schedule{Start: mustDate(t, "2024-01-01"), End: &end, Kind: model.Weekly}

	if !s.OccursOn(mustDate(t, "2024-01-15")) {
		t.Fatal("schedule should fire on its end date")
	}
	if s.OccursOn(mustDate(t, "2024-01-22")) {
		t.Fatal("schedule fired after its end date")
	}
}

func TestMonthlyThirtyFirstSkipsFebruary(t *testing.T) {
	s := Schedule{Start: mustDate(t, "2024-01-31"), Kind: model.Monthly}
	got := s.Enumerate(mustDate(t, "2024-02-01"), mustDate(t, "2024-02-29"))
	if len(got) != 0 {
		t.Fatalf("Enumerate over February = %v, want none", got)
	}
}

func TestEnumerate(t *testing.T) {
	s := Schedule{Start: mustDate(t, "2024-01-01"), Kind: model.Weekly}
	got := s.Enumerate(mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))

	want := []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29"}
	if len(got) != len(want) {
		t.Fatalf("Enumerate returned %d dates, want %d", len(got), len(want))
	}
	for i, d := range got {
		if model.FormatDate(d) != want[i] {
			t.Fatalf("date[%d] = %s, want %s", i, model.FormatDate(d), want[i])
		}
	}
}

func TestOccursOn_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	date := time.Date(2024, 1, 8, 0, 15, 0, 0, time.UTC)
	if !OccursOn(start, nil, model.Weekly, date) {
		t.Fatal("time-of-day should not affect weekly firing")
	}
}
