package srs

import (
	"errors"
	"testing"
	"time"
)

func TestNextTable(t *testing.T) {
	const now = 100.0
	tests := []struct {
		name  string
		prev  float64
		grade Grade
		want  Entry
	}{
		{"again resets", 40, Again, Entry{0, now}},
		{"again from fresh", 0, Again, Entry{0, now}},
		{"hard first", 0, Hard, Entry{0.25, now + 0.25}},
		{"hard grows", 2, Hard, Entry{3, now + 3}},
		{"hard floor", 0.1, Hard, Entry{0.25, now + 0.25}},
		{"hard cap", 300, Hard, Entry{365, now + 365}},
		{"good first", 0, Good, Entry{1, now + 1}},
		{"good doubles", 4, Good, Entry{8, now + 8}},
		{"good cap", 200, Good, Entry{365, now + 365}},
		{"easy first", 0, Easy, Entry{3, now + 3}},
		{"easy triples", 3, Easy, Entry{9, now + 9}},
		{"easy cap", 200, Easy, Entry{365, now + 365}},
		{"negative interval treated as fresh", -1, Good, Entry{1, now + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(Entry{Interval: tt.prev, Due: 5}, tt.grade, now)
			if got != tt.want {
				t.Fatalf("Next(%v, %s) = %+v, want %+v", tt.prev, tt.grade, got, tt.want)
			}
		})
	}
}

func TestNextIsMonotonicForPassingGrades(t *testing.T) {
	policy := DefaultPolicy()
	for _, prev := range []float64{0, 0.25, 0.5, 1, 2.5, 10, 100, 364, 365, 1000} {
		for _, g := range []Grade{Hard, Good, Easy} {
			got := policy.Next(Entry{Interval: prev}, g, 0)
			floor := prev
			if floor > policy.MaxInterval {
				floor = policy.MaxInterval
			}
			if got.Interval < floor {
				t.Fatalf("%s on %v shrank interval to %v", g, prev, got.Interval)
			}
			if got.Interval > policy.MaxInterval {
				t.Fatalf("%s on %v exceeded cap: %v", g, prev, got.Interval)
			}
		}
	}
}

func TestHardIsSubDay(t *testing.T) {
	now := DayOf(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	got := Next(Fresh(now), Hard, now)
	if got.IsDue(now) {
		t.Fatalf("hard card must not be due immediately")
	}
	if d := Duration(got.Due - now); d.Round(time.Second) != 6*time.Hour {
		t.Fatalf("hard delay = %s, want 6h", d)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	bad := DefaultPolicy()
	bad.GoodFactor = 0.5
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for shrinking factor")
	}
	bad = DefaultPolicy()
	bad.MaxInterval = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero cap")
	}
}

func TestDayOfUsesLocalMidnight(t *testing.T) {
	zone := time.FixedZone("JST", 9*60*60)
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, zone)
	if got := DayOf(midnight); got != Today(midnight) {
		t.Fatalf("local midnight should be a whole day, got %v", got)
	}
	noon := midnight.Add(12 * time.Hour)
	if got := DayOf(noon) - DayOf(midnight); got != 0.5 {
		t.Fatalf("noon offset = %v, want 0.5", got)
	}
}

func TestParseGrade(t *testing.T) {
	for input, want := range map[string]Grade{"again": Again, "HARD": Hard, " Good ": Good, "4": Easy} {
		got, err := ParseGrade(input)
		if err != nil || got != want {
			t.Fatalf("ParseGrade(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseGrade("meh"); !errors.Is(err, ErrInvalidGrade) {
		t.Fatalf("expected ErrInvalidGrade, got %v", err)
	}
	if Grade(9).String() != "Grade(9)" {
		t.Fatalf("unexpected string for invalid grade: %s", Grade(9))
	}
	if !Again.Requeues() || Good.Requeues() {
		t.Fatalf("only Again requeues")
	}
	var g Grade
	if err := g.UnmarshalText([]byte("Easy")); err != nil || g != Easy {
		t.Fatalf("UnmarshalText = %v, %v", g, err)
	}
}
