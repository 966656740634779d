// Package srs implements the fixed-multiplier review policy. Intervals and
// due dates are fractional days so sub-day spacing (Hard = 6 hours) works.
package srs

import (
	"fmt"
	"math"
	"time"
)

const dayMillis = 24 * 60 * 60 * 1000

// Entry is the scheduling state of one card.
type Entry struct {
	Interval float64 `json:"interval"`
	Due      float64 `json:"due"`
}

// Fresh returns the entry for a card never graded: due immediately.
func Fresh(now float64) Entry {
	return Entry{Interval: 0, Due: now}
}

// IsDue reports whether the entry is eligible for review at now.
func (e Entry) IsDue(now float64) bool {
	return e.Due <= now
}

// Policy holds the multipliers and bounds of the review schedule.
type Policy struct {
	MaxInterval     float64
	HardMinInterval float64
	HardFactor      float64
	GoodFactor      float64
	EasyFactor      float64
	HardFirst       float64
	GoodFirst       float64
	EasyFirst       float64
}

// DefaultPolicy returns the stock schedule: Hard ×1.5 (first 0.25),
// Good ×2 (first 1), Easy ×3 (first 3), all capped at 365 days.
func DefaultPolicy() Policy {
	return Policy{
		MaxInterval:     365,
		HardMinInterval: 0.25,
		HardFactor:      1.5,
		GoodFactor:      2,
		EasyFactor:      3,
		HardFirst:       0.25,
		GoodFirst:       1,
		EasyFirst:       3,
	}
}

// Validate checks that the policy cannot shrink or explode intervals.
func (p Policy) Validate() error {
	if p.MaxInterval <= 0 {
		return fmt.Errorf("srs: max interval must be > 0 (got %v)", p.MaxInterval)
	}
	if p.HardMinInterval <= 0 || p.HardMinInterval > p.MaxInterval {
		return fmt.Errorf("srs: hard min interval must be in (0, %v] (got %v)", p.MaxInterval, p.HardMinInterval)
	}
	for name, factor := range map[string]float64{"hard": p.HardFactor, "good": p.GoodFactor, "easy": p.EasyFactor} {
		if factor < 1 {
			return fmt.Errorf("srs: %s factor must be >= 1 (got %v)", name, factor)
		}
	}
	for name, first := range map[string]float64{"hard": p.HardFirst, "good": p.GoodFirst, "easy": p.EasyFirst} {
		if first <= 0 || first > p.MaxInterval {
			return fmt.Errorf("srs: %s first interval must be in (0, %v] (got %v)", name, p.MaxInterval, first)
		}
	}
	return nil
}

// Next is DefaultPolicy().Next.
func Next(prev Entry, grade Grade, now float64) Entry {
	return DefaultPolicy().Next(prev, grade, now)
}

// Next computes the entry after grading. It is pure: no clock, no storage.
// Invalid grades leave the card due now, the same as Again.
func (p Policy) Next(prev Entry, grade Grade, now float64) Entry {
	var interval float64
	switch grade {
	case Hard:
		if prev.Interval <= 0 {
			interval = p.HardFirst
		} else {
			interval = clamp(prev.Interval*p.HardFactor, p.HardMinInterval, p.MaxInterval)
		}
	case Good:
		interval = p.grow(prev.Interval, p.GoodFirst, p.GoodFactor)
	case Easy:
		interval = p.grow(prev.Interval, p.EasyFirst, p.EasyFactor)
	default:
		return Fresh(now)
	}
	return Entry{Interval: interval, Due: now + interval}
}

func (p Policy) grow(prev, first, factor float64) float64 {
	if prev <= 0 {
		return first
	}
	return math.Min(prev*factor, p.MaxInterval)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// DayOf converts a wall-clock time to fractional days since the Unix epoch
// in t's location, so day boundaries fall at local midnight.
func DayOf(t time.Time) float64 {
	_, offset := t.Zone()
	local := t.UnixMilli() + int64(offset)*1000
	return float64(local) / dayMillis
}

// Today returns the whole local day number containing t.
func Today(t time.Time) float64 {
	return math.Floor(DayOf(t))
}

// Duration converts a fractional-day interval to a time.Duration.
func Duration(days float64) time.Duration {
	return time.Duration(days * float64(24*time.Hour))
}
