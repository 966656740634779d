package srs

import (
	"encoding"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGrade is returned when a grade name or value is not recognised.
var ErrInvalidGrade = errors.New("srs: invalid grade")

// Grade is the learner's recall assessment for one card.
type Grade int

const (
	Again Grade = iota + 1 // Not recalled; card returns later in the session.
	Hard                   // Recalled with difficulty.
	Good                   // Recalled.
	Easy                   // Recalled without effort.
)

var gradeNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

var (
	_ fmt.Stringer             = Grade(0)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// String returns the grade name, or "Grade(n)" for invalid values.
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// IsValid reports whether g is one of Again..Easy.
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// Requeues reports whether the card should come back within the session.
func (g Grade) Requeues() bool {
	return g == Again
}

// ParseGrade accepts a grade name (case-insensitive) or its number 1-4.
func ParseGrade(s string) (Grade, error) {
	s = strings.TrimSpace(s)
	for g := Again; g <= Easy; g++ {
		if strings.EqualFold(s, gradeNames[g]) || s == fmt.Sprint(int(g)) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
