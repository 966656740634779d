package session

import (
	"github.com/kingrea/shunkan/internal/phrase"
	"github.com/kingrea/shunkan/internal/resolver"
)

// Direction selects which language is shown on the front of a card.
type Direction string

const (
	SourceToTarget Direction = "source_to_target"
	TargetToSource Direction = "target_to_source"
)

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == TargetToSource {
		return SourceToTarget
	}
	return TargetToSource
}

// FrontSide returns the resolver side shown before the card is revealed.
func (d Direction) FrontSide() resolver.Side {
	if d == TargetToSource {
		return resolver.SideTarget
	}
	return resolver.SideSource
}

// Filters narrow the visible set.
type Filters struct {
	FavoritesOnly bool `json:"favorites_only"`
	DueOnly       bool `json:"due_only"`
}

// Favorites is the set of starred phrase ids.
type Favorites map[phrase.ID]bool

// Has reports whether id is starred.
func (f Favorites) Has(id phrase.ID) bool {
	return f[id]
}

// Toggle flips id and reports whether it is now starred.
func (f Favorites) Toggle(id phrase.ID) bool {
	if f[id] {
		delete(f, id)
		return false
	}
	f[id] = true
	return true
}

// Prune drops ids for which keep returns false.
func (f Favorites) Prune(keep func(phrase.ID) bool) int {
	removed := 0
	for id := range f {
		if !keep(id) {
			delete(f, id)
			removed++
		}
	}
	return removed
}

// State is the persisted study session.
type State struct {
	Order     []int              `json:"order"`
	Position  int                `json:"position"`
	Revealed  bool               `json:"revealed"`
	Filters   Filters            `json:"filters"`
	Level     resolver.Level     `json:"level"`
	SlotPick  resolver.SlotCache `json:"slot_pick"`
	Favorites Favorites          `json:"favorites"`
	Direction Direction          `json:"direction"`
	TimerOn   bool               `json:"timer_on"`
}

// DefaultState returns a fresh session: level 1, due-only on, timer on.
func DefaultState() State {
	return State{
		Filters:   Filters{DueOnly: true},
		Level:     resolver.LevelFixed,
		SlotPick:  resolver.SlotCache{},
		Favorites: Favorites{},
		Direction: SourceToTarget,
		TimerOn:   true,
	}
}

// Normalize repairs fields a partial or older snapshot may leave unset.
func (s *State) Normalize() {
	if !s.Level.IsValid() {
		s.Level = resolver.LevelFixed
	}
	if s.SlotPick == nil {
		s.SlotPick = resolver.SlotCache{}
	}
	if s.Favorites == nil {
		s.Favorites = Favorites{}
	}
	if s.Direction != TargetToSource {
		s.Direction = SourceToTarget
	}
	if s.Position < 0 {
		s.Position = 0
	}
}

// isPermutation reports whether order holds each of [0, n) exactly once.
func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
