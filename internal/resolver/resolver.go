package resolver

import (
	"math/rand/v2"
	"strings"

	"github.com/kingrea/shunkan/internal/phrase"
)

const (
	// Placeholder marks where a slot value is substituted in a template.
	Placeholder = "{x}"
	// Blank is rendered in place of a placeholder when no slot applies.
	Blank = "___"
)

// Level selects the slot pick policy.
type Level int

const (
	// LevelFixed always uses the first slot.
	LevelFixed Level = 1
	// LevelRandom draws a slot each time a card is shown.
	LevelRandom Level = 2
)

// IsValid reports whether l is a known level.
func (l Level) IsValid() bool {
	return l == LevelFixed || l == LevelRandom
}

// Toggle returns the other level.
func (l Level) Toggle() Level {
	if l == LevelRandom {
		return LevelFixed
	}
	return LevelRandom
}

// Side selects which language of a slot a template wants.
type Side int

const (
	SideSource Side = iota
	SideTarget
)

// Resolver picks slots. Its random source is injected so level-2 draws are
// reproducible in tests.
type Resolver struct {
	rng *rand.Rand
}

// New creates a resolver drawing from src. A nil source uses a randomly
// seeded PCG.
func New(src rand.Source) *Resolver {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Resolver{rng: rand.New(src)}
}

// PickSlot returns the slot to display for rec, recording the choice in
// cache. Records without slots resolve to none.
func (r *Resolver) PickSlot(rec phrase.Record, level Level, cache SlotCache) (phrase.Slot, bool) {
	if len(rec.Slots) == 0 {
		return phrase.Slot{}, false
	}
	id := rec.ID()
	if level != LevelRandom {
		cache.Store(id, 0)
		return rec.Slots[0], true
	}
	if idx, ok := cache.Lookup(id); ok && idx >= 0 && idx < len(rec.Slots) {
		return rec.Slots[idx], true
	}
	idx := r.rng.IntN(len(rec.Slots))
	cache.Store(id, idx)
	return rec.Slots[idx], true
}

// Render substitutes value into template. Templates without a placeholder
// are returned unchanged; a placeholder with no slot renders as Blank.
func Render(template, value string, ok bool) string {
	if !strings.Contains(template, Placeholder) {
		return template
	}
	if !ok {
		return strings.ReplaceAll(template, Placeholder, Blank)
	}
	return strings.ReplaceAll(template, Placeholder, value)
}

// RenderSide renders the source or target template of rec with the
// matching language value of slot.
func RenderSide(rec phrase.Record, side Side, slot phrase.Slot, ok bool) string {
	if side == SideTarget {
		return Render(rec.TargetTemplate, slot.Target, ok)
	}
	return Render(rec.SourceTemplate, slot.Source, ok)
}
