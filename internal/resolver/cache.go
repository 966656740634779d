package resolver

import "github.com/kingrea/shunkan/internal/phrase"

// SlotCache remembers which slot index was drawn for a displayed card. An
// entry is only meaningful while its card is on screen.
type SlotCache map[phrase.ID]int

// Lookup returns the cached slot index for id.
func (c SlotCache) Lookup(id phrase.ID) (int, bool) {
	if c == nil {
		return 0, false
	}
	idx, ok := c[id]
	return idx, ok
}

// Store records idx for id. Writes to a nil cache are dropped.
func (c SlotCache) Store(id phrase.ID, idx int) {
	if c == nil {
		return
	}
	c[id] = idx
}

// Clear forgets the pick for id.
func (c SlotCache) Clear(id phrase.ID) {
	delete(c, id)
}

// Reset forgets every pick.
func (c SlotCache) Reset() {
	for id := range c {
		delete(c, id)
	}
}
