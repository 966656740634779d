package session

import (
	"math/rand/v2"

	"github.com/kingrea/shunkan/internal/phrase"
	"github.com/kingrea/shunkan/internal/resolver"
)

// Content is the view of the content store the queue needs.
type Content interface {
	Len() int
	IDAt(i int) (phrase.ID, bool)
}

// DueChecker reports whether a phrase is due at a fractional day.
type DueChecker interface {
	Due(id phrase.ID, now float64) bool
}

// FilterVisible returns the record indexes of order that pass filters. It
// never mutates its inputs.
func FilterVisible(order []int, content Content, favorites Favorites, due DueChecker, now float64, filters Filters) []int {
	visible := make([]int, 0, len(order))
	for _, idx := range order {
		id, ok := content.IDAt(idx)
		if !ok {
			continue
		}
		if filters.FavoritesOnly && !favorites.Has(id) {
			continue
		}
		if filters.DueOnly && due != nil && !due.Due(id, now) {
			continue
		}
		visible = append(visible, idx)
	}
	return visible
}

// Queue walks the session order. Position always indexes the visible list,
// not Order.
type Queue struct {
	state    *State
	content  Content
	progress DueChecker
	rng      *rand.Rand

	// displayed is the record index last returned by Current, or -1.
	displayed int
}

// NewQueue wraps state. A nil source uses a randomly seeded PCG.
func NewQueue(state *State, content Content, progress DueChecker, src rand.Source) *Queue {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	state.Normalize()
	q := &Queue{
		state:     state,
		content:   content,
		progress:  progress,
		rng:       rand.New(src),
		displayed: -1,
	}
	q.EnsureOrder()
	return q
}

// State exposes the underlying session state for persistence.
func (q *Queue) State() *State {
	return q.state
}

// EnsureOrder rebuilds Order when it is not a permutation of the loaded
// records and reports whether it did.
func (q *Queue) EnsureOrder() bool {
	if isPermutation(q.state.Order, q.content.Len()) {
		return false
	}
	q.RebuildOrder()
	return true
}

// RebuildOrder resets Order to content order.
func (q *Queue) RebuildOrder() {
	n := q.content.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	q.state.Order = order
	if q.state.Position >= n {
		q.state.Position = 0
	}
	q.displayed = -1
}

// Visible returns the record indexes currently eligible for display.
func (q *Queue) Visible(now float64) []int {
	return FilterVisible(q.state.Order, q.content, q.state.Favorites, q.progress, now, q.state.Filters)
}

// Current returns the record index at the clamped position. ok is false
// when nothing is visible.
func (q *Queue) Current(now float64) (int, bool) {
	visible := q.Visible(now)
	if len(visible) == 0 {
		q.displayed = -1
		return -1, false
	}
	if q.state.Position >= len(visible) || q.state.Position < 0 {
		q.state.Position = 0
	}
	q.displayed = visible[q.state.Position]
	return q.displayed, true
}

// CurrentID returns the identity of the current card.
func (q *Queue) CurrentID(now float64) (phrase.ID, bool) {
	idx, ok := q.Current(now)
	if !ok {
		return "", false
	}
	return q.content.IDAt(idx)
}

// Badge returns the 1-based position and the visible count.
func (q *Queue) Badge(now float64) (int, int) {
	visible := q.Visible(now)
	if len(visible) == 0 {
		return 0, 0
	}
	pos := q.state.Position
	if pos >= len(visible) || pos < 0 {
		pos = 0
	}
	return pos + 1, len(visible)
}

// Advance moves to the next visible card. When the displayed card has left
// its slot (requeued, or filtered out after grading) its successor already
// sits at Position, so the position is kept.
func (q *Queue) Advance(now float64) {
	q.leave(now)
	visible := q.Visible(now)
	n := len(visible)
	if n == 0 {
		q.state.Position = 0
		q.displayed = -1
		return
	}
	pos := q.state.Position
	slid := q.displayed >= 0 && (pos >= n || visible[pos] != q.displayed)
	switch {
	case pos < 0 || pos >= n:
		pos = 0
		if !slid {
			pos = 1 % n
		}
	case !slid:
		pos = (pos + 1) % n
	}
	q.state.Position = pos
	q.displayed = -1
}

// Retreat moves to the previous visible card.
func (q *Queue) Retreat(now float64) {
	q.leave(now)
	visible := q.Visible(now)
	n := len(visible)
	if n == 0 {
		q.state.Position = 0
		q.displayed = -1
		return
	}
	pos := q.state.Position
	if pos < 0 || pos >= n {
		pos = 0
	}
	q.state.Position = (pos - 1 + n) % n
	q.displayed = -1
}

// RequeueToEnd moves the current record to the end of Order so it comes
// back later in the pass. Position is left alone.
func (q *Queue) RequeueToEnd(now float64) bool {
	idx, ok := q.pin(now)
	if !ok {
		return false
	}
	order := q.state.Order
	for i, candidate := range order {
		if candidate != idx {
			continue
		}
		copy(order[i:], order[i+1:])
		order[len(order)-1] = idx
		return true
	}
	return false
}

// Shuffle randomly permutes Order and returns to the first card.
func (q *Queue) Shuffle(now float64) {
	q.leave(now)
	q.rng.Shuffle(len(q.state.Order), func(i, j int) {
		q.state.Order[i], q.state.Order[j] = q.state.Order[j], q.state.Order[i]
	})
	q.restart()
}

// ToggleFavoritesOnly flips the favorites filter and returns to the first card.
func (q *Queue) ToggleFavoritesOnly(now float64) bool {
	q.leave(now)
	q.state.Filters.FavoritesOnly = !q.state.Filters.FavoritesOnly
	q.restart()
	return q.state.Filters.FavoritesOnly
}

// ToggleDueOnly flips the due filter and returns to the first card.
func (q *Queue) ToggleDueOnly(now float64) bool {
	q.leave(now)
	q.state.Filters.DueOnly = !q.state.Filters.DueOnly
	q.restart()
	return q.state.Filters.DueOnly
}

// SetLevel changes the slot policy. The outgoing card's pick is dropped so
// the new level draws afresh.
func (q *Queue) SetLevel(now float64, level resolver.Level) {
	if !level.IsValid() {
		level = resolver.LevelFixed
	}
	q.leave(now)
	q.state.Level = level
	q.restart()
}

// ToggleLevel switches between level 1 and level 2.
func (q *Queue) ToggleLevel(now float64) resolver.Level {
	q.SetLevel(now, q.state.Level.Toggle())
	return q.state.Level
}

// ToggleFavorite stars or unstars the current card.
func (q *Queue) ToggleFavorite(now float64) (phrase.ID, bool, bool) {
	idx, ok := q.pin(now)
	if !ok {
		return "", false, false
	}
	id, ok := q.content.IDAt(idx)
	if !ok {
		return "", false, false
	}
	return id, q.state.Favorites.Toggle(id), true
}

// ToggleDirection swaps the front and back languages and hides the card.
func (q *Queue) ToggleDirection() Direction {
	q.state.Revealed = false
	q.state.Direction = q.state.Direction.Toggle()
	return q.state.Direction
}

// ToggleTimer flips the auto-reveal countdown setting.
func (q *Queue) ToggleTimer() bool {
	q.state.TimerOn = !q.state.TimerOn
	return q.state.TimerOn
}

// Flip toggles the revealed state of the current card.
func (q *Queue) Flip() bool {
	q.state.Revealed = !q.state.Revealed
	return q.state.Revealed
}

// Reveal shows the back of the current card.
func (q *Queue) Reveal() {
	q.state.Revealed = true
}

// Hide hides the back of the current card.
func (q *Queue) Hide() {
	q.state.Revealed = false
}

// ContentReplaced aligns the session with a freshly imported record set:
// favorites of vanished records are dropped, every slot pick is forgotten,
// the favorites filter is switched off and the order rebuilt.
func (q *Queue) ContentReplaced(live func(phrase.ID) bool) int {
	pruned := q.state.Favorites.Prune(live)
	q.state.SlotPick.Reset()
	q.state.Filters.FavoritesOnly = false
	q.state.Position = 0
	q.state.Revealed = false
	q.RebuildOrder()
	return pruned
}

func (q *Queue) restart() {
	q.state.Position = 0
	q.state.Revealed = false
	q.displayed = -1
}

// leave hides the card and drops the slot pick of the card being left.
func (q *Queue) leave(now float64) {
	q.state.Revealed = false
	idx := q.displayed
	if idx < 0 {
		var ok bool
		if idx, ok = q.pin(now); !ok {
			return
		}
	}
	if id, ok := q.content.IDAt(idx); ok {
		q.state.SlotPick.Clear(id)
	}
}

// pin returns the displayed record index, resolving it from Position when
// nothing has been rendered yet.
func (q *Queue) pin(now float64) (int, bool) {
	if q.displayed >= 0 {
		return q.displayed, true
	}
	visible := q.Visible(now)
	if len(visible) == 0 {
		return -1, false
	}
	if q.state.Position < 0 || q.state.Position >= len(visible) {
		q.state.Position = 0
	}
	q.displayed = visible[q.state.Position]
	return q.displayed, true
}
