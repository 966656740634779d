package session

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/shunkan/internal/phrase"
	"github.com/kingrea/shunkan/internal/progress"
	"github.com/kingrea/shunkan/internal/resolver"
	"github.com/kingrea/shunkan/internal/srs"
)

const now = 100.0

type fixture struct {
	store  *phrase.Store
	ledger *progress.Ledger
	state  *State
	queue  *Queue
}

func newFixture(t *testing.T, rows ...phrase.Row) *fixture {
	t.Helper()
	if len(rows) == 0 {
		rows = []phrase.Row{
			{Source: "A", Target: "a"},
			{Source: "B", Target: "b"},
			{Source: "C", Target: "c"},
		}
	}
	store := phrase.NewStore(rows)
	require.Equal(t, len(rows), store.Len())
	ledger := progress.New(srs.DefaultPolicy())
	ledger.Reconcile(store.Records(), now)
	state := DefaultState()
	return &fixture{
		store:  store,
		ledger: ledger,
		state:  &state,
		queue:  NewQueue(&state, store, ledger, rand.NewPCG(1, 1)),
	}
}

func (f *fixture) current(t *testing.T) string {
	t.Helper()
	idx, ok := f.queue.Current(now)
	require.True(t, ok, "expected a current card")
	rec, _ := f.store.At(idx)
	return rec.SourceTemplate
}

func (f *fixture) id(t *testing.T, i int) phrase.ID {
	t.Helper()
	id, ok := f.store.IDAt(i)
	require.True(t, ok)
	return id
}

func TestNewQueueBuildsIdentityOrder(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []int{0, 1, 2}, f.state.Order)
	assert.Equal(t, "A", f.current(t))
}

func TestEnsureOrderRepairsStaleOrder(t *testing.T) {
	f := newFixture(t)
	f.state.Order = []int{0, 1, 1}
	assert.True(t, f.queue.EnsureOrder())
	assert.Equal(t, []int{0, 1, 2}, f.state.Order)
	assert.False(t, f.queue.EnsureOrder())
}

func TestFilterVisible(t *testing.T) {
	f := newFixture(t)
	a, b := f.id(t, 0), f.id(t, 1)
	f.ledger.ApplyGrade(b, srs.Good, now)
	favorites := Favorites{a: true}

	tests := []struct {
		name    string
		filters Filters
		want    []int
	}{
		{name: "no filters", filters: Filters{}, want: []int{0, 1, 2}},
		{name: "due only", filters: Filters{DueOnly: true}, want: []int{0, 2}},
		{name: "favorites only", filters: Filters{FavoritesOnly: true}, want: []int{0}},
		{name: "both", filters: Filters{FavoritesOnly: true, DueOnly: true}, want: []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := []int{0, 1, 2}
			got := FilterVisible(order, f.store, favorites, f.ledger, now, tt.filters)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []int{0, 1, 2}, order)
		})
	}
}

func TestAdvanceAndRetreatWrap(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "A", f.current(t))
	f.queue.Advance(now)
	assert.Equal(t, "B", f.current(t))
	f.queue.Advance(now)
	f.queue.Advance(now)
	assert.Equal(t, "A", f.current(t))
	f.queue.Retreat(now)
	assert.Equal(t, "C", f.current(t))
}

func TestAdvanceClearsRevealAndSlotPick(t *testing.T) {
	f := newFixture(t)
	a := f.id(t, 0)
	f.current(t)
	f.state.SlotPick.Store(a, 1)
	f.queue.Flip()
	f.queue.Advance(now)
	assert.False(t, f.state.Revealed)
	_, ok := f.state.SlotPick.Lookup(a)
	assert.False(t, ok)
}

func TestAgainRequeueScenario(t *testing.T) {
	f := newFixture(t)
	a := f.id(t, 0)
	assert.Equal(t, "A", f.current(t))

	entry := f.ledger.ApplyGrade(a, srs.Again, now)
	assert.Equal(t, srs.Entry{Interval: 0, Due: now}, entry)
	require.True(t, f.queue.RequeueToEnd(now))
	assert.Equal(t, []int{1, 2, 0}, f.state.Order)
	assert.Equal(t, 0, f.state.Position)

	f.queue.Advance(now)
	assert.Equal(t, "B", f.current(t))
}

func TestAgainOnLastCardWraps(t *testing.T) {
	f := newFixture(t)
	f.state.Position = 2
	assert.Equal(t, "C", f.current(t))
	f.queue.RequeueToEnd(now)
	f.queue.Advance(now)
	assert.Equal(t, "A", f.current(t))
}

func TestGoodEscapesDueSet(t *testing.T) {
	f := newFixture(t)
	a := f.id(t, 0)
	assert.Equal(t, "A", f.current(t))

	entry := f.ledger.ApplyGrade(a, srs.Good, now)
	assert.Equal(t, srs.Entry{Interval: 1, Due: now + 1}, entry)
	assert.NotContains(t, f.queue.Visible(now), 0)

	f.queue.Advance(now)
	assert.Equal(t, "B", f.current(t), "the successor must not be skipped")
}

func TestGradingLastDueCardEmptiesQueue(t *testing.T) {
	f := newFixture(t, phrase.Row{Source: "A", Target: "a"})
	f.current(t)
	f.ledger.ApplyGrade(f.id(t, 0), srs.Easy, now)
	f.queue.Advance(now)
	_, ok := f.queue.Current(now)
	assert.False(t, ok)
	pos, total := f.queue.Badge(now)
	assert.Zero(t, pos)
	assert.Zero(t, total)
}

func TestAdvanceWithoutRenderStillTracksCard(t *testing.T) {
	f := newFixture(t)
	f.ledger.ApplyGrade(f.id(t, 0), srs.Good, now)
	// A vanished before it was rendered, so B counts as displayed and is passed.
	f.queue.Advance(now)
	assert.Equal(t, "C", f.current(t))
}

func TestPositionClampsWhenOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.state.Position = 7
	assert.Equal(t, "A", f.current(t))
	assert.Equal(t, 0, f.state.Position)
}

func TestShuffleIsSeededPermutation(t *testing.T) {
	rows := make([]phrase.Row, 0, 8)
	for _, s := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		rows = append(rows, phrase.Row{Source: s, Target: s})
	}
	f := newFixture(t, rows...)
	f.state.Position = 3
	f.queue.Flip()
	f.queue.Shuffle(now)
	assert.True(t, isPermutation(f.state.Order, len(rows)))
	assert.Equal(t, 0, f.state.Position)
	assert.False(t, f.state.Revealed)

	g := newFixture(t, rows...)
	g.queue.Shuffle(now)
	assert.Equal(t, f.state.Order, g.state.Order, "same seed must give the same order")
}

func TestToggleFiltersResetPosition(t *testing.T) {
	f := newFixture(t)
	f.state.Position = 2
	f.queue.Flip()
	assert.False(t, f.queue.ToggleDueOnly(now))
	assert.Equal(t, 0, f.state.Position)
	assert.False(t, f.state.Revealed)

	_, starred, ok := f.queue.ToggleFavorite(now)
	require.True(t, ok)
	assert.True(t, starred)
	f.state.Position = 1
	assert.True(t, f.queue.ToggleFavoritesOnly(now))
	assert.Equal(t, 0, f.state.Position)
	assert.Equal(t, []int{0}, f.queue.Visible(now))
}

func TestSetLevelDropsOutgoingPick(t *testing.T) {
	f := newFixture(t, phrase.Row{Source: "{x}", Target: "{x}", SlotSpec: "a:あ|b:い"})
	id := f.id(t, 0)
	f.current(t)
	f.state.SlotPick.Store(id, 1)
	assert.Equal(t, resolver.LevelRandom, f.queue.ToggleLevel(now))
	_, ok := f.state.SlotPick.Lookup(id)
	assert.False(t, ok)

	f.queue.SetLevel(now, resolver.Level(9))
	assert.Equal(t, resolver.LevelFixed, f.state.Level)
}

func TestToggleDirectionHidesCard(t *testing.T) {
	f := newFixture(t)
	f.queue.Flip()
	assert.Equal(t, TargetToSource, f.queue.ToggleDirection())
	assert.False(t, f.state.Revealed)
	assert.Equal(t, resolver.SideTarget, f.state.Direction.FrontSide())
}

func TestContentReplaced(t *testing.T) {
	f := newFixture(t)
	a, b := f.id(t, 0), f.id(t, 1)
	f.state.Favorites[a] = true
	f.state.Favorites[b] = true
	f.state.SlotPick.Store(a, 0)
	f.state.Filters.FavoritesOnly = true

	_, err := f.store.ReplaceAll([]phrase.Row{{Source: "A", Target: "a"}, {Source: "Z", Target: "z"}})
	require.NoError(t, err)
	pruned := f.queue.ContentReplaced(f.store.Contains)

	assert.Equal(t, 1, pruned)
	assert.True(t, f.state.Favorites.Has(a))
	assert.False(t, f.state.Favorites.Has(b))
	assert.Empty(t, f.state.SlotPick)
	assert.False(t, f.state.Filters.FavoritesOnly)
	assert.Equal(t, []int{0, 1}, f.state.Order)
}

func TestNormalizeRepairsPartialState(t *testing.T) {
	s := State{Level: 0, Position: -3, Direction: "sideways"}
	s.Normalize()
	assert.Equal(t, resolver.LevelFixed, s.Level)
	assert.Equal(t, 0, s.Position)
	assert.Equal(t, SourceToTarget, s.Direction)
	assert.NotNil(t, s.SlotPick)
	assert.NotNil(t, s.Favorites)
}
