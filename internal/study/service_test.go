package study

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/shunkan/internal/countdown"
	"github.com/kingrea/shunkan/internal/logbook"
	"github.com/kingrea/shunkan/internal/phrase"
	"github.com/kingrea/shunkan/internal/resolver"
	"github.com/kingrea/shunkan/internal/srs"
	"github.com/kingrea/shunkan/internal/storage"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var abc = []phrase.Row{
	{Source: "A", Target: "a"},
	{Source: "B", Target: "b"},
	{Source: "C", Target: "c"},
}

type harness struct {
	dir   string
	repo  storage.Repository
	clock *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{
		dir:   dir,
		repo:  storage.NewFileRepository(filepath.Join(dir, "state")),
		clock: &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)},
	}
}

func (h *harness) service(t *testing.T, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithClock(h.clock.Now),
		WithRand(rand.NewPCG(1, 2), rand.NewPCG(3, 4)),
	}
	svc := New(h.repo, append(base, opts...)...)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func (h *harness) loaded(t *testing.T, rows []phrase.Row, opts ...Option) *Service {
	t.Helper()
	svc := h.service(t, opts...)
	_, err := svc.Import(context.Background(), rows)
	require.NoError(t, err)
	return svc
}

func idOf(t *testing.T, row phrase.Row) phrase.ID {
	t.Helper()
	rec, ok := phrase.NewRecord(row)
	require.True(t, ok)
	return rec.ID()
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	h := newHarness(t)
	svc := h.service(t)
	card := svc.Card()
	require.False(t, card.Empty)
	assert.Equal(t, "今忙しい。", card.Front)
	assert.Equal(t, "I'm busy right now.", card.Back)
	assert.Equal(t, 1, card.Position)
	assert.Equal(t, 3, card.Total)
	assert.Equal(t, 3, card.Due)
	assert.True(t, card.DueOnly)

	for _, blob := range storage.Blobs() {
		_, err := h.repo.Load(context.Background(), blob)
		assert.NoError(t, err, "blob %s must be persisted after load", blob)
	}
}

func TestAgainRequeuesAndShowsSuccessor(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	ctx := context.Background()
	require.Equal(t, "A", svc.Card().Front)

	card, err := svc.Grade(ctx, srs.Again)
	require.NoError(t, err)
	assert.Equal(t, "B", card.Front)
	assert.False(t, card.Revealed)
	assert.Equal(t, []int{1, 2, 0}, svc.state.Order)

	entry, ok := svc.ledger.Get(idOf(t, abc[0]))
	require.True(t, ok)
	assert.Equal(t, srs.Entry{Interval: 0, Due: srs.DayOf(h.clock.Now())}, entry)

	svc.Grade(ctx, srs.Good)
	card, _ = svc.Grade(ctx, srs.Good)
	assert.Equal(t, "A", card.Front, "the requeued card comes back at the end of the pass")
}

func TestGoodLeavesDueSet(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	card, err := svc.Grade(context.Background(), srs.Good)
	require.NoError(t, err)
	assert.Equal(t, "B", card.Front)
	assert.Equal(t, 2, card.Total)
	assert.Equal(t, 2, card.Due)

	entry, _ := svc.ledger.Get(idOf(t, abc[0]))
	assert.Equal(t, 1.0, entry.Interval)
	assert.InDelta(t, srs.DayOf(h.clock.Now())+1, entry.Due, 1e-9)
}

func TestHardIsSubDay(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	_, err := svc.Grade(context.Background(), srs.Hard)
	require.NoError(t, err)
	id := idOf(t, abc[0])

	entry, _ := svc.ledger.Get(id)
	assert.Equal(t, 0.25, entry.Interval)
	assert.False(t, svc.ledger.Due(id, srs.DayOf(h.clock.Now())))

	h.clock.Advance(7 * time.Hour)
	assert.True(t, svc.ledger.Due(id, srs.DayOf(h.clock.Now())))
}

func TestEmptyReasons(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc[:1])
	ctx := context.Background()

	card, err := svc.Grade(ctx, srs.Easy)
	require.NoError(t, err)
	assert.True(t, card.Empty)
	assert.Equal(t, ReviewsDone, card.Reason)
	assert.Zero(t, card.Countdown, "no countdown without a card")

	card, _ = svc.ToggleDueOnly(ctx)
	assert.False(t, card.Empty)
	card, _ = svc.ToggleFavoritesOnly(ctx)
	assert.True(t, card.Empty)
	assert.Equal(t, Filtered, card.Reason)
	assert.NotEmpty(t, card.Reason.Hint())
}

func TestCountdownRevealsOnlyCurrentCard(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	ctx := context.Background()

	card, err := svc.Next(ctx)
	require.NoError(t, err)
	first := card.Countdown
	require.NotZero(t, first)
	assert.Equal(t, 3, card.Remaining)

	card, _ = svc.Next(ctx)
	second := card.Countdown
	require.NotEqual(t, first, second)

	h.clock.Advance(time.Second)
	card, outcome, err := svc.Tick(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, countdown.Pending, outcome)
	assert.Equal(t, 2, card.Remaining)

	h.clock.Advance(5 * time.Second)
	_, outcome, _ = svc.Tick(ctx, first)
	assert.Equal(t, countdown.Stale, outcome)

	card, outcome, err = svc.Tick(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, countdown.Expired, outcome)
	assert.True(t, card.Revealed)
	assert.Equal(t, "C", card.Front)
}

func TestTimerToggleAndFlipCancelCountdown(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	ctx := context.Background()

	card, _ := svc.Next(ctx)
	armed := card.Countdown
	card, _ = svc.Flip(ctx)
	assert.True(t, card.Revealed)
	assert.Zero(t, card.Countdown)
	_, outcome, _ := svc.Tick(ctx, armed)
	assert.Equal(t, countdown.Stale, outcome)

	card, _ = svc.ToggleTimer(ctx)
	assert.False(t, card.TimerOn)
	card, _ = svc.Next(ctx)
	assert.Zero(t, card.Countdown)
}

func TestLevelTwoPickIsStableWhileDisplayed(t *testing.T) {
	h := newHarness(t)
	rows := []phrase.Row{{Source: "{x}です", Target: "It's {x}", SlotSpec: "cat:猫|dog:犬|bird:鳥|fish:魚"}}
	svc := h.loaded(t, rows)
	ctx := context.Background()

	card, err := svc.SetLevel(ctx, resolver.LevelRandom)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again := svc.Card()
		assert.Equal(t, card.Front, again.Front)
		assert.Equal(t, card.Back, again.Back)
	}
	card, _ = svc.ToggleDirection(ctx)
	assert.Contains(t, card.Front, "It's ")
}

func TestImportRoundTripPreservesProgress(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	ctx := context.Background()
	svc.Grade(ctx, srs.Good)
	svc.Grade(ctx, srs.Hard)
	before := svc.ledger.Snapshot()

	path := filepath.Join(h.dir, "export", "phrases.csv")
	n, err := svc.Export(path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	h.clock.Advance(48 * time.Hour)
	result, err := svc.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Records: 3, Kept: 3}, result)
	assert.Equal(t, before, svc.ledger.Snapshot())

	edited := append([]phrase.Row(nil), abc...)
	edited[1].Note = "annotated"
	result, err = svc.Import(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Pruned)

	after := svc.ledger.Snapshot()
	assert.Equal(t, before[idOf(t, abc[0])], after[idOf(t, abc[0])])
	assert.Equal(t, before[idOf(t, abc[2])], after[idOf(t, abc[2])])
	assert.Equal(t, srs.Fresh(srs.DayOf(h.clock.Now())), after[idOf(t, edited[1])])
	assert.NotContains(t, after, idOf(t, abc[1]))
}

func TestImportRejectsEmptyResult(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	_, err := svc.Import(context.Background(), []phrase.Row{{Source: "only"}, {Target: "half"}})
	require.ErrorIs(t, err, phrase.ErrNoRecords)
	assert.Equal(t, 3, svc.Stats().Records)
	assert.Equal(t, "A", svc.Card().Front)
}

func TestImportResetsSessionView(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	ctx := context.Background()
	svc.Next(ctx)
	svc.ToggleFavorite(ctx)
	svc.ToggleFavoritesOnly(ctx)
	require.Equal(t, 1, svc.Stats().Favorites)

	_, err := svc.Import(ctx, []phrase.Row{abc[0], abc[2]})
	require.NoError(t, err)
	stats := svc.Stats()
	assert.Zero(t, stats.Favorites, "favorite B no longer exists")
	assert.False(t, stats.Filters.FavoritesOnly)
	card := svc.Card()
	assert.Equal(t, "A", card.Front)
	assert.Equal(t, 1, card.Position)
}

func TestSessionSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	svc := h.loaded(t, abc)
	ctx := context.Background()
	svc.ToggleDueOnly(ctx)
	svc.Next(ctx)
	svc.ToggleFavorite(ctx)
	svc.ToggleDirection(ctx)

	restored := h.service(t)
	card := restored.Card()
	assert.Equal(t, "b", card.Front)
	assert.True(t, card.Favorite)
	assert.False(t, card.DueOnly)
	assert.Equal(t, 2, card.Position)
	assert.Equal(t, svc.ledger.Snapshot(), restored.ledger.Snapshot())
}

func TestCorruptBlobFallsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.repo.Save(ctx, storage.BlobProgress, []byte("{broken")))
	require.NoError(t, h.repo.Save(ctx, storage.BlobSession, []byte("[]")))
	svc := h.service(t)
	assert.Equal(t, 3, svc.Stats().Due)
	assert.False(t, svc.Card().Empty)
}

func TestResetRestoresDefaults(t *testing.T) {
	h := newHarness(t)
	journalPath := filepath.Join(h.dir, "logs", "journal.log")
	journal, err := logbook.New(journalPath, "run-1")
	require.NoError(t, err)
	svc := h.loaded(t, abc, WithJournal(journal))
	ctx := context.Background()
	svc.Grade(ctx, srs.Easy)

	card, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "今忙しい。", card.Front)
	assert.Equal(t, 3, svc.Stats().Due)

	lines, total := journal.Tail(10)
	assert.Equal(t, 3, total)
	assert.Contains(t, lines[1], "grade Easy")
	assert.Contains(t, lines[2], "reset")
	_, err = os.Stat(journalPath)
	assert.NoError(t, err)
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	h := newHarness(t)
	repo, err := storage.OpenSQLite(context.Background(), filepath.Join(h.dir, "shunkan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	h.repo = repo

	svc := h.loaded(t, abc)
	svc.Grade(context.Background(), srs.Good)
	restored := h.service(t)
	assert.Equal(t, svc.ledger.Snapshot(), restored.ledger.Snapshot())
	assert.Equal(t, "B", restored.Card().Front)
}

func TestActionsBeforeLoad(t *testing.T) {
	svc := New(storage.NewFileRepository(t.TempDir()))
	_, err := svc.Next(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.True(t, svc.Card().Empty)
}
