// Package study is the application controller. A Service owns the content
// store, progress ledger, session queue, slot resolver and auto-reveal
// countdown, and persists the state blobs after every action.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/kingrea/shunkan/internal/countdown"
	"github.com/kingrea/shunkan/internal/importer"
	"github.com/kingrea/shunkan/internal/logbook"
	"github.com/kingrea/shunkan/internal/logging"
	"github.com/kingrea/shunkan/internal/phrase"
	"github.com/kingrea/shunkan/internal/progress"
	"github.com/kingrea/shunkan/internal/resolver"
	"github.com/kingrea/shunkan/internal/session"
	"github.com/kingrea/shunkan/internal/srs"
	"github.com/kingrea/shunkan/internal/storage"
)

// ErrNotLoaded is returned by actions invoked before Load.
var ErrNotLoaded = errors.New("study: service not loaded")

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRand seeds the queue shuffle and the level-2 slot draws.
func WithRand(shuffle, slots rand.Source) Option {
	return func(s *Service) {
		s.shuffleSrc = shuffle
		s.resolver = resolver.New(slots)
	}
}

// WithPolicy sets the schedule.
func WithPolicy(policy srs.Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithTimerSeconds sets the auto-reveal delay.
func WithTimerSeconds(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.timerSeconds = seconds
		}
	}
}

// WithDefaults sets the session used when none is persisted.
func WithDefaults(level resolver.Level, direction session.Direction, timerOn bool) Option {
	return func(s *Service) {
		s.defaults.Level = level
		s.defaults.Direction = direction
		s.defaults.TimerOn = timerOn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithJournal sets the review journal.
func WithJournal(journal *logbook.Logbook) Option {
	return func(s *Service) {
		s.journal = journal
	}
}

// WithSheet selects the worksheet read from XLSX imports.
func WithSheet(sheet string) Option {
	return func(s *Service) {
		s.sheet = sheet
	}
}

// Service is the study application context.
type Service struct {
	repo     storage.Repository
	store    *phrase.Store
	ledger   *progress.Ledger
	state    session.State
	queue    *session.Queue
	resolver *resolver.Resolver
	timer    countdown.Countdown

	policy       srs.Policy
	defaults     session.State
	timerSeconds int
	sheet        string
	shuffleSrc   rand.Source

	now     func() time.Time
	log     *slog.Logger
	journal *logbook.Logbook
}

// New creates a service persisting through repo. Call Load before use.
func New(repo storage.Repository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		store:        phrase.NewStore(nil),
		resolver:     resolver.New(nil),
		policy:       srs.DefaultPolicy(),
		defaults:     session.DefaultState(),
		timerSeconds: 3,
		now:          time.Now,
		log:          logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "study")
	s.ledger = progress.New(s.policy)
	return s
}

// Load restores the three blobs, falling back to defaults for any that are
// missing or unreadable, reconciles progress and persists the result.
func (s *Service) Load(ctx context.Context) error {
	today := s.today()

	var rows []phrase.Row
	if s.loadBlob(ctx, storage.BlobPhrases, &rows) {
		if _, err := s.store.ReplaceAll(rows); err != nil {
			s.log.Warn("stored phrases unusable, using defaults", "error", err)
			rows = nil
		}
	}
	if len(rows) == 0 || s.store.Len() == 0 {
		if _, err := s.store.ReplaceAll(phrase.Defaults()); err != nil {
			return fmt.Errorf("study: load defaults: %w", err)
		}
	}

	var snapshot map[phrase.ID]srs.Entry
	s.loadBlob(ctx, storage.BlobProgress, &snapshot)
	s.ledger.Restore(snapshot)
	added, pruned := s.ledger.Reconcile(s.store.Records(), today)

	state := s.freshState()
	if !s.loadBlob(ctx, storage.BlobSession, &state) {
		state = s.freshState()
	}
	s.state = state
	s.queue = session.NewQueue(&s.state, s.store, s.ledger, s.shuffleSrc)

	s.log.Info("loaded",
		"records", s.store.Len(),
		"progress_added", added,
		"progress_pruned", pruned,
		"due", s.ledger.DueCount(s.store.IDs(), today),
	)
	return s.save(ctx, storage.Blobs()...)
}

// Card renders the current card. At level 2 this may draw a slot; the draw
// is persisted with the next save.
func (s *Service) Card() Card {
	if s.queue == nil {
		return Card{Empty: true, Reason: Filtered}
	}
	today := s.today()
	card := Card{
		Level:         s.state.Level,
		Direction:     s.state.Direction,
		FavoritesOnly: s.state.Filters.FavoritesOnly,
		DueOnly:       s.state.Filters.DueOnly,
		TimerOn:       s.state.TimerOn,
		Due:           s.ledger.DueCount(s.store.IDs(), today),
	}
	card.Position, card.Total = s.queue.Badge(today)
	if h, ok := s.timer.Outstanding(); ok {
		card.Countdown = h
		card.Remaining = s.timer.Remaining(s.now())
	}

	idx, ok := s.queue.Current(today)
	if !ok {
		card.Empty = true
		card.Reason = Filtered
		if s.state.Filters.DueOnly && card.Due == 0 {
			card.Reason = ReviewsDone
		}
		return card
	}
	rec, _ := s.store.At(idx)
	slot, hasSlot := s.resolver.PickSlot(rec, s.state.Level, s.state.SlotPick)
	source := resolver.RenderSide(rec, resolver.SideSource, slot, hasSlot)
	target := resolver.RenderSide(rec, resolver.SideTarget, slot, hasSlot)

	card.ID = rec.ID()
	card.Front, card.Back = source, target
	if s.state.Direction.FrontSide() == resolver.SideTarget {
		card.Front, card.Back = target, source
	}
	card.Note = rec.Note
	card.HasSlots = rec.HasSlots()
	card.Revealed = s.state.Revealed
	card.Favorite = s.state.Favorites.Has(card.ID)
	card.Entry, _ = s.ledger.Get(card.ID)
	return card
}

// Refresh renders the current card, arms its countdown and persists the
// session. Front ends call it once on start.
func (s *Service) Refresh(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	return s.commit(ctx, storage.BlobSession)
}

// Flip toggles between the front and back of the card.
func (s *Service) Flip(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	if _, ok := s.queue.Current(s.today()); ok {
		s.queue.Flip()
	}
	return s.commit(ctx, storage.BlobSession)
}

// Next moves to the following visible card.
func (s *Service) Next(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.Advance(s.today())
	return s.commit(ctx, storage.BlobSession)
}

// Prev moves to the preceding visible card.
func (s *Service) Prev(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.Retreat(s.today())
	return s.commit(ctx, storage.BlobSession)
}

// Grade schedules the current card and moves on. Again, and any value
// outside Again..Easy, resets the card and requeues it at the end of the
// pass.
func (s *Service) Grade(ctx context.Context, grade srs.Grade) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	today := s.today()
	id, ok := s.queue.CurrentID(today)
	if !ok {
		return s.commit(ctx, storage.BlobSession)
	}
	entry := s.ledger.ApplyGrade(id, grade, today)
	requeue := !grade.IsValid() || grade.Requeues()
	if requeue {
		s.queue.RequeueToEnd(today)
	}
	s.queue.Advance(today)

	s.log.Debug("graded", "id", id, "grade", grade.String(), "interval", entry.Interval, "due", entry.Due)
	s.journal.Info("grade %-5s %s interval=%s next=%s",
		grade, shortID(id), formatDays(entry.Interval), s.dueTime(entry.Due).Format("2006-01-02 15:04"))
	return s.commit(ctx, storage.BlobProgress, storage.BlobSession)
}

// Shuffle randomises the order and returns to the first card.
func (s *Service) Shuffle(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.Shuffle(s.today())
	return s.commit(ctx, storage.BlobSession)
}

// ToggleFavorite stars or unstars the current card.
func (s *Service) ToggleFavorite(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.ToggleFavorite(s.today())
	return s.commit(ctx, storage.BlobSession)
}

// ToggleFavoritesOnly flips the favorites filter.
func (s *Service) ToggleFavoritesOnly(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.ToggleFavoritesOnly(s.today())
	return s.commit(ctx, storage.BlobSession)
}

// ToggleDueOnly flips the due filter.
func (s *Service) ToggleDueOnly(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.ToggleDueOnly(s.today())
	return s.commit(ctx, storage.BlobSession)
}

// ToggleLevel switches between fixed and random slots.
func (s *Service) ToggleLevel(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.ToggleLevel(s.today())
	return s.commit(ctx, storage.BlobSession)
}

// SetLevel selects a slot level directly.
func (s *Service) SetLevel(ctx context.Context, level resolver.Level) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.SetLevel(s.today(), level)
	return s.commit(ctx, storage.BlobSession)
}

// ToggleDirection swaps the front and back languages.
func (s *Service) ToggleDirection(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.ToggleDirection()
	return s.commit(ctx, storage.BlobSession)
}

// ToggleTimer turns the auto-reveal countdown on or off.
func (s *Service) ToggleTimer(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	s.queue.ToggleTimer()
	return s.commit(ctx, storage.BlobSession)
}

// Tick delivers a countdown tick. Stale ticks change nothing; an expired
// countdown reveals the card it was armed for.
func (s *Service) Tick(ctx context.Context, h countdown.Handle) (Card, countdown.Outcome, error) {
	if s.queue == nil {
		return Card{}, countdown.Stale, ErrNotLoaded
	}
	id, _ := s.queue.CurrentID(s.today())
	_, outcome := s.timer.Tick(h, id, s.now())
	switch outcome {
	case countdown.Expired:
		s.queue.Reveal()
		card := s.Card()
		return card, outcome, s.save(ctx, storage.BlobSession)
	default:
		return s.Card(), outcome, nil
	}
}

// Import replaces the content with rows. Progress is kept for records whose
// identity survives; an import yielding no usable record changes nothing.
func (s *Service) Import(ctx context.Context, rows []phrase.Row) (ImportResult, error) {
	if err := s.begin(); err != nil {
		return ImportResult{}, err
	}
	n, err := s.store.ReplaceAll(rows)
	if err != nil {
		s.journal.Warn("import rejected: %v", err)
		return ImportResult{}, fmt.Errorf("study: import: %w", err)
	}
	added, pruned := s.ledger.Reconcile(s.store.Records(), s.today())
	favPruned := s.queue.ContentReplaced(s.store.Contains)
	result := ImportResult{
		Records:         n,
		Kept:            n - added,
		Added:           added,
		Pruned:          pruned,
		FavoritesPruned: favPruned,
	}
	s.log.Info("imported", "records", n, "kept", result.Kept, "added", added, "pruned", pruned)
	s.journal.Info("import records=%d kept=%d added=%d pruned=%d", n, result.Kept, added, pruned)
	_, err = s.commit(ctx, storage.Blobs()...)
	return result, err
}

// ImportFile reads path (CSV, XLSX or YAML) and imports it.
func (s *Service) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	rows, err := importer.ReadFile(path, importer.Options{Sheet: s.sheet})
	if err != nil {
		s.journal.Warn("import %s failed: %v", path, err)
		return ImportResult{}, err
	}
	return s.Import(ctx, rows)
}

// Rows returns the loaded content as rows for export.
func (s *Service) Rows() []phrase.Row {
	return s.store.Rows()
}

// Export writes the loaded content to path as CSV or YAML.
func (s *Service) Export(path string) (int, error) {
	rows := s.store.Rows()
	if err := importer.WriteFile(path, rows); err != nil {
		return 0, err
	}
	s.journal.Info("export records=%d to %s", len(rows), path)
	return len(rows), nil
}

// Reset deletes every stored blob and starts over from the built-in deck.
func (s *Service) Reset(ctx context.Context) (Card, error) {
	if err := s.begin(); err != nil {
		return Card{}, err
	}
	if err := storage.Reset(ctx, s.repo); err != nil {
		return Card{}, fmt.Errorf("study: reset: %w", err)
	}
	if _, err := s.store.ReplaceAll(phrase.Defaults()); err != nil {
		return Card{}, fmt.Errorf("study: reset: %w", err)
	}
	s.ledger.Restore(nil)
	s.ledger.Reconcile(s.store.Records(), s.today())
	s.state = s.freshState()
	s.queue = session.NewQueue(&s.state, s.store, s.ledger, s.shuffleSrc)
	s.log.Info("reset")
	s.journal.Info("reset to %d built-in phrases", s.store.Len())
	return s.commit(ctx, storage.Blobs()...)
}

// Stats summarises the deck and session.
func (s *Service) Stats() Stats {
	today := s.today()
	stats := Stats{
		Records:   s.store.Len(),
		Due:       s.ledger.DueCount(s.store.IDs(), today),
		Favorites: len(s.state.Favorites),
		Level:     s.state.Level,
		Direction: s.state.Direction,
		Filters:   s.state.Filters,
		TimerOn:   s.state.TimerOn,
	}
	if s.queue != nil {
		stats.Visible = len(s.queue.Visible(today))
	}
	return stats
}

// TimerSeconds returns the auto-reveal delay.
func (s *Service) TimerSeconds() int {
	return s.timerSeconds
}

// CancelCountdown drops any outstanding auto-reveal.
func (s *Service) CancelCountdown() {
	s.timer.Cancel()
}

// begin cancels the countdown ahead of a state change.
func (s *Service) begin() error {
	if s.queue == nil {
		return ErrNotLoaded
	}
	s.timer.Cancel()
	return nil
}

// commit renders the new card, arms the countdown for it when the timer is
// on and the card is hidden, then persists blobs.
func (s *Service) commit(ctx context.Context, blobs ...storage.Blob) (Card, error) {
	card := s.Card()
	if !card.Empty && !card.Revealed && s.state.TimerOn {
		card.Countdown = s.timer.Arm(card.ID, s.timerSeconds, s.now())
		card.Remaining = s.timer.Remaining(s.now())
	}
	return card, s.save(ctx, blobs...)
}

func (s *Service) save(ctx context.Context, blobs ...storage.Blob) error {
	var errs []error
	for _, blob := range blobs {
		var v any
		switch blob {
		case storage.BlobPhrases:
			v = s.store.Rows()
		case storage.BlobProgress:
			v = s.ledger.Snapshot()
		case storage.BlobSession:
			v = s.state
		default:
			continue
		}
		if err := storage.SaveJSON(ctx, s.repo, blob, v); err != nil {
			s.log.Error("save failed", "blob", blob, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// loadBlob decodes blob into v and reports whether it did. Missing and
// corrupt blobs both fall back to defaults; corruption is logged.
func (s *Service) loadBlob(ctx context.Context, blob storage.Blob, v any) bool {
	err := storage.LoadJSON(ctx, s.repo, blob, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrNotFound):
		s.log.Debug("blob absent, using defaults", "blob", blob)
	default:
		s.log.Warn("blob unreadable, using defaults", "blob", blob, "error", err)
	}
	return false
}

func (s *Service) freshState() session.State {
	state := session.DefaultState()
	state.Level = s.defaults.Level
	state.Direction = s.defaults.Direction
	state.TimerOn = s.defaults.TimerOn
	state.Normalize()
	return state
}

func (s *Service) today() float64 {
	return srs.DayOf(s.now())
}

// dueTime converts a fractional day back to wall-clock time.
func (s *Service) dueTime(due float64) time.Time {
	now := s.now()
	return now.Add(srs.Duration(due - srs.DayOf(now)))
}

func shortID(id phrase.ID) string {
	if len(id) > 10 {
		return string(id[:10])
	}
	return string(id)
}

func formatDays(days float64) string {
	if days < 1 {
		return strconv.FormatFloat(days*24, 'f', -1, 64) + "h"
	}
	return strconv.FormatFloat(days, 'f', -1, 64) + "d"
}
