// Package progress keeps one scheduling entry per loaded phrase and keeps
// that set aligned with the content store.
package progress

import (
	"github.com/kingrea/shunkan/internal/phrase"
	"github.com/kingrea/shunkan/internal/srs"
)

// Ledger maps phrase identities to their scheduling entries.
type Ledger struct {
	entries map[phrase.ID]srs.Entry
	policy  srs.Policy
}

// New creates an empty ledger scheduling with policy.
func New(policy srs.Policy) *Ledger {
	return &Ledger{entries: map[phrase.ID]srs.Entry{}, policy: policy}
}

// Restore replaces the ledger contents with a persisted snapshot. Entries
// are not validated against content; call Reconcile afterwards.
func (l *Ledger) Restore(snapshot map[phrase.ID]srs.Entry) {
	l.entries = make(map[phrase.ID]srs.Entry, len(snapshot))
	for id, entry := range snapshot {
		if entry.Interval < 0 {
			entry.Interval = 0
		}
		l.entries[id] = entry
	}
}

// Snapshot returns a copy of every entry, keyed by id.
func (l *Ledger) Snapshot() map[phrase.ID]srs.Entry {
	out := make(map[phrase.ID]srs.Entry, len(l.entries))
	for id, entry := range l.entries {
		out[id] = entry
	}
	return out
}

// Reconcile gives every record an entry (fresh ones due now) and drops
// entries whose record is gone. A second call with the same records is a
// no-op.
func (l *Ledger) Reconcile(records []phrase.Record, now float64) (added, pruned int) {
	live := make(map[phrase.ID]struct{}, len(records))
	for _, rec := range records {
		id := rec.ID()
		live[id] = struct{}{}
		if _, ok := l.entries[id]; !ok {
			l.entries[id] = srs.Fresh(now)
			added++
		}
	}
	for id := range l.entries {
		if _, ok := live[id]; !ok {
			delete(l.entries, id)
			pruned++
		}
	}
	return added, pruned
}

// Get returns the stored entry for id.
func (l *Ledger) Get(id phrase.ID) (srs.Entry, bool) {
	entry, ok := l.entries[id]
	return entry, ok
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Due reports whether id is due at now. Unknown ids are due.
func (l *Ledger) Due(id phrase.ID, now float64) bool {
	entry, ok := l.entries[id]
	if !ok {
		return true
	}
	return entry.IsDue(now)
}

// DueCount counts the records due at now.
func (l *Ledger) DueCount(ids []phrase.ID, now float64) int {
	count := 0
	for _, id := range ids {
		if l.Due(id, now) {
			count++
		}
	}
	return count
}

// ApplyGrade schedules id and stores the result. A missing entry grades as
// a fresh card.
func (l *Ledger) ApplyGrade(id phrase.ID, grade srs.Grade, now float64) srs.Entry {
	prev, ok := l.entries[id]
	if !ok {
		prev = srs.Fresh(now)
	}
	next := l.policy.Next(prev, grade, now)
	l.entries[id] = next
	return next
}
