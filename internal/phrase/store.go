package phrase

import "errors"

// ErrNoRecords is returned when an import yields no usable record.
var ErrNoRecords = errors.New("phrase: no usable records")

// Store holds the loaded record set. It is replaced wholesale, never edited
// record by record.
type Store struct {
	records []Record
	ids     []ID
	index   map[ID]int
}

// NewStore builds a store from rows, silently dropping unusable ones.
func NewStore(rows []Row) *Store {
	s := &Store{}
	s.swap(parseRows(rows))
	return s
}

// ReplaceAll swaps the full record set. When no row is usable the store is
// left untouched and ErrNoRecords is returned. Callers must reconcile the
// progress ledger and rebuild the session order afterwards.
func (s *Store) ReplaceAll(rows []Row) (int, error) {
	records := parseRows(rows)
	if len(records) == 0 {
		return 0, ErrNoRecords
	}
	s.swap(records)
	return len(records), nil
}

// Len returns the number of loaded records.
func (s *Store) Len() int {
	return len(s.records)
}

// At returns the record at index i.
func (s *Store) At(i int) (Record, bool) {
	if i < 0 || i >= len(s.records) {
		return Record{}, false
	}
	return s.records[i], true
}

// IDAt returns the identity of the record at index i.
func (s *Store) IDAt(i int) (ID, bool) {
	if i < 0 || i >= len(s.ids) {
		return "", false
	}
	return s.ids[i], true
}

// IDs returns the identities in record order.
func (s *Store) IDs() []ID {
	out := make([]ID, len(s.ids))
	copy(out, s.ids)
	return out
}

// IndexOf returns the record index for id.
func (s *Store) IndexOf(id ID) (int, bool) {
	idx, ok := s.index[id]
	return idx, ok
}

// Contains reports whether id belongs to a loaded record.
func (s *Store) Contains(id ID) bool {
	_, ok := s.index[id]
	return ok
}

// Records returns a copy of the loaded records.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Rows returns the records in their input form, ready for export or
// persistence.
func (s *Store) Rows() []Row {
	rows := make([]Row, len(s.records))
	for i, rec := range s.records {
		rows[i] = rec.Row()
	}
	return rows
}

func (s *Store) swap(records []Record) {
	ids := make([]ID, len(records))
	index := make(map[ID]int, len(records))
	for i, rec := range records {
		id := rec.ID()
		ids[i] = id
		if _, dup := index[id]; !dup {
			index[id] = i
		}
	}
	s.records = records
	s.ids = ids
	s.index = index
}

func parseRows(rows []Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if rec, ok := NewRecord(row); ok {
			records = append(records, rec)
		}
	}
	return records
}

// Defaults returns the built-in starter set used when no content blob exists.
func Defaults() []Row {
	return []Row{
		{Source: "今{x}。", Target: "I'm {x} right now.", SlotSpec: "busy:忙しい|tired:疲れている|free:暇だ"},
		{Source: "それは後でやる。", Target: "I'll do it later."},
		{Source: "ちょっと待って。", Target: "Hold on a second."},
	}
}
