// Package phrase owns the study content: phrase records, the slot-spec
// grammar and the stable identity every other component keys on.
package phrase

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

const (
	slotSeparator  = "|"
	slotKeyValueOp = ":"
)

// Row is one already-tokenized input line: source, target, slot spec, note.
type Row struct {
	Source   string `json:"source" yaml:"source"`
	Target   string `json:"target" yaml:"target"`
	SlotSpec string `json:"slots,omitempty" yaml:"slots,omitempty"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Slot is one substitution pair for a template placeholder.
type Slot struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Record is a parsed phrase card. Slots is derived from SlotSpecRaw.
type Record struct {
	SourceTemplate string
	TargetTemplate string
	SlotSpecRaw    string
	Note           string
	Slots          []Slot
}

// ID is the stable identity of a record, shared by progress, favorites and
// the slot cache.
type ID string

// Key is the composite identity of a record. Two records are the same card
// exactly when their keys are equal.
type Key struct {
	Source   string
	Target   string
	SlotSpec string
	Note     string
}

// ID hashes the key. Each field is length-prefixed so content can never be
// mistaken for a field boundary.
func (k Key) ID() ID {
	h := sha256.New()
	var size [8]byte
	for _, field := range [...]string{k.Source, k.Target, k.SlotSpec, k.Note} {
		binary.BigEndian.PutUint64(size[:], uint64(len(field)))
		h.Write(size[:])
		h.Write([]byte(field))
	}
	return ID(hex.EncodeToString(h.Sum(nil)))
}

// Key returns the identity fields of the record.
func (r Record) Key() Key {
	return Key{
		Source:   r.SourceTemplate,
		Target:   r.TargetTemplate,
		SlotSpec: r.SlotSpecRaw,
		Note:     r.Note,
	}
}

// ID returns the stable identity of the record.
func (r Record) ID() ID {
	return r.Key().ID()
}

// HasSlots reports whether the record carries at least one fill-in value.
func (r Record) HasSlots() bool {
	return len(r.Slots) > 0
}

// Row converts the record back to its input form for export.
func (r Record) Row() Row {
	return Row{
		Source:   r.SourceTemplate,
		Target:   r.TargetTemplate,
		SlotSpec: r.SlotSpecRaw,
		Note:     r.Note,
	}
}

// NewRecord trims the row and parses its slot spec. Rows without a source
// or a target are rejected.
func NewRecord(row Row) (Record, bool) {
	source := strings.TrimSpace(row.Source)
	target := strings.TrimSpace(row.Target)
	if source == "" || target == "" {
		return Record{}, false
	}
	raw := strings.TrimSpace(row.SlotSpec)
	return Record{
		SourceTemplate: source,
		TargetTemplate: target,
		SlotSpecRaw:    raw,
		Note:           strings.TrimSpace(row.Note),
		Slots:          ParseSlotSpec(raw),
	}, true
}

// ParseSlotSpec parses "target:source|target:source". An entry without a
// separator is used for both languages; entries that leave either side
// empty are dropped.
func ParseSlotSpec(raw string) []Slot {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var slots []Slot
	for _, entry := range strings.Split(raw, slotSeparator) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		target, source, found := strings.Cut(entry, slotKeyValueOp)
		if !found {
			source = target
		}
		target = strings.TrimSpace(target)
		source = strings.TrimSpace(source)
		if target == "" || source == "" {
			continue
		}
		slots = append(slots, Slot{Source: source, Target: target})
	}
	return slots
}
