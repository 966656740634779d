package phrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotSpec(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Slot
	}{
		{name: "empty", raw: "   ", want: nil},
		{
			name: "pairs",
			raw:  "busy:忙しい|tired:疲れている",
			want: []Slot{{Source: "忙しい", Target: "busy"}, {Source: "疲れている", Target: "tired"}},
		},
		{
			name: "trims around separators",
			raw:  " busy : 忙しい | | free:暇だ ",
			want: []Slot{{Source: "忙しい", Target: "busy"}, {Source: "暇だ", Target: "free"}},
		},
		{
			name: "missing separator falls back to value:value",
			raw:  "Tokyo|cat:猫",
			want: []Slot{{Source: "Tokyo", Target: "Tokyo"}, {Source: "猫", Target: "cat"}},
		},
		{
			name: "empty side dropped",
			raw:  "busy:|:忙しい|ok:大丈夫",
			want: []Slot{{Source: "大丈夫", Target: "ok"}},
		},
		{
			name: "only first colon splits",
			raw:  "at 10:00:10時に",
			want: []Slot{{Source: "00:10時に", Target: "at 10"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSlotSpec(tt.raw))
		})
	}
}

func TestNewRecordRejectsEmptySides(t *testing.T) {
	_, ok := NewRecord(Row{Source: "  ", Target: "hello"})
	assert.False(t, ok)
	_, ok = NewRecord(Row{Source: "こんにちは", Target: ""})
	assert.False(t, ok)

	rec, ok := NewRecord(Row{Source: " 今{x}。 ", Target: "I'm {x}.", SlotSpec: " busy:忙しい ", Note: " casual "})
	require.True(t, ok)
	assert.Equal(t, "今{x}。", rec.SourceTemplate)
	assert.Equal(t, "busy:忙しい", rec.SlotSpecRaw)
	assert.Equal(t, "casual", rec.Note)
	assert.Len(t, rec.Slots, 1)
}

func TestIdentityDependsOnlyOnKeyFields(t *testing.T) {
	base, ok := NewRecord(Row{Source: "今{x}。", Target: "I'm {x}.", SlotSpec: "busy:忙しい|free:暇だ", Note: "n"})
	require.True(t, ok)
	id := base.ID()

	derived := base
	derived.Slots = []Slot{{Source: "x", Target: "y"}}
	assert.Equal(t, id, derived.ID(), "derived slots must not affect identity")

	mutations := map[string]func(r *Record){
		"source":    func(r *Record) { r.SourceTemplate += "!" },
		"target":    func(r *Record) { r.TargetTemplate += "!" },
		"slot spec": func(r *Record) { r.SlotSpecRaw = "busy:忙しい" },
		"note":      func(r *Record) { r.Note = "edited" },
	}
	for name, mutate := range mutations {
		changed := base
		mutate(&changed)
		assert.NotEqual(t, id, changed.ID(), "changing %s must change identity", name)
	}
}

func TestIdentityHasNoDelimiterCollisions(t *testing.T) {
	a := Key{Source: "a||b", Target: "c"}
	b := Key{Source: "a", Target: "b||c"}
	assert.NotEqual(t, a.ID(), b.ID())

	c := Key{Source: "ab", Target: ""}
	d := Key{Source: "a", Target: "b"}
	assert.NotEqual(t, c.ID(), d.ID())
	assert.Equal(t, a.ID(), Key{Source: "a||b", Target: "c"}.ID())
}

func TestStoreReplaceAll(t *testing.T) {
	store := NewStore(Defaults())
	require.Equal(t, 3, store.Len())
	before := store.IDs()

	n, err := store.ReplaceAll([]Row{{Source: "", Target: "x"}, {Source: "  "}})
	require.ErrorIs(t, err, ErrNoRecords)
	assert.Zero(t, n)
	assert.Equal(t, before, store.IDs(), "failed import must leave content untouched")

	n, err = store.ReplaceAll([]Row{
		{Source: "はい", Target: "Yes"},
		{Source: "", Target: "dropped"},
		{Source: "いいえ", Target: "No"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, store.Len())

	rec, ok := store.At(1)
	require.True(t, ok)
	assert.Equal(t, "No", rec.TargetTemplate)
	idx, ok := store.IndexOf(rec.ID())
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.False(t, store.Contains(before[0]))
}

func TestStoreRowsRoundTrip(t *testing.T) {
	rows := Defaults()
	store := NewStore(rows)
	again := NewStore(store.Rows())
	assert.Equal(t, store.IDs(), again.IDs())
}
