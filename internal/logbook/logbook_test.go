package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "journal.log")
	book, err := New(path, "")
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendTagsSessionAndFlattensMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	book, err := New(path, "0f8fad5b-d9cb-469f-a165-70867728950e")
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local) }
	book.Warn("import rejected:\n  %s", "no rows")

	lines, total := book.Tail(10)
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	want := "2024-05-01 09:30:00 WARN  [0f8fad5b] import rejected: no rows"
	if lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
}

func TestTailOnMissingFileAndNil(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "none.log"), "x")
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("missing file: got %v, %d", lines, total)
	}
	var nilBook *Logbook
	nilBook.Info("ignored")
	if lines, total := nilBook.Tail(5); lines != nil || total != 0 {
		t.Fatalf("nil logbook: got %v, %d", lines, total)
	}
}
