// Package importer turns phrase files into rows and writes rows back out.
// Supported formats are CSV, XLSX and YAML decks.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/shunkan/internal/phrase"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles.
var ErrUnsupportedFormat = errors.New("importer: unsupported format")

// Format identifies a phrase file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// DetectFormat maps a file extension to a format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Options tune file reading.
type Options struct {
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
}

// ReadFile reads rows from path, choosing the reader by extension.
func ReadFile(path string, opts Options) ([]phrase.Row, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return ReadXLSX(path, opts.Sheet)
	case FormatYAML:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("importer: read %s: %w", path, err)
		}
		return ParseYAML(data)
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("importer: open %s: %w", path, err)
		}
		defer file.Close()
		return ParseCSV(file)
	}
}

// WriteFile writes rows to path as CSV or YAML. XLSX export is not offered.
func WriteFile(path string, rows []phrase.Row) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("importer: ensure dir: %w", err)
		}
	}
	switch format {
	case FormatCSV:
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("importer: create %s: %w", path, err)
		}
		if err := WriteCSV(file, rows); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	case FormatYAML:
		data, err := MarshalYAML(rows)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("importer: write %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot export %s", ErrUnsupportedFormat, format)
	}
}

// rowFromFields maps positional columns source, target, slots, note.
func rowFromFields(fields []string) (phrase.Row, bool) {
	if len(fields) < 2 {
		return phrase.Row{}, false
	}
	at := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}
	row := phrase.Row{Source: at(0), Target: at(1), SlotSpec: at(2), Note: at(3)}
	if row.Source == "" || row.Target == "" {
		return phrase.Row{}, false
	}
	return row, true
}

// isHeader reports whether the first row names the columns rather than
// holding a phrase.
func isHeader(fields []string) bool {
	if len(fields) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(fields[0]))
	second := strings.ToLower(strings.TrimSpace(fields[1]))
	switch {
	case first == "source" && second == "target":
		return true
	case first == "jp" && second == "en":
		return true
	}
	return false
}

func collect(records [][]string) []phrase.Row {
	var rows []phrase.Row
	for i, fields := range records {
		if i == 0 && isHeader(fields) {
			continue
		}
		if row, ok := rowFromFields(fields); ok {
			rows = append(rows, row)
		}
	}
	return rows
}
