package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/kingrea/shunkan/internal/phrase"
)

// Header is the column row written on export.
var Header = []string{"source", "target", "slots", "note"}

// ParseCSV reads comma separated rows. Quoted fields may hold commas,
// quotes and newlines. Blank lines and rows missing a side are skipped.
func ParseCSV(r io.Reader) ([]phrase.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: csv: %w", err)
		}
		records = append(records, fields)
	}
	return collect(records), nil
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []phrase.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("importer: csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Source, row.Target, row.SlotSpec, row.Note}); err != nil {
			return fmt.Errorf("importer: csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("importer: csv flush: %w", err)
	}
	return nil
}
