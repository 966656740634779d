package importer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/shunkan/internal/phrase"
)

type deck struct {
	Phrases []deckEntry `yaml:"phrases"`
}

type deckEntry struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Slots  string `yaml:"slots,omitempty"`
	Note   string `yaml:"note,omitempty"`
}

// ParseYAML decodes a deck of the form `phrases: [{source, target, slots, note}]`.
func ParseYAML(data []byte) ([]phrase.Row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var d deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("importer: decode deck: %w", err)
	}
	rows := make([]phrase.Row, 0, len(d.Phrases))
	for _, entry := range d.Phrases {
		row, ok := rowFromFields([]string{entry.Source, entry.Target, entry.Slots, entry.Note})
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MarshalYAML encodes rows as a deck.
func MarshalYAML(rows []phrase.Row) ([]byte, error) {
	d := deck{Phrases: make([]deckEntry, 0, len(rows))}
	for _, row := range rows {
		d.Phrases = append(d.Phrases, deckEntry{
			Source: row.Source,
			Target: row.Target,
			Slots:  row.SlotSpec,
			Note:   row.Note,
		})
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("importer: encode deck: %w", err)
	}
	return data, nil
}
