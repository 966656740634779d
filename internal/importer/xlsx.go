package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kingrea/shunkan/internal/phrase"
)

// ReadXLSX reads columns A-D of sheet. An empty sheet name picks the first
// worksheet.
func ReadXLSX(path, sheet string) ([]phrase.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("importer: open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("importer: workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("importer: read sheet %q: %w", sheet, err)
	}
	return collect(records), nil
}
