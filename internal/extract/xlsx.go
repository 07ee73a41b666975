package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"fiado/internal/core"
	"fiado/internal/importer"
)

// XLSX extracts records from the first sheet of a spreadsheet. Column
// layout matches the text extractor: name, amount, type, description.
// The first row is skipped when its amount cell is not numeric.
type XLSX struct{}

func (XLSX) Extract(data []byte) ([]importer.ExtractedItem, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrExtractionFailed)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrExtractionFailed, err)
	}

	var items []importer.ExtractedItem
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: row %d: expected at least name and amount", ErrExtractionFailed, i+1)
		}
		cents, err := core.ParseDecimalToCents(strings.TrimSpace(row[1]))
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("%w: row %d: amount %q: %v", ErrExtractionFailed, i+1, row[1], err)
		}
		item := importer.ExtractedItem{
			CustomerName: strings.TrimSpace(row[0]),
			Amount:       float64(cents) / 100,
			Type:         string(core.Credit),
		}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			item.Type = strings.ToUpper(strings.TrimSpace(row[2]))
		}
		if len(row) > 3 {
			item.Description = strings.TrimSpace(row[3])
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no records found", ErrExtractionFailed)
	}
	return items, nil
}
