package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"fiado/internal/core"
	"fiado/internal/importer"
)

// Text extracts records from delimited text: one record per line, fields
// separated by comma or semicolon. Expected layout is
//
//	name, amount[, type[, description]]
//
// Type defaults to CREDIT when absent. A header line (first line whose
// amount field is not numeric) is skipped; any other malformed line
// fails the whole batch.
type Text struct{}

func (Text) Extract(data []byte) ([]importer.ExtractedItem, error) {
	var items []importer.ExtractedItem
	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		item, err := parseLine(line)
		if err != nil {
			// Tolerate a header row, nothing else.
			if lineNo == 1 {
				continue
			}
			return nil, fmt.Errorf("%w: line %d: %v", ErrExtractionFailed, lineNo, err)
		}
		items = append(items, item)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no records found", ErrExtractionFailed)
	}
	return items, nil
}

func parseLine(line string) (importer.ExtractedItem, error) {
	sep := ","
	if strings.Contains(line, ";") {
		sep = ";"
	}
	fields := strings.Split(line, sep)
	if len(fields) < 2 {
		return importer.ExtractedItem{}, fmt.Errorf("expected at least name and amount")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	cents, err := core.ParseDecimalToCents(fields[1])
	if err != nil {
		return importer.ExtractedItem{}, fmt.Errorf("amount %q: %v", fields[1], err)
	}

	item := importer.ExtractedItem{
		CustomerName: fields[0],
		Amount:       float64(cents) / 100,
		Type:         string(core.Credit),
	}
	if len(fields) > 2 && fields[2] != "" {
		item.Type = strings.ToUpper(fields[2])
	}
	if len(fields) > 3 {
		item.Description = fields[3]
	}
	return item, nil
}
