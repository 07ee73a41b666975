// Package extract turns uploaded files into raw ledger records. The
// extractors are black boxes to the import workflow: they either return
// a usable batch or ErrExtractionFailed, never a partial result.
package extract

import (
	"errors"
	"path/filepath"
	"strings"

	"fiado/internal/importer"
)

// ErrExtractionFailed means the file could not be parsed into records.
// Nothing gets staged when extraction fails.
var ErrExtractionFailed = errors.New("extraction failed")

// Extractor parses a file's bytes into extracted items.
type Extractor interface {
	Extract(data []byte) ([]importer.ExtractedItem, error)
}

// ForFilename picks an extractor by file extension. Anything that is not
// a spreadsheet goes through the text extractor.
func ForFilename(name string) Extractor {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return XLSX{}
	default:
		return Text{}
	}
}
