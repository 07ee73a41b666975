// Package memory is an in-process ReportWriter for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "fiado/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []ports.SummaryRow
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendSummaryRow(_ context.Context, row ports.SummaryRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []ports.SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.SummaryRow(nil), s.rows...)
}
