// Package memory is an in-process ReportWriter used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "bottega/internal/sheets"
)

type Store struct {
	mu      sync.Mutex
	exports []ports.CashflowExport
}

var _ ports.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// WriteCashflow stores the export and returns a synthetic row reference.
func (s *Store) WriteCashflow(_ context.Context, export ports.CashflowExport) (string, error) {
	if export.Start.IsZero() || export.End.IsZero() {
		return "", fmt.Errorf("export window missing")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, export)
	return fmt.Sprintf("mem:%d", len(s.exports)), nil
}

// Exports returns a copy of everything written so far.
func (s *Store) Exports() []ports.CashflowExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.CashflowExport(nil), s.exports...)
}
