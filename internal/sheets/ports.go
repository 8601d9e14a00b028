package sheets

import (
	"context"

	"bottega/internal/core"
	"bottega/internal/engine"
)

// CashflowExport is the payload the export worker hands to a writer: the
// computed view plus the parameters that produced it.
type CashflowExport struct {
	Start       core.CivilDate
	End         core.CivilDate
	Granularity engine.Granularity
	View        engine.CashflowView
}

// Ports for outbound adapters.
type (
	// ReportWriter pushes a computed cashflow report to an external sheet.
	ReportWriter interface {
		WriteCashflow(ctx context.Context, export CashflowExport) (rowRef string, err error)
	}
)
