// Package worker consumes report export requests from AMQP, recomputes the
// requested view from the database and pushes it to the spreadsheet writer.
package worker

import (
	"context"
	"fmt"

	"bottega/internal/amqp"
	"bottega/internal/engine"
	"bottega/internal/log"
	"bottega/internal/services"
	"bottega/internal/sheets"
)

// CashflowReporter is the slice of ReportService the worker needs.
type CashflowReporter interface {
	Cashflow(ctx context.Context, p services.CashflowParams) (services.CashflowReport, error)
}

// ExportWorker handles report export messages.
type ExportWorker struct {
	reports CashflowReporter
	writer  sheets.ReportWriter
	logger  *log.Logger
}

func NewExportWorker(reports CashflowReporter, writer sheets.ReportWriter, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		reports: reports,
		writer:  writer,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExportMessage processes a single export request. The report is
// recomputed from storage, never trusted from the message, so a stale or
// replayed request still exports current data.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	if msg.Report != "cashflow" {
		// Unknown report types are dropped, not requeued.
		w.logger.WarnContext(ctx, "Ignoring unknown report type",
			log.FieldOperation, log.OpExport,
			"report", msg.Report)
		return nil
	}

	granularity := engine.Granularity(msg.Granularity)
	if !granularity.Valid() {
		granularity = engine.GranularityDaily
	}

	report, err := w.reports.Cashflow(ctx, services.CashflowParams{
		Start:       msg.Start,
		End:         msg.End,
		Granularity: granularity,
	})
	if err != nil {
		return fmt.Errorf("compute cashflow for export: %w", err)
	}

	ref, err := w.writer.WriteCashflow(ctx, sheets.CashflowExport{
		Start:       msg.Start,
		End:         msg.End,
		Granularity: granularity,
		View:        report.View,
	})
	if err != nil {
		return fmt.Errorf("write cashflow export: %w", err)
	}

	w.logger.InfoContext(ctx, "Cashflow report exported",
		log.FieldOperation, log.OpExport,
		log.FieldStartDate, msg.Start.String(),
		log.FieldEndDate, msg.End.String(),
		log.FieldGranularity, string(granularity),
		log.FieldSheetsRef, ref,
		log.FieldRowCount, len(report.View.Series))
	return nil
}
