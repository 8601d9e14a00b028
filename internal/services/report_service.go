package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"bottega/internal/amqp"
	"bottega/internal/cache"
	"bottega/internal/core"
	"bottega/internal/engine"
	"bottega/internal/log"
	"bottega/internal/storage"
)

var (
	ErrInvalidWindow      = errors.New("invalid report window")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidSelection   = errors.New("invalid selection mode")
	ErrExportUnavailable  = errors.New("report export not configured")
)

// ReportStore is the storage surface the report service needs.
type ReportStore interface {
	CashflowEntries(ctx context.Context, start, end core.CivilDate) ([]core.CashflowRecord, error)
	ExpensesBetween(ctx context.Context, start, end core.CivilDate) ([]core.CashflowRecord, error)
	IncomesBetween(ctx context.Context, start, end core.CivilDate) ([]core.CashflowRecord, error)
	ProductSales(ctx context.Context, start, end core.CivilDate) ([]storage.ProductSalesRow, error)
	CustomerSales(ctx context.Context, customerID int64, start, end core.CivilDate) (string, []storage.CustomerSalesRow, error)
}

// ExportPublisher enqueues report export requests. Nil disables exporting.
type ExportPublisher interface {
	PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error
}

// CashflowParams identifies one cashflow report request.
type CashflowParams struct {
	Start          core.CivilDate
	End            core.CivilDate
	Granularity    engine.Granularity
	IncludeIncomes bool
}

// CashflowDeltas compares the window totals against the previous window.
type CashflowDeltas struct {
	In  engine.Delta `json:"in"`
	Out engine.Delta `json:"out"`
	Net engine.Delta `json:"net"`
}

// CashflowReport is the full cashflow response: the raw window rows, the
// aggregated view and the previous-window deltas.
type CashflowReport struct {
	Start       core.CivilDate        `json:"start_date"`
	End         core.CivilDate        `json:"end_date"`
	Granularity engine.Granularity    `json:"granularity"`
	Entries     []core.CashflowRecord `json:"entries"`
	Expenses    []core.CashflowRecord `json:"expenses"`
	View        engine.CashflowView   `json:"view"`
	Deltas      CashflowDeltas        `json:"deltas"`
}

// ProductSalesReport lists per-product sales, optionally narrowed to the
// top or bottom revenue slice.
type ProductSalesReport struct {
	Start core.CivilDate            `json:"start_date"`
	End   core.CivilDate            `json:"end_date"`
	Mode  engine.SelectionMode      `json:"selection_mode,omitempty"`
	Items []storage.ProductSalesRow `json:"items"`
}

// CustomerSalesReport lists one customer's per-product sales.
type CustomerSalesReport struct {
	CustomerID   int64                      `json:"customer_id"`
	CustomerName string                     `json:"customer_name"`
	Start        core.CivilDate             `json:"start_date"`
	End          core.CivilDate             `json:"end_date"`
	Mode         engine.SelectionMode       `json:"selection_mode,omitempty"`
	Items        []storage.CustomerSalesRow `json:"items"`
	TotalRevenue float64                    `json:"total_revenue"`
}

// ReportService computes the cashflow and sales reports and caches the
// cashflow responses.
type ReportService struct {
	store     ReportStore
	cache     cache.ReportCache[CashflowReport]
	publisher ExportPublisher
	logger    *log.Logger
}

func NewReportService(store ReportStore, c cache.ReportCache[CashflowReport], publisher ExportPublisher, logger *log.Logger) *ReportService {
	if c == nil {
		c = cache.Noop[CashflowReport]{}
	}
	return &ReportService{
		store:     store,
		cache:     c,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentReports),
	}
}

func (p CashflowParams) validate() error {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return fmt.Errorf("%w: %s..%s", ErrInvalidWindow, p.Start, p.End)
	}
	if !p.Granularity.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGranularity, p.Granularity)
	}
	return nil
}

func (p CashflowParams) cacheKey() string {
	return cache.Key("cashflow",
		p.Start.String(), p.End.String(),
		string(p.Granularity), strconv.FormatBool(p.IncludeIncomes))
}

// Cashflow aggregates the window and its previous window of equal length.
func (s *ReportService) Cashflow(ctx context.Context, p CashflowParams) (CashflowReport, error) {
	if err := p.validate(); err != nil {
		return CashflowReport{}, err
	}

	key := p.cacheKey()
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "Report cache read failed",
			log.FieldCacheKey, key, log.FieldError, err.Error())
	} else if ok {
		return cached, nil
	}

	entries, err := s.inflows(ctx, p.Start, p.End, p.IncludeIncomes)
	if err != nil {
		return CashflowReport{}, err
	}
	expenses, err := s.store.ExpensesBetween(ctx, p.Start, p.End)
	if err != nil {
		return CashflowReport{}, fmt.Errorf("expenses: %w", err)
	}

	prevStart, prevEnd := engine.PreviousPeriod(p.Start, p.End)
	prevEntries, err := s.inflows(ctx, prevStart, prevEnd, p.IncludeIncomes)
	if err != nil {
		return CashflowReport{}, err
	}
	prevExpenses, err := s.store.ExpensesBetween(ctx, prevStart, prevEnd)
	if err != nil {
		return CashflowReport{}, fmt.Errorf("previous expenses: %w", err)
	}

	view := engine.AggregateCashflow(engine.CashflowInput{
		Entries:      entries,
		Expenses:     expenses,
		PrevEntries:  prevEntries,
		PrevExpenses: prevExpenses,
		Granularity:  p.Granularity,
		Start:        p.Start,
		End:          p.End,
	})

	report := CashflowReport{
		Start:       p.Start,
		End:         p.End,
		Granularity: p.Granularity,
		Entries:     entries,
		Expenses:    expenses,
		View:        view,
		Deltas: CashflowDeltas{
			In:  engine.ComputeDelta(view.Totals.In, view.PreviousTotals.In),
			Out: engine.ComputeDelta(view.Totals.Out, view.PreviousTotals.Out),
			Net: engine.ComputeDelta(view.Totals.Net, view.PreviousTotals.Net),
		},
	}

	if err := s.cache.Set(ctx, key, report); err != nil {
		s.logger.WarnContext(ctx, "Report cache write failed",
			log.FieldCacheKey, key, log.FieldError, err.Error())
	}

	fields := log.NewFields().
		WithOperation(log.OpReport).
		WithWindow(p.Start.String(), p.End.String())
	fields[log.FieldGranularity] = string(p.Granularity)
	fields[log.FieldRowCount] = len(view.Series)
	s.logger.InfoContext(ctx, "Cashflow report computed", fields.ToSlice()...)

	return report, nil
}

// inflows returns the delivered-order revenue entries of the window, with
// the incomes ledger merged in when requested, ordered by date.
func (s *ReportService) inflows(ctx context.Context, start, end core.CivilDate, includeIncomes bool) ([]core.CashflowRecord, error) {
	entries, err := s.store.CashflowEntries(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("cashflow entries: %w", err)
	}
	if !includeIncomes {
		return entries, nil
	}

	incomes, err := s.store.IncomesBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("incomes: %w", err)
	}
	merged := append(entries, incomes...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})
	return merged, nil
}

// ProductSales returns per-product revenue for the window, narrowed by the
// selection mode.
func (s *ReportService) ProductSales(ctx context.Context, start, end core.CivilDate, mode engine.SelectionMode) (ProductSalesReport, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return ProductSalesReport{}, fmt.Errorf("%w: %s..%s", ErrInvalidWindow, start, end)
	}
	if !mode.Valid() {
		return ProductSalesReport{}, fmt.Errorf("%w: %q", ErrInvalidSelection, mode)
	}

	rows, err := s.store.ProductSales(ctx, start, end)
	if err != nil {
		return ProductSalesReport{}, fmt.Errorf("product sales: %w", err)
	}

	return ProductSalesReport{
		Start: start,
		End:   end,
		Mode:  mode,
		Items: engine.SelectByRevenue(rows, func(r storage.ProductSalesRow) float64 { return r.Revenue }, mode),
	}, nil
}

// CustomerSales returns one customer's per-product revenue for the window.
func (s *ReportService) CustomerSales(ctx context.Context, customerID int64, start, end core.CivilDate, mode engine.SelectionMode) (CustomerSalesReport, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return CustomerSalesReport{}, fmt.Errorf("%w: %s..%s", ErrInvalidWindow, start, end)
	}
	if !mode.Valid() {
		return CustomerSalesReport{}, fmt.Errorf("%w: %q", ErrInvalidSelection, mode)
	}

	name, rows, err := s.store.CustomerSales(ctx, customerID, start, end)
	if err != nil {
		return CustomerSalesReport{}, fmt.Errorf("customer sales: %w", err)
	}

	var total float64
	for _, r := range rows {
		total += r.Revenue
	}

	return CustomerSalesReport{
		CustomerID:   customerID,
		CustomerName: core.DisplayName(name, customerID),
		Start:        start,
		End:          end,
		Mode:         mode,
		Items:        engine.SelectByRevenue(rows, func(r storage.CustomerSalesRow) float64 { return r.Revenue }, mode),
		TotalRevenue: core.Round2(total),
	}, nil
}

// ExportCashflow enqueues an export of the given window for the worker.
func (s *ReportService) ExportCashflow(ctx context.Context, p CashflowParams) error {
	if err := p.validate(); err != nil {
		return err
	}
	if s.publisher == nil {
		return ErrExportUnavailable
	}

	msg := amqp.NewReportExportMessage("cashflow", p.Start, p.End, string(p.Granularity))
	if err := s.publisher.PublishReportExport(ctx, msg); err != nil {
		return fmt.Errorf("enqueue export: %w", err)
	}

	s.logger.InfoContext(ctx, "Cashflow export enqueued",
		log.FieldOperation, log.OpExport,
		log.FieldStartDate, p.Start.String(),
		log.FieldEndDate, p.End.String())
	return nil
}
