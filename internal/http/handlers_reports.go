package http

import (
	"net/http"

	"bottega/internal/engine"
	"bottega/internal/services"
)

type cashflowRequest struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Granularity    string `json:"granularity"`
	IncludeIncomes bool   `json:"include_incomes"`
}

func (req cashflowRequest) params() (services.CashflowParams, error) {
	start, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		return services.CashflowParams{}, err
	}
	end, err := parseDateField("end_date", req.EndDate)
	if err != nil {
		return services.CashflowParams{}, err
	}
	granularity := engine.Granularity(req.Granularity)
	if req.Granularity == "" {
		granularity = engine.GranularityDaily
	}
	return services.CashflowParams{
		Start:          start,
		End:            end,
		Granularity:    granularity,
		IncludeIncomes: req.IncludeIncomes,
	}, nil
}

// handleCashflow serves POST /api/v1/reports/cashflow.
func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
	var req cashflowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := req.params()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.reports.Cashflow(r.Context(), p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

// handleCashflowExport serves POST /api/v1/reports/cashflow/export: the
// report itself is computed by the worker, this only enqueues the request.
func (s *Server) handleCashflowExport(w http.ResponseWriter, r *http.Request) {
	var req cashflowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := req.params()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.reports.ExportCashflow(r.Context(), p); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, map[string]string{"state": "queued"})
}

type productSalesRequest struct {
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	SelectionMode string `json:"selection_mode"`
}

// handleProductSales serves POST /api/v1/reports/product-sales.
func (s *Server) handleProductSales(w http.ResponseWriter, r *http.Request) {
	var req productSalesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateField("end_date", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.reports.ProductSales(r.Context(), start, end, engine.SelectionMode(req.SelectionMode))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

type customerSalesRequest struct {
	CustomerID    int64  `json:"customer_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	SelectionMode string `json:"selection_mode"`
}

// handleCustomerSales serves POST /api/v1/reports/customer-sales.
func (s *Server) handleCustomerSales(w http.ResponseWriter, r *http.Request) {
	var req customerSalesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CustomerID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}
	start, err := parseDateField("start_date", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateField("end_date", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.reports.CustomerSales(r.Context(), req.CustomerID, start, end, engine.SelectionMode(req.SelectionMode))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}
