package http

import (
	"net/http"
)

type dailySummaryRequest struct {
	Date string `json:"date"`
}

// handleDailySummary serves POST /api/v1/widgets/daily-summary: the
// grouped product and customer views of one delivery day.
func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	var req dailySummaryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDateField("date", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups, err := s.orders.DailySummary(r.Context(), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, groups)
}

type calendarRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// handleCalendar serves POST /api/v1/widgets/calendar: the 42-cell month
// grid plus the delivered/pending legend.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	var req calendarRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Year < 1 || req.Month < 1 || req.Month > 12 {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	view, err := s.orders.Calendar(r.Context(), req.Year, req.Month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, view)
}
