package http

import (
	"net/http"
	"strconv"
	"strings"

	"bottega/internal/core"
	"bottega/internal/storage"
)

type orderListData struct {
	Total int             `json:"total"`
	Items []core.OrderRow `json:"items"`
}

// handleListOrders serves GET /api/v1/orders with pagination, filters and
// sorting. size=-1 disables pagination.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := storage.ListOrdersParams{
		Page:         queryInt(r, "page", 1),
		Size:         queryInt(r, "size", 50),
		ID:           queryInt64(r, "id"),
		CustomerID:   queryInt64(r, "customer_id"),
		CustomerName: strings.TrimSpace(q.Get("customer_name")),
		Status:       core.OrderStatus(strings.TrimSpace(q.Get("status"))),
		SortField:    strings.TrimSpace(q.Get("sorting_field")),
		SortOrder:    strings.TrimSpace(q.Get("sorting_order")),
	}

	if v := strings.TrimSpace(q.Get("delivery_date_after")); v != "" {
		d, err := parseDateField("delivery_date_after", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.DeliveryAfter = d
	}
	if v := strings.TrimSpace(q.Get("delivery_date_before")); v != "" {
		d, err := parseDateField("delivery_date_before", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.DeliveryBefore = d
	}

	total, items, err := s.orders.ListOrders(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []core.OrderRow{}
	}
	writeSuccess(w, http.StatusOK, orderListData{Total: total, Items: items})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// handleUpdateOrderStatus serves PATCH /api/v1/orders/{id}.
func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.orders.UpdateStatus(r.Context(), id, core.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, order)
}
