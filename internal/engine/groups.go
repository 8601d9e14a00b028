// Package engine implements the order/cashflow aggregation engine: pure,
// stateless transforms from flat API rows to the grouped, comparative and
// delta views rendered by the daily-summary, calendar and cashflow widgets.
//
// Every function here is a synchronous computation over an in-memory
// snapshot. No I/O, no shared state, no errors for malformed rows: bad
// numbers coerce to zero and missing labels are synthesized, so callers
// never need defensive guards beyond checking for empty output.
package engine

import (
	"sort"
	"strings"

	"bottega/internal/core"
)

type (
	// ProductCustomerRow is one order line under a product group. Lines are
	// never merged per customer: a customer with two orders for the same
	// product on the same day appears twice, so each order's status stays
	// independently visible.
	ProductCustomerRow struct {
		OrderID      int64            `json:"order_id"`
		CustomerID   int64            `json:"customer_id"`
		CustomerName string           `json:"customer_name"`
		Quantity     float64          `json:"quantity"`
		Status       core.OrderStatus `json:"status"`
	}

	// ProductGroup aggregates every order line touching one product.
	ProductGroup struct {
		ProductID    int64                `json:"product_id"`
		ProductName  string               `json:"product_name"`
		Unit         string               `json:"unit,omitempty"`
		TotalQty     float64              `json:"total_qty"`
		RemainingQty float64              `json:"remaining_qty"`
		Customers    []ProductCustomerRow `json:"customers"`
	}

	// CustomerOrderRow is one order under a customer group, with its own
	// item breakdown and subtotal.
	CustomerOrderRow struct {
		OrderID      int64               `json:"order_id"`
		DeliveryDate core.CivilDate      `json:"delivery_date"`
		Status       core.OrderStatus    `json:"status"`
		Items        []core.OrderItemRow `json:"items"`
		Total        float64             `json:"total"`
	}

	// CustomerGroup aggregates a customer's orders for the window.
	CustomerGroup struct {
		CustomerID   int64              `json:"customer_id"`
		CustomerName string             `json:"customer_name"`
		Orders       []CustomerOrderRow `json:"orders"`
		TotalAmount  float64            `json:"total_amount_sum"`
		DeliveredAll bool               `json:"delivered_all"`
	}

	// OrderGroups carries both alternative views over the same order list.
	OrderGroups struct {
		Products  []ProductGroup  `json:"product_groups"`
		Customers []CustomerGroup `json:"customer_groups"`
	}
)

// GroupOrders flattens a list of orders-with-line-items into the
// grouped-by-product and grouped-by-customer views.
//
// The product list is sorted by remaining quantity descending (products
// still needing delivery first), ties broken by case-insensitive name. The
// customer list keeps first-seen insertion order and is never re-sorted:
// toggling one order's status and recomputing must not move any row, so a
// user editing a status inline never sees the list reorder under the
// cursor.
func GroupOrders(orders []core.OrderRow) OrderGroups {
	return OrderGroups{
		Products:  groupProducts(orders),
		Customers: groupCustomers(orders),
	}
}

func groupProducts(orders []core.OrderRow) []ProductGroup {
	// Insertion-ordered accumulation: parallel key slice plus index map.
	// Plain map iteration would randomize group order between runs.
	var keys []int64
	byID := make(map[int64]*ProductGroup)

	for _, o := range orders {
		for _, it := range o.Items {
			g, ok := byID[it.ProductID]
			if !ok {
				g = &ProductGroup{
					ProductID:   it.ProductID,
					ProductName: core.DisplayName(it.ProductName, it.ProductID),
					Unit:        it.Unit,
				}
				byID[it.ProductID] = g
				keys = append(keys, it.ProductID)
			}

			qty := core.SafeNumber(it.Quantity)
			g.TotalQty += qty
			if !o.Status.Delivered() {
				g.RemainingQty += qty
			}
			g.Customers = append(g.Customers, ProductCustomerRow{
				OrderID:      o.ID,
				CustomerID:   o.CustomerID,
				CustomerName: core.DisplayName(o.CustomerName, o.CustomerID),
				Quantity:     qty,
				Status:       o.Status,
			})
		}
	}

	groups := make([]ProductGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byID[k])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].RemainingQty != groups[j].RemainingQty {
			return groups[i].RemainingQty > groups[j].RemainingQty
		}
		return strings.ToLower(groups[i].ProductName) < strings.ToLower(groups[j].ProductName)
	})
	return groups
}

func groupCustomers(orders []core.OrderRow) []CustomerGroup {
	var keys []int64
	byID := make(map[int64]*CustomerGroup)

	for _, o := range orders {
		g, ok := byID[o.CustomerID]
		if !ok {
			g = &CustomerGroup{
				CustomerID:   o.CustomerID,
				CustomerName: core.DisplayName(o.CustomerName, o.CustomerID),
				DeliveredAll: true,
			}
			byID[o.CustomerID] = g
			keys = append(keys, o.CustomerID)
		}

		total := o.Total()
		g.Orders = append(g.Orders, CustomerOrderRow{
			OrderID:      o.ID,
			DeliveryDate: o.DeliveryDate,
			Status:       o.Status,
			Items:        o.Items,
			Total:        total,
		})
		g.TotalAmount = core.Round2(g.TotalAmount + total)
		g.DeliveredAll = g.DeliveredAll && o.Status.Delivered()
	}

	groups := make([]CustomerGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byID[k])
	}
	return groups
}
