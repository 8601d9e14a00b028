package core

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	StatusCreated   OrderStatus = "created"
	StatusDelivered OrderStatus = "delivered"
)

type (
	// OrderStatus is the fulfillment state of an order.
	OrderStatus string

	// OrderItemRow is one product line on an order. Immutable once fetched.
	OrderItemRow struct {
		ID          int64   `json:"id,omitempty"`
		ProductID   int64   `json:"product_id"`
		ProductName string  `json:"product_name"`
		Unit        string  `json:"unit,omitempty"`
		Quantity    float64 `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
	}

	// OrderRow is the order entity as fetched from the orders listing.
	// Status is the only field the engine ever mutates (optimistically).
	OrderRow struct {
		ID              int64          `json:"id"`
		CustomerID      int64          `json:"customer_id"`
		CustomerName    string         `json:"customer_name"`
		DeliveryDate    CivilDate      `json:"delivery_date"`
		CreatedAt       time.Time      `json:"created_at,omitempty"`
		Status          OrderStatus    `json:"status"`
		AppliedDiscount float64        `json:"applied_discount"`
		TotalAmount     *float64       `json:"total_amount,omitempty"`
		Items           []OrderItemRow `json:"items"`
	}

	// CashflowRecord is a dated amount, either an inflow entry or an
	// outflow expense. Records arrive already filtered to a window.
	CashflowRecord struct {
		Date   CivilDate `json:"date"`
		Amount float64   `json:"amount"`
	}
)

var ErrInvalidStatus = errors.New("invalid order status")

func (s OrderStatus) Valid() bool {
	return s == StatusCreated || s == StatusDelivered
}

// Delivered reports whether the order reached its terminal state.
func (s OrderStatus) Delivered() bool {
	return s == StatusDelivered
}

// SafeNumber coerces NaN and ±Inf to zero. Malformed numeric input never
// propagates into aggregates.
func SafeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 rounds to two decimals with half-up rounding at the cent,
// symmetric around zero (Round2(-1.005) == -1.01).
func Round2(v float64) float64 {
	v = SafeNumber(v)
	if v < 0 {
		return -math.Floor(-v*100+0.5) / 100
	}
	return math.Floor(v*100+0.5) / 100
}

// DisplayName falls back to a synthesized "#<id>" label when a display
// name is missing, so grouping output never carries empty labels.
func DisplayName(name string, id int64) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return name
}

// Total returns the order's monetary total: the server-supplied amount when
// present and finite, otherwise the discount-adjusted sum of its lines
// rounded to the cent.
func (o OrderRow) Total() float64 {
	if o.TotalAmount != nil {
		if v := *o.TotalAmount; !math.IsNaN(v) && !math.IsInf(v, 0) {
			return v
		}
	}
	subtotal := 0.0
	for _, it := range o.Items {
		subtotal += SafeNumber(it.Quantity) * SafeNumber(it.UnitPrice)
	}
	discount := SafeNumber(o.AppliedDiscount)
	return Round2(subtotal * (1 - discount/100))
}
