package core

import (
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	cases := []struct {
		in  float64
		out float64
	}{
		{1.005, 1.01}, // half-up
		{1.004, 1.00},
		{-1.005, -1.01},
		{2.675, 2.68},
		{0, 0},
		{math.NaN(), 0},
		{math.Inf(1), 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.out {
			t.Fatalf("Round2(%v) expected %v, got %v", tc.in, tc.out, got)
		}
	}
}

func TestSafeNumber(t *testing.T) {
	if SafeNumber(math.NaN()) != 0 || SafeNumber(math.Inf(-1)) != 0 {
		t.Fatalf("non-finite input must coerce to 0")
	}
	if SafeNumber(3.5) != 3.5 {
		t.Fatalf("finite input must pass through")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("", 42); got != "#42" {
		t.Fatalf("expected synthesized label, got %q", got)
	}
	if got := DisplayName("Rossi", 42); got != "Rossi" {
		t.Fatalf("expected name, got %q", got)
	}
}

func TestOrderTotalPrefersFiniteServerAmount(t *testing.T) {
	amount := 99.90
	o := OrderRow{
		TotalAmount: &amount,
		Items:       []OrderItemRow{{Quantity: 2, UnitPrice: 10}},
	}
	if got := o.Total(); got != 99.90 {
		t.Fatalf("expected server amount, got %v", got)
	}
}

func TestOrderTotalDerivedWithDiscount(t *testing.T) {
	o := OrderRow{
		AppliedDiscount: 10,
		Items: []OrderItemRow{
			{Quantity: 2, UnitPrice: 10},  // 20.00
			{Quantity: 1.5, UnitPrice: 4}, // 6.00
		},
	}
	// 26.00 * 0.9 = 23.40
	if got := o.Total(); got != 23.40 {
		t.Fatalf("expected 23.40, got %v", got)
	}
}

func TestOrderTotalIgnoresNonFiniteInputs(t *testing.T) {
	bad := math.Inf(1)
	o := OrderRow{
		TotalAmount: &bad,
		Items: []OrderItemRow{
			{Quantity: math.NaN(), UnitPrice: 10},
			{Quantity: 3, UnitPrice: 2},
		},
	}
	// Non-finite server total is discarded, NaN quantity counts as 0.
	if got := o.Total(); got != 6.00 {
		t.Fatalf("expected 6.00, got %v", got)
	}
}

func TestOrderStatus(t *testing.T) {
	if !StatusCreated.Valid() || !StatusDelivered.Valid() {
		t.Fatalf("known statuses must be valid")
	}
	if OrderStatus("shipped").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
	if StatusCreated.Delivered() || !StatusDelivered.Delivered() {
		t.Fatalf("Delivered flag wrong")
	}
}
