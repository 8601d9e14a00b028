package engine

import (
	"testing"

	"bottega/internal/core"
)

func TestMonthGridStart(t *testing.T) {
	cases := []struct {
		year, month int
		want        core.CivilDate
	}{
		{2024, 7, core.CivilDate{Year: 2024, Month: 7, Day: 1}},  // July 1st is a Monday
		{2024, 9, core.CivilDate{Year: 2024, Month: 8, Day: 26}}, // Sept 1st is a Sunday
		{2024, 3, core.CivilDate{Year: 2024, Month: 2, Day: 26}},
		{2025, 1, core.CivilDate{Year: 2024, Month: 12, Day: 30}}, // crosses year
	}
	for _, tc := range cases {
		got := MonthGridStart(tc.year, tc.month)
		if got != tc.want {
			t.Fatalf("%d-%02d expected grid start %v, got %v", tc.year, tc.month, tc.want, got)
		}
		if got.Weekday().String() != "Monday" {
			t.Fatalf("grid start must be a Monday, got %v", got.Weekday())
		}
	}
}

func TestBucketCalendarEmitsAllCells(t *testing.T) {
	start := MonthGridStart(2024, 9)
	buckets := BucketCalendar(nil, start)
	if len(buckets) != GridDays {
		t.Fatalf("expected %d buckets, got %d", GridDays, len(buckets))
	}
	for i := 0; i < GridDays; i++ {
		key := start.AddDays(i).String()
		b, ok := buckets[key]
		if !ok {
			t.Fatalf("missing bucket for %s", key)
		}
		if len(b.Groups) != 0 {
			t.Fatalf("empty day must be an empty bucket, got %d groups", len(b.Groups))
		}
	}
}

func TestBucketCalendarIncludesAdjacentMonthDays(t *testing.T) {
	// September 2024 grid starts Aug 26: an order on Aug 27 is still a cell.
	start := MonthGridStart(2024, 9)
	orders := []core.OrderRow{
		{
			ID: 1, CustomerID: 1, CustomerName: "Rossi",
			DeliveryDate: core.CivilDate{Year: 2024, Month: 8, Day: 27},
			Status:       core.StatusCreated,
		},
	}
	buckets := BucketCalendar(orders, start)
	if got := len(buckets["2024-08-27"].Groups); got != 1 {
		t.Fatalf("adjacent-month day must be populated, got %d groups", got)
	}
}

func TestBucketCalendarPendingBeforeDelivered(t *testing.T) {
	day := core.CivilDate{Year: 2024, Month: 9, Day: 4}
	orders := []core.OrderRow{
		{ID: 1, CustomerID: 1, CustomerName: "A", DeliveryDate: day, Status: core.StatusDelivered},
		{ID: 2, CustomerID: 2, CustomerName: "B", DeliveryDate: day, Status: core.StatusCreated},
		{ID: 3, CustomerID: 3, CustomerName: "C", DeliveryDate: day, Status: core.StatusDelivered},
		{ID: 4, CustomerID: 4, CustomerName: "D", DeliveryDate: day, Status: core.StatusCreated},
	}
	buckets := BucketCalendar(orders, MonthGridStart(2024, 9))
	groups := buckets[day.String()].Groups
	want := []int64{2, 4, 1, 3} // pending first, insertion order within each half
	for i, g := range groups {
		if g.CustomerID != want[i] {
			t.Fatalf("position %d: expected customer %d, got %d", i, want[i], g.CustomerID)
		}
	}
}

func TestLegendCounts(t *testing.T) {
	mk := func(day core.CivilDate, id int64, status core.OrderStatus) core.OrderRow {
		return core.OrderRow{ID: id, CustomerID: id, CustomerName: "c", DeliveryDate: day, Status: status}
	}
	start := MonthGridStart(2024, 9)
	orders := []core.OrderRow{
		mk(core.CivilDate{Year: 2024, Month: 9, Day: 2}, 1, core.StatusDelivered),
		mk(core.CivilDate{Year: 2024, Month: 9, Day: 2}, 2, core.StatusCreated),
		mk(core.CivilDate{Year: 2024, Month: 9, Day: 5}, 3, core.StatusDelivered),
	}
	legend := LegendCounts(BucketCalendar(orders, start))
	if legend.Delivered != 2 || legend.Pending != 1 {
		t.Fatalf("expected 2 delivered / 1 pending, got %+v", legend)
	}

	if got := LegendCounts(BucketCalendar(nil, start)); got.Delivered != 0 || got.Pending != 0 {
		t.Fatalf("empty grid must yield zero legend, got %+v", got)
	}
}

func TestBucketCalendarSameCustomerOnTwoDays(t *testing.T) {
	// Per-day grouping is scoped to the single day: the same customer
	// appears in both buckets, counted twice by the legend.
	d1 := core.CivilDate{Year: 2024, Month: 9, Day: 3}
	d2 := core.CivilDate{Year: 2024, Month: 9, Day: 4}
	orders := []core.OrderRow{
		{ID: 1, CustomerID: 9, CustomerName: "Rossi", DeliveryDate: d1, Status: core.StatusDelivered},
		{ID: 2, CustomerID: 9, CustomerName: "Rossi", DeliveryDate: d2, Status: core.StatusCreated},
	}
	buckets := BucketCalendar(orders, MonthGridStart(2024, 9))
	if len(buckets[d1.String()].Groups) != 1 || len(buckets[d2.String()].Groups) != 1 {
		t.Fatalf("customer must appear in each day's bucket")
	}
	legend := LegendCounts(buckets)
	if legend.Delivered != 1 || legend.Pending != 1 {
		t.Fatalf("expected 1/1 legend, got %+v", legend)
	}
}
