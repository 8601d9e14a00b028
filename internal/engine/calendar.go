package engine

import (
	"sort"

	"bottega/internal/core"
)

// GridDays is the fixed size of the calendar grid: 6 weeks of 7 days,
// Monday-first, regardless of month length.
const GridDays = 42

type (
	// DayBucket holds the per-day customer grouping for one calendar cell.
	// A day with no orders is a valid, empty bucket, not an absent key.
	DayBucket struct {
		Date   core.CivilDate  `json:"date"`
		Groups []CustomerGroup `json:"groups"`
	}

	// Legend counts fully delivered vs pending customer groups across the
	// whole grid, for the "N delivered / M pending" badge.
	Legend struct {
		Delivered int `json:"delivered"`
		Pending   int `json:"pending"`
	}
)

// MonthGridStart returns the Monday-aligned start of the 42-cell grid for
// the month: (weekday+6)%7 days before the 1st, with Sunday counting as the
// seventh day of the week.
func MonthGridStart(year, month int) core.CivilDate {
	first := core.NewCivilDate(year, month, 1)
	offset := (int(first.Weekday()) + 6) % 7
	return first.AddDays(-offset)
}

// BucketCalendar partitions orders across the fixed 42-day grid starting at
// gridStart. Every cell is present, keyed by ISO date. Each bucket reuses
// the customer-view grouping scoped to that day's orders, but re-sorted
// with pending groups before delivered ones (stable, so insertion order is
// the secondary key): the calendar exists for triage, not live editing.
func BucketCalendar(orders []core.OrderRow, gridStart core.CivilDate) map[string]DayBucket {
	byDay := make(map[string][]core.OrderRow)
	for _, o := range orders {
		key := o.DeliveryDate.String()
		byDay[key] = append(byDay[key], o)
	}

	buckets := make(map[string]DayBucket, GridDays)
	for i := 0; i < GridDays; i++ {
		day := gridStart.AddDays(i)
		key := day.String()
		groups := groupCustomers(byDay[key])
		sort.SliceStable(groups, func(a, b int) bool {
			return !groups[a].DeliveredAll && groups[b].DeliveredAll
		})
		buckets[key] = DayBucket{Date: day, Groups: groups}
	}
	return buckets
}

// LegendCounts reduces a bucket map to its delivered/pending group totals.
// Recomputed whenever the bucket map changes.
func LegendCounts(buckets map[string]DayBucket) Legend {
	var l Legend
	for _, b := range buckets {
		for _, g := range b.Groups {
			if g.DeliveredAll {
				l.Delivered++
			} else {
				l.Pending++
			}
		}
	}
	return l
}
