package engine

import "sort"

const (
	SelectNone    SelectionMode = "none"
	SelectTop5    SelectionMode = "top5"
	SelectTop10   SelectionMode = "top10"
	SelectWorst5  SelectionMode = "worst5"
	SelectWorst10 SelectionMode = "worst10"
)

// SelectionMode picks a tail of the revenue-descending sort for the
// per-product/per-customer sales reports.
type SelectionMode string

func (m SelectionMode) Valid() bool {
	switch m {
	case SelectNone, SelectTop5, SelectTop10, SelectWorst5, SelectWorst10, "":
		return true
	}
	return false
}

func (m SelectionMode) limits() (n int, worst bool) {
	switch m {
	case SelectTop5:
		return 5, false
	case SelectTop10:
		return 10, false
	case SelectWorst5:
		return 5, true
	case SelectWorst10:
		return 10, true
	}
	return 0, false
}

// SelectByRevenue sorts rows descending by revenue (stable, so input order
// breaks ties) and takes the first N for topN or the last N for worstN.
// "Worst" is deliberately the bottom of the same descending sort rather
// than a separately sorted ascending list, so ties resolve identically in
// both directions. Mode none (or unknown) returns the full sorted list.
func SelectByRevenue[T any](rows []T, revenue func(T) float64, mode SelectionMode) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return revenue(sorted[i]) > revenue(sorted[j])
	})

	n, worst := mode.limits()
	if n == 0 || n >= len(sorted) {
		return sorted
	}
	if worst {
		return sorted[len(sorted)-n:]
	}
	return sorted[:n]
}
