package engine

import (
	"reflect"
	"testing"
)

type salesRow struct {
	Name    string
	Revenue float64
}

func revenueOf(r salesRow) float64 { return r.Revenue }

func twelveRows() []salesRow {
	rows := make([]salesRow, 12)
	for i := range rows {
		rows[i] = salesRow{Name: string(rune('a' + i)), Revenue: float64((i * 7) % 12)}
	}
	return rows
}

func TestSelectByRevenueTopAndWorstDisjoint(t *testing.T) {
	rows := twelveRows()
	top := SelectByRevenue(rows, revenueOf, SelectTop5)
	worst := SelectByRevenue(rows, revenueOf, SelectWorst5)
	if len(top) != 5 || len(worst) != 5 {
		t.Fatalf("expected 5+5 rows, got %d+%d", len(top), len(worst))
	}

	seen := make(map[string]bool)
	for _, r := range top {
		seen[r.Name] = true
	}
	for _, r := range worst {
		if seen[r.Name] {
			t.Fatalf("top-5 and worst-5 overlap on 12 rows: %q", r.Name)
		}
	}

	// Their union is the two tails of the full descending sort.
	full := SelectByRevenue(rows, revenueOf, SelectNone)
	if !reflect.DeepEqual(top, full[:5]) {
		t.Fatalf("top-5 must be the head of the full sort")
	}
	if !reflect.DeepEqual(worst, full[len(full)-5:]) {
		t.Fatalf("worst-5 must be the tail of the full sort")
	}
}

func TestSelectByRevenueWorstIsBottomOfDescendingSort(t *testing.T) {
	// Ties resolve identically in both directions because worst is the
	// bottom of the same descending sort, not a separate ascending sort.
	rows := []salesRow{
		{"a", 10}, {"b", 5}, {"c", 5}, {"d", 5}, {"e", 5}, {"f", 5}, {"g", 5}, {"h", 1},
	}
	full := SelectByRevenue(rows, revenueOf, SelectNone)
	worst := SelectByRevenue(rows, revenueOf, SelectWorst5)
	if !reflect.DeepEqual(worst, full[3:]) {
		t.Fatalf("worst-5 diverged from the tail of the descending sort: %v vs %v", worst, full[3:])
	}
}

func TestSelectByRevenueShortInput(t *testing.T) {
	rows := []salesRow{{"a", 2}, {"b", 9}, {"c", 4}}
	got := SelectByRevenue(rows, revenueOf, SelectTop5)
	if len(got) != 3 {
		t.Fatalf("N larger than input must return everything, got %d rows", len(got))
	}
	if got[0].Name != "b" || got[2].Name != "a" {
		t.Fatalf("result must still be revenue-descending: %v", got)
	}
}

func TestSelectByRevenueDoesNotMutateInput(t *testing.T) {
	rows := []salesRow{{"a", 1}, {"b", 3}, {"c", 2}}
	SelectByRevenue(rows, revenueOf, SelectTop5)
	if rows[0].Name != "a" || rows[1].Name != "b" || rows[2].Name != "c" {
		t.Fatalf("input slice was reordered: %v", rows)
	}
}

func TestSelectionModeValid(t *testing.T) {
	for _, m := range []SelectionMode{SelectNone, SelectTop5, SelectTop10, SelectWorst5, SelectWorst10, ""} {
		if !m.Valid() {
			t.Fatalf("%q must be valid", m)
		}
	}
	if SelectionMode("best3").Valid() {
		t.Fatalf("unknown mode must be invalid")
	}
}
