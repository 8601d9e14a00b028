package engine

import (
	"math"
	"sort"
	"time"

	"bottega/internal/core"
)

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

type (
	// Granularity is the time-bucketing resolution of the cashflow view.
	Granularity string

	// PeriodTotals are the inflow/outflow/net sums of a window. Net is
	// always In − Out, never independently sourced: a server-supplied net
	// that disagrees is ignored so the invariant holds exactly.
	PeriodTotals struct {
		In  float64 `json:"in"`
		Out float64 `json:"out"`
		Net float64 `json:"net"`
	}

	// CashflowBucket is one point of the series, labelled by its period
	// key (ISO date, YYYY-MM or YYYY depending on granularity).
	CashflowBucket struct {
		Label string  `json:"label"`
		In    float64 `json:"in"`
		Out   float64 `json:"out"`
		Net   float64 `json:"net"`
	}

	// WeekdayNet is the accumulated net for one day of the week,
	// Monday-first.
	WeekdayNet struct {
		Weekday string  `json:"weekday"`
		Net     float64 `json:"net"`
	}

	// CashflowInput is the full input snapshot for one aggregation run.
	// Rows arrive already filtered server-side to the requested windows;
	// the engine only buckets and sums what it receives. PrevEntries and
	// PrevExpenses hold the rows of the immediately preceding window of
	// equal length (see PreviousPeriod) and feed PreviousTotals.
	CashflowInput struct {
		Entries      []core.CashflowRecord
		Expenses     []core.CashflowRecord
		PrevEntries  []core.CashflowRecord
		PrevExpenses []core.CashflowRecord
		Granularity  Granularity
		Start        core.CivilDate
		End          core.CivilDate
	}

	// CashflowView is the render-ready aggregation result.
	CashflowView struct {
		Series         []CashflowBucket `json:"series"`
		Totals         PeriodTotals     `json:"totals"`
		PreviousTotals PeriodTotals     `json:"previous_totals"`
		PrevStart      core.CivilDate   `json:"prev_start"`
		PrevEnd        core.CivilDate   `json:"prev_end"`
		BestInflow     *CashflowBucket  `json:"best_inflow_period,omitempty"`
		WorstOutflow   *CashflowBucket  `json:"worst_outflow_period,omitempty"`
		Weekdays       []WeekdayNet     `json:"weekday_distribution,omitempty"`
	}

	// Delta compares a current value against a prior baseline. When the
	// baseline is zero there is no meaningful percentage: HasBaseline is
	// false and Percent is zero, an explicit sentinel rather than ±Inf or
	// NaN, so the UI can render "no baseline" instead of a misleading
	// "+100%".
	Delta struct {
		Value       float64 `json:"value"`
		Percent     float64 `json:"percent"`
		HasBaseline bool    `json:"has_baseline"`
	}
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityMonthly, GranularityYearly:
		return true
	}
	return false
}

// Key maps a date to its bucket label. Lexicographic order of these labels
// equals chronological order, so sorted distinct keys give the series axis.
func (g Granularity) Key(d core.CivilDate) string {
	switch g {
	case GranularityMonthly:
		return d.MonthKey()
	case GranularityYearly:
		return d.YearKey()
	default:
		return d.String()
	}
}

// PreviousPeriod computes the immediately preceding, non-overlapping window
// of identical length: prevEnd = start − 1 day, prevStart = prevEnd −
// (len − 1) days. All arithmetic is UTC civil-date math; an earlier
// local-time implementation of this drifted one day across DST boundaries.
func PreviousPeriod(start, end core.CivilDate) (prevStart, prevEnd core.CivilDate) {
	length := core.DaysInclusive(start, end)
	prevEnd = start.AddDays(-1)
	prevStart = prevEnd.AddDays(-(length - 1))
	return prevStart, prevEnd
}

// AggregateCashflow buckets inflow entries and outflow expenses by the
// selected granularity and derives totals, the previous-window comparison
// totals, best/worst periods and (for daily granularity) the weekday
// distribution. An empty input produces an empty series and zeroed totals.
func AggregateCashflow(in CashflowInput) CashflowView {
	g := in.Granularity
	if !g.Valid() {
		g = GranularityDaily
	}

	type sums struct{ in, out float64 }
	bucketSums := make(map[string]*sums)
	touch := func(label string) *sums {
		s, ok := bucketSums[label]
		if !ok {
			s = &sums{}
			bucketSums[label] = s
		}
		return s
	}
	for _, e := range in.Entries {
		touch(g.Key(e.Date)).in += core.SafeNumber(e.Amount)
	}
	for _, e := range in.Expenses {
		touch(g.Key(e.Date)).out += core.SafeNumber(e.Amount)
	}

	labels := make([]string, 0, len(bucketSums))
	for label := range bucketSums {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	view := CashflowView{
		Series: make([]CashflowBucket, 0, len(labels)),
		Totals: totalsOf(in.Entries, in.Expenses),
	}
	view.PrevStart, view.PrevEnd = PreviousPeriod(in.Start, in.End)
	view.PreviousTotals = totalsOf(in.PrevEntries, in.PrevExpenses)

	for _, label := range labels {
		s := bucketSums[label]
		b := CashflowBucket{
			Label: label,
			In:    core.Round2(s.in),
			Out:   core.Round2(s.out),
		}
		b.Net = core.Round2(b.In - b.Out)
		view.Series = append(view.Series, b)
	}

	// Earliest label wins ties: series is already in label order and only
	// a strictly better bucket replaces the current pick.
	for i := range view.Series {
		b := &view.Series[i]
		if view.BestInflow == nil || b.In > view.BestInflow.In {
			view.BestInflow = b
		}
		if view.WorstOutflow == nil || b.Out > view.WorstOutflow.Out {
			view.WorstOutflow = b
		}
	}

	if g == GranularityDaily {
		view.Weekdays = weekdayDistribution(in.Entries, in.Expenses)
	}
	return view
}

func totalsOf(entries, expenses []core.CashflowRecord) PeriodTotals {
	var t PeriodTotals
	for _, e := range entries {
		t.In += core.SafeNumber(e.Amount)
	}
	for _, e := range expenses {
		t.Out += core.SafeNumber(e.Amount)
	}
	t.In = core.Round2(t.In)
	t.Out = core.Round2(t.Out)
	t.Net = core.Round2(t.In - t.Out)
	return t
}

// weekdayDistribution re-buckets the same rows by day of the week,
// accumulating net inflow − outflow per weekday across the whole window.
// Answers "which day of the week is structurally worst", independent of
// calendar date.
func weekdayDistribution(entries, expenses []core.CashflowRecord) []WeekdayNet {
	var nets [7]float64 // Monday-first
	slot := func(d core.CivilDate) int {
		return (int(d.Weekday()) + 6) % 7
	}
	for _, e := range entries {
		nets[slot(e.Date)] += core.SafeNumber(e.Amount)
	}
	for _, e := range expenses {
		nets[slot(e.Date)] -= core.SafeNumber(e.Amount)
	}

	out := make([]WeekdayNet, 7)
	for i := 0; i < 7; i++ {
		weekday := time.Weekday((i + 1) % 7)
		out[i] = WeekdayNet{Weekday: weekday.String(), Net: core.Round2(nets[i])}
	}
	return out
}

// ComputeDelta returns curr − prev with the relative percentage against the
// baseline. delta(100, 0) reports the no-baseline sentinel, never Inf.
func ComputeDelta(curr, prev float64) Delta {
	curr = core.SafeNumber(curr)
	prev = core.SafeNumber(prev)
	d := Delta{Value: core.Round2(curr - prev)}
	if prev != 0 {
		d.HasBaseline = true
		pct := math.Abs(d.Value) / math.Abs(prev) * 100
		if d.Value < 0 {
			pct = -pct
		}
		d.Percent = core.Round2(pct)
	}
	return d
}
