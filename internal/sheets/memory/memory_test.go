package memory

import (
	"context"
	"testing"

	"bottega/internal/core"
	"bottega/internal/engine"
	ports "bottega/internal/sheets"
)

func TestWriteCashflow(t *testing.T) {
	s := New()
	export := ports.CashflowExport{
		Start:       core.NewCivilDate(2024, 3, 1),
		End:         core.NewCivilDate(2024, 3, 31),
		Granularity: engine.GranularityDaily,
		View: engine.CashflowView{
			Series: []engine.CashflowBucket{{Label: "2024-03-01", In: 10, Out: 4, Net: 6}},
		},
	}

	ref, err := s.WriteCashflow(context.Background(), export)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if got := s.Exports(); len(got) != 1 || got[0].View.Series[0].Net != 6 {
		t.Fatalf("unexpected exports %+v", got)
	}
}

func TestWriteCashflowRejectsMissingWindow(t *testing.T) {
	s := New()
	if _, err := s.WriteCashflow(context.Background(), ports.CashflowExport{}); err == nil {
		t.Fatal("missing window must be rejected")
	}
}
