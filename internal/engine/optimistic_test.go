package engine

import (
	"testing"

	"bottega/internal/core"
)

func ordersFixture() []core.OrderRow {
	return []core.OrderRow{
		{ID: 3, CustomerID: 1, CustomerName: "A", Status: core.StatusDelivered},
		{ID: 5, CustomerID: 2, CustomerName: "B", Status: core.StatusCreated},
		{ID: 8, CustomerID: 3, CustomerName: "C", Status: core.StatusCreated},
	}
}

func TestApplyStatusFlipsWithoutReordering(t *testing.T) {
	orders := ordersFixture()
	updated, change, ok := ApplyStatus(orders, 5, core.StatusDelivered)
	if !ok {
		t.Fatalf("expected order 5 to be found")
	}
	if change.Prev != core.StatusCreated || change.Next != core.StatusDelivered {
		t.Fatalf("unexpected change record: %+v", change)
	}
	if change.State != StatePending || !change.InFlight() {
		t.Fatalf("fresh change must be pending")
	}

	for i, want := range []int64{3, 5, 8} {
		if updated[i].ID != want {
			t.Fatalf("list order changed: position %d has id %d", i, updated[i].ID)
		}
	}
	if updated[1].Status != core.StatusDelivered {
		t.Fatalf("status not applied")
	}
	if updated[1].CustomerName != "B" {
		t.Fatalf("other fields must be untouched")
	}

	// Input snapshot is never mutated.
	if orders[1].Status != core.StatusCreated {
		t.Fatalf("input list was mutated")
	}
}

func TestApplyStatusUnknownID(t *testing.T) {
	orders := ordersFixture()
	updated, change, ok := ApplyStatus(orders, 99, core.StatusDelivered)
	if ok {
		t.Fatalf("unknown id must report ok=false")
	}
	if change.State != StateIdle {
		t.Fatalf("no-op change must stay idle, got %v", change.State)
	}
	for i := range orders {
		if updated[i].ID != orders[i].ID || updated[i].Status != orders[i].Status {
			t.Fatalf("unknown id must leave the list unchanged")
		}
	}
}

func TestRollbackRestoresPriorStatus(t *testing.T) {
	// Optimistic update on {id:5, status:created} to delivered with a
	// failing confirmation: final status is created again.
	orders := ordersFixture()
	updated, change, _ := ApplyStatus(orders, 5, core.StatusDelivered)

	reverted, change := change.Rollback(updated)
	if change.State != StateRolledBack || change.InFlight() {
		t.Fatalf("rollback must leave the rolled_back state, got %v", change.State)
	}
	if reverted[1].Status != core.StatusCreated {
		t.Fatalf("rollback must restore the prior status, got %v", reverted[1].Status)
	}

	// A second rollback restores the tracked prior value again instead of
	// toggling: the status cannot oscillate on a double failure.
	again, _ := change.Rollback(reverted)
	if again[1].Status != core.StatusCreated {
		t.Fatalf("repeated rollback must be idempotent, got %v", again[1].Status)
	}
}

func TestCommitMarksChange(t *testing.T) {
	_, change, _ := ApplyStatus(ordersFixture(), 8, core.StatusDelivered)
	committed := change.Commit()
	if committed.State != StateCommitted || committed.InFlight() {
		t.Fatalf("commit must settle the change, got %v", committed.State)
	}
}

func TestUpdateStateString(t *testing.T) {
	cases := map[UpdateState]string{
		StateIdle:       "idle",
		StatePending:    "pending",
		StateCommitted:  "committed",
		StateRolledBack: "rolled_back",
	}
	for state, want := range cases {
		if state.String() != want {
			t.Fatalf("state %d expected %q, got %q", state, want, state.String())
		}
	}
}
