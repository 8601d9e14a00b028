package engine

import (
	"bottega/internal/core"
)

const (
	StateIdle UpdateState = iota
	StatePending
	StateCommitted
	StateRolledBack
)

type (
	// UpdateState is the lifecycle of one optimistic status change:
	// Idle → Pending → {Committed | RolledBack}.
	UpdateState int

	// StatusChange records one optimistic mutation. It carries the explicit
	// prior status, not a toggle: rolling back always restores Prev, so a
	// double failure cannot oscillate the status incorrectly.
	//
	// The engine is not reentrant-safe for a single order id. Single-flight
	// per id is the caller's responsibility, signaled by keeping the
	// pending change's OrderID as its updating-id marker.
	StatusChange struct {
		OrderID int64
		Prev    core.OrderStatus
		Next    core.OrderStatus
		State   UpdateState
	}
)

func (s UpdateState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// ApplyStatus flips the status of the order with the given id in a fresh
// copy of the list, leaving every other field and the list order untouched.
// The change is applied synchronously and optimistically: dependent views
// (GroupOrders output) reflect it before any remote confirmation resolves.
// ok is false when no order matches, in which case the input is returned
// unchanged.
func ApplyStatus(orders []core.OrderRow, id int64, next core.OrderStatus) (updated []core.OrderRow, change StatusChange, ok bool) {
	updated = make([]core.OrderRow, len(orders))
	copy(updated, orders)

	for i := range updated {
		if updated[i].ID != id {
			continue
		}
		change = StatusChange{
			OrderID: id,
			Prev:    updated[i].Status,
			Next:    next,
			State:   StatePending,
		}
		updated[i].Status = next
		return updated, change, true
	}
	return updated, StatusChange{OrderID: id, State: StateIdle}, false
}

// Commit marks the change confirmed by the remote side.
func (c StatusChange) Commit() StatusChange {
	c.State = StateCommitted
	return c
}

// Rollback restores the prior status in a fresh copy of the list after a
// failed remote confirmation. List order is preserved; orders that no
// longer exist are left alone.
func (c StatusChange) Rollback(orders []core.OrderRow) ([]core.OrderRow, StatusChange) {
	reverted := make([]core.OrderRow, len(orders))
	copy(reverted, orders)
	for i := range reverted {
		if reverted[i].ID == c.OrderID {
			reverted[i].Status = c.Prev
			break
		}
	}
	c.State = StateRolledBack
	return reverted, c
}

// InFlight reports whether the change is still awaiting confirmation.
func (c StatusChange) InFlight() bool {
	return c.State == StatePending
}
