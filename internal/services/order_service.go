// Package services orchestrates the engine transforms against storage,
// the message broker and the report cache.
package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"bottega/internal/amqp"
	"bottega/internal/core"
	"bottega/internal/engine"
	"bottega/internal/log"
	"bottega/internal/storage"
)

// ErrInvalidStatus re-exports the core sentinel so callers matching on the
// service surface and on domain validation see the same error.
var ErrInvalidStatus = core.ErrInvalidStatus

// OrderStore is the storage surface the order service needs.
type OrderStore interface {
	ListOrders(ctx context.Context, p storage.ListOrdersParams) (int, []core.OrderRow, error)
	GetOrder(ctx context.Context, id int64) (core.OrderRow, error)
	UpdateOrderStatus(ctx context.Context, id int64, status core.OrderStatus) error
	OrdersBetween(ctx context.Context, start, end core.CivilDate) ([]core.OrderRow, error)
}

// StatusPublisher announces confirmed status changes. Nil disables publishing.
type StatusPublisher interface {
	PublishOrderStatus(ctx context.Context, msg *amqp.OrderStatusMessage) error
}

// OrderService serves the orders listing, the widget views and the
// optimistic status mutation.
type OrderService struct {
	store     OrderStore
	publisher StatusPublisher
	logger    *log.Logger
	flight    singleflight.Group

	mu         sync.Mutex
	updatingID int64 // order id with a confirmation in flight, 0 when none
}

func NewOrderService(store OrderStore, publisher StatusPublisher, logger *log.Logger) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentOrders),
	}
}

// ListOrders returns the filtered total plus one page of orders.
func (s *OrderService) ListOrders(ctx context.Context, p storage.ListOrdersParams) (int, []core.OrderRow, error) {
	if p.Status != "" && !p.Status.Valid() {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	total, orders, err := s.store.ListOrders(ctx, p)
	if err != nil {
		return 0, nil, fmt.Errorf("list orders: %w", err)
	}
	return total, orders, nil
}

// UpdatingID reports the order id whose status confirmation is still in
// flight, 0 when none is.
func (s *OrderService) UpdatingID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatingID
}

func (s *OrderService) setUpdating(id int64) {
	s.mu.Lock()
	s.updatingID = id
	s.mu.Unlock()
}

// UpdateStatus applies a status change optimistically and confirms it
// against storage. On confirmation failure the change is rolled back and
// the error surfaces exactly once. Concurrent updates of the same order id
// collapse into one confirmation.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, next core.OrderStatus) (core.OrderRow, error) {
	if !next.Valid() {
		return core.OrderRow{}, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	result, err, _ := s.flight.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return s.updateStatus(ctx, id, next)
	})
	if err != nil {
		return core.OrderRow{}, err
	}
	return result.(core.OrderRow), nil
}

func (s *OrderService) updateStatus(ctx context.Context, id int64, next core.OrderStatus) (core.OrderRow, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return core.OrderRow{}, fmt.Errorf("get order %d: %w", id, err)
	}

	updated, change, ok := engine.ApplyStatus([]core.OrderRow{order}, id, next)
	if !ok {
		return core.OrderRow{}, storage.ErrNotFound
	}

	s.setUpdating(change.OrderID)
	defer s.setUpdating(0)

	if err := s.store.UpdateOrderStatus(ctx, id, next); err != nil {
		_, change = change.Rollback(updated)
		fields := log.NewFields().
			WithOperation(log.OpRollback).
			WithOrder(id, string(change.Next)).
			WithError(err)
		fields[log.FieldPrevStatus] = string(change.Prev)
		s.logger.ErrorContext(ctx, "Status confirmation failed, rolled back", fields.ToSlice()...)
		return core.OrderRow{}, fmt.Errorf("confirm status of order %d: %w", id, err)
	}
	change = change.Commit()

	fields := log.NewFields().
		WithOperation(log.OpUpdate).
		WithOrder(id, string(change.Next))
	fields[log.FieldPrevStatus] = string(change.Prev)
	s.logger.InfoContext(ctx, "Order status updated", fields.ToSlice()...)

	if s.publisher != nil {
		msg := amqp.NewOrderStatusMessage(id, change.Prev, change.Next)
		if err := s.publisher.PublishOrderStatus(ctx, msg); err != nil {
			// The change is already committed, the event is best effort.
			s.logger.WarnContext(ctx, "Failed to publish status message",
				log.FieldOrderID, id,
				log.FieldError, err.Error())
		}
	}

	return updated[0], nil
}

// DailySummary returns the grouped product and customer views of the
// orders delivering on one day.
func (s *OrderService) DailySummary(ctx context.Context, day core.CivilDate) (engine.OrderGroups, error) {
	orders, err := s.store.OrdersBetween(ctx, day, day)
	if err != nil {
		return engine.OrderGroups{}, fmt.Errorf("daily summary: %w", err)
	}
	return engine.GroupOrders(orders), nil
}

// CalendarView is one rendered month grid: 42 day buckets keyed by ISO
// date plus the delivered/pending legend.
type CalendarView struct {
	GridStart core.CivilDate              `json:"grid_start"`
	Days      map[string]engine.DayBucket `json:"days"`
	Legend    engine.Legend               `json:"legend"`
}

// Calendar buckets the month's orders into the 42-cell grid.
func (s *OrderService) Calendar(ctx context.Context, year, month int) (CalendarView, error) {
	gridStart := engine.MonthGridStart(year, month)
	gridEnd := gridStart.AddDays(engine.GridDays - 1)

	orders, err := s.store.OrdersBetween(ctx, gridStart, gridEnd)
	if err != nil {
		return CalendarView{}, fmt.Errorf("calendar orders: %w", err)
	}

	days := engine.BucketCalendar(orders, gridStart)
	return CalendarView{
		GridStart: gridStart,
		Days:      days,
		Legend:    engine.LegendCounts(days),
	}, nil
}
