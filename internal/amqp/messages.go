package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"bottega/internal/core"
)

// OrderStatusMessage announces a confirmed order status change. Consumers
// get both sides of the transition so they can render or audit it without
// another lookup.
type OrderStatusMessage struct {
	OrderID   int64            `json:"order_id"`
	Prev      core.OrderStatus `json:"prev"`
	Next      core.OrderStatus `json:"next"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewOrderStatusMessage(orderID int64, prev, next core.OrderStatus) *OrderStatusMessage {
	return &OrderStatusMessage{
		OrderID:   orderID,
		Prev:      prev,
		Next:      next,
		Timestamp: time.Now(),
	}
}

func (m *OrderStatusMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func OrderStatusMessageFromJSON(data []byte) (*OrderStatusMessage, error) {
	var msg OrderStatusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Next.Valid() {
		return nil, fmt.Errorf("invalid status %q", msg.Next)
	}
	return &msg, nil
}

// ReportExportMessage asks the worker to compute a report window and push
// it to the spreadsheet. It carries only the parameters, the worker
// recomputes from the database.
type ReportExportMessage struct {
	Report      string         `json:"report"` // "cashflow"
	Start       core.CivilDate `json:"start"`
	End         core.CivilDate `json:"end"`
	Granularity string         `json:"granularity"`
	Timestamp   time.Time      `json:"timestamp"`
}

func NewReportExportMessage(report string, start, end core.CivilDate, granularity string) *ReportExportMessage {
	return &ReportExportMessage{
		Report:      report,
		Start:       start,
		End:         end,
		Granularity: granularity,
		Timestamp:   time.Now(),
	}
}

func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Start.IsZero() || msg.End.IsZero() {
		return nil, fmt.Errorf("export message missing window")
	}
	return &msg, nil
}
