// Package storage implements the SQLite persistence layer: orders with
// their line items, customers, products, and the expense/income ledgers the
// cashflow report draws from. Schema lives in embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bottega/internal/core"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Fields accepted for filtering and sorting the orders listing, mapped to
// their SQL columns. Unknown fields are silently ignored, matching the API
// contract of the listing endpoint.
var orderSortColumns = map[string]string{
	"id":            "o.id",
	"customer_id":   "o.customer_id",
	"customer_name": "c.name",
	"delivery_date": "o.delivery_date",
	"created_at":    "o.created_at",
	"status":        "o.status",
}

type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the SQLite database at dbPath
// and brings the schema up to date.
func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListOrdersParams carries the pagination, filter and sort parameters of
// the orders listing. Size -1 disables pagination. Zero dates mean no
// bound on that side.
type ListOrdersParams struct {
	Page           int
	Size           int
	ID             int64
	CustomerID     int64
	Status         core.OrderStatus
	CustomerName   string
	DeliveryAfter  core.CivilDate
	DeliveryBefore core.CivilDate
	SortField      string
	SortOrder      string // "asc" or "desc"
}

// ListOrders returns the filtered total and one page of orders, each with
// its customer name, line items and derived discount-adjusted total.
func (r *Repository) ListOrders(ctx context.Context, p ListOrdersParams) (int, []core.OrderRow, error) {
	where, args := orderFilters(p)

	var total int
	countQuery := "SELECT COUNT(*) FROM orders o JOIN customers c ON c.id = o.customer_id" + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT o.id, o.customer_id, c.name, o.delivery_date, o.created_at, o.applied_discount, o.status
		FROM orders o JOIN customers c ON c.id = o.customer_id` + where

	sortCol, ok := orderSortColumns[p.SortField]
	if !ok {
		sortCol = "o.delivery_date"
	}
	direction := "ASC"
	if strings.EqualFold(p.SortOrder, "desc") {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, o.id ASC", sortCol, direction)

	if p.Size >= 0 {
		page := p.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, p.Size, (page-1)*p.Size)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []core.OrderRow
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return 0, nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("list orders: %w", err)
	}

	if err := r.attachItems(ctx, orders, ids); err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// GetOrder fetches a single order with items, or ErrNotFound.
func (r *Repository) GetOrder(ctx context.Context, id int64) (core.OrderRow, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT o.id, o.customer_id, c.name, o.delivery_date, o.created_at, o.applied_discount, o.status
		 FROM orders o JOIN customers c ON c.id = o.customer_id WHERE o.id = ?`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.OrderRow{}, ErrNotFound
	}
	if err != nil {
		return core.OrderRow{}, err
	}

	orders := []core.OrderRow{o}
	if err := r.attachItems(ctx, orders, []int64{o.ID}); err != nil {
		return core.OrderRow{}, err
	}
	return orders[0], nil
}

// UpdateOrderStatus persists a status change. ErrNotFound when the order
// does not exist.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, status core.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// OrdersBetween returns every order delivering inside [start, end], sorted
// by delivery date then id, with items attached. Used by the widget
// endpoints that feed the grouper and the calendar.
func (r *Repository) OrdersBetween(ctx context.Context, start, end core.CivilDate) ([]core.OrderRow, error) {
	_, orders, err := r.ListOrders(ctx, ListOrdersParams{
		Size:           -1,
		DeliveryAfter:  start,
		DeliveryBefore: end,
		SortField:      "delivery_date",
	})
	return orders, err
}

// CashflowEntries returns one inflow record per delivered order in the
// window: the discount-adjusted revenue of its lines, dated by delivery.
func (r *Repository) CashflowEntries(ctx context.Context, start, end core.CivilDate) ([]core.CashflowRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT o.delivery_date,
		        COALESCE(SUM(i.quantity * i.unit_price), 0) * (1 - COALESCE(o.applied_discount, 0) / 100.0)
		 FROM orders o JOIN order_items i ON i.order_id = o.id
		 WHERE o.status = ? AND o.delivery_date BETWEEN ? AND ?
		 GROUP BY o.id, o.delivery_date
		 ORDER BY o.delivery_date ASC, o.id ASC`,
		string(core.StatusDelivered), start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("cashflow entries: %w", err)
	}
	defer rows.Close()
	return scanCashflowRecords(rows)
}

// ExpensesBetween returns the expense ledger rows of the window.
func (r *Repository) ExpensesBetween(ctx context.Context, start, end core.CivilDate) ([]core.CashflowRecord, error) {
	return r.ledgerBetween(ctx, "expenses", start, end)
}

// IncomesBetween returns the secondary inflow ledger rows of the window.
func (r *Repository) IncomesBetween(ctx context.Context, start, end core.CivilDate) ([]core.CashflowRecord, error) {
	return r.ledgerBetween(ctx, "incomes", start, end)
}

func (r *Repository) ledgerBetween(ctx context.Context, table string, start, end core.CivilDate) ([]core.CashflowRecord, error) {
	// table is one of two literals, never user input.
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf("SELECT date, amount FROM %s WHERE date BETWEEN ? AND ? ORDER BY date ASC, id ASC", table),
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("%s between: %w", table, err)
	}
	defer rows.Close()
	return scanCashflowRecords(rows)
}

// ProductSalesRow is one row of the product sales report.
type ProductSalesRow struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Unit        string  `json:"unit,omitempty"`
	TotalQty    float64 `json:"total_qty"`
	Revenue     float64 `json:"revenue"`
}

// ProductSales aggregates quantity and revenue per product over orders
// delivering in the window.
func (r *Repository) ProductSales(ctx context.Context, start, end core.CivilDate) ([]ProductSalesRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, COALESCE(p.unit, ''),
		        COALESCE(SUM(i.quantity), 0),
		        COALESCE(SUM(i.quantity * i.unit_price), 0)
		 FROM products p
		 JOIN order_items i ON i.product_id = p.id
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.delivery_date BETWEEN ? AND ?
		 GROUP BY p.id, p.name
		 ORDER BY p.name ASC`,
		start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("product sales: %w", err)
	}
	defer rows.Close()

	var out []ProductSalesRow
	for rows.Next() {
		var row ProductSalesRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Unit, &row.TotalQty, &row.Revenue); err != nil {
			return nil, fmt.Errorf("scan product sales: %w", err)
		}
		row.TotalQty = core.Round2(row.TotalQty)
		row.Revenue = core.Round2(row.Revenue)
		out = append(out, row)
	}
	return out, rows.Err()
}

// CustomerSalesRow is one per-product row of the customer sales report,
// revenue discount-adjusted by each order's applied discount.
type CustomerSalesRow struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Unit        string  `json:"unit,omitempty"`
	AvgDiscount float64 `json:"avg_discount"`
	TotalQty    float64 `json:"total_qty"`
	Revenue     float64 `json:"revenue"`
}

// CustomerSales returns the customer's display name and per-product sales
// for the window. ErrNotFound when the customer does not exist.
func (r *Repository) CustomerSales(ctx context.Context, customerID int64, start, end core.CivilDate) (string, []CustomerSalesRow, error) {
	var name string
	err := r.db.QueryRowContext(ctx, "SELECT name FROM customers WHERE id = ?", customerID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("get customer: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, COALESCE(p.unit, ''),
		        COALESCE(AVG(o.applied_discount), 0),
		        COALESCE(SUM(i.quantity), 0),
		        COALESCE(SUM(i.quantity * i.unit_price * (1 - COALESCE(o.applied_discount, 0) / 100.0)), 0)
		 FROM products p
		 JOIN order_items i ON i.product_id = p.id
		 JOIN orders o ON o.id = i.order_id
		 WHERE o.customer_id = ? AND o.delivery_date BETWEEN ? AND ?
		 GROUP BY p.id, p.name
		 ORDER BY p.name ASC`,
		customerID, start.String(), end.String())
	if err != nil {
		return "", nil, fmt.Errorf("customer sales: %w", err)
	}
	defer rows.Close()

	var out []CustomerSalesRow
	for rows.Next() {
		var row CustomerSalesRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Unit, &row.AvgDiscount, &row.TotalQty, &row.Revenue); err != nil {
			return "", nil, fmt.Errorf("scan customer sales: %w", err)
		}
		row.AvgDiscount = core.Round2(row.AvgDiscount)
		row.TotalQty = core.Round2(row.TotalQty)
		row.Revenue = core.Round2(row.Revenue)
		out = append(out, row)
	}
	return name, out, rows.Err()
}

func orderFilters(p ListOrdersParams) (string, []any) {
	var conds []string
	var args []any

	if p.ID != 0 {
		conds = append(conds, "o.id = ?")
		args = append(args, p.ID)
	}
	if p.CustomerID != 0 {
		conds = append(conds, "o.customer_id = ?")
		args = append(args, p.CustomerID)
	}
	if p.Status != "" {
		conds = append(conds, "o.status = ?")
		args = append(args, string(p.Status))
	}
	if p.CustomerName != "" {
		conds = append(conds, "c.name LIKE ?")
		args = append(args, "%"+p.CustomerName+"%")
	}
	if !p.DeliveryAfter.IsZero() {
		conds = append(conds, "o.delivery_date >= ?")
		args = append(args, p.DeliveryAfter.String())
	}
	if !p.DeliveryBefore.IsZero() {
		conds = append(conds, "o.delivery_date <= ?")
		args = append(args, p.DeliveryBefore.String())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (core.OrderRow, error) {
	var o core.OrderRow
	var deliveryDate, createdAt string
	var status string
	if err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &deliveryDate, &createdAt, &o.AppliedDiscount, &status); err != nil {
		return core.OrderRow{}, err
	}

	d, err := core.ParseCivilDate(deliveryDate)
	if err != nil {
		return core.OrderRow{}, fmt.Errorf("order %d: %w", o.ID, err)
	}
	o.DeliveryDate = d
	o.Status = core.OrderStatus(status)
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		o.CreatedAt = t.UTC()
	}
	return o, nil
}

// attachItems loads line items for the given orders and fills in each
// order's derived total.
func (r *Repository) attachItems(ctx context.Context, orders []core.OrderRow, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.order_id, i.product_id, p.name, COALESCE(p.unit, ''), i.quantity, i.unit_price
		 FROM order_items i JOIN products p ON p.id = i.product_id
		 WHERE i.order_id IN (`+placeholders+`) ORDER BY i.id ASC`, args...)
	if err != nil {
		return fmt.Errorf("order items: %w", err)
	}
	defer rows.Close()

	itemsByOrder := make(map[int64][]core.OrderItemRow)
	for rows.Next() {
		var it core.OrderItemRow
		var orderID int64
		if err := rows.Scan(&it.ID, &orderID, &it.ProductID, &it.ProductName, &it.Unit, &it.Quantity, &it.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		itemsByOrder[orderID] = append(itemsByOrder[orderID], it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("order items: %w", err)
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
		total := orders[i].Total()
		orders[i].TotalAmount = &total
	}
	return nil
}

func scanCashflowRecords(rows *sql.Rows) ([]core.CashflowRecord, error) {
	var out []core.CashflowRecord
	for rows.Next() {
		var date string
		var rec core.CashflowRecord
		if err := rows.Scan(&date, &rec.Amount); err != nil {
			return nil, fmt.Errorf("scan cashflow record: %w", err)
		}
		d, err := core.ParseCivilDate(date)
		if err != nil {
			return nil, err
		}
		rec.Date = d
		rec.Amount = core.Round2(rec.Amount)
		out = append(out, rec)
	}
	return out, rows.Err()
}
