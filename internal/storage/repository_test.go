package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bottega/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo *Repository, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := repo.db.Exec(s); err != nil {
			t.Fatalf("seed %q: %v", s, err)
		}
	}
}

func seedOrders(t *testing.T, repo *Repository) {
	seed(t, repo,
		`INSERT INTO customers (id, name) VALUES (1, 'Forno Rossi'), (2, 'Bar Centrale')`,
		`INSERT INTO products (id, name, unit, unit_price) VALUES
			(1, 'Farina 00', 'kg', 2.0),
			(2, 'Lievito', 'g', 0.05)`,
		`INSERT INTO orders (id, customer_id, delivery_date, created_at, applied_discount, status) VALUES
			(1, 1, '2024-03-10', '2024-03-01 09:00:00', 0,  'created'),
			(2, 1, '2024-03-12', '2024-03-02 09:00:00', 10, 'delivered'),
			(3, 2, '2024-03-12', '2024-03-03 09:00:00', 0,  'delivered'),
			(4, 2, '2024-04-01', '2024-03-04 09:00:00', 0,  'created')`,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES
			(1, 1, 5,   2.0),
			(2, 1, 10,  2.0),
			(2, 2, 100, 0.05),
			(3, 2, 200, 0.05)`,
	)
}

func TestListOrdersFiltersAndPagination(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)
	ctx := context.Background()

	total, orders, err := repo.ListOrders(ctx, ListOrdersParams{Size: -1})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 4 || len(orders) != 4 {
		t.Fatalf("expected 4 orders, got total=%d len=%d", total, len(orders))
	}

	total, orders, err = repo.ListOrders(ctx, ListOrdersParams{Size: -1, Status: core.StatusDelivered})
	if err != nil {
		t.Fatalf("list delivered: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Fatalf("expected 2 delivered orders, got total=%d len=%d", total, len(orders))
	}

	total, orders, err = repo.ListOrders(ctx, ListOrdersParams{Size: -1, CustomerName: "rossi"})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if total != 2 {
		t.Fatalf("substring filter should match 2 orders, got %d", total)
	}
	for _, o := range orders {
		if o.CustomerName != "Forno Rossi" {
			t.Fatalf("unexpected customer %q", o.CustomerName)
		}
	}

	// Page 2 of size 2, sorted by id: orders 3 and 4.
	total, orders, err = repo.ListOrders(ctx, ListOrdersParams{Page: 2, Size: 2, SortField: "id"})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if total != 4 || len(orders) != 2 {
		t.Fatalf("expected total=4 page-len=2, got total=%d len=%d", total, len(orders))
	}
	if orders[0].ID != 3 || orders[1].ID != 4 {
		t.Fatalf("expected orders [3 4], got [%d %d]", orders[0].ID, orders[1].ID)
	}
}

func TestListOrdersDeliveryWindow(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)

	_, orders, err := repo.ListOrders(context.Background(), ListOrdersParams{
		Size:           -1,
		DeliveryAfter:  core.NewCivilDate(2024, 3, 11),
		DeliveryBefore: core.NewCivilDate(2024, 3, 31),
	})
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders in window, got %d", len(orders))
	}
	for _, o := range orders {
		if o.DeliveryDate.String() != "2024-03-12" {
			t.Fatalf("unexpected delivery date %s", o.DeliveryDate)
		}
	}
}

func TestListOrdersDerivesTotals(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)

	o, err := repo.GetOrder(context.Background(), 2)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	// (10*2.0 + 100*0.05) * 0.9 = 22.50
	if o.TotalAmount == nil || *o.TotalAmount != 22.50 {
		t.Fatalf("expected total 22.50, got %v", o.TotalAmount)
	}
	if o.Items[0].ProductName != "Farina 00" || o.Items[0].Unit != "kg" {
		t.Fatalf("item product fields not joined: %+v", o.Items[0])
	}
}

func TestGetOrderNotFound(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)

	if _, err := repo.GetOrder(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)
	ctx := context.Background()

	if err := repo.UpdateOrderStatus(ctx, 1, core.StatusDelivered); err != nil {
		t.Fatalf("update: %v", err)
	}
	o, err := repo.GetOrder(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if o.Status != core.StatusDelivered {
		t.Fatalf("expected delivered, got %s", o.Status)
	}

	if err := repo.UpdateOrderStatus(ctx, 999, core.StatusDelivered); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCashflowEntriesDeliveredOnly(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)

	recs, err := repo.CashflowEntries(context.Background(),
		core.NewCivilDate(2024, 3, 1), core.NewCivilDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("cashflow entries: %v", err)
	}
	// Orders 2 and 3 are delivered; order 1 is pending and must not appear.
	if len(recs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recs))
	}
	if recs[0].Amount != 22.50 {
		t.Fatalf("expected discounted revenue 22.50, got %v", recs[0].Amount)
	}
	if recs[1].Amount != 10.00 {
		t.Fatalf("expected revenue 10.00, got %v", recs[1].Amount)
	}
}

func TestLedgersBetween(t *testing.T) {
	repo := newTestRepository(t)
	seed(t, repo,
		`INSERT INTO expenses (date, amount, note) VALUES
			('2024-03-05', 40.0, 'flour'),
			('2024-03-20', 15.5, 'gas'),
			('2024-04-02', 99.0, 'out of window')`,
		`INSERT INTO incomes (date, amount, note) VALUES ('2024-03-07', 12.0, 'market stall')`,
	)
	ctx := context.Background()
	start, end := core.NewCivilDate(2024, 3, 1), core.NewCivilDate(2024, 3, 31)

	expenses, err := repo.ExpensesBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("expenses: %v", err)
	}
	if len(expenses) != 2 || expenses[0].Amount != 40.0 || expenses[1].Amount != 15.5 {
		t.Fatalf("unexpected expenses %+v", expenses)
	}

	incomes, err := repo.IncomesBetween(ctx, start, end)
	if err != nil {
		t.Fatalf("incomes: %v", err)
	}
	if len(incomes) != 1 || incomes[0].Amount != 12.0 {
		t.Fatalf("unexpected incomes %+v", incomes)
	}
}

func TestProductSales(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)

	rows, err := repo.ProductSales(context.Background(),
		core.NewCivilDate(2024, 3, 1), core.NewCivilDate(2024, 3, 31))
	if err != nil {
		t.Fatalf("product sales: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 products, got %d", len(rows))
	}
	// Sorted by name: Farina 00 first.
	if rows[0].ProductName != "Farina 00" || rows[0].TotalQty != 15 || rows[0].Revenue != 30.0 {
		t.Fatalf("unexpected farina row %+v", rows[0])
	}
	if rows[1].ProductName != "Lievito" || rows[1].TotalQty != 300 || rows[1].Revenue != 15.0 {
		t.Fatalf("unexpected lievito row %+v", rows[1])
	}
}

func TestCustomerSales(t *testing.T) {
	repo := newTestRepository(t)
	seedOrders(t, repo)
	ctx := context.Background()
	start, end := core.NewCivilDate(2024, 3, 1), core.NewCivilDate(2024, 3, 31)

	name, rows, err := repo.CustomerSales(ctx, 1, start, end)
	if err != nil {
		t.Fatalf("customer sales: %v", err)
	}
	if name != "Forno Rossi" {
		t.Fatalf("unexpected name %q", name)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 product rows, got %d", len(rows))
	}
	// Order 1 (no discount): 5*2.0=10; order 2 (10% off): 10*2.0*0.9=18.
	if rows[0].ProductName != "Farina 00" || rows[0].TotalQty != 15 || rows[0].Revenue != 28.0 {
		t.Fatalf("unexpected farina row %+v", rows[0])
	}

	if _, _, err := repo.CustomerSales(ctx, 999, start, end); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
