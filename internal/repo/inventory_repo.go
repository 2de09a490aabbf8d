package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/amdadul/brandstore-crm/internal/model"
)

// StockRow is one line of the stock report
type StockRow struct {
	StoreName   string `db:"store_name"`
	ProductName string `db:"product_name"`
	Stock       int    `db:"stock"`
}

// InventoryRepo defines the interface for unit inventory operations.
// A nil store scope means every store.
type InventoryRepo interface {
	AddUnit(ctx context.Context, u Unit) error
	StockPage(ctx context.Context, scope *int64, page, perPage int) ([]model.StockItem, int, error)
	CountInStock(ctx context.Context, scope *int64) (int, error)
	FindBySerials(ctx context.Context, serials []string) ([]Unit, error)
	StockReport(ctx context.Context, scope *int64) ([]StockRow, error)
}

type inventoryRepo struct {
	db *sqlx.DB
}

// NewInventoryRepo creates a new InventoryRepo instance
func NewInventoryRepo(db *sqlx.DB) InventoryRepo {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) AddUnit(ctx context.Context, u Unit) error {
	status := u.Status
	if status == "" {
		status = UnitShipped
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO units (store_id, product_name, serial_no, status) VALUES (?, ?, ?, ?)
	`), u.StoreID, u.ProductName, u.SerialNo, status)
	if err != nil {
		return fmt.Errorf("insert unit %s: %w", u.SerialNo, err)
	}
	return nil
}

func scopeClause(scope *int64, column string) (string, []interface{}) {
	if scope == nil {
		return "", nil
	}
	return " AND " + column + " = ?", []interface{}{*scope}
}

func (r *inventoryRepo) StockPage(ctx context.Context, scope *int64, page, perPage int) ([]model.StockItem, int, error) {
	where, args := scopeClause(scope, "store_id")

	var total int
	countQuery := `SELECT COUNT(DISTINCT product_name) FROM units WHERE status = ?` + where
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), append([]interface{}{UnitInStock}, args...)...); err != nil {
		return nil, 0, fmt.Errorf("count stock: %w", err)
	}

	type row struct {
		ID          int64  `db:"id"`
		ProductName string `db:"product_name"`
		Stock       int    `db:"stock"`
	}
	var rows []row
	query := `
		SELECT MIN(id) AS id, product_name, COUNT(*) AS stock
		FROM units
		WHERE status = ?` + where + `
		GROUP BY product_name
		ORDER BY product_name
		LIMIT ? OFFSET ?`
	queryArgs := append([]interface{}{UnitInStock}, args...)
	queryArgs = append(queryArgs, perPage, (page-1)*perPage)
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), queryArgs...); err != nil {
		return nil, 0, fmt.Errorf("list stock: %w", err)
	}

	items := make([]model.StockItem, 0, len(rows))
	for _, rw := range rows {
		items = append(items, model.StockItem{ID: rw.ID, ProductName: rw.ProductName, Stock: rw.Stock})
	}
	return items, total, nil
}

func (r *inventoryRepo) CountInStock(ctx context.Context, scope *int64) (int, error) {
	where, args := scopeClause(scope, "store_id")
	var n int
	query := `SELECT COUNT(*) FROM units WHERE status = ?` + where
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), append([]interface{}{UnitInStock}, args...)...); err != nil {
		return 0, fmt.Errorf("count in stock: %w", err)
	}
	return n, nil
}

// FindBySerials returns the known units among serials, in no particular order.
func (r *inventoryRepo) FindBySerials(ctx context.Context, serials []string) ([]Unit, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, store_id, product_name, serial_no, status FROM units WHERE serial_no IN (?)`, serials)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var units []Unit
	if err := r.db.SelectContext(ctx, &units, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find units: %w", err)
	}
	return units, nil
}

func (r *inventoryRepo) StockReport(ctx context.Context, scope *int64) ([]StockRow, error) {
	where, args := scopeClause(scope, "u.store_id")
	query := `
		SELECT s.name AS store_name, u.product_name, COUNT(*) AS stock
		FROM units u
		JOIN stores s ON s.id = u.store_id
		WHERE u.status = ?` + where + `
		GROUP BY s.name, u.product_name
		ORDER BY s.name, u.product_name`
	rows := []StockRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), append([]interface{}{UnitInStock}, args...)...); err != nil {
		return nil, fmt.Errorf("stock report: %w", err)
	}
	return rows, nil
}
