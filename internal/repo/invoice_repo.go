package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/amdadul/brandstore-crm/internal/model"
)

// NewInvoice moves Units from one status to another and records the movement.
type NewInvoice struct {
	Kind    string
	StoreID int64
	Date    string
	Name    string
	Phone   string
	Address string
	Units   []Unit
	From    string
	To      string
}

// SaleRow is one line of the sales report
type SaleRow struct {
	OrderNo     string `db:"order_no"`
	Date        string `db:"date"`
	StoreName   string `db:"store_name"`
	Customer    string `db:"name"`
	Phone       string `db:"phone"`
	ProductName string `db:"product_name"`
	SerialNo    string `db:"serial_no"`
	Quantity    int    `db:"quantity"`
}

// InvoiceRepo defines the interface for stock-update and sales invoices.
// A nil store scope means every store.
type InvoiceRepo interface {
	Create(ctx context.Context, inv NewInvoice) (model.SaleRecord, error)
	List(ctx context.Context, kind string, scope *int64, page, perPage int) ([]model.SaleRecord, int, error)
	SumQuantity(ctx context.Context, kind string, scope *int64) (int, error)
	SalesBetween(ctx context.Context, from, to string, scope *int64) ([]SaleRow, error)
}

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new InvoiceRepo instance
func NewInvoiceRepo(db *sqlx.DB) InvoiceRepo {
	return &invoiceRepo{db: db}
}

// groupLines folds units into one line per product, keeping first-seen order.
func groupLines(units []Unit) []model.InvoiceLine {
	var lines []model.InvoiceLine
	index := map[string]int{}
	serials := map[string][]string{}
	for _, u := range units {
		i, ok := index[u.ProductName]
		if !ok {
			i = len(lines)
			index[u.ProductName] = i
			lines = append(lines, model.InvoiceLine{ProductName: u.ProductName})
		}
		serials[u.ProductName] = append(serials[u.ProductName], u.SerialNo)
		lines[i].Quantity++
	}
	for i := range lines {
		lines[i].SerialNo = model.JoinSerials(serials[lines[i].ProductName])
	}
	return lines
}

// Create transitions every unit atomically; if any unit is no longer in the
// From status the whole invoice is rolled back with ErrConflict.
func (r *invoiceRepo) Create(ctx context.Context, inv NewInvoice) (model.SaleRecord, error) {
	if len(inv.Units) == 0 {
		return model.SaleRecord{}, fmt.Errorf("invoice has no units")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	move := tx.Rebind(`UPDATE units SET status = ? WHERE id = ? AND status = ?`)
	for _, u := range inv.Units {
		res, err := tx.ExecContext(ctx, move, inv.To, u.ID, inv.From)
		if err != nil {
			return model.SaleRecord{}, fmt.Errorf("update unit %s: %w", u.SerialNo, err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return model.SaleRecord{}, fmt.Errorf("unit %s: %w", u.SerialNo, ErrConflict)
		}
	}

	prefix := "SU"
	if inv.Kind == KindSale {
		prefix = "SO"
	}
	orderNo := prefix + "-" + strings.ToUpper(uuid.NewString()[:8])

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO invoices (kind, order_no, store_id, date, quantity, name, phone, address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), inv.Kind, orderNo, inv.StoreID, inv.Date, len(inv.Units), inv.Name, inv.Phone, inv.Address)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("insert invoice: %w", err)
	}
	invoiceID, err := res.LastInsertId()
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("invoice id: %w", err)
	}

	lines := groupLines(inv.Units)
	insertLine := tx.Rebind(`
		INSERT INTO invoice_lines (invoice_id, product_name, serial_no, quantity) VALUES (?, ?, ?, ?)
	`)
	for i := range lines {
		res, err := tx.ExecContext(ctx, insertLine, invoiceID, lines[i].ProductName, lines[i].SerialNo, lines[i].Quantity)
		if err != nil {
			return model.SaleRecord{}, fmt.Errorf("insert invoice line: %w", err)
		}
		lines[i].ID, _ = res.LastInsertId()
	}

	if err := tx.Commit(); err != nil {
		return model.SaleRecord{}, fmt.Errorf("commit: %w", err)
	}

	return model.SaleRecord{
		ID:       invoiceID,
		OrderNo:  orderNo,
		Date:     inv.Date,
		Quantity: len(inv.Units),
		Name:     inv.Name,
		Phone:    inv.Phone,
		Address:  inv.Address,
		Details:  lines,
	}, nil
}

type invoiceRow struct {
	ID       int64  `db:"id"`
	OrderNo  string `db:"order_no"`
	Date     string `db:"date"`
	Quantity int    `db:"quantity"`
	Name     string `db:"name"`
	Phone    string `db:"phone"`
	Address  string `db:"address"`
}

type lineRow struct {
	ID          int64  `db:"id"`
	InvoiceID   int64  `db:"invoice_id"`
	ProductName string `db:"product_name"`
	SerialNo    string `db:"serial_no"`
	Quantity    int    `db:"quantity"`
}

// List returns one page of invoices, newest first, with their lines.
func (r *invoiceRepo) List(ctx context.Context, kind string, scope *int64, page, perPage int) ([]model.SaleRecord, int, error) {
	where, args := scopeClause(scope, "store_id")
	baseArgs := append([]interface{}{kind}, args...)

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM invoices WHERE kind = ?`+where), baseArgs...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	var rows []invoiceRow
	query := `
		SELECT id, order_no, date, quantity, name, phone, address
		FROM invoices
		WHERE kind = ?` + where + `
		ORDER BY id DESC
		LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), append(baseArgs, perPage, (page-1)*perPage)...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	records := make([]model.SaleRecord, 0, len(rows))
	if len(rows) == 0 {
		return records, total, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, rw := range rows {
		ids = append(ids, rw.ID)
	}
	lineQuery, lineArgs, err := sqlx.In(`
		SELECT id, invoice_id, product_name, serial_no, quantity
		FROM invoice_lines WHERE invoice_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}
	var lines []lineRow
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(lineQuery), lineArgs...); err != nil {
		return nil, 0, fmt.Errorf("list invoice lines: %w", err)
	}
	byInvoice := map[int64][]model.InvoiceLine{}
	for _, l := range lines {
		byInvoice[l.InvoiceID] = append(byInvoice[l.InvoiceID], model.InvoiceLine{
			ID:          l.ID,
			ProductName: l.ProductName,
			SerialNo:    l.SerialNo,
			Quantity:    l.Quantity,
		})
	}

	for _, rw := range rows {
		details := byInvoice[rw.ID]
		if details == nil {
			details = []model.InvoiceLine{}
		}
		records = append(records, model.SaleRecord{
			ID:       rw.ID,
			OrderNo:  rw.OrderNo,
			Date:     rw.Date,
			Quantity: rw.Quantity,
			Name:     rw.Name,
			Phone:    rw.Phone,
			Address:  rw.Address,
			Details:  details,
		})
	}
	return records, total, nil
}

func (r *invoiceRepo) SumQuantity(ctx context.Context, kind string, scope *int64) (int, error) {
	where, args := scopeClause(scope, "store_id")
	var n int
	query := `SELECT COALESCE(SUM(quantity), 0) FROM invoices WHERE kind = ?` + where
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), append([]interface{}{kind}, args...)...); err != nil {
		return 0, fmt.Errorf("sum invoices: %w", err)
	}
	return n, nil
}

// SalesBetween returns sale lines with from <= date <= to (YYYY-MM-DD).
func (r *invoiceRepo) SalesBetween(ctx context.Context, from, to string, scope *int64) ([]SaleRow, error) {
	where, args := scopeClause(scope, "i.store_id")
	query := `
		SELECT i.order_no, i.date, s.name AS store_name, i.name, i.phone,
		       l.product_name, l.serial_no, l.quantity
		FROM invoices i
		JOIN invoice_lines l ON l.invoice_id = i.id
		JOIN stores s ON s.id = i.store_id
		WHERE i.kind = ? AND i.date >= ? AND i.date <= ?` + where + `
		ORDER BY i.date, i.id, l.id`
	rows := []SaleRow{}
	queryArgs := append([]interface{}{KindSale, from, to}, args...)
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), queryArgs...); err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return rows, nil
}
