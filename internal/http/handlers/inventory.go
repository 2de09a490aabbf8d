package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

// InventoryHandler serves the stock and sales endpoints. Both move serialised
// units through shipped -> in_stock -> sold.
type InventoryHandler struct {
	inventory repo.InventoryRepo
	invoices  repo.InvoiceRepo
	now       func() time.Time
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventory repo.InventoryRepo, invoices repo.InvoiceRepo) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, invoices: invoices, now: time.Now}
}

type serialRequest struct {
	SerialNo string `json:"serial_no"`
}

type saleRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	SerialNo string `json:"serial_no"`
}

// unitError is a client-facing problem with the submitted serials
type unitError struct{ msg string }

func (e *unitError) Error() string { return e.msg }

// resolveUnits loads the units named in a comma-joined serial field, in the
// order given, and checks they are in status want and visible to the user.
// All units must belong to one store.
func (h *InventoryHandler) resolveUnits(ctx context.Context, user *repo.User, field, want string) ([]repo.Unit, int64, error) {
	codes := dedupe(model.SplitSerials(field))
	if len(codes) == 0 {
		return nil, 0, &unitError{"Serial number is required"}
	}
	found, err := h.inventory.FindBySerials(ctx, codes)
	if err != nil {
		return nil, 0, err
	}
	bySerial := make(map[string]repo.Unit, len(found))
	for _, u := range found {
		bySerial[u.SerialNo] = u
	}

	scope := scopeFor(user)
	units := make([]repo.Unit, 0, len(codes))
	var storeID int64
	for i, code := range codes {
		u, ok := bySerial[code]
		if !ok || (scope != nil && u.StoreID != *scope) {
			return nil, 0, &unitError{fmt.Sprintf("Serial number %s not found", code)}
		}
		if u.Status != want {
			return nil, 0, &unitError{fmt.Sprintf("Serial number %s is not available (%s)", code, strings.ReplaceAll(u.Status, "_", " "))}
		}
		if i == 0 {
			storeID = u.StoreID
		} else if u.StoreID != storeID {
			return nil, 0, &unitError{"All serial numbers must belong to the same store"}
		}
		units = append(units, u)
	}
	return units, storeID, nil
}

func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := codes[:0]
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func (h *InventoryHandler) respondUnitErr(w http.ResponseWriter, err error) {
	var ue *unitError
	switch {
	case errors.As(err, &ue):
		respondWithError(w, http.StatusUnprocessableEntity, ue.msg)
	case errors.Is(err, repo.ErrConflict):
		respondWithError(w, http.StatusConflict, "Stock changed while saving, please verify again")
	default:
		log.Printf("Inventory request failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HandleTotalStock handles GET /brand-store/stock/get-total-stock
func (h *InventoryHandler) HandleTotalStock(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.inventory.CountInStock(r.Context(), scopeFor(user))
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	respondOK(w, n, "")
}

// HandleTotalSales handles GET /brand-store/sales/get-total-sales
func (h *InventoryHandler) HandleTotalSales(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	n, err := h.invoices.SumQuantity(r.Context(), repo.KindSale, scopeFor(user))
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	respondOK(w, n, "")
}

// HandleInventories handles GET /brand-store/stock/inventories
func (h *InventoryHandler) HandleInventories(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, perPage := pageParams(r)
	items, total, err := h.inventory.StockPage(r.Context(), scopeFor(user), page, perPage)
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	respondPage(w, items, page, perPage, total)
}

// HandleStockInvoices handles GET /brand-store/stock/invoice-list
func (h *InventoryHandler) HandleStockInvoices(w http.ResponseWriter, r *http.Request) {
	h.listInvoices(w, r, repo.KindStock)
}

// HandleSalesInvoices handles GET /brand-store/sales/invoice-list
func (h *InventoryHandler) HandleSalesInvoices(w http.ResponseWriter, r *http.Request) {
	h.listInvoices(w, r, repo.KindSale)
}

func (h *InventoryHandler) listInvoices(w http.ResponseWriter, r *http.Request, kind string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	page, perPage := pageParams(r)
	records, total, err := h.invoices.List(r.Context(), kind, scopeFor(user), page, perPage)
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	if kind == repo.KindStock {
		invoices := make([]model.Invoice, 0, len(records))
		for _, rec := range records {
			invoices = append(invoices, model.Invoice{
				ID:       rec.ID,
				OrderNo:  rec.OrderNo,
				Date:     rec.Date,
				Quantity: rec.Quantity,
				Details:  rec.Details,
			})
		}
		respondPage(w, invoices, page, perPage, total)
		return
	}
	respondPage(w, records, page, perPage, total)
}

// HandleStockUpdate handles POST /brand-store/stock/update: receives shipped units into stock
func (h *InventoryHandler) HandleStockUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req serialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validate.Serials(req.SerialNo); err != nil {
		respondInvalid(w, err)
		return
	}

	units, storeID, err := h.resolveUnits(r.Context(), user, req.SerialNo, repo.UnitShipped)
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	rec, err := h.invoices.Create(r.Context(), repo.NewInvoice{
		Kind:    repo.KindStock,
		StoreID: storeID,
		Date:    h.now().Format(validate.DateLayout),
		Units:   units,
		From:    repo.UnitShipped,
		To:      repo.UnitInStock,
	})
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	respondOK(w, model.Invoice{ID: rec.ID, OrderNo: rec.OrderNo, Date: rec.Date, Quantity: rec.Quantity, Details: rec.Details}, "Stock updated successfully")
}

// HandleSerialVerify handles POST /brand-store/sales/serial_no_verify
func (h *InventoryHandler) HandleSerialVerify(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req serialRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validate.Serials(req.SerialNo); err != nil {
		respondInvalid(w, err)
		return
	}

	units, _, err := h.resolveUnits(r.Context(), user, req.SerialNo, repo.UnitInStock)
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	respondOK(w, verifiedProducts(units), "")
}

// verifiedProducts folds units into one entry per product, first-seen order.
func verifiedProducts(units []repo.Unit) []model.VerifiedProduct {
	products := []model.VerifiedProduct{}
	index := map[string]int{}
	serials := map[string][]string{}
	for _, u := range units {
		i, ok := index[u.ProductName]
		if !ok {
			i = len(products)
			index[u.ProductName] = i
			products = append(products, model.VerifiedProduct{ID: u.ID, ProductName: u.ProductName})
		}
		serials[u.ProductName] = append(serials[u.ProductName], u.SerialNo)
		products[i].Quantity++
	}
	for i := range products {
		products[i].SerialNo = model.JoinSerials(serials[products[i].ProductName])
	}
	return products
}

// HandleSalesCreate handles POST /brand-store/sales/create
func (h *InventoryHandler) HandleSalesCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req saleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	if err := validate.Sale(req.Name, req.Phone, req.SerialNo); err != nil {
		respondInvalid(w, err)
		return
	}

	units, storeID, err := h.resolveUnits(r.Context(), user, req.SerialNo, repo.UnitInStock)
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	rec, err := h.invoices.Create(r.Context(), repo.NewInvoice{
		Kind:    repo.KindSale,
		StoreID: storeID,
		Date:    h.now().Format(validate.DateLayout),
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Units:   units,
		From:    repo.UnitInStock,
		To:      repo.UnitSold,
	})
	if err != nil {
		h.respondUnitErr(w, err)
		return
	}
	respondOK(w, rec, "Sale created successfully")
}
