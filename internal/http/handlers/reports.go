package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the store dropdown and the xlsx exports
type ReportHandler struct {
	stores    repo.StoreRepo
	inventory repo.InventoryRepo
	invoices  repo.InvoiceRepo
}

// NewReportHandler creates a new report handler
func NewReportHandler(stores repo.StoreRepo, inventory repo.InventoryRepo, invoices repo.InvoiceRepo) *ReportHandler {
	return &ReportHandler{stores: stores, inventory: inventory, invoices: invoices}
}

type salesReportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StoreID   string `json:"store_id"`
}

type stockReportRequest struct {
	StoreID string `json:"store_id"`
}

// HandleStoreList handles GET /brand-store/get-store-list
func (h *ReportHandler) HandleStoreList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	stores, err := h.stores.List(r.Context())
	if err != nil {
		log.Printf("Failed to list stores: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	scope := scopeFor(user)
	out := make([]model.Store, 0, len(stores))
	for _, s := range stores {
		if scope != nil && s.ID != *scope {
			continue
		}
		out = append(out, model.Store{ID: storeNumber(s.ID), Name: s.Name})
	}
	respondOK(w, out, "")
}

func storeNumber(id int64) json.Number {
	return json.Number(strconv.FormatInt(id, 10))
}

// reportScope resolves the store_id field: empty means every store the user
// may see; a non-management user is always limited to their own store.
func reportScope(user *repo.User, storeID string) (*int64, error) {
	scope := scopeFor(user)
	storeID = strings.TrimSpace(storeID)
	if scope != nil || storeID == model.AllStores {
		return scope, nil
	}
	id, err := strconv.ParseInt(storeID, 10, 64)
	if err != nil {
		return nil, validate.Errors{"store_id": "Invalid store"}
	}
	return &id, nil
}

// HandleSalesReport handles POST /brand-store/sales/export-sales-report
func (h *ReportHandler) HandleSalesReport(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req salesReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validate.SalesReport(req.StartDate, req.EndDate, true); err != nil {
		respondInvalid(w, err)
		return
	}
	scope, err := reportScope(user, req.StoreID)
	if err != nil {
		respondInvalid(w, err)
		return
	}

	rows, err := h.invoices.SalesBetween(r.Context(), req.StartDate, req.EndDate, scope)
	if err != nil {
		log.Printf("Failed to build sales report: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	header := []interface{}{"Order No", "Date", "Store", "Customer", "Phone", "Product", "Serial No", "Quantity"}
	body := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		body = append(body, []interface{}{row.OrderNo, row.Date, row.StoreName, row.Customer, row.Phone, row.ProductName, row.SerialNo, row.Quantity})
	}
	writeWorkbook(w, "Sales Report", header, body)
}

// HandleStockReport handles POST /brand-store/stock/export-stock-report
func (h *ReportHandler) HandleStockReport(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req stockReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	scope, err := reportScope(user, req.StoreID)
	if err != nil {
		respondInvalid(w, err)
		return
	}

	rows, err := h.inventory.StockReport(r.Context(), scope)
	if err != nil {
		log.Printf("Failed to build stock report: %v", err)
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	header := []interface{}{"Store", "Product", "Stock"}
	body := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		body = append(body, []interface{}{row.StoreName, row.ProductName, row.Stock})
	}
	writeWorkbook(w, "Stock Report", header, body)
}

// writeWorkbook renders one sheet with a header row and sends it as xlsx.
func writeWorkbook(w http.ResponseWriter, sheet string, header []interface{}, rows [][]interface{}) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		respondWorkbookErr(w, err)
		return
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		respondWorkbookErr(w, err)
		return
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			respondWorkbookErr(w, err)
			return
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			respondWorkbookErr(w, err)
			return
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		respondWorkbookErr(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func respondWorkbookErr(w http.ResponseWriter, err error) {
	log.Printf("Failed to write workbook: %v", fmt.Errorf("excelize: %w", err))
	respondWithError(w, http.StatusInternalServerError, "failed to generate report")
}
