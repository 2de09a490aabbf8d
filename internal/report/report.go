package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

const (
	Extension       = ".xlsx"
	timestampLayout = "2006-01-02 15:04:05"
)

var (
	ErrNotWorkbook = errors.New("report is not an xlsx workbook")

	whitespace = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^\w]`)
)

// Selection is the store picked in the report form.
type Selection struct {
	ID    string
	Label string
}

// AllStores selects every store.
var AllStores = Selection{ID: "", Label: "All Store"}

// ReportAPI downloads report workbooks.
type ReportAPI interface {
	SalesReport(ctx context.Context, req api.SalesReportRequest) api.Result[[]byte]
	StockReport(ctx context.Context, req api.StockReportRequest) api.Result[[]byte]
}

// Saved describes a report written to disk.
type Saved struct {
	Path   string
	Sheets []string
	Rows   int
}

// Service downloads reports and writes them under Dir.
type Service struct {
	api ReportAPI
	dir string
	now func() time.Time
}

func NewService(client ReportAPI, dir string) *Service {
	return &Service{api: client, dir: dir, now: time.Now}
}

// Sales downloads the sales report for [start, end] (YYYY-MM-DD).
// store is nil until the user picks one.
func (s *Service) Sales(ctx context.Context, start, end string, store *Selection) (Saved, error) {
	if err := validate.SalesReport(start, end, store != nil); err != nil {
		return Saved{}, err
	}
	res := s.api.SalesReport(ctx, api.SalesReportRequest{StartDate: start, EndDate: end, StoreID: store.ID})
	if err := res.Err(); err != nil {
		return Saved{}, err
	}
	return s.write(SalesFileName(start, end, store.Label), res.Data)
}

// Stock downloads the current stock report.
func (s *Service) Stock(ctx context.Context, store *Selection) (Saved, error) {
	if err := validate.StockReport(store != nil); err != nil {
		return Saved{}, err
	}
	res := s.api.StockReport(ctx, api.StockReportRequest{StoreID: store.ID})
	if err := res.Err(); err != nil {
		return Saved{}, err
	}
	return s.write(StockFileName(store.Label, s.now()), res.Data)
}

func (s *Service) write(name string, data []byte) (Saved, error) {
	sheets, rows, err := Inspect(data)
	if err != nil {
		return Saved{}, err
	}
	path, err := Save(s.dir, name, data)
	if err != nil {
		return Saved{}, err
	}
	return Saved{Path: path, Sheets: sheets, Rows: rows}, nil
}

// SalesFileName builds the sales report file name.
func SalesFileName(start, end, storeLabel string) string {
	return Sanitize(fmt.Sprintf("sales_report_from_%s_to_%s_of_%s", start, end, storeLabel)) + Extension
}

// StockFileName builds the stock report file name stamped with at.
func StockFileName(storeLabel string, at time.Time) string {
	return Sanitize(fmt.Sprintf("Stock_report_of_%s_at_%s", storeLabel, at.Format(timestampLayout))) + Extension
}

// Sanitize replaces whitespace runs with "_" and drops every other non-word character.
func Sanitize(base string) string {
	return nonWord.ReplaceAllString(whitespace.ReplaceAllString(base, "_"), "")
}

// Inspect opens data as a workbook and returns its sheet names and the row
// count of the first sheet.
func Inspect(data []byte) ([]string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNotWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, ErrNotWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", sheets[0], err)
	}
	return sheets, len(rows), nil
}

// Save writes data to dir/name through a temp file so a partial download
// never replaces an existing report.
func Save(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid report name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("move report into place: %w", err)
	}
	return path, nil
}
