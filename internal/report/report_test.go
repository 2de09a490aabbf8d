package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

func workbook(t *testing.T, rows int) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Product", "Qty"}))
	for i := 2; i <= rows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &[]interface{}{"Phone X", i}))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type fakeReportAPI struct {
	data      []byte
	err       string
	salesReqs []api.SalesReportRequest
	stockReqs []api.StockReportRequest
}

func (f *fakeReportAPI) SalesReport(_ context.Context, req api.SalesReportRequest) api.Result[[]byte] {
	f.salesReqs = append(f.salesReqs, req)
	if f.err != "" {
		return api.Result[[]byte]{Kind: api.KindStatus, Status: 500, Error: f.err}
	}
	return api.Result[[]byte]{Success: true, Data: f.data}
}

func (f *fakeReportAPI) StockReport(_ context.Context, req api.StockReportRequest) api.Result[[]byte] {
	f.stockReqs = append(f.stockReqs, req)
	if f.err != "" {
		return api.Result[[]byte]{Kind: api.KindStatus, Status: 500, Error: f.err}
	}
	return api.Result[[]byte]{Success: true, Data: f.data}
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "sales_report_from_20240101_to_20240131_of_All_Store.xlsx",
		SalesFileName("2024-01-01", "2024-01-31", "All Store"))
	assert.Equal(t, "sales_report_from_20240101_to_20240131_of_Gulshan__Outlet_2.xlsx",
		SalesFileName("2024-01-01", "2024-01-31", "Gulshan & Outlet #2"))

	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "Stock_report_of_Banani_Store_at_20240305_140709.xlsx", StockFileName("Banani  Store", at))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a_b_c", Sanitize("a b\t\nc"))
	assert.Equal(t, "report", Sanitize("re/po..rt"))
}

func TestInspect(t *testing.T) {
	sheets, rows, err := Inspect(workbook(t, 4))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, sheets)
	assert.Equal(t, 4, rows)

	_, _, err = Inspect([]byte("not a zip"))
	assert.ErrorIs(t, err, ErrNotWorkbook)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := Save(dir, "r.xlsx", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "r.xlsx"), path)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")

	_, err = Save(dir, "../escape.xlsx", []byte("x"))
	assert.Error(t, err)
}

func TestService_Sales(t *testing.T) {
	fa := &fakeReportAPI{data: workbook(t, 3)}
	dir := t.TempDir()
	svc := NewService(fa, dir)

	saved, err := svc.Sales(context.Background(), "2024-01-01", "2024-01-31", &AllStores)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sales_report_from_20240101_to_20240131_of_All_Store.xlsx"), saved.Path)
	assert.Equal(t, 3, saved.Rows)
	assert.Equal(t, api.SalesReportRequest{StartDate: "2024-01-01", EndDate: "2024-01-31", StoreID: ""}, fa.salesReqs[0])
}

func TestService_RequiresStore(t *testing.T) {
	fa := &fakeReportAPI{data: workbook(t, 1)}
	svc := NewService(fa, t.TempDir())

	_, err := svc.Stock(context.Background(), nil)
	var verrs validate.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Empty(t, fa.stockReqs)

	_, err = svc.Sales(context.Background(), "2024-01-01", "2024-01-31", nil)
	require.Error(t, err)
	assert.Empty(t, fa.salesReqs)
}

func TestService_Stock(t *testing.T) {
	fa := &fakeReportAPI{data: workbook(t, 2)}
	dir := t.TempDir()
	svc := NewService(fa, dir)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) }

	saved, err := svc.Stock(context.Background(), &Selection{ID: "3", Label: "Banani Store"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Stock_report_of_Banani_Store_at_20240305_140709.xlsx"), saved.Path)
	assert.Equal(t, "3", fa.stockReqs[0].StoreID)
}

func TestService_DownloadFailureWritesNothing(t *testing.T) {
	fa := &fakeReportAPI{err: "request failed with status 500"}
	dir := t.TempDir()
	_, err := NewService(fa, dir).Stock(context.Background(), &AllStores)
	assert.ErrorIs(t, err, api.ErrStatus)

	fa = &fakeReportAPI{data: []byte("<html>error</html>")}
	_, err = NewService(fa, dir).Stock(context.Background(), &AllStores)
	assert.ErrorIs(t, err, ErrNotWorkbook)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
