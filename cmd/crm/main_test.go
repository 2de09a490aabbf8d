package main

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/auth"
	"github.com/amdadul/brandstore-crm/internal/config"
	"github.com/amdadul/brandstore-crm/internal/fakeapi"
	"github.com/amdadul/brandstore-crm/internal/session"
)

func newTestApp(t *testing.T, stdin string) (*app, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	fake, err := fakeapi.New(ctx, fakeapi.Options{
		DSN:       "sqlite://" + filepath.Join(dir, "api.db"),
		JWTSecret: "cli-secret",
		OTPSalt:   "cli-salt",
		DevMode:   true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = fake.Close() })
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	client := api.New(srv.URL+"/api", store)
	out := &bytes.Buffer{}
	return &app{
		cfg:     &config.Config{ReportDir: dir},
		client:  client,
		session: auth.NewSession(client, store),
		out:     out,
		in:      bufio.NewReader(strings.NewReader(stdin)),
	}, out
}

func TestCLI_RequiresLogin(t *testing.T) {
	a, _ := newTestApp(t, "")
	err := a.run(context.Background(), "dashboard", nil)
	assert.ErrorIs(t, err, auth.ErrNotLoggedIn)
}

func TestCLI_LoginDashboardAndStock(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "login", []string{"-email", "admin@brandstore.test", "-password", "admin-pass"}))
	assert.Contains(t, out.String(), "Logged in as Head Office (management)")

	out.Reset()
	require.NoError(t, a.run(ctx, "dashboard", nil))
	assert.Contains(t, out.String(), "Total sales: 0")
	assert.Contains(t, out.String(), "Total stock: 4")

	out.Reset()
	require.NoError(t, a.run(ctx, "stock", []string{"-pages", "2"}))
	assert.Contains(t, out.String(), "Phone X1")
	assert.Contains(t, out.String(), "page 1 of 1")
}

func TestCLI_SellFromScannedCodes(t *testing.T) {
	a, out := newTestApp(t, "SN-1001\nSN-1001\nSN-2001\n\n")
	ctx := context.Background()
	require.NoError(t, a.run(ctx, "login", []string{"-email", "gulshan@brandstore.test", "-password", "staff-pass"}))

	out.Reset()
	require.NoError(t, a.run(ctx, "sell", []string{"-name", "Karim", "-phone", "01912345678"}))
	assert.Contains(t, out.String(), "SN-1001 already scanned")
	assert.Contains(t, out.String(), "Sale recorded: 2 unit(s)")

	out.Reset()
	require.NoError(t, a.run(ctx, "sales", nil))
	assert.Contains(t, out.String(), "Karim 01912345678")
	assert.Contains(t, out.String(), "[SN-1001]")
}

func TestCLI_ChangePasswordPromptsForOtp(t *testing.T) {
	a, out := newTestApp(t, "000000\n123456\n")
	ctx := context.Background()
	require.NoError(t, a.run(ctx, "login", []string{"-email", "gulshan@brandstore.test", "-password", "staff-pass"}))

	require.NoError(t, a.run(ctx, "change-password", []string{"-old", "staff-pass", "-new", "fresh-pass-1", "-confirm", "fresh-pass-1"}))
	assert.Contains(t, out.String(), "Invalid or expired OTP")
	assert.Contains(t, out.String(), "Password changed")
}

func TestCLI_StockReport(t *testing.T) {
	a, out := newTestApp(t, "")
	ctx := context.Background()
	require.NoError(t, a.run(ctx, "login", []string{"-email", "admin@brandstore.test", "-password", "admin-pass"}))

	out.Reset()
	require.NoError(t, a.run(ctx, "report", []string{"stock", "-store", "1"}))
	assert.Contains(t, out.String(), "Stock_report_of_Gulshan_Store_at_")

	assert.Error(t, a.run(ctx, "report", []string{"stock", "-store", "99"}))
	assert.Error(t, a.run(ctx, "report", []string{"sales", "-start", "2024-02-01", "-end", "2024-01-01"}))
}
