package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"CRM_BASE_URL", "CRM_STATE_DSN", "CRM_HTTP_TIMEOUT", "CRM_STOCK_PER_PAGE", "CRM_INVOICE_PER_PAGE", "CRM_REPORT_DIR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultStateDSN, cfg.StateDSN)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, 20, cfg.StockPerPage)
	assert.Equal(t, 10, cfg.InvoicePerPage)
	assert.Equal(t, ".", cfg.ReportDir)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CRM_BASE_URL", "http://localhost:8080/api/")
	t.Setenv("CRM_STATE_DSN", "redis://localhost:6379/0")
	t.Setenv("CRM_HTTP_TIMEOUT", "5s")
	t.Setenv("CRM_STOCK_PER_PAGE", "50")
	t.Setenv("CRM_INVOICE_PER_PAGE", "25")
	t.Setenv("CRM_REPORT_DIR", "/tmp/reports")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", cfg.BaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.StateDSN)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 50, cfg.StockPerPage)
	assert.Equal(t, 25, cfg.InvoicePerPage)
	assert.Equal(t, "/tmp/reports", cfg.ReportDir)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"CRM_BASE_URL":       "not-a-url",
		"CRM_HTTP_TIMEOUT":   "soon",
		"CRM_STOCK_PER_PAGE": "0",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFakeAPI(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OTP_SALT", "salt")
	_, err := LoadFakeAPI()
	assert.EqualError(t, err, "JWT_SECRET environment variable is required")

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("OTP_DEV_MODE", "true")
	t.Setenv("PORT", "9090")
	cfg, err := LoadFakeAPI()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, DefaultFakeAPIDSN, cfg.DSN)

	t.Setenv("FAKEAPI_DSN", "sqlite:///tmp/fake.db")
	cfg, err = LoadFakeAPI()
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/fake.db", cfg.DSN)
}
