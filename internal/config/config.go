package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL        = "https://b2b.motionview.com.bd/api"
	DefaultStateDSN       = "sqlite://crm-state.db"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultStockPerPage   = 20
	DefaultInvoicePerPage = 10
	DefaultFakeAPIDSN     = "file:fakeapi?mode=memory&cache=shared"
)

// Config holds the client configuration
type Config struct {
	BaseURL        string
	StateDSN       string
	HTTPTimeout    time.Duration
	StockPerPage   int
	InvoicePerPage int
	ReportDir      string
}

// Load reads client configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:        DefaultBaseURL,
		StateDSN:       DefaultStateDSN,
		HTTPTimeout:    DefaultHTTPTimeout,
		StockPerPage:   DefaultStockPerPage,
		InvoicePerPage: DefaultInvoicePerPage,
		ReportDir:      ".",
	}

	if v := strings.TrimSpace(os.Getenv("CRM_BASE_URL")); v != "" {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("CRM_BASE_URL must be an absolute URL, got %q", v)
		}
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	if v := strings.TrimSpace(os.Getenv("CRM_STATE_DSN")); v != "" {
		cfg.StateDSN = v
	}

	if v := os.Getenv("CRM_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("CRM_HTTP_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.HTTPTimeout = d
	}

	var err error
	if cfg.StockPerPage, err = positiveInt("CRM_STOCK_PER_PAGE", cfg.StockPerPage); err != nil {
		return nil, err
	}
	if cfg.InvoicePerPage, err = positiveInt("CRM_INVOICE_PER_PAGE", cfg.InvoicePerPage); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(os.Getenv("CRM_REPORT_DIR")); v != "" {
		cfg.ReportDir = v
	}

	log.Printf("CRM API: %s (timeout %s)", cfg.BaseURL, cfg.HTTPTimeout)
	return cfg, nil
}

// FakeAPIConfig holds the configuration of the local brand-store API double
type FakeAPIConfig struct {
	Port      string
	JWTSecret string
	OTPSalt   string
	DevMode   bool
	SeedFile  string
	DSN       string
}

// LoadFakeAPI reads the fake API server configuration from environment variables
func LoadFakeAPI() (*FakeAPIConfig, error) {
	cfg := &FakeAPIConfig{
		Port: "8080", // default port
		DSN:  DefaultFakeAPIDSN,
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	cfg.JWTSecret = jwtSecret

	otpSalt := os.Getenv("OTP_SALT")
	if otpSalt == "" {
		return nil, fmt.Errorf("OTP_SALT environment variable is required")
	}
	cfg.OTPSalt = otpSalt

	cfg.DevMode = os.Getenv("OTP_DEV_MODE") == "true"
	cfg.SeedFile = os.Getenv("FAKEAPI_SEED")
	if v := strings.TrimSpace(os.Getenv("FAKEAPI_DSN")); v != "" {
		cfg.DSN = v
	}

	return cfg, nil
}

func positiveInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}
