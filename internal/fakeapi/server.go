// Package fakeapi is a local double of the brand-store API used for
// development and end-to-end tests.
package fakeapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/amdadul/brandstore-crm/internal/db"
	httphandler "github.com/amdadul/brandstore-crm/internal/http"
	"github.com/amdadul/brandstore-crm/internal/http/handlers"
	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/serverauth"
)

// Options configures a fake API instance.
type Options struct {
	DSN       string
	JWTSecret string
	OTPSalt   string
	DevMode   bool
	// Seed is applied when the database has no stores yet. Nil means the
	// built-in demo data.
	Seed *Seed
	// AttemptDelay is the minimum gap between OTP verification attempts.
	AttemptDelay time.Duration
	// TokenTTL overrides the access token lifetime when non-zero.
	TokenTTL time.Duration
}

// Server is a wired fake API.
type Server struct {
	db      *sqlx.DB
	auth    *handlers.AuthHandler
	handler http.Handler
}

// New opens the database, applies migrations and seed, and builds the router.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.JWTSecret == "" || opts.OTPSalt == "" {
		return nil, fmt.Errorf("fakeapi: JWT secret and OTP salt are required")
	}

	target, err := db.ParseDSN(opts.DSN)
	if err != nil {
		return nil, err
	}
	if target.Driver != "sqlite" {
		return nil, fmt.Errorf("fakeapi: only sqlite DSNs are supported, got %s", target.Driver)
	}

	database, err := db.Open(ctx, opts.DSN, repo.Migrations)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repo.NewUserRepo(database)
	storeRepo := repo.NewStoreRepo(database)
	inventoryRepo := repo.NewInventoryRepo(database)
	invoiceRepo := repo.NewInvoiceRepo(database)
	otpRepo := repo.NewOtpRepo(database)
	tokenRepo := repo.NewTokenRepo(database)

	if err := seedIfEmpty(ctx, opts.Seed, storeRepo, userRepo, inventoryRepo); err != nil {
		_ = database.Close()
		return nil, err
	}

	// Initialize auth services
	otpProvider := serverauth.NewOtpStub(otpRepo, opts.OTPSalt, opts.DevMode)
	otpProvider.MinAttemptDelay = opts.AttemptDelay
	otpProvider.Deliver = func(phone, code string) {
		log.Printf("Phone %s: OTP %s issued (no SMS gateway configured)", maskPhone(phone), code)
	}
	jwtService := serverauth.NewJWTService(opts.JWTSecret)
	if opts.TokenTTL > 0 {
		jwtService.WithExpiry(opts.TokenTTL)
	}
	authService := serverauth.NewAuthService(otpProvider, jwtService, userRepo, tokenRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, otpProvider, opts.DevMode)
	router := httphandler.NewRouter(httphandler.Handlers{
		Auth:      authHandler,
		Inventory: handlers.NewInventoryHandler(inventoryRepo, invoiceRepo),
		Reports:   handlers.NewReportHandler(storeRepo, inventoryRepo, invoiceRepo),
	}, jwtService, authService, userRepo)

	return &Server{db: database, auth: authHandler, handler: router}, nil
}

func seedIfEmpty(ctx context.Context, seed *Seed, stores repo.StoreRepo, users repo.UserRepo, inventory repo.InventoryRepo) error {
	existing, err := stores.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	if seed == nil {
		if seed, err = DefaultSeed(); err != nil {
			return err
		}
	}
	if err := seed.Apply(ctx, stores, users, inventory); err != nil {
		return err
	}
	log.Printf("Seeded %d stores, %d users, %d units", len(seed.Stores), len(seed.Users), len(seed.Units))
	return nil
}

// Handler returns the HTTP handler; the API is mounted under /api.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close stops background work and closes the database.
func (s *Server) Close() error {
	s.auth.Close()
	return s.db.Close()
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}
