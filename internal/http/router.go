package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/amdadul/brandstore-crm/internal/http/handlers"
	"github.com/amdadul/brandstore-crm/internal/middleware"
	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/serverauth"
)

// Handlers groups the endpoint handlers mounted by NewRouter
type Handlers struct {
	Auth      *handlers.AuthHandler
	Inventory *handlers.InventoryHandler
	Reports   *handlers.ReportHandler
}

// NewRouter creates a new HTTP router with all routes configured under /api
func NewRouter(h Handlers, jwtService *serverauth.JWTService, revoked middleware.RevocationChecker, userRepo repo.UserRepo) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/brand-store/login", h.Auth.HandleLogin)
		r.Post("/send-otp-phone", h.Auth.HandleSendOtp)
		r.Post("/verify-otp", h.Auth.HandleVerifyOtp)
		r.Post("/reset-password-phone", h.Auth.HandleResetPassword)

		// Protected routes (require valid JWT)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService, revoked, userRepo))

			r.Post("/brand-store/logout", h.Auth.HandleLogout)
			r.Post("/brand-store/change-password-verify", h.Auth.HandleChangePasswordVerify)
			r.Post("/brand-store/change-password", h.Auth.HandleChangePassword)
			r.Get("/brand-store/get-store-list", h.Reports.HandleStoreList)

			r.Get("/brand-store/stock/get-total-stock", h.Inventory.HandleTotalStock)
			r.Get("/brand-store/stock/inventories", h.Inventory.HandleInventories)
			r.Get("/brand-store/stock/invoice-list", h.Inventory.HandleStockInvoices)
			r.Post("/brand-store/stock/update", h.Inventory.HandleStockUpdate)
			r.Post("/brand-store/stock/export-stock-report", h.Reports.HandleStockReport)

			r.Get("/brand-store/sales/get-total-sales", h.Inventory.HandleTotalSales)
			r.Get("/brand-store/sales/invoice-list", h.Inventory.HandleSalesInvoices)
			r.Post("/brand-store/sales/serial_no_verify", h.Inventory.HandleSerialVerify)
			r.Post("/brand-store/sales/create", h.Inventory.HandleSalesCreate)
			r.Post("/brand-store/sales/export-sales-report", h.Reports.HandleSalesReport)
		})
	})

	return r
}
