// Package http exposes the console API: order listing and status mutation,
// the daily-summary and calendar widgets, and the cashflow/sales reports.
package http

import (
	"context"
	"net/http"
	"time"

	"bottega/internal/core"
	"bottega/internal/engine"
	"bottega/internal/log"
	"bottega/internal/middleware/ratelimit"
	"bottega/internal/middleware/security"
	"bottega/internal/middleware/trace"
	"bottega/internal/services"
	"bottega/internal/storage"
)

// OrderAPI is the order-service surface the handlers use.
type OrderAPI interface {
	ListOrders(ctx context.Context, p storage.ListOrdersParams) (int, []core.OrderRow, error)
	UpdateStatus(ctx context.Context, id int64, next core.OrderStatus) (core.OrderRow, error)
	DailySummary(ctx context.Context, day core.CivilDate) (engine.OrderGroups, error)
	Calendar(ctx context.Context, year, month int) (services.CalendarView, error)
}

// ReportAPI is the report-service surface the handlers use.
type ReportAPI interface {
	Cashflow(ctx context.Context, p services.CashflowParams) (services.CashflowReport, error)
	ProductSales(ctx context.Context, start, end core.CivilDate, mode engine.SelectionMode) (services.ProductSalesReport, error)
	CustomerSales(ctx context.Context, customerID int64, start, end core.CivilDate, mode engine.SelectionMode) (services.CustomerSalesReport, error)
	ExportCashflow(ctx context.Context, p services.CashflowParams) error
}

type Server struct {
	http.Server
	orders      OrderAPI
	reports     ReportAPI
	auth        *AuthManager
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, orders OrderAPI, reports ReportAPI, auth *AuthManager, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		orders:      orders,
		reports:     reports,
		auth:        auth,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /api/v1/auth/login", s.withRateLimit(s.handleLogin))

	mux.HandleFunc("GET /api/v1/orders", s.handleListOrders)
	mux.HandleFunc("PATCH /api/v1/orders/{id}", s.requireAuth(s.withRateLimit(s.handleUpdateOrderStatus)))

	mux.HandleFunc("POST /api/v1/widgets/daily-summary", s.handleDailySummary)
	mux.HandleFunc("POST /api/v1/widgets/calendar", s.handleCalendar)

	mux.HandleFunc("POST /api/v1/reports/cashflow", s.handleCashflow)
	mux.HandleFunc("POST /api/v1/reports/cashflow/export", s.requireAuth(s.handleCashflowExport))
	mux.HandleFunc("POST /api/v1/reports/product-sales", s.handleProductSales)
	mux.HandleFunc("POST /api/v1/reports/customer-sales", s.handleCustomerSales)

	chain := security.Headers(mux)
	chain = log.Middleware(s.logger)(chain)
	s.Handler = trace.Middleware(security.ClientIP)(chain)
	return s
}

// Shutdown stops the server and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withRateLimit throttles mutating endpoints per client IP.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := security.ClientIP(r)
		if !s.rateLimiter.Allow(clientIP) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}
