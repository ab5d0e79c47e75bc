// Package devserver is an in-memory implementation of the FinStudent REST
// API for local development and end-to-end tests.
package devserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finstudent/internal/api"
	"finstudent/internal/log"
	"finstudent/internal/middleware/ratelimit"
	"finstudent/internal/middleware/security"
	"finstudent/internal/middleware/trace"
)

const (
	DefaultPrefix     = "/api"
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

type Options struct {
	Addr string
	// Prefix is prepended to every API route.
	Prefix string
	// RequireCSRF rejects unsafe requests whose X-CSRFToken header does not
	// match their csrftoken cookie.
	RequireCSRF bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	// AuthRequestsPerMinute throttles login, register and refresh per
	// client IP.
	AuthRequestsPerMinute int
	// Now overrides the clock used for tokens and report periods.
	Now    func() time.Time
	Logger *log.Logger
}

type Server struct {
	http.Server
	store        *Store
	logger       *log.Logger
	prefix       string
	requireCSRF  bool
	tracer       *trace.Middleware
	limiter      *ratelimit.Limiter
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDevServer)
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	opts.Prefix = "/" + strings.Trim(opts.Prefix, "/")
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}

	s := &Server{
		store:       NewStore(opts.AccessTTL, opts.RefreshTTL),
		logger:      logger,
		prefix:      opts.Prefix,
		requireCSRF: opts.RequireCSRF,
		tracer:      trace.NewMiddleware(logger, security.ExtractClientIP),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{Requests: opts.AuthRequestsPerMinute, Window: time.Minute}),
		started:     time.Now(),
	}

	if opts.Now != nil {
		s.store.now = opts.Now
	}

	headers := security.NewHeadersMiddleware(security.APIHeadersConfig())
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.csrf(s.routes()))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Store exposes the backing data, mainly for seeding in tests.
func (s *Server) Store() *Store { return s.store }

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	throttle := s.limiter.Middleware(security.ExtractClientIP, s.throttled)
	route := func(pattern string, h http.Handler) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+s.prefix+path, h)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	route("POST /auth/register/{$}", throttle(http.HandlerFunc(s.handleRegister)))
	route("POST /auth/login/{$}", throttle(http.HandlerFunc(s.handleLogin)))
	route("POST /auth/token/refresh/{$}", throttle(http.HandlerFunc(s.handleRefresh)))
	route("POST /auth/logout/{$}", s.authed(s.handleLogout))
	route("GET /auth/me/{$}", s.authed(s.handleMe))

	route("GET /transactions/{$}", s.authed(s.handleListTransactions))
	route("POST /transactions/{$}", s.authed(s.handleCreateTransaction))
	route("GET /transactions/{id}/{$}", s.authed(s.handleGetTransaction))
	route("PUT /transactions/{id}/{$}", s.authed(s.handleUpdateTransaction))
	route("DELETE /transactions/{id}/{$}", s.authed(s.handleDeleteTransaction))

	route("GET /budgets/{$}", s.authed(s.handleListBudgets))
	route("POST /budgets/{$}", s.authed(s.handleCreateBudget))
	route("GET /budgets/spending_vs_budget/{$}", s.authed(s.handleSpendingVsBudget))
	route("GET /budgets/{id}/{$}", s.authed(s.handleGetBudget))
	route("PUT /budgets/{id}/{$}", s.authed(s.handleUpdateBudget))
	route("DELETE /budgets/{id}/{$}", s.authed(s.handleDeleteBudget))

	route("GET /dashboard/overview/{$}", s.authed(s.handleOverview))
	route("GET /dashboard/spending_breakdown/{$}", s.authed(s.handleSpendingBreakdown))
	route("GET /dashboard/spending_trend/{$}", s.authed(s.handleSpendingTrend))
	route("GET /dashboard/recent_transactions/{$}", s.authed(s.handleRecentTransactions))

	route("GET /reports/overview/{$}", s.authed(s.handleReportOverview))
	route("GET /reports/spending_over_time/{$}", s.authed(s.handleSpendingOverTime))
	route("GET /reports/insights/{$}", s.authed(s.handleReportInsights))
	route("GET /reports/transactions/{$}", s.authed(s.handleReportTransactions))

	route("GET /expenses/{$}", s.authed(s.handleListExpenses))
	route("POST /expenses/{$}", s.authed(s.handleCreateExpense))
	route("GET /expenses/categories/{$}", s.authed(s.handleExpenseCategories))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError().Write(w)
	})
	return mux
}

func (s *Server) throttled(w http.ResponseWriter, r *http.Request) {
	wait := w.Header().Get("Retry-After")
	ErrorResponse(http.StatusTooManyRequests,
		fmt.Sprintf("Request was throttled. Expected available in %s seconds.", wait)).Write(w)
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

// csrf issues a csrftoken cookie to clients without one and, when required,
// checks the X-CSRFToken header of unsafe requests that carry the cookie.
func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(api.CSRFCookieName)
		switch {
		case err != nil || cookie.Value == "":
			http.SetCookie(w, &http.Cookie{
				Name:     api.CSRFCookieName,
				Value:    strings.ReplaceAll(uuid.NewString(), "-", ""),
				Path:     "/",
				SameSite: http.SameSiteLaxMode,
			})
		case s.requireCSRF && isUnsafe(r.Method) && r.Header.Get(api.HeaderCSRF) != cookie.Value:
			log.FromContext(r.Context()).Warn("CSRF check failed")
			ErrorResponse(http.StatusForbidden, "CSRF Failed: CSRF token missing or incorrect.").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleMetrics reports request and throttle counters in plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "requests_client_errors_total %d\n", tm.ClientErrors)
	fmt.Fprintf(w, "requests_server_errors_total %d\n", tm.ServerErrors)
	fmt.Fprintf(w, "last_request_duration_us %d\n", tm.LastDurationUs)
	fmt.Fprintf(w, "throttled_total %d\n", rm.TotalHits)
	fmt.Fprintf(w, "throttle_clients %d\n", rm.ClientCount)
}

// Shutdown gracefully shuts down the server and its cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Close stops background work without serving; used with httptest.
func (s *Server) Close() {
	s.limiter.Stop()
}
