// Package http exposes the ledger, analytics, and receipt pipeline as a
// JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"gagyebu/internal/cache"
	applog "gagyebu/internal/log"
	"gagyebu/internal/middleware/ratelimit"
	"gagyebu/internal/middleware/security"
	"gagyebu/internal/middleware/trace"
	"gagyebu/internal/ocr"
	"gagyebu/internal/services"
	"gagyebu/internal/store"
)

// Recognizer extracts text from a receipt image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, contentType string) (ocr.Result, error)
}

// Config holds the server's tunables.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheEntries       int
	Logger             *applog.Logger
}

// Server wires handlers, middleware, and the analytics caches around the
// embedded http.Server.
type Server struct {
	http.Server

	logger  *applog.Logger
	ledger  *services.LedgerService
	reports *services.AnalyticsService

	// receipts and recognizer are optional; without them /api/ocr returns 503.
	receipts   store.ReceiptStore
	recognizer Recognizer

	detector    *security.Detector
	tracer      *trace.Middleware
	rateLimiter *ratelimit.Limiter

	reportCache   *cache.LRUCache[services.PeriodReport]
	trendCache    *cache.LRUCache[services.TrendReport]
	calendarCache *cache.LRUCache[[]services.CalendarDay]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger *services.LedgerService, reports *services.AnalyticsService, receipts store.ReceiptStore, recognizer Recognizer) *Server {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.CacheEntries <= 0 {
		cfg.CacheEntries = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		logger:     cfg.Logger,
		ledger:     ledger,
		reports:    reports,
		receipts:   receipts,
		recognizer: recognizer,

		detector: security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),

		reportCache:   cache.NewLRUCache[services.PeriodReport](cfg.CacheEntries, cfg.CacheTTL),
		trendCache:    cache.NewLRUCache[services.TrendReport](cfg.CacheEntries, cfg.CacheTTL),
		calendarCache: cache.NewLRUCache[[]services.CalendarDay](cfg.CacheEntries, cfg.CacheTTL),

		stopCacheCleanup: make(chan struct{}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/transactions", s.requireUser(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.requireUser(s.handleListTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", s.requireUser(s.handleGetTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireUser(s.handleDeleteTransaction))
	mux.HandleFunc("PUT /api/items/{id}/category", s.requireUser(s.handleUpdateItemCategory))

	mux.HandleFunc("GET /api/categories", s.requireUser(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.requireUser(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.requireUser(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/budgets", s.requireUser(s.handleListBudgets))
	mux.HandleFunc("PUT /api/budgets", s.requireUser(s.handleUpsertBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.requireUser(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/analytics", s.requireUser(s.handleAnalytics))
	mux.HandleFunc("POST /api/analyze", s.requireUser(s.handleAnalyze))
	mux.HandleFunc("GET /api/trends", s.requireUser(s.handleTrends))
	mux.HandleFunc("GET /api/trends/chart.png", s.requireUser(s.handleTrendChart))
	mux.HandleFunc("GET /api/calendar", s.requireUser(s.handleCalendar))

	mux.HandleFunc("POST /api/ocr", s.requireUser(s.handleOCR))

	s.Server = http.Server{
		Addr:    cfg.Addr,
		Handler: s.middleware(mux),
	}

	go s.startCacheCleanup()

	return s
}

// middleware assembles the outer chain: security headers, tracing, the
// context logger, probe flagging, and a per-IP budget on mutating requests.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	withLogger := applog.Middleware(s.logger)
	withRequestID := applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})

	h := s.limitWrites(next)
	h = s.flagProbes(h)
	h = withRequestID(h)
	h = withLogger(h)
	h = s.tracer.Middleware(h)
	return headers.Middleware(h)
}

// flagProbes logs requests that look like scanner traffic. They are served
// normally; the log line and counter are for operators.
func (s *Server) flagProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "suspicious request",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// limitWrites applies the rate limiter to everything except plain reads.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// requireUser rejects requests without the X-User-ID identity header.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		next(w, r)
	}
}

// invalidateAnalytics drops the user's cached analytics after any write
// that can change aggregates.
func (s *Server) invalidateAnalytics(uid string) {
	prefix := uid + ":"
	s.reportCache.DeletePrefix(prefix)
	s.trendCache.DeletePrefix(prefix)
	s.calendarCache.DeletePrefix(prefix)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportCache.CleanExpired()
			s.trendCache.CleanExpired()
			s.calendarCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the background goroutines, then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readyResponse carries liveness plus a few operator counters.
type readyResponse struct {
	Status             string `json:"status"`
	TotalRequests      int64  `json:"total_requests"`
	ActiveClients      int    `json:"active_clients"`
	SuspiciousRequests int64  `json:"suspicious_requests"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, readyResponse{
		Status:             "ready",
		TotalRequests:      s.tracer.TotalRequests(),
		ActiveClients:      s.rateLimiter.ActiveClients(),
		SuspiciousRequests: s.detector.SuspiciousRequests(),
	})
}
