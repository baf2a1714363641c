// Package web provides the HTTP API for the reselling workflow: product
// ingest, listing templates, and the three CSV exports.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/auctionworks/relister/internal/cache"
	"github.com/auctionworks/relister/internal/config"
	"github.com/auctionworks/relister/internal/export"
	"github.com/auctionworks/relister/internal/model"
	"github.com/auctionworks/relister/internal/observability"
	"github.com/auctionworks/relister/internal/scrape"
	"github.com/auctionworks/relister/internal/store"
	webmw "github.com/auctionworks/relister/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Store is the persistence surface the handlers need. *store.Store
// implements it; tests substitute a stub.
type Store interface {
	UpsertProduct(ctx context.Context, rec model.ProductRecord) error
	GetProduct(ctx context.Context, itemID string) (*model.ProductRecord, error)
	ListProducts(ctx context.Context, status string, limit int) ([]model.ProductRecord, error)
	UpdateProduct(ctx context.Context, itemID string, edit store.ProductEdit) (*model.ProductRecord, error)
	ApproveProduct(ctx context.Context, itemID string) error
	CleanupDummyData(ctx context.Context) (int64, error)
	GetStats(ctx context.Context) (*store.Stats, error)

	CreateTemplate(ctx context.Context, t model.HTMLTemplate) (*model.HTMLTemplate, error)
	GetTemplate(ctx context.Context, id string) (*model.HTMLTemplate, error)
	ListTemplates(ctx context.Context, category string, activeOnly bool) ([]model.HTMLTemplate, error)
	UpdateTemplate(ctx context.Context, t model.HTMLTemplate) (*model.HTMLTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// Scraper is the outbound scraping API surface. Nil means the proxy
// endpoints are disabled.
type Scraper interface {
	GetStatus(ctx context.Context) (*scrape.Status, error)
	Search(ctx context.Context, query string, maxPages int) ([]model.ProductRecord, error)
}

// Server is the HTTP server for the reselling API.
type Server struct {
	cfg     *config.Config
	store   Store
	exports *export.Orchestrator
	scraper Scraper
	cache   *cache.Cache
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires the handlers onto a chi router. scraper and c may be nil
// when the matching integration is not configured.
func NewServer(cfg *config.Config, st Store, exports *export.Orchestrator, scraper Scraper, c *cache.Cache) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		exports: exports,
		scraper: scraper,
		cache:   c,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", observability.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		// Products and CSV ingest
		r.Get("/products", s.handleListProducts)
		r.Post("/products/upload", s.handleUpload)
		r.Post("/products/cleanup", s.handleCleanup)
		r.Get("/products/{itemID}", s.handleGetProduct)
		r.Post("/products/{itemID}", s.handleEditProduct)
		r.Post("/products/{itemID}/approve", s.handleApproveProduct)

		// Listing templates
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Post("/templates/preview", s.handlePreview)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Put("/templates/{id}", s.handleUpdateTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		// CSV exports
		r.Get("/export/raw", s.handleExportRaw)
		r.Get("/export/blank", s.handleExportBlank)
		r.Get("/export/listings", s.handleExportListings)

		// Scraping API proxy
		r.Post("/scrape/search", s.handleScrapeSearch)
		r.Get("/scrape/status", s.handleScrapeStatus)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// API only, no resource loading
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// RealIP middleware rewrites RemoteAddr, but keep the header as a
		// fallback for direct router tests
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			respondError(w, r, errors.New("rate limit exceeded"), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
