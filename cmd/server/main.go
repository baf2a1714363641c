package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/auctionworks/relister/internal/cache"
	"github.com/auctionworks/relister/internal/config"
	"github.com/auctionworks/relister/internal/csvio"
	"github.com/auctionworks/relister/internal/ebay"
	"github.com/auctionworks/relister/internal/export"
	"github.com/auctionworks/relister/internal/logging"
	"github.com/auctionworks/relister/internal/observability"
	"github.com/auctionworks/relister/internal/rates"
	"github.com/auctionworks/relister/internal/scrape"
	"github.com/auctionworks/relister/internal/store"
	"github.com/auctionworks/relister/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_rows", cfg.Upload.MaxRows,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Upload limits are package-level knobs on the CSV decoder
	csvio.MaxFileSize = cfg.Upload.MaxFileSize
	csvio.MaxRows = cfg.Upload.MaxRows

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	// Apply schema and build the store
	st, err := store.New(ctx, pool)
	if err != nil {
		slog.Error("failed to initialise store", "error", err)
		os.Exit(1)
	}

	// Redis is optional; a failed connection degrades to uncached reads
	var c *cache.Cache
	if cfg.Redis.Addr != "" {
		c, err = cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("redis unavailable, caching disabled", "error", err)
			c = nil
		} else {
			defer c.Close()
			slog.Info("redis connected", "addr", cfg.Redis.Addr)
		}
	}

	// eBay taxonomy lookups are optional; absent credentials mean every
	// listing gets the default category id
	var categories export.CategoryResolver
	if cfg.Ebay.ClientID != "" {
		categories = ebay.NewClient(cfg.Ebay.ClientID, cfg.Ebay.ClientSecret, cfg.Ebay.Sandbox)
		slog.Info("ebay taxonomy client enabled", "sandbox", cfg.Ebay.Sandbox)
	}

	rateSvc := rates.New(cfg.Rates.URL, cfg.Rates.FallbackJPYUSD, cfg.Rates.TTL, c)

	exports := export.New(
		cfg.Export.DefaultCategoryID,
		cfg.Export.PostalCode,
		export.Profiles{
			Payment:  cfg.Export.PaymentProfile,
			Return:   cfg.Export.ReturnProfile,
			Shipping: cfg.Export.ShippingProfile,
		},
		categories,
		rateSvc,
	)

	var scraper web.Scraper
	if cfg.Scraper.BaseURL != "" {
		scraper = scrape.NewClient(cfg.Scraper.BaseURL, cfg.Scraper.APIKey, cfg.Scraper.RequestsPerMinute)
		slog.Info("scraping proxy enabled", "base_url", cfg.Scraper.BaseURL)
	}

	observability.Register()

	server := web.NewServer(cfg, st, exports, scraper, c)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
