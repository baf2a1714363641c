// Package config provides centralized configuration management. Settings
// load from environment variables with defaults and are validated once at
// startup so a misconfigured deployment fails fast.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Upload   UploadConfig
	Export   ExportConfig
	Scraper  ScraperConfig
	Ebay     EbayConfig
	Rates    RatesConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections kept open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime recycles connections after this age (default: 30m)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"30m"`

	// MaxConnIdleTime closes idle connections after this period (default: 5m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
}

// RedisConfig holds cache settings. Redis is optional; an empty address
// disables caching entirely.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" default:"0"`

	// StatsTTL is how long dashboard stats stay cached (default: 60s)
	StatsTTL time.Duration `env:"REDIS_STATS_TTL" default:"60s"`
}

// UploadConfig holds CSV upload limits.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxRows caps accepted data rows per upload (default: 1000)
	MaxRows int `env:"UPLOAD_MAX_ROWS" default:"1000"`
}

// ExportConfig holds marketplace export defaults.
type ExportConfig struct {
	// DefaultCategoryID is used when no taxonomy suggestion is available
	// (default: 293, Consumer Electronics)
	DefaultCategoryID string `env:"EXPORT_DEFAULT_CATEGORY_ID" default:"293"`

	// PostalCode stamps the item location postal code (default: 100-0001)
	PostalCode string `env:"EXPORT_POSTAL_CODE" default:"100-0001"`

	// PaymentProfile, ReturnProfile, ShippingProfile are the seller's
	// business policy names.
	PaymentProfile  string `env:"EXPORT_PAYMENT_PROFILE" default:"PayPal"`
	ReturnProfile   string `env:"EXPORT_RETURN_PROFILE" default:"Returns Accepted"`
	ShippingProfile string `env:"EXPORT_SHIPPING_PROFILE" default:"Standard from Japan"`
}

// ScraperConfig holds the external scraping API settings. An empty base
// URL disables the proxy endpoints.
type ScraperConfig struct {
	BaseURL string `env:"SCRAPER_BASE_URL"`
	APIKey  string `env:"SCRAPER_API_KEY"`

	// RequestsPerMinute bounds outbound calls to the API (default: 30)
	RequestsPerMinute int `env:"SCRAPER_REQUESTS_PER_MINUTE" default:"30"`

	// MaxPages caps how deep one search proxies (default: 3)
	MaxPages int `env:"SCRAPER_MAX_PAGES" default:"3"`
}

// EbayConfig holds eBay taxonomy API credentials. Category suggestion is
// skipped when ClientID is empty.
type EbayConfig struct {
	ClientID     string `env:"EBAY_CLIENT_ID"`
	ClientSecret string `env:"EBAY_CLIENT_SECRET"`
	Sandbox      bool   `env:"EBAY_SANDBOX" default:"true"`
}

// RatesConfig holds exchange-rate settings.
type RatesConfig struct {
	// URL is the exchange-rate endpoint; empty means always use the fallback.
	URL string `env:"RATES_URL"`

	// FallbackJPYUSD is used when the endpoint is unavailable (default: 0.0067)
	FallbackJPYUSD float64 `env:"RATES_FALLBACK_JPY_USD" default:"0.0067"`

	// TTL is how long a fetched rate stays cached (default: 1h)
	TTL time.Duration `env:"RATES_TTL" default:"1h"`
}

// RateLimitConfig holds inbound request throttling settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the per-IP limit (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
