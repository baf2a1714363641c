// Package rates supplies the JPY to USD conversion rate used when pricing
// exports. The rate comes from an external exchange-rate endpoint, is cached
// in Redis for a configurable TTL, and falls back to a fixed rate when the
// endpoint is unreachable.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/auctionworks/relister/internal/cache"
)

const cacheKey = "fx:jpy_usd"

// Service fetches and caches the conversion rate.
type Service struct {
	url        string
	fallback   float64
	ttl        time.Duration
	cache      *cache.Cache
	httpClient *http.Client
}

// New creates a Service. cache may be nil, in which case every call hits
// the endpoint.
func New(url string, fallback float64, ttl time.Duration, c *cache.Cache) *Service {
	return &Service{
		url:        url,
		fallback:   fallback,
		ttl:        ttl,
		cache:      c,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// JPYToUSD returns the current conversion rate. The fallback rate is
// returned with a nil error when the endpoint fails: pricing an export with
// a slightly stale rate beats failing the download.
func (s *Service) JPYToUSD(ctx context.Context) (float64, error) {
	var cached float64
	if s.cache.GetJSON(ctx, cacheKey, &cached) && cached > 0 {
		return cached, nil
	}

	rate, err := s.fetch(ctx)
	if err != nil {
		slog.Warn("exchange rate fetch failed, using fallback",
			"error", err, "fallback", s.fallback)
		return s.fallback, nil
	}

	s.cache.SetJSON(ctx, cacheKey, rate, s.ttl)
	return rate, nil
}

func (s *Service) fetch(ctx context.Context) (float64, error) {
	if s.url == "" {
		return 0, fmt.Errorf("no exchange rate URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("exchange rate api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("exchange rate api status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode exchange rate: %w", err)
	}

	rate, ok := body.Rates["USD"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("exchange rate response missing USD")
	}
	return rate, nil
}
