// Package scrape is a thin client for the external Yahoo-Auction scraping
// API. The service does the actual page fetching; this client only proxies
// search and status calls and maps results onto product records.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/auctionworks/relister/internal/model"
)

// Client talks to the scraping API. Outbound calls are rate limited so a
// burst of dashboard activity cannot get the API key throttled.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client. requestsPerMinute bounds outbound calls.
func NewClient(baseURL, apiKey string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

// Status is the scraping API's health snapshot.
type Status struct {
	OK           bool   `json:"ok"`
	Version      string `json:"version,omitempty"`
	QueueDepth   int    `json:"queue_depth,omitempty"`
	LastScrapeAt string `json:"last_scrape_at,omitempty"`
}

// item is the scraping API's wire format for one auction.
type item struct {
	AuctionID    string   `json:"auction_id"`
	Title        string   `json:"title"`
	CurrentPrice string   `json:"current_price"`
	Description  string   `json:"description"`
	Condition    string   `json:"condition"`
	Category     string   `json:"category"`
	Images       []string `json:"images"`
	URL          string   `json:"url"`
	Brand        string   `json:"brand"`
	WatchCount   int      `json:"watch_count"`
}

type searchResponse struct {
	Items   []item `json:"items"`
	HasMore bool   `json:"has_more"`
}

// GetStatus proxies the API's health endpoint.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.getJSON(ctx, "/api/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Search fetches up to maxPages of results for query and maps them onto
// product records. Currency is always JPY at this boundary.
func (c *Client) Search(ctx context.Context, query string, maxPages int) ([]model.ProductRecord, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	now := time.Now()
	var records []model.ProductRecord
	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("query", query)
		params.Set("page", strconv.Itoa(page))

		var resp searchResponse
		if err := c.getJSON(ctx, "/api/search", params, &resp); err != nil {
			return records, fmt.Errorf("search page %d: %w", page, err)
		}

		for _, it := range resp.Items {
			records = append(records, toRecord(it, now))
		}
		if !resp.HasMore {
			break
		}
	}
	return records, nil
}

func toRecord(it item, scrapedAt time.Time) model.ProductRecord {
	rec := model.ProductRecord{
		ItemID:        it.AuctionID,
		Title:         it.Title,
		CurrentPrice:  it.CurrentPrice,
		Currency:      "JPY",
		Description:   it.Description,
		ConditionName: it.Condition,
		CategoryName:  it.Category,
		SourceURL:     it.URL,
		Brand:         it.Brand,
		WatchCount:    it.WatchCount,
		ListingStatus: model.StatusPending,
		ScrapedAt:     scrapedAt,
	}
	if len(it.Images) > 0 {
		rec.PictureURL = it.Images[0]
	}
	if len(it.Images) > 1 {
		rec.GalleryURL = it.Images[1]
	}
	return rec
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scrape api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scrape api status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
