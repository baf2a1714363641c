package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/auctionworks/relister/internal/logging"
	"github.com/auctionworks/relister/internal/observability"
)

var errScraperNotConfigured = errors.New("scraper not configured")

// scrapeSearchRequest proxies one search to the scraping API. When Save is
// set, returned records are upserted into the product store.
type scrapeSearchRequest struct {
	Query    string `json:"query"`
	MaxPages int    `json:"max_pages,omitempty"`
	Save     bool   `json:"save,omitempty"`
}

// handleScrapeSearch proxies a search query to the scraping API.
func (s *Server) handleScrapeSearch(w http.ResponseWriter, r *http.Request) {
	if s.scraper == nil {
		respondError(w, r, errScraperNotConfigured, http.StatusServiceUnavailable)
		return
	}

	var req scrapeSearchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		respondError(w, r, errors.New("invalid request body: query is required"), http.StatusBadRequest)
		return
	}

	maxPages := req.MaxPages
	if maxPages < 1 || maxPages > s.cfg.Scraper.MaxPages {
		maxPages = s.cfg.Scraper.MaxPages
	}

	records, err := s.scraper.Search(r.Context(), req.Query, maxPages)
	if err != nil {
		observability.ScrapeRequests.WithLabelValues("error").Inc()
		respondError(w, r, fmt.Errorf("scraping api: %w", err), http.StatusBadGateway)
		return
	}
	observability.ScrapeRequests.WithLabelValues("ok").Inc()

	saved := 0
	if req.Save {
		for _, rec := range records {
			if err := s.store.UpsertProduct(r.Context(), rec); err != nil {
				logging.FromContext(r.Context()).Warn("scraped record not saved",
					"item_id", rec.ItemID, "error", err)
				continue
			}
			saved++
		}
	}

	logging.FromContext(r.Context()).Info("scrape search",
		"query", req.Query, "records", len(records), "saved", saved)

	writeJSON(w, map[string]interface{}{
		"records": records,
		"count":   len(records),
		"saved":   saved,
	})
}

// handleScrapeStatus proxies the scraping API's health endpoint.
func (s *Server) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	if s.scraper == nil {
		respondError(w, r, errScraperNotConfigured, http.StatusServiceUnavailable)
		return
	}

	status, err := s.scraper.GetStatus(r.Context())
	if err != nil {
		observability.ScrapeRequests.WithLabelValues("error").Inc()
		respondError(w, r, fmt.Errorf("scraping api: %w", err), http.StatusBadGateway)
		return
	}
	observability.ScrapeRequests.WithLabelValues("ok").Inc()

	writeJSON(w, status)
}
