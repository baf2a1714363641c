// Package model defines the domain types shared by the store, export, and
// listing packages. These are plain data structures with no knowledge of the
// database schema or the scraped site's HTML.
package model

import "time"

// ProductRecord is one sellable item scraped from Yahoo Auctions or ingested
// from a CSV upload. Prices are kept as strings exactly as scraped; the export
// layer owns currency conversion.
type ProductRecord struct {
	ItemID        string    `json:"item_id"`
	Title         string    `json:"title"`
	CurrentPrice  string    `json:"current_price"`
	Currency      string    `json:"currency"` // JPY on ingest, USD after conversion
	Description   string    `json:"description"`
	ConditionName string    `json:"condition_name"`
	CategoryName  string    `json:"category_name"`
	PictureURL    string    `json:"picture_url"`
	GalleryURL    string    `json:"gallery_url"`
	SourceURL     string    `json:"source_url"`
	Brand         string    `json:"brand"`
	WatchCount    int       `json:"watch_count"`
	ListingStatus string    `json:"listing_status"` // pending, approved, listed
	ScrapedAt     time.Time `json:"scraped_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Optional per-record overrides for derived placeholders.
	ShippingInfo string `json:"shipping_info,omitempty"`
	ReturnPolicy string `json:"return_policy,omitempty"`
	Location     string `json:"location,omitempty"`
}

// Listing statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusListed   = "listed"
)

// HasIdentity reports whether the record carries a de-duplication key.
// A record missing both item_id and source_url cannot be persisted, though
// it may still flow through an export.
func (p ProductRecord) HasIdentity() bool {
	return p.ItemID != "" || p.SourceURL != ""
}

// HTMLTemplate is a reusable listing-page skeleton containing {{PLACEHOLDER}}
// tokens. Tokens are opaque at save time; they are only resolved at merge time.
type HTMLTemplate struct {
	ID          string    `json:"template_id"`
	Name        string    `json:"template_name"`
	Category    string    `json:"category"` // general, electronics, fashion, collectibles
	Description string    `json:"description"`
	HTMLContent string    `json:"html_content"`
	CSSStyles   string    `json:"css_styles,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TemplateCategories lists the recognised template categories. Free text is
// accepted on save; this set only drives list filtering in the UI.
var TemplateCategories = []string{"general", "electronics", "fashion", "collectibles"}
