// Package export decides which records and which template go into a given
// CSV download and drives the codec and the placeholder engine accordingly.
package export

import "strings"

// MarketplaceColumns is the fixed eBay bulk-upload column order. Every
// export mode that targets the marketplace must emit exactly this set.
var MarketplaceColumns = []string{
	"Action", "Category", "Title", "Description", "Quantity", "BuyItNowPrice",
	"ConditionID", "Location", "PaymentProfile", "ReturnProfile",
	"ShippingProfile", "PictureURL", "UPC", "Brand", "ConditionDescription",
	"SiteID", "PostalCode", "Currency", "Format", "Duration", "Country",
	"SourceURL", "OriginalPriceJPY", "ConversionRate", "ProcessedAt",
}

// RawColumns is the fixed column order for raw scraped-data dumps.
var RawColumns = []string{
	"item_id", "title", "current_price", "condition_name", "category_name",
	"picture_url", "gallery_url", "source_url", "watch_count",
	"listing_status", "updated_at", "scraped_at",
}

// Fixed marketplace cell values. These mirror what the bulk-upload tool
// expects for single-quantity fixed-price listings shipped from Japan.
const (
	actionAdd      = "Add"
	quantityOne    = "1"
	upcNotApplied  = "Does not apply"
	siteID         = "US"
	currencyUSD    = "USD"
	formatFixed    = "FixedPrice"
	durationGTC    = "GTC"
	countryJP      = "JP"
	brandUnbranded = "Unbranded"
)

// conditionID maps a free-text condition name onto an eBay condition id.
// Unknown names fall back to Used (3000).
func conditionID(name string) string {
	switch normalizeCondition(name) {
	case "new":
		return "1000"
	case "new-other":
		return "1500"
	case "refurbished":
		return "2000"
	case "very-good", "like-new":
		return "2750"
	case "parts":
		return "7000"
	default:
		return "3000"
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func equalsFold(s, t string) bool {
	return strings.EqualFold(strings.TrimSpace(s), t)
}

func normalizeCondition(name string) string {
	switch {
	case containsFold(name, "未使用"), equalsFold(name, "new"), containsFold(name, "brand new"):
		return "new"
	case containsFold(name, "new other"), containsFold(name, "open box"):
		return "new-other"
	case containsFold(name, "refurb"):
		return "refurbished"
	case containsFold(name, "like new"), containsFold(name, "very good"), containsFold(name, "美品"):
		return "very-good"
	case containsFold(name, "parts"), containsFold(name, "junk"), containsFold(name, "ジャンク"):
		return "parts"
	default:
		return "used"
	}
}
