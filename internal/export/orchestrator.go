package export

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/auctionworks/relister/internal/csvio"
	"github.com/auctionworks/relister/internal/listing"
	"github.com/auctionworks/relister/internal/model"
)

// FallbackConversionRate is used when no rate source is configured or the
// source is unreachable. Roughly 150 JPY to the dollar.
var FallbackConversionRate = 0.0067

// maxTitleRunes is the marketplace's listing title limit.
const maxTitleRunes = 80

// RowNote reports a per-row problem that did not abort the batch.
type RowNote struct {
	Line   int    `json:"line"`
	ItemID string `json:"item_id,omitempty"`
	Reason string `json:"reason"`
}

// Download is a fully assembled CSV download: nothing is written to the
// wire until the whole body exists, so there is no partial output to clear.
type Download struct {
	Filename string
	Body     []byte
	Notes    []RowNote
}

// CategoryResolver maps a category name to a marketplace category id.
// Implemented by the eBay taxonomy client; nil means "use the default id".
type CategoryResolver interface {
	SuggestCategory(ctx context.Context, query string) (string, error)
}

// RateSource supplies the JPY to USD conversion rate.
type RateSource interface {
	JPYToUSD(ctx context.Context) (float64, error)
}

// Profiles are the seller's business-policy names stamped into every row.
type Profiles struct {
	Payment  string
	Return   string
	Shipping string
}

// Orchestrator builds the three download modes from a record set.
type Orchestrator struct {
	DefaultCategoryID string
	PostalCode        string
	Profiles          Profiles
	Categories        CategoryResolver
	Rates             RateSource

	now func() time.Time
}

// New creates an Orchestrator. categories and rates may be nil.
func New(defaultCategoryID, postalCode string, profiles Profiles, categories CategoryResolver, rates RateSource) *Orchestrator {
	return &Orchestrator{
		DefaultCategoryID: defaultCategoryID,
		PostalCode:        postalCode,
		Profiles:          profiles,
		Categories:        categories,
		Rates:             rates,
		now:               time.Now,
	}
}

// Raw dumps product records as scraped, no template merge. An empty record
// set still produces a body: the codec's sentinel row.
func (o *Orchestrator) Raw(records []model.ProductRecord) Download {
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"item_id":        rec.ItemID,
			"title":          rec.Title,
			"current_price":  rec.CurrentPrice,
			"condition_name": rec.ConditionName,
			"category_name":  rec.CategoryName,
			"picture_url":    rec.PictureURL,
			"gallery_url":    rec.GalleryURL,
			"source_url":     rec.SourceURL,
			"watch_count":    strconv.Itoa(rec.WatchCount),
			"listing_status": rec.ListingStatus,
			"updated_at":     formatTime(rec.UpdatedAt),
			"scraped_at":     formatTime(rec.ScrapedAt),
		})
	}

	return Download{
		Filename: o.filename("raw_data"),
		Body:     csvio.Encode(rows, RawColumns),
	}
}

// Blank emits the marketplace header plus exactly one illustrative sample
// row for offline editing, regardless of how many real records exist.
func (o *Orchestrator) Blank(ctx context.Context) Download {
	sample, _ := listing.SampleProfile(listing.DefaultSampleKey)
	sample.CurrentPrice = "134000" // JPY, so the converted price looks real
	sample.SourceURL = "https://auctions.yahoo.co.jp/item/sample"

	row, _ := o.marketplaceRow(ctx, sample, DefaultTemplate, FallbackConversionRate)
	// Keep the sample row on one physical line so the downloaded file is
	// exactly header + one row when opened in a text editor.
	row["Description"] = strings.ReplaceAll(row["Description"], "\n", " ")
	return Download{
		Filename: o.filename("listing_template"),
		Body:     csvio.Encode([]map[string]string{row}, MarketplaceColumns),
	}
}

// Listings merges every record with the chosen template (or the built-in
// default) and emits the full marketplace schema. Per-row failures are
// collected as notes; the batch never aborts. Columns are taken from the
// first row's key set, and a later row with a different key set is dropped
// with a note instead of corrupting the table.
func (o *Orchestrator) Listings(ctx context.Context, records []model.ProductRecord, tpl *model.HTMLTemplate) Download {
	chosen := DefaultTemplate
	if tpl != nil {
		chosen = *tpl
	}

	rate := o.conversionRate(ctx)

	var notes []RowNote
	rows := make([]map[string]string, 0, len(records))
	for i, rec := range records {
		row, err := o.marketplaceRow(ctx, rec, chosen, rate)
		if err != nil {
			notes = append(notes, RowNote{Line: i + 1, ItemID: rec.ItemID, Reason: err.Error()})
		}
		rows = append(rows, row)
	}

	columns, rows, shapeNotes := tabulate(rows, MarketplaceColumns)
	notes = append(notes, shapeNotes...)

	return Download{
		Filename: o.filename("ebay_listings"),
		Body:     csvio.Encode(rows, columns),
		Notes:    notes,
	}
}

// marketplaceRow builds one marketplace row. The returned error marks a
// row-level note (bad price, category lookup miss); the row is still
// usable with its fallback values filled in.
func (o *Orchestrator) marketplaceRow(ctx context.Context, rec model.ProductRecord, tpl model.HTMLTemplate, rate float64) (map[string]string, error) {
	var rowErr error

	merged := listing.MergeRecord(tpl, rec)

	jpy, err := parsePrice(rec.CurrentPrice)
	usd := ""
	if err != nil {
		rowErr = fmt.Errorf("item %s: %w", rec.ItemID, err)
	} else {
		usd = strconv.FormatFloat(jpy*rate, 'f', 2, 64)
	}

	category := o.DefaultCategoryID
	if o.Categories != nil && rec.CategoryName != "" {
		if id, err := o.Categories.SuggestCategory(ctx, rec.CategoryName); err == nil && id != "" {
			category = id
		} else if err != nil && rowErr == nil {
			rowErr = fmt.Errorf("item %s: category lookup: %w", rec.ItemID, err)
		}
	}

	location := rec.Location
	if location == "" {
		location = listing.DefaultLocation
	}

	picture := rec.PictureURL
	if picture == "" {
		picture = listing.FirstImageURL(rec.Description)
	}

	brand := rec.Brand
	if brand == "" {
		brand = brandUnbranded
	}

	return map[string]string{
		"Action":               actionAdd,
		"Category":             category,
		"Title":                truncateTitle(rec.Title),
		"Description":          merged.HTML,
		"Quantity":             quantityOne,
		"BuyItNowPrice":        usd,
		"ConditionID":          conditionID(rec.ConditionName),
		"Location":             location,
		"PaymentProfile":       o.Profiles.Payment,
		"ReturnProfile":        o.Profiles.Return,
		"ShippingProfile":      o.Profiles.Shipping,
		"PictureURL":           picture,
		"UPC":                  upcNotApplied,
		"Brand":                brand,
		"ConditionDescription": rec.ConditionName,
		"SiteID":               siteID,
		"PostalCode":           o.PostalCode,
		"Currency":             currencyUSD,
		"Format":               formatFixed,
		"Duration":             durationGTC,
		"Country":              countryJP,
		"SourceURL":            rec.SourceURL,
		"OriginalPriceJPY":     rec.CurrentPrice,
		"ConversionRate":       strconv.FormatFloat(rate, 'f', 6, 64),
		"ProcessedAt":          o.now().Format("2006-01-02 15:04:05"),
	}, rowErr
}

func (o *Orchestrator) conversionRate(ctx context.Context) float64 {
	if o.Rates == nil {
		return FallbackConversionRate
	}
	rate, err := o.Rates.JPYToUSD(ctx)
	if err != nil || rate <= 0 {
		return FallbackConversionRate
	}
	return rate
}

func (o *Orchestrator) filename(purpose string) string {
	return fmt.Sprintf("%s_%s.csv", purpose, o.now().Format("20060102_150405"))
}

// tabulate verifies that every row shares the first row's key set. Rows
// with extra or missing keys are dropped with a note; the column order is
// always the canonical one passed in.
func tabulate(rows []map[string]string, columns []string) ([]string, []map[string]string, []RowNote) {
	if len(rows) == 0 {
		return columns, rows, nil
	}

	first := keySet(rows[0])
	accepted := rows[:0:0]
	var notes []RowNote
	for i, row := range rows {
		if ks := keySet(row); ks != first {
			notes = append(notes, RowNote{
				Line:   i + 1,
				Reason: "row key set differs from first record",
			})
			continue
		}
		accepted = append(accepted, row)
	}
	return columns, accepted, notes
}

func keySet(row map[string]string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x00")
}

// parsePrice strips currency decoration from a scraped JPY price.
func parsePrice(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "円", "", "¥", "", "￥", "", " ", "").Replace(s)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return v, nil
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

// DefaultTemplate is the boilerplate listing skeleton used when an export
// names no stored template.
var DefaultTemplate = model.HTMLTemplate{
	Name:     "default",
	Category: "general",
	HTMLContent: `<div class="listing">
<h1>{{TITLE}}</h1>
<img src="{{MAIN_IMAGE}}" alt="{{TITLE}}">
<p><strong>Brand:</strong> {{BRAND}}</p>
<p><strong>Condition:</strong> {{CONDITION}}</p>
<div class="description">{{DESCRIPTION}}</div>
<h2>Shipping</h2>
<p>{{SHIPPING_INFO}}</p>
<h2>Returns</h2>
<p>{{RETURN_POLICY}}</p>
<p class="footer">Shipped from {{LOCATION}} | Listed {{CURRENT_DATE}}</p>
</div>`,
}
