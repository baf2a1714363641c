// Package listing builds per-item marketing HTML by substituting
// {{PLACEHOLDER}} tokens in stored templates with product field values.
package listing

import (
	"sort"
	"strings"
	"time"

	"github.com/auctionworks/relister/internal/model"
)

// Default boilerplate for derived placeholders. A record can override
// shipping, returns, and location per item.
const (
	DefaultLocation     = "Japan"
	DefaultShippingInfo = "Ships from Japan via tracked courier within 3-5 business days. Carefully packed with bubble wrap."
	DefaultReturnPolicy = "Returns accepted within 30 days of delivery. Item must be returned in original condition. Buyer pays return shipping."
)

// PlaceholderMap maps a token name (without braces) to its resolved value
// for one product. Built fresh per merge, never persisted.
type PlaceholderMap map[string]string

// MergeResult is the outcome of one template merge.
type MergeResult struct {
	HTML     string `json:"html"`
	Replaced int    `json:"placeholders_replaced"`
}

// BuildPlaceholderMap resolves every known token for the given record.
// Absent fields resolve to empty strings, never to a missing key, so the
// tokens always disappear from the merged output.
func BuildPlaceholderMap(rec model.ProductRecord, now time.Time) PlaceholderMap {
	m := PlaceholderMap{
		"TITLE":       rec.Title,
		"BRAND":       rec.Brand,
		"PRICE":       rec.CurrentPrice,
		"DESCRIPTION": rec.Description,
		"CONDITION":   rec.ConditionName,

		"CURRENT_DATE": now.Format("2006-01-02"),
		"YEAR":         now.Format("2006"),

		"LOCATION":      DefaultLocation,
		"SHIPPING_INFO": DefaultShippingInfo,
		"RETURN_POLICY": DefaultReturnPolicy,

		"FEATURE_1": "",
		"FEATURE_2": "",
		"FEATURE_3": "",

		"INCLUDED_ITEM_1": "",
		"INCLUDED_ITEM_2": "",

		"FREE_FORMAT_1": "",
		"FREE_FORMAT_2": "",
		"FREE_FORMAT_3": "",
	}

	if rec.Location != "" {
		m["LOCATION"] = rec.Location
	}
	if rec.ShippingInfo != "" {
		m["SHIPPING_INFO"] = rec.ShippingInfo
	}
	if rec.ReturnPolicy != "" {
		m["RETURN_POLICY"] = rec.ReturnPolicy
	}

	mainImage := rec.PictureURL
	if mainImage == "" {
		mainImage = FirstImageURL(rec.Description)
	}
	m["MAIN_IMAGE"] = mainImage

	return m
}

// Merge substitutes every token in the map into the template in a single
// linear pass. Resolved values are never re-scanned, so user text containing
// {{...}} appears verbatim in the output instead of looping. Tokens present
// in the template but absent from the map are left untouched on purpose, so
// template authors can see what did not resolve.
//
// The returned count is the number of distinct placeholders that were
// actually found and replaced.
func Merge(tpl model.HTMLTemplate, m PlaceholderMap) MergeResult {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	replaced := 0
	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		token := "{{" + k + "}}"
		if strings.Contains(tpl.HTMLContent, token) {
			replaced++
		}
		pairs = append(pairs, token, m[k])
	}

	// strings.Replacer does one pass over the input and never rescans
	// replacement text, which is exactly the non-recursive contract.
	html := strings.NewReplacer(pairs...).Replace(tpl.HTMLContent)

	if tpl.CSSStyles != "" {
		html += "\n<style>\n" + tpl.CSSStyles + "\n</style>"
	}

	return MergeResult{HTML: html, Replaced: replaced}
}

// MergeRecord is the common path: build the map for a record, then merge.
func MergeRecord(tpl model.HTMLTemplate, rec model.ProductRecord) MergeResult {
	return Merge(tpl, BuildPlaceholderMap(rec, time.Now()))
}
