package listing

import "github.com/auctionworks/relister/internal/model"

// Sample profiles let a user preview a template without a real product.
// Selecting an unknown key falls back to the iphone profile.
var sampleProfiles = map[string]model.ProductRecord{
	"iphone": {
		ItemID:        "sample-iphone",
		Title:         "iPhone 14 Pro - Unlocked",
		Brand:         "Apple",
		CurrentPrice:  "899.00",
		Currency:      "USD",
		Description:   "Gently used iPhone 14 Pro, 256GB, Deep Purple. Battery health 92%. Factory unlocked, works with any carrier.",
		ConditionName: "Used",
		CategoryName:  "Cell Phones & Smartphones",
		PictureURL:    "https://example.com/samples/iphone14pro.jpg",
	},
	"camera": {
		ItemID:        "sample-camera",
		Title:         "Canon EOS R6 Mirrorless Camera Body",
		Brand:         "Canon",
		CurrentPrice:  "1499.00",
		Currency:      "USD",
		Description:   "Canon EOS R6 body only, shutter count under 5,000. Includes battery, charger, and original box.",
		ConditionName: "Used - Excellent",
		CategoryName:  "Cameras & Photo",
		PictureURL:    "https://example.com/samples/eos-r6.jpg",
	},
	"watch": {
		ItemID:        "sample-watch",
		Title:         "Seiko Prospex Diver SBDC101 Automatic",
		Brand:         "Seiko",
		CurrentPrice:  "459.00",
		Currency:      "USD",
		Description:   "Brand new Seiko Prospex SBDC101, Japanese domestic model. Full kit with warranty card.",
		ConditionName: "New",
		CategoryName:  "Wristwatches",
		PictureURL:    "https://example.com/samples/sbdc101.jpg",
	},
}

// DefaultSampleKey is used when a preview request names no or an unknown profile.
const DefaultSampleKey = "iphone"

// SampleProfile returns the canned record for key plus the key actually used.
func SampleProfile(key string) (model.ProductRecord, string) {
	if rec, ok := sampleProfiles[key]; ok {
		return rec, key
	}
	return sampleProfiles[DefaultSampleKey], DefaultSampleKey
}

// SampleKeys returns the available profile names.
func SampleKeys() []string {
	return []string{"iphone", "camera", "watch"}
}
