package listing

import (
	"strings"
	"testing"
	"time"

	"github.com/auctionworks/relister/internal/model"
)

func TestMerge_SampleIphone(t *testing.T) {
	tpl := model.HTMLTemplate{HTMLContent: "<h1>{{TITLE}}</h1><p>{{PRICE}}</p>"}
	rec, used := SampleProfile("iphone")
	if used != "iphone" {
		t.Fatalf("sample key = %q", used)
	}

	got := MergeRecord(tpl, rec)
	want := "<h1>iPhone 14 Pro - Unlocked</h1><p>899.00</p>"
	if got.HTML != want {
		t.Errorf("HTML = %q, want %q", got.HTML, want)
	}
	if got.Replaced != 2 {
		t.Errorf("Replaced = %d, want 2", got.Replaced)
	}
}

func TestSampleProfile_UnknownFallsBackToIphone(t *testing.T) {
	rec, used := SampleProfile("spaceship")
	if used != "iphone" {
		t.Errorf("used = %q, want iphone", used)
	}
	if rec.Title != "iPhone 14 Pro - Unlocked" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestMerge_UnmatchedTokenLeftVerbatim(t *testing.T) {
	tpl := model.HTMLTemplate{HTMLContent: "{{TITLE}} / {{NOT_A_REAL_TOKEN}}"}
	rec, _ := SampleProfile("watch")

	got := MergeRecord(tpl, rec)
	if !strings.Contains(got.HTML, "{{NOT_A_REAL_TOKEN}}") {
		t.Errorf("unmatched token was not preserved: %q", got.HTML)
	}
	if strings.Contains(got.HTML, "{{TITLE}}") {
		t.Errorf("matched token was not replaced: %q", got.HTML)
	}
	if got.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", got.Replaced)
	}
}

// A resolved value containing {{TITLE}} must come through verbatim; the
// engine never takes a second substitution pass.
func TestMerge_NoRecursiveExpansion(t *testing.T) {
	tpl := model.HTMLTemplate{HTMLContent: "<div>{{DESCRIPTION}}</div>"}
	rec := model.ProductRecord{
		Title:       "Real Title",
		Description: "mentions {{TITLE}} literally",
	}

	got := MergeRecord(tpl, rec)
	if got.HTML != "<div>mentions {{TITLE}} literally</div>" {
		t.Errorf("HTML = %q", got.HTML)
	}
}

func TestMerge_AppendsStyleBlock(t *testing.T) {
	tpl := model.HTMLTemplate{
		HTMLContent: "<p>{{TITLE}}</p>",
		CSSStyles:   "p { color: red; }",
	}
	rec, _ := SampleProfile("camera")

	got := MergeRecord(tpl, rec)
	if !strings.HasSuffix(got.HTML, "<style>\np { color: red; }\n</style>") {
		t.Errorf("style block missing or misplaced: %q", got.HTML)
	}
}

func TestBuildPlaceholderMap_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	m := BuildPlaceholderMap(model.ProductRecord{}, now)

	tests := []struct {
		key  string
		want string
	}{
		{"CURRENT_DATE", "2026-03-15"},
		{"YEAR", "2026"},
		{"LOCATION", "Japan"},
		{"SHIPPING_INFO", DefaultShippingInfo},
		{"RETURN_POLICY", DefaultReturnPolicy},
		{"TITLE", ""},
		{"FEATURE_1", ""},
		{"FREE_FORMAT_3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := m[tt.key]
			if !ok {
				t.Fatalf("key %s missing from map", tt.key)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestBuildPlaceholderMap_Overrides(t *testing.T) {
	rec := model.ProductRecord{
		Location:     "Osaka, Japan",
		ShippingInfo: "Free EMS shipping",
		ReturnPolicy: "No returns",
	}
	m := BuildPlaceholderMap(rec, time.Now())

	if m["LOCATION"] != "Osaka, Japan" {
		t.Errorf("LOCATION = %q", m["LOCATION"])
	}
	if m["SHIPPING_INFO"] != "Free EMS shipping" {
		t.Errorf("SHIPPING_INFO = %q", m["SHIPPING_INFO"])
	}
	if m["RETURN_POLICY"] != "No returns" {
		t.Errorf("RETURN_POLICY = %q", m["RETURN_POLICY"])
	}
}

func TestBuildPlaceholderMap_MainImageFallsBackToDescription(t *testing.T) {
	rec := model.ProductRecord{
		Description: `<p>photos</p><img src="https://img.example.com/1.jpg"><img src="https://img.example.com/2.jpg">`,
	}
	m := BuildPlaceholderMap(rec, time.Now())
	if m["MAIN_IMAGE"] != "https://img.example.com/1.jpg" {
		t.Errorf("MAIN_IMAGE = %q", m["MAIN_IMAGE"])
	}

	rec.PictureURL = "https://img.example.com/primary.jpg"
	m = BuildPlaceholderMap(rec, time.Now())
	if m["MAIN_IMAGE"] != "https://img.example.com/primary.jpg" {
		t.Errorf("MAIN_IMAGE = %q, picture_url should win", m["MAIN_IMAGE"])
	}
}

func TestFirstImageURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no images", "<p>just text</p>", ""},
		{"plain string", "no markup at all", ""},
		{"absolute url", `<img src="https://a.example.com/x.jpg">`, "https://a.example.com/x.jpg"},
		{"relative url rejected", `<img src="/images/x.jpg">`, ""},
		{"protocol relative accepted", `<img src="//cdn.example.com/x.jpg">`, "//cdn.example.com/x.jpg"},
		{"first of several", `<img src="https://a/1.jpg"><img src="https://a/2.jpg">`, "https://a/1.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstImageURL(tt.input); got != tt.want {
				t.Errorf("FirstImageURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
