package web

import (
	"errors"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"duplicate key", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"file too large", errors.New("file too large"), "FILE001"},
		{"invalid csv", errors.New("invalid csv file extension"), "FILE002"},
		{"no file", errors.New("no file provided"), "FILE004"},
		{"empty file", errors.New("empty file"), "FILE005"},
		{"bad form", errors.New("invalid multipart form"), "FILE006"},
		{"template not found", errors.New("template not found: abc"), "TPL001"},
		{"missing html content", errors.New("html_content is required"), "TPL002"},
		{"missing preview content", errors.New("template_content is required"), "TPL002"},
		{"missing template name", errors.New("template_name is required"), "TPL003"},
		{"product not found", errors.New("product not found: 123"), "PRD001"},
		{"no identity", errors.New("record has no item_id or source_url"), "PRD002"},
		{"scraper off", errors.New("scraper not configured"), "SCR001"},
		{"scrape upstream", errors.New("scraping api: status 502"), "SCR002"},
		{"bad json", errors.New(`invalid request body: invalid character '}' looking for beginning of value`), "REQ001"},
		{"canceled", errors.New("context canceled"), "REQ002"},
		{"deadline", errors.New("context deadline exceeded"), "REQ003"},
		{"rate limited", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("something else entirely"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%q).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if got.Message == "" {
				t.Error("MapError returned empty message")
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := MapError(nil); got != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero value", got)
	}
}

func TestMapError_DeadlineBeforeTimeout(t *testing.T) {
	// "context deadline exceeded" contains no "timeout" text, but make sure
	// a combined message still maps to the context code, not DB006.
	got := MapError(errors.New("timeout: context deadline exceeded"))
	if got.Code != "REQ003" {
		t.Errorf("Code = %q, want REQ003", got.Code)
	}
}
