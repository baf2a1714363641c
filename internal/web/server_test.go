package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/auctionworks/relister/internal/config"
	"github.com/auctionworks/relister/internal/export"
	"github.com/auctionworks/relister/internal/model"
	"github.com/auctionworks/relister/internal/store"
)

// stubStore satisfies the Store interface without a database.
type stubStore struct {
	products    []model.ProductRecord
	upserted    []model.ProductRecord
	upsertErr   error
	template    *model.HTMLTemplate
	templateErr error
	stats       store.Stats
	deleted     int64
}

func (s *stubStore) UpsertProduct(_ context.Context, rec model.ProductRecord) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, rec)
	return nil
}

func (s *stubStore) GetProduct(_ context.Context, itemID string) (*model.ProductRecord, error) {
	for i := range s.products {
		if s.products[i].ItemID == itemID {
			return &s.products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrProductNotFound, itemID)
}

func (s *stubStore) ListProducts(_ context.Context, status string, limit int) ([]model.ProductRecord, error) {
	return s.products, nil
}

func (s *stubStore) UpdateProduct(_ context.Context, itemID string, edit store.ProductEdit) (*model.ProductRecord, error) {
	return s.GetProduct(context.Background(), itemID)
}

func (s *stubStore) ApproveProduct(_ context.Context, itemID string) error {
	_, err := s.GetProduct(context.Background(), itemID)
	return err
}

func (s *stubStore) CleanupDummyData(_ context.Context) (int64, error) {
	return s.deleted, nil
}

func (s *stubStore) GetStats(_ context.Context) (*store.Stats, error) {
	return &s.stats, nil
}

func (s *stubStore) CreateTemplate(_ context.Context, t model.HTMLTemplate) (*model.HTMLTemplate, error) {
	if t.HTMLContent == "" {
		return nil, fmt.Errorf("html_content is required")
	}
	if t.Name == "" {
		return nil, fmt.Errorf("template_name is required")
	}
	return &t, nil
}

func (s *stubStore) GetTemplate(_ context.Context, id string) (*model.HTMLTemplate, error) {
	if s.templateErr != nil {
		return nil, s.templateErr
	}
	if s.template != nil {
		return s.template, nil
	}
	return nil, fmt.Errorf("%w: %s", store.ErrTemplateNotFound, id)
}

func (s *stubStore) ListTemplates(_ context.Context, category string, activeOnly bool) ([]model.HTMLTemplate, error) {
	if s.template != nil {
		return []model.HTMLTemplate{*s.template}, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateTemplate(_ context.Context, t model.HTMLTemplate) (*model.HTMLTemplate, error) {
	return &t, nil
}

func (s *stubStore) DeleteTemplate(_ context.Context, id string) error {
	return nil
}

func newTestServer(st Store) *Server {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Minute
	cfg.Upload.MaxFileSize = 10 * 1024 * 1024
	cfg.Scraper.MaxPages = 3
	cfg.Redis.StatsTTL = time.Minute
	cfg.Rate.Enabled = false

	exports := export.New("293", "100-0001", export.Profiles{
		Payment:  "PayPal",
		Return:   "Returns Accepted",
		Shipping: "Standard from Japan",
	}, nil, nil)

	return NewServer(cfg, st, exports, nil, nil)
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("error response is not valid JSON: %v\n%s", err, body)
	}
	return resp.Code
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubStore{})
	rec := doRequest(s, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestHandleStats(t *testing.T) {
	st := &stubStore{stats: store.Stats{TotalProducts: 42, Pending: 40, Approved: 2}}
	s := newTestServer(st)
	rec := doRequest(s, httptest.NewRequest("GET", "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got store.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.TotalProducts != 42 || got.Approved != 2 {
		t.Errorf("stats = %+v, want TotalProducts 42, Approved 2", got)
	}
}

func TestHandlePreview_UnknownSampleFallsBack(t *testing.T) {
	s := newTestServer(&stubStore{})
	body := `{"template_content":"<p>{{TITLE}}</p>","sample_data":"spaceship"}`
	req := httptest.NewRequest("POST", "/api/templates/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SampleDataUsed != "iphone" {
		t.Errorf("sample_data_used = %q, want iphone", resp.SampleDataUsed)
	}
	if resp.PlaceholdersReplaced != 1 {
		t.Errorf("placeholders_replaced = %d, want 1", resp.PlaceholdersReplaced)
	}
	if !strings.Contains(resp.HTML, "iPhone 14 Pro") {
		t.Errorf("html = %q, want iPhone title substituted", resp.HTML)
	}
}

func TestHandlePreview_MissingContent(t *testing.T) {
	s := newTestServer(&stubStore{})
	req := httptest.NewRequest("POST", "/api/templates/preview", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "TPL002" {
		t.Errorf("error code = %q, want TPL002", code)
	}
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleUpload(t *testing.T) {
	st := &stubStore{}
	s := newTestServer(st)

	csv := "item_id,title,current_price\n" +
		"x100,Canon Lens,15000\n" +
		",No Identity Row,200\n"
	body, contentType := multipartCSV(t, "items.csv", csv)

	req := httptest.NewRequest("POST", "/api/products/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Accepted != 1 {
		t.Errorf("accepted = %d, want 1", resp.Accepted)
	}
	if resp.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", resp.Skipped)
	}
	if len(st.upserted) != 1 || st.upserted[0].ItemID != "x100" {
		t.Fatalf("upserted = %+v, want one record x100", st.upserted)
	}
	if st.upserted[0].Currency != "JPY" {
		t.Errorf("Currency = %q, want JPY", st.upserted[0].Currency)
	}
	if st.upserted[0].ListingStatus != model.StatusPending {
		t.Errorf("ListingStatus = %q, want pending", st.upserted[0].ListingStatus)
	}
}

func TestHandleUpload_WrongExtension(t *testing.T) {
	s := newTestServer(&stubStore{})
	body, contentType := multipartCSV(t, "items.txt", "item_id\nx1\n")

	req := httptest.NewRequest("POST", "/api/products/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "FILE002" {
		t.Errorf("error code = %q, want FILE002", code)
	}
}

func TestHandleUpload_FileAtSizeCap(t *testing.T) {
	st := &stubStore{}
	s := newTestServer(st)
	s.cfg.Upload.MaxFileSize = 512

	// File content exactly at the cap; multipart boundary and part headers
	// push the request body over it, which must not reject the upload.
	csv := "item_id,title\nx1,"
	csv += strings.Repeat("a", 512-len(csv)-1) + "\n"
	body, contentType := multipartCSV(t, "items.csv", csv)

	req := httptest.NewRequest("POST", "/api/products/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(st.upserted) != 1 || st.upserted[0].ItemID != "x1" {
		t.Fatalf("upserted = %+v, want one record x1", st.upserted)
	}
}

func TestHandleUpload_MalformedForm(t *testing.T) {
	s := newTestServer(&stubStore{})

	req := httptest.NewRequest("POST", "/api/products/upload",
		strings.NewReader("this is not a multipart body"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=deadbeef")
	rec := doRequest(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "FILE006" {
		t.Errorf("error code = %q, want FILE006", code)
	}
}

func TestHandleUpload_NoFile(t *testing.T) {
	s := newTestServer(&stubStore{})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/products/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := doRequest(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "FILE004" {
		t.Errorf("error code = %q, want FILE004", code)
	}
}

func TestHandleEditProduct_MalformedJSON(t *testing.T) {
	s := newTestServer(&stubStore{})
	req := httptest.NewRequest("POST", "/api/products/x200", strings.NewReader(`{"title":}`))
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != "REQ001" {
		t.Errorf("error code = %q, want REQ001", resp.Code)
	}
	// The decoder's own message must survive into the response so a client
	// can see what was wrong with the body.
	if !strings.Contains(resp.Error, "invalid character") {
		t.Errorf("error = %q, want the decode detail included", resp.Error)
	}
}

func TestHandleExportRaw(t *testing.T) {
	st := &stubStore{products: []model.ProductRecord{{
		ItemID:       "x200",
		Title:        "Seiko Diver",
		CurrentPrice: "45000",
	}}}
	s := newTestServer(st)
	rec := doRequest(s, httptest.NewRequest("GET", "/api/export/raw", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="raw_`) {
		t.Errorf("Content-Disposition = %q, want raw_ filename", cd)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	body := rec.Body.Bytes()
	if !bytes.HasPrefix(body, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("body should start with UTF-8 BOM")
	}
	if !bytes.Contains(body, []byte("Seiko Diver")) {
		t.Error("body should contain the product row")
	}
}

func TestHandleExportListings_TemplateNotFound(t *testing.T) {
	s := newTestServer(&stubStore{})
	rec := doRequest(s, httptest.NewRequest("GET", "/api/export/listings?template_id=missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "TPL001" {
		t.Errorf("error code = %q, want TPL001", code)
	}
}

func TestHandleScrape_NotConfigured(t *testing.T) {
	s := newTestServer(&stubStore{})
	req := httptest.NewRequest("POST", "/api/scrape/search", strings.NewReader(`{"query":"camera"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := doRequest(s, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if code := errorCode(t, rec.Body.Bytes()); code != "SCR001" {
		t.Errorf("error code = %q, want SCR001", code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)

	if !rl.allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if !rl.allow("1.2.3.4") {
		t.Fatal("second request should be allowed")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request should be rejected")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("other IPs should not share a bucket")
	}
}
