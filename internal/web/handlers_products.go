package web

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/auctionworks/relister/internal/csvio"
	"github.com/auctionworks/relister/internal/logging"
	"github.com/auctionworks/relister/internal/model"
	"github.com/auctionworks/relister/internal/observability"
	"github.com/auctionworks/relister/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListProducts returns products, optionally filtered by listing status.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := parseIntParam(r, "limit", 100)

	products, err := s.store.ListProducts(r.Context(), status, limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// handleGetProduct returns a single product by item ID.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	product, err := s.store.GetProduct(r.Context(), itemID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, err, status)
		return
	}

	writeJSON(w, product)
}

// handleEditProduct applies a partial edit to a product. Only fields present
// in the request body change.
func (s *Server) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var edit store.ProductEdit
	if err := decodeJSONBody(r, &edit); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	product, err := s.store.UpdateProduct(r.Context(), itemID, edit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, err, status)
		return
	}

	writeJSON(w, product)
}

// handleApproveProduct marks a product ready for the listings export.
func (s *Server) handleApproveProduct(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := s.store.ApproveProduct(r.Context(), itemID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, err, status)
		return
	}

	writeJSON(w, map[string]string{"item_id": itemID, "listing_status": model.StatusApproved})
}

// handleCleanup deletes rows matching the dummy-data heuristic.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.CleanupDummyData(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("dummy data cleanup", "deleted", deleted)
	writeJSON(w, map[string]int64{"deleted": deleted})
}

// uploadNote reports one dropped or partially ingested row.
type uploadNote struct {
	Line   int    `json:"line,omitempty"`
	ItemID string `json:"item_id,omitempty"`
	Reason string `json:"reason"`
}

// uploadResponse summarises one CSV ingest.
type uploadResponse struct {
	Accepted  int          `json:"accepted"`
	Skipped   int          `json:"skipped"`
	Truncated bool         `json:"truncated"`
	Notes     []uploadNote `json:"notes,omitempty"`
}

// multipartOverhead is slack for boundary lines and part headers so a file
// right at the size cap is not rejected before the decoder checks it. The
// decoder enforces the exact cap on the file content itself.
const multipartOverhead = 64 << 10

// handleUpload ingests a raw-schema CSV into the product store. Rows that
// fail individually are noted and skipped, never fatal; only file-level
// problems abort the request.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, r, errors.New("file too large"), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, errors.New("invalid multipart form"), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		respondError(w, r, errors.New("invalid csv file extension"), http.StatusBadRequest)
		return
	}

	doc, err := csvio.Decode(file)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, csvio.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, r, err, status)
		return
	}

	resp := uploadResponse{Truncated: doc.Truncated}
	for _, n := range doc.Notes {
		resp.Notes = append(resp.Notes, uploadNote{Line: n.Line, Reason: n.Reason})
		resp.Skipped++
	}

	for _, row := range doc.Rows {
		rec := recordFromRow(row)
		if !rec.HasIdentity() {
			resp.Notes = append(resp.Notes, uploadNote{Reason: "row has no item_id or source_url"})
			resp.Skipped++
			continue
		}
		if err := s.store.UpsertProduct(r.Context(), rec); err != nil {
			resp.Notes = append(resp.Notes, uploadNote{ItemID: rec.ItemID, Reason: MapError(err).Message})
			resp.Skipped++
			continue
		}
		resp.Accepted++
	}

	observability.UploadRowsAccepted.Add(float64(resp.Accepted))
	observability.UploadRowsSkipped.Add(float64(resp.Skipped))

	logging.FromContext(r.Context()).Info("csv upload ingested",
		"filename", header.Filename,
		"accepted", resp.Accepted,
		"skipped", resp.Skipped,
		"truncated", resp.Truncated,
	)

	writeJSON(w, resp)
}

// recordFromRow maps one raw-schema CSV row onto a ProductRecord. Unknown
// columns are ignored; malformed counts and timestamps fall back to zero
// values rather than failing the row.
func recordFromRow(row map[string]string) model.ProductRecord {
	rec := model.ProductRecord{
		ItemID:        row["item_id"],
		Title:         row["title"],
		CurrentPrice:  row["current_price"],
		Currency:      "JPY",
		Description:   row["description"],
		ConditionName: row["condition_name"],
		CategoryName:  row["category_name"],
		PictureURL:    row["picture_url"],
		GalleryURL:    row["gallery_url"],
		SourceURL:     row["source_url"],
		ListingStatus: row["listing_status"],
	}

	if v, err := strconv.Atoi(strings.TrimSpace(row["watch_count"])); err == nil {
		rec.WatchCount = v
	}
	if t, err := time.Parse("2006-01-02 15:04:05", row["updated_at"]); err == nil {
		rec.UpdatedAt = t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", row["scraped_at"]); err == nil {
		rec.ScrapedAt = t
	}
	if rec.ListingStatus == "" {
		rec.ListingStatus = model.StatusPending
	}

	return rec
}
