package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/auctionworks/relister/internal/export"
	"github.com/auctionworks/relister/internal/logging"
	"github.com/auctionworks/relister/internal/model"
	"github.com/auctionworks/relister/internal/observability"
	"github.com/auctionworks/relister/internal/store"
)

// handleExportRaw downloads every stored product in the raw scrape schema.
// An optional status query narrows the selection.
func (s *Server) handleExportRaw(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit := parseIntParam(r, "limit", 1000)

	records, err := s.store.ListProducts(r.Context(), status, limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	d := s.exports.Raw(records)
	observability.ExportsTotal.WithLabelValues("raw").Inc()
	s.writeDownload(w, r, d)
}

// handleExportBlank downloads the marketplace schema with one illustrative
// sample row, for spreadsheet users who want the column layout.
func (s *Server) handleExportBlank(w http.ResponseWriter, r *http.Request) {
	d := s.exports.Blank(r.Context())
	observability.ExportsTotal.WithLabelValues("blank").Inc()
	s.writeDownload(w, r, d)
}

// handleExportListings downloads approved products as marketplace listing
// rows, with descriptions merged through a stored template. template_id is
// optional; the built-in default template applies when absent.
func (s *Server) handleExportListings(w http.ResponseWriter, r *http.Request) {
	var tpl *model.HTMLTemplate
	if id := r.URL.Query().Get("template_id"); id != "" {
		t, err := s.store.GetTemplate(r.Context(), id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrTemplateNotFound) {
				status = http.StatusNotFound
			}
			respondError(w, r, err, status)
			return
		}
		tpl = t
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.StatusApproved
	}
	limit := parseIntParam(r, "limit", 1000)

	records, err := s.store.ListProducts(r.Context(), status, limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	d := s.exports.Listings(r.Context(), records, tpl)
	observability.ExportsTotal.WithLabelValues("listings").Inc()
	s.writeDownload(w, r, d)
}

// writeDownload sends a fully assembled CSV. The body is complete before
// the first header is written, so a failed export never leaves a partial
// file on the client. Row-level notes travel in a header, keeping the body
// pure CSV.
func (s *Server) writeDownload(w http.ResponseWriter, r *http.Request, d export.Download) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Body)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	if len(d.Notes) > 0 {
		w.Header().Set("X-Row-Notes", strconv.Itoa(len(d.Notes)))
	}

	if _, err := w.Write(d.Body); err != nil {
		logging.FromContext(r.Context()).Error("download write failed",
			"filename", d.Filename, "error", err)
		return
	}

	logging.FromContext(r.Context()).Info("csv export served",
		"filename", d.Filename,
		"bytes", len(d.Body),
		"notes", len(d.Notes),
	)
}
