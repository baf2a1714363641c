package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/auctionworks/relister/internal/listing"
	"github.com/auctionworks/relister/internal/model"
	"github.com/auctionworks/relister/internal/observability"
	"github.com/auctionworks/relister/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListTemplates returns saved listing templates, optionally filtered
// by category and active flag.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	activeOnly := r.URL.Query().Get("active") == "true"

	templates, err := s.store.ListTemplates(r.Context(), category, activeOnly)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

// handleGetTemplate returns a single template by ID.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	template, err := s.store.GetTemplate(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrTemplateNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, err, status)
		return
	}

	writeJSON(w, template)
}

// handleCreateTemplate saves a new listing template. Placeholder tokens in
// the content are not validated here; they stay opaque until merge.
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req model.HTMLTemplate
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	template, err := s.store.CreateTemplate(r.Context(), req)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, template)
}

// handleUpdateTemplate replaces a template's fields.
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req model.HTMLTemplate
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	req.ID = chi.URLParam(r, "id")

	template, err := s.store.UpdateTemplate(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, store.ErrTemplateNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, err, status)
		return
	}

	writeJSON(w, template)
}

// handleDeleteTemplate removes a template.
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteTemplate(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrTemplateNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, r, err, status)
		return
	}

	writeJSON(w, map[string]string{"status": "deleted", "template_id": id})
}

// previewRequest is an ad-hoc template merged against a built-in sample
// product. Nothing is persisted.
type previewRequest struct {
	TemplateContent string `json:"template_content"`
	CSSStyles       string `json:"css_styles,omitempty"`
	SampleData      string `json:"sample_data,omitempty"`
}

type previewResponse struct {
	HTML                 string `json:"html"`
	SampleDataUsed       string `json:"sample_data_used"`
	PlaceholdersReplaced int    `json:"placeholders_replaced"`
}

// handlePreview merges submitted template content with a sample product
// profile. Unknown sample keys fall back to the default profile instead of
// failing.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if req.TemplateContent == "" {
		respondError(w, r, errors.New("template_content is required"), http.StatusBadRequest)
		return
	}

	sample, keyUsed := listing.SampleProfile(req.SampleData)
	tpl := model.HTMLTemplate{
		HTMLContent: req.TemplateContent,
		CSSStyles:   req.CSSStyles,
	}

	start := time.Now()
	result := listing.MergeRecord(tpl, sample)
	observability.MergeDuration.Observe(time.Since(start).Seconds())

	writeJSON(w, previewResponse{
		HTML:                 result.HTML,
		SampleDataUsed:       keyUsed,
		PlaceholdersReplaced: result.Replaced,
	})
}
