package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/auctionworks/relister/internal/model"
)

const templateColumns = `id, name, category, description, html_content, css_styles, active, created_at`

// CreateTemplate saves a new listing template. html_content is the only
// required field; placeholder tokens inside it are not validated at save
// time, they are opaque until merge.
func (s *Store) CreateTemplate(ctx context.Context, t model.HTMLTemplate) (*model.HTMLTemplate, error) {
	if t.HTMLContent == "" {
		return nil, fmt.Errorf("html_content is required")
	}
	if t.Name == "" {
		return nil, fmt.Errorf("template_name is required")
	}
	if t.Category == "" {
		t.Category = "general"
	}

	t.ID = uuid.New().String()
	t.Active = true

	err := s.pool.QueryRow(ctx, `
		INSERT INTO listing_templates (id, name, category, description, html_content, css_styles, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		t.ID, t.Name, t.Category, t.Description, t.HTMLContent, t.CSSStyles, t.Active,
	).Scan(&t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return &t, nil
}

// GetTemplate fetches a template by id.
func (s *Store) GetTemplate(ctx context.Context, id string) (*model.HTMLTemplate, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrTemplateNotFound, id)
	}

	row := s.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM listing_templates WHERE id = $1`, uid)
	t, err := scanTemplate(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns templates newest-first, optionally filtered by
// category and active flag.
func (s *Store) ListTemplates(ctx context.Context, category string, activeOnly bool) ([]model.HTMLTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM listing_templates WHERE 1=1`
	args := []interface{}{}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []model.HTMLTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateTemplate replaces a template wholesale. There is no partial patch;
// callers send the full document.
func (s *Store) UpdateTemplate(ctx context.Context, t model.HTMLTemplate) (*model.HTMLTemplate, error) {
	if t.HTMLContent == "" {
		return nil, fmt.Errorf("html_content is required")
	}
	uid, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrTemplateNotFound, t.ID)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE listing_templates
		SET name=$2, category=$3, description=$4, html_content=$5, css_styles=$6, active=$7
		WHERE id=$1`,
		uid, t.Name, t.Category, t.Description, t.HTMLContent, t.CSSStyles, t.Active)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, t.ID)
	}
	return s.GetTemplate(ctx, t.ID)
}

// DeleteTemplate hard-deletes a template.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrTemplateNotFound, id)
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM listing_templates WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return nil
}

func scanTemplate(row interface{ Scan(...interface{}) error }) (*model.HTMLTemplate, error) {
	var t model.HTMLTemplate
	var id uuid.UUID
	err := row.Scan(&id, &t.Name, &t.Category, &t.Description,
		&t.HTMLContent, &t.CSSStyles, &t.Active, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.ID = id.String()
	return &t, nil
}
