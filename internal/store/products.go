package store

import (
	"context"
	"fmt"
	"time"

	"github.com/auctionworks/relister/internal/model"
)

const productColumns = `item_id, title, current_price, currency, description,
condition_name, category_name, picture_url, gallery_url, source_url, brand,
watch_count, listing_status, shipping_info, return_policy, location,
scraped_at, updated_at`

// UpsertProduct inserts a record or refreshes an existing one. Either key
// de-duplicates: a record matching a stored row by item_id or by source_url
// refreshes that row. A record with neither key is rejected.
func (s *Store) UpsertProduct(ctx context.Context, rec model.ProductRecord) error {
	if !rec.HasIdentity() {
		return ErrNoIdentity
	}
	if rec.ItemID == "" {
		// Source URL is the only key we have; derive a stable item id so the
		// primary key holds.
		rec.ItemID = rec.SourceURL
	}
	if rec.ListingStatus == "" {
		rec.ListingStatus = model.StatusPending
	}
	if rec.Currency == "" {
		rec.Currency = "JPY"
	}
	if rec.ScrapedAt.IsZero() {
		rec.ScrapedAt = time.Now()
	}

	// The same source_url may already be stored under another item_id, where
	// the unique index would reject the insert. Land the record on that row
	// instead.
	if rec.SourceURL != "" {
		var stored string
		err := s.pool.QueryRow(ctx,
			`SELECT item_id FROM products WHERE source_url = $1`, rec.SourceURL).Scan(&stored)
		if err != nil && !isNoRows(err) {
			return fmt.Errorf("resolve product by source_url %s: %w", rec.SourceURL, err)
		}
		if err == nil {
			id, rekey := resolveConflictKey(rec.ItemID, rec.SourceURL, stored)
			if rekey {
				if _, err := s.pool.Exec(ctx,
					`UPDATE products SET item_id = $1 WHERE item_id = $2`, id, stored); err != nil {
					return fmt.Errorf("rekey product %s: %w", stored, err)
				}
			}
			rec.ItemID = id
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now())
		ON CONFLICT (item_id) DO UPDATE SET
			title = EXCLUDED.title,
			current_price = EXCLUDED.current_price,
			currency = EXCLUDED.currency,
			description = EXCLUDED.description,
			condition_name = EXCLUDED.condition_name,
			category_name = EXCLUDED.category_name,
			picture_url = EXCLUDED.picture_url,
			gallery_url = EXCLUDED.gallery_url,
			source_url = EXCLUDED.source_url,
			brand = EXCLUDED.brand,
			watch_count = EXCLUDED.watch_count,
			updated_at = now()`,
		rec.ItemID, rec.Title, rec.CurrentPrice, rec.Currency, rec.Description,
		rec.ConditionName, rec.CategoryName, rec.PictureURL, rec.GalleryURL,
		rec.SourceURL, rec.Brand, rec.WatchCount, rec.ListingStatus,
		rec.ShippingInfo, rec.ReturnPolicy, rec.Location, rec.ScrapedAt)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", rec.ItemID, err)
	}
	return nil
}

// resolveConflictKey picks the item_id an incoming record lands on when a
// stored row already holds its source_url. A URL-derived incoming id defers
// to the stored id; a real auction id takes over the row, so the scraped and
// re-uploaded copies of a listing stay one record.
func resolveConflictKey(incomingID, sourceURL, storedID string) (id string, rekey bool) {
	if storedID == incomingID {
		return incomingID, false
	}
	if incomingID == sourceURL {
		return storedID, false
	}
	return incomingID, true
}

// GetProduct fetches one record by item id.
func (s *Store) GetProduct(ctx context.Context, itemID string) (*model.ProductRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE item_id = $1`, itemID)
	rec, err := scanProduct(row)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, itemID)
		}
		return nil, fmt.Errorf("get product %s: %w", itemID, err)
	}
	return rec, nil
}

// ListProducts returns records ordered newest-first. status filters by
// listing_status when non-empty; limit <= 0 means no limit beyond 1000.
func (s *Store) ListProducts(ctx context.Context, status string, limit int) ([]model.ProductRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	query := `SELECT ` + productColumns + ` FROM products`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE listing_status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY scraped_at DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []model.ProductRecord
	for rows.Next() {
		rec, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ProductEdit carries the fields a user may change before export. Nil
// means "leave unchanged".
type ProductEdit struct {
	Title         *string `json:"title,omitempty"`
	CurrentPrice  *string `json:"current_price,omitempty"`
	Description   *string `json:"description,omitempty"`
	ConditionName *string `json:"condition_name,omitempty"`
	Brand         *string `json:"brand,omitempty"`
	CategoryName  *string `json:"category_name,omitempty"`
}

// UpdateProduct applies an edit to one record.
func (s *Store) UpdateProduct(ctx context.Context, itemID string, edit ProductEdit) (*model.ProductRecord, error) {
	rec, err := s.GetProduct(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if edit.Title != nil {
		rec.Title = *edit.Title
	}
	if edit.CurrentPrice != nil {
		rec.CurrentPrice = *edit.CurrentPrice
	}
	if edit.Description != nil {
		rec.Description = *edit.Description
	}
	if edit.ConditionName != nil {
		rec.ConditionName = *edit.ConditionName
	}
	if edit.Brand != nil {
		rec.Brand = *edit.Brand
	}
	if edit.CategoryName != nil {
		rec.CategoryName = *edit.CategoryName
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE products SET title=$2, current_price=$3, description=$4,
			condition_name=$5, brand=$6, category_name=$7, updated_at=now()
		WHERE item_id = $1`,
		itemID, rec.Title, rec.CurrentPrice, rec.Description,
		rec.ConditionName, rec.Brand, rec.CategoryName)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", itemID, err)
	}
	return rec, nil
}

// ApproveProduct marks a record ready for export.
func (s *Store) ApproveProduct(ctx context.Context, itemID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET listing_status=$2, updated_at=now() WHERE item_id=$1`,
		itemID, model.StatusApproved)
	if err != nil {
		return fmt.Errorf("approve product %s: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, itemID)
	}
	return nil
}

// DummyTitleMarkers are the title substrings the cleanup treats as test
// data. The exact boundary of this heuristic is inherited behavior, not a
// confirmed business rule.
var DummyTitleMarkers = []string{"test", "テスト", "dummy", "sample"}

// CleanupDummyData removes records that look like leftovers from testing:
// titles containing a known marker, or stale records older than seven days
// that never got a description. Returns the number of rows deleted.
func (s *Store) CleanupDummyData(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM products
		WHERE title ILIKE ANY($1)
		   OR (description = '' AND scraped_at < now() - interval '7 days')`,
		markerPatterns())
	if err != nil {
		return 0, fmt.Errorf("cleanup dummy data: %w", err)
	}
	return tag.RowsAffected(), nil
}

func markerPatterns() []string {
	patterns := make([]string, len(DummyTitleMarkers))
	for i, m := range DummyTitleMarkers {
		patterns[i] = "%" + m + "%"
	}
	return patterns
}

// Stats is the dashboard summary.
type Stats struct {
	TotalProducts int64      `json:"total_products"`
	Pending       int64      `json:"pending"`
	Approved      int64      `json:"approved"`
	Listed        int64      `json:"listed"`
	AveragePrice  float64    `json:"average_price_jpy"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// GetStats runs the dashboard aggregate in a single query.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE listing_status = 'pending'),
		       count(*) FILTER (WHERE listing_status = 'approved'),
		       count(*) FILTER (WHERE listing_status = 'listed'),
		       coalesce(avg(nullif(regexp_replace(current_price, '[^0-9.]', '', 'g'), '')::numeric), 0),
		       max(scraped_at)
		FROM products`).Scan(
		&st.TotalProducts, &st.Pending, &st.Approved, &st.Listed,
		&st.AveragePrice, &st.LastScrapedAt)
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	return &st, nil
}

func scanProduct(row interface{ Scan(...interface{}) error }) (*model.ProductRecord, error) {
	var rec model.ProductRecord
	err := row.Scan(
		&rec.ItemID, &rec.Title, &rec.CurrentPrice, &rec.Currency,
		&rec.Description, &rec.ConditionName, &rec.CategoryName,
		&rec.PictureURL, &rec.GalleryURL, &rec.SourceURL, &rec.Brand,
		&rec.WatchCount, &rec.ListingStatus, &rec.ShippingInfo,
		&rec.ReturnPolicy, &rec.Location, &rec.ScrapedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
