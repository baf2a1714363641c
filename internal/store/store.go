// Package store persists product records and listing templates in
// PostgreSQL. It is the only package that knows the table layout; the rest
// of the application works with the model types.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrTemplateNotFound is returned when a template id does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// ErrProductNotFound is returned when an item id does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrNoIdentity is returned when a record has neither an item_id nor a
// source_url and therefore cannot be de-duplicated.
var ErrNoIdentity = errors.New("record has no item_id or source_url")

// Store provides product and template persistence over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store and applies the schema.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
