package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the idempotent DDL for the application tables. Quotation
// records are frozen snapshots, so the row shape is a reference key plus
// JSONB documents rather than normalized columns.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS quotations (
		reference   TEXT PRIMARY KEY,
		quote_date  DATE NOT NULL,
		company     JSONB NOT NULL,
		client      JSONB NOT NULL,
		items       JSONB NOT NULL,
		totals      JSONB NOT NULL,
		terms       JSONB NOT NULL,
		subject     TEXT NOT NULL DEFAULT '',
		validity_days INTEGER NOT NULL,
		valid_until DATE NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quotations_created_at ON quotations (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS quotation_documents (
		reference   TEXT PRIMARY KEY REFERENCES quotations(reference) ON DELETE CASCADE,
		data        BYTEA NOT NULL,
		rendered_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS company_profile (
		id           INTEGER PRIMARY KEY CHECK (id = 1),
		name         TEXT NOT NULL,
		address      TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		gst_number   TEXT NOT NULL DEFAULT '',
		msme_number  TEXT NOT NULL DEFAULT '',
		warranty     TEXT NOT NULL DEFAULT '',
		cancellation TEXT NOT NULL DEFAULT '',
		penalty      TEXT NOT NULL DEFAULT '',
		logo         BYTEA,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the application schema. Every statement is idempotent, so
// running it on each startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: migrate: %w", err)
		}
	}
	return nil
}
