package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotemill/quotemill/internal/platform/db"
)

var (
	ErrNotFound     = errors.New("quotation not found")
	ErrDuplicateRef = errors.New("quotation reference already exists")
	ErrNoDocument   = errors.New("no rendered document stored")
)

// Repository is the storage collaborator contract. The service never assumes
// a particular backing store; both the Postgres and the in-memory
// implementations satisfy it.
type Repository interface {
	Append(ctx context.Context, q Quotation) error
	GetByReference(ctx context.Context, reference string) (*Quotation, error)
	List(ctx context.Context, req ListQuotationsRequest) ([]QuotationSummary, int, error)
	ClearAll(ctx context.Context) error
	// CountByPrefix supports daily reference sequencing: it counts stored
	// quotations whose reference starts with the given prefix.
	CountByPrefix(ctx context.Context, prefix string) (int, error)

	SaveDocument(ctx context.Context, reference string, data []byte, renderedAt time.Time) error
	GetDocument(ctx context.Context, reference string) ([]byte, error)
	PurgeDocumentsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed quotation store. Quotations are
// stored as frozen JSONB snapshots keyed by reference; decimals round-trip as
// JSON strings so stored figures never drift.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Append(ctx context.Context, q Quotation) error {
	company, err := json.Marshal(q.Company)
	if err != nil {
		return fmt.Errorf("marshal company snapshot: %w", err)
	}
	client, err := json.Marshal(q.Client)
	if err != nil {
		return fmt.Errorf("marshal client snapshot: %w", err)
	}
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	totals, err := json.Marshal(q.Totals)
	if err != nil {
		return fmt.Errorf("marshal totals: %w", err)
	}
	terms, err := json.Marshal(q.Terms)
	if err != nil {
		return fmt.Errorf("marshal terms: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO quotations (reference, quote_date, validity_days, valid_until, subject,
		                        company, client, items, totals, terms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, q.Reference, q.QuoteDate, q.ValidityDays, q.ValidUntil, q.Subject,
		company, client, items, totals, terms, q.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRef
		}
		return fmt.Errorf("insert quotation: %w", err)
	}
	return nil
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Quotation, error) {
	var (
		q                                     Quotation
		company, client, items, totals, terms []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT reference, quote_date, validity_days, valid_until, subject,
		       company, client, items, totals, terms, created_at
		FROM quotations
		WHERE reference = $1
	`, reference).Scan(&q.Reference, &q.QuoteDate, &q.ValidityDays, &q.ValidUntil, &q.Subject,
		&company, &client, &items, &totals, &terms, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get quotation: %w", err)
	}

	if err := json.Unmarshal(company, &q.Company); err != nil {
		return nil, fmt.Errorf("unmarshal company snapshot: %w", err)
	}
	if err := json.Unmarshal(client, &q.Client); err != nil {
		return nil, fmt.Errorf("unmarshal client snapshot: %w", err)
	}
	if err := json.Unmarshal(items, &q.Items); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	if err := json.Unmarshal(totals, &q.Totals); err != nil {
		return nil, fmt.Errorf("unmarshal totals: %w", err)
	}
	if err := json.Unmarshal(terms, &q.Terms); err != nil {
		return nil, fmt.Errorf("unmarshal terms: %w", err)
	}
	return &q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotations: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT reference, quote_date,
		       client->>'name',
		       totals->>'total_amount',
		       jsonb_array_length(items),
		       created_at
		FROM quotations
		ORDER BY created_at DESC, reference DESC
		LIMIT $1 OFFSET $2
	`, limit, req.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotations: %w", err)
	}
	defer rows.Close()

	var summaries []QuotationSummary
	for rows.Next() {
		var (
			s           QuotationSummary
			totalAmount string
		)
		if err := rows.Scan(&s.Reference, &s.QuoteDate, &s.ClientName, &totalAmount, &s.ItemCount, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := s.TotalAmount.UnmarshalText([]byte(totalAmount)); err != nil {
			return nil, 0, fmt.Errorf("parse total for %s: %w", s.Reference, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

// ClearAll wipes history and any rendered documents together.
func (r *repository) ClearAll(ctx context.Context) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM quotation_documents`); err != nil {
			return fmt.Errorf("clear documents: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM quotations`); err != nil {
			return fmt.Errorf("clear quotations: %w", err)
		}
		return nil
	})
}

func (r *repository) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quotations WHERE reference LIKE $1 || '%'`, prefix,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by prefix: %w", err)
	}
	return count, nil
}

func (r *repository) SaveDocument(ctx context.Context, reference string, data []byte, renderedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quotation_documents (reference, data, rendered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (reference)
		DO UPDATE SET data = EXCLUDED.data, rendered_at = EXCLUDED.rendered_at
	`, reference, data, renderedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (r *repository) GetDocument(ctx context.Context, reference string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT data FROM quotation_documents WHERE reference = $1`, reference,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return data, nil
}

func (r *repository) PurgeDocumentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM quotation_documents WHERE rendered_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge documents: %w", err)
	}
	return tag.RowsAffected(), nil
}
