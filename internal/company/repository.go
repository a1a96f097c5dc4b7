package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoProfile indicates no configuration has been saved yet; callers fall
// back to DefaultProfile.
var ErrNoProfile = errors.New("company profile not configured")

// ErrNoLogo indicates no logo has been uploaded.
var ErrNoLogo = errors.New("company logo not uploaded")

// Repository persists the single company profile row.
type Repository interface {
	Get(ctx context.Context) (*Profile, error)
	Save(ctx context.Context, p Profile) error
	Logo(ctx context.Context) ([]byte, error)
	SaveLogo(ctx context.Context, data []byte) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed profile store. The table holds a
// single row; saving overwrites it wholesale.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT name, address, email, phone, gst_number, msme_number,
		       warranty, cancellation, penalty
		FROM company_profile
		WHERE id = 1
	`).Scan(&p.Name, &p.Address, &p.Email, &p.Phone, &p.GSTNumber, &p.MSMENumber,
		&p.Warranty, &p.Cancellation, &p.Penalty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("get company profile: %w", err)
	}
	return &p, nil
}

func (r *repository) Save(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_profile (id, name, address, email, phone, gst_number, msme_number,
		                             warranty, cancellation, penalty, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address, email = EXCLUDED.email,
		              phone = EXCLUDED.phone, gst_number = EXCLUDED.gst_number,
		              msme_number = EXCLUDED.msme_number, warranty = EXCLUDED.warranty,
		              cancellation = EXCLUDED.cancellation, penalty = EXCLUDED.penalty,
		              updated_at = NOW()
	`, p.Name, p.Address, p.Email, p.Phone, p.GSTNumber, p.MSMENumber,
		p.Warranty, p.Cancellation, p.Penalty)
	if err != nil {
		return fmt.Errorf("save company profile: %w", err)
	}
	return nil
}

func (r *repository) Logo(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT logo FROM company_profile WHERE id = 1 AND logo IS NOT NULL`,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoLogo
		}
		return nil, fmt.Errorf("get company logo: %w", err)
	}
	return data, nil
}

func (r *repository) SaveLogo(ctx context.Context, data []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_profile (id, name, logo, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id)
		DO UPDATE SET logo = EXCLUDED.logo, updated_at = NOW()
	`, DefaultProfile().Name, data)
	if err != nil {
		return fmt.Errorf("save company logo: %w", err)
	}
	return nil
}
