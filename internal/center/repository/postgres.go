package repository

import (
	"context"
	"database/sql"
	"errors"

	"voteguard/gateway/internal/center/domain"
)

// PostgresRepository stores the binding in a single terminal-keyed row of the
// center_bindings table.
type PostgresRepository struct {
	db         *sql.DB
	terminalID string
}

// NewPostgresRepository returns a binding repository keyed by terminalID.
func NewPostgresRepository(db *sql.DB, terminalID string) *PostgresRepository {
	return &PostgresRepository{db: db, terminalID: terminalID}
}

// Load returns the stored binding, or nil when none exists.
func (r *PostgresRepository) Load(ctx context.Context) (*domain.Binding, error) {
	var b domain.Binding
	err := r.db.QueryRowContext(ctx,
		`SELECT election_code, encoded_token, location, activated_at
		 FROM center_bindings WHERE terminal_id = $1`,
		r.terminalID,
	).Scan(&b.ElectionCode, &b.EncodedToken, &b.Location, &b.ActivatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Save upserts the terminal's binding row.
func (r *PostgresRepository) Save(ctx context.Context, b *domain.Binding) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO center_bindings (terminal_id, election_code, encoded_token, location, activated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (terminal_id) DO UPDATE SET
		   election_code = EXCLUDED.election_code,
		   encoded_token = EXCLUDED.encoded_token,
		   location = EXCLUDED.location,
		   activated_at = EXCLUDED.activated_at`,
		r.terminalID, b.ElectionCode, b.EncodedToken, b.Location, b.ActivatedAt,
	)
	return err
}
