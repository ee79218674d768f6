package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"voteguard/gateway/internal/session/domain"
)

// PostgresRepository stores the session blob in a single terminal-keyed row.
type PostgresRepository struct {
	db         *sql.DB
	terminalID string
}

// NewPostgresRepository returns a session repository persisting under the
// given terminal id.
func NewPostgresRepository(db *sql.DB, terminalID string) *PostgresRepository {
	return &PostgresRepository{db: db, terminalID: terminalID}
}

// Load returns the stored session, or nil when absent or unparsable.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Load(ctx context.Context) (*domain.Session, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT blob FROM terminal_sessions WHERE terminal_id = $1`,
		r.terminalID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return unmarshalSession(raw), nil
}

// Save upserts the session blob in one statement, so readers never observe a
// partial write.
func (r *PostgresRepository) Save(ctx context.Context, s *domain.Session) error {
	raw, err := marshalSession(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO terminal_sessions (terminal_id, blob, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (terminal_id) DO UPDATE SET blob = $2, updated_at = $3`,
		r.terminalID, raw, time.Now().UTC(),
	)
	return err
}

// Clear removes the session blob. Clearing an absent row is not an error.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM terminal_sessions WHERE terminal_id = $1`,
		r.terminalID,
	)
	return err
}
