package repository

import (
	"context"
	"database/sql"

	"voteguard/gateway/internal/audit/domain"
)

// PostgresRepository persists audit entries to the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one audit entry.
func (r *PostgresRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, terminal_id, subject_id, action, resource, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.TerminalID, entry.SubjectID, entry.Action, entry.Resource, entry.Metadata, entry.CreatedAt,
	)
	return err
}
