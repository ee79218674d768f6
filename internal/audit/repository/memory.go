package repository

import (
	"context"
	"sync"

	"voteguard/gateway/internal/audit/domain"
)

// MemoryRepository is an in-memory audit repository for tests and
// database-less terminals.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

// NewMemoryRepository returns an empty in-memory audit repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Create appends one audit entry.
func (r *MemoryRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	r.entries = append(r.entries, &e)
	return nil
}

// Entries returns a copy of all recorded entries.
func (r *MemoryRepository) Entries() []*domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditLog, len(r.entries))
	copy(out, r.entries)
	return out
}
