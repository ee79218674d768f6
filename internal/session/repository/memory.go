package repository

import (
	"context"
	"sync"

	"voteguard/gateway/internal/session/domain"
)

// MemoryRepository is an in-memory Repository for terminals running without a
// database and for tests. It round-trips through the same blob serialization
// as the Postgres repository so both stores share one persisted layout.
type MemoryRepository struct {
	mu  sync.Mutex
	raw []byte
}

// NewMemoryRepository returns an empty in-memory session repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load returns the stored session, or nil when absent or unparsable.
func (r *MemoryRepository) Load(ctx context.Context) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.raw == nil {
		return nil, nil
	}
	return unmarshalSession(r.raw), nil
}

// Save replaces the stored blob.
func (r *MemoryRepository) Save(ctx context.Context, s *domain.Session) error {
	raw, err := marshalSession(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.raw = raw
	r.mu.Unlock()
	return nil
}

// Clear removes the stored blob.
func (r *MemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.raw = nil
	r.mu.Unlock()
	return nil
}
