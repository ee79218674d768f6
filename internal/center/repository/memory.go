package repository

import (
	"context"
	"sync"

	"voteguard/gateway/internal/center/domain"
)

// MemoryRepository is an in-memory Repository for database-less terminals and
// tests.
type MemoryRepository struct {
	mu sync.Mutex
	b  *domain.Binding
}

// NewMemoryRepository returns an empty in-memory binding repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load returns the stored binding, or nil when none exists.
func (r *MemoryRepository) Load(ctx context.Context) (*domain.Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.b == nil {
		return nil, nil
	}
	copied := *r.b
	return &copied, nil
}

// Save replaces the stored binding.
func (r *MemoryRepository) Save(ctx context.Context, b *domain.Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *b
	r.b = &copied
	return nil
}
