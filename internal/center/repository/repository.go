package repository

import (
	"context"

	"voteguard/gateway/internal/center/domain"
)

// Repository persists this terminal's center binding. One binding per
// terminal; saving replaces any previous one.
type Repository interface {
	// Load returns the stored binding, or nil when the terminal has never
	// been activated.
	Load(ctx context.Context) (*domain.Binding, error)

	// Save stores the binding, replacing any previous one.
	Save(ctx context.Context, b *domain.Binding) error
}
