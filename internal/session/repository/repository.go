package repository

import (
	"context"

	"voteguard/gateway/internal/session/domain"
)

// Repository persists the terminal's single session as one serialized blob.
// Load returns (nil, nil) when no session is stored or the blob is unparsable;
// Save replaces the blob atomically; Clear removes it.
type Repository interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Clear(ctx context.Context) error
}
