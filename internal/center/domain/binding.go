package domain

import (
	"errors"
	"time"
)

// Binding records which election this terminal was activated for: the raw
// election code confirmed by the backend, the URL-safe token derived from it,
// and where and when the activation happened.
type Binding struct {
	ElectionCode string
	EncodedToken string
	Location     string
	ActivatedAt  time.Time
}

// Validate checks the invariants of a stored binding.
func (b *Binding) Validate() error {
	if b.ElectionCode == "" {
		return errors.New("center: election code is required")
	}
	if b.EncodedToken == "" {
		return errors.New("center: encoded token is required")
	}
	return nil
}
