package backend

import (
	"errors"
	"strings"
	"time"
)

// ErrBadTimestamp is returned when an expiry string matches no known wire format.
var ErrBadTimestamp = errors.New("unparsable timestamp")

// The collaborator is inconsistent about expiry timestamps: the canonical form
// is RFC3339 UTC, but some endpoints emit a zone-less LocalDateTime (e.g.
// "2026-08-29T12:02:00" or with fractional seconds). Zone-less values are
// interpreted as UTC.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// ParseTimestamp parses an expiry string from the wire. Returns ErrBadTimestamp
// when no format matches; never panics on garbage input.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	for _, layout := range timestampFormats {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadTimestamp
}
