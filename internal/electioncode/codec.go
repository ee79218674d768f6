// Package electioncode encodes and decodes the 6-character election code used
// in voter-facing URL paths.
//
// The encoding is obfuscation, not protection: a fixed salt is prepended and
// the result is base64-encoded with URL-safe substitutions. Anyone with the
// salt can reverse it. Kept deliberately weak to preserve the URL contract
// with existing voting-center front ends.
package electioncode

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// salt prefixes every encoded code so decode can reject foreign tokens.
const salt = "VoteGuard2024"

var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// IsValidCode reports whether code, after trimming, is exactly 6 alphanumeric
// characters. Case-insensitive.
func IsValidCode(code string) bool {
	return codePattern.MatchString(strings.TrimSpace(code))
}

// Encode returns a URL-path-safe token for the given election code, or "" if
// the code is empty. The token is base64(salt+code) with '+'->'-', '/'->'_'
// and '=' padding stripped.
func Encode(code string) string {
	if code == "" {
		return ""
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(salt + code))
	encoded = strings.ReplaceAll(encoded, "+", "-")
	encoded = strings.ReplaceAll(encoded, "/", "_")
	return strings.TrimRight(encoded, "=")
}

// Decode reverses Encode. Returns the original election code, or "" for any
// malformed token (bad base64, missing salt prefix). Never panics; callers
// treat "" as fail-closed.
func Decode(token string) string {
	if token == "" {
		return ""
	}
	b64 := strings.ReplaceAll(token, "-", "+")
	b64 = strings.ReplaceAll(b64, "_", "/")
	if pad := len(b64) % 4; pad != 0 {
		b64 += strings.Repeat("=", 4-pad)
	}
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return ""
	}
	s := string(decoded)
	if !strings.HasPrefix(s, salt) {
		return ""
	}
	return s[len(salt):]
}
