package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, sub, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestClaimsFromToken(t *testing.T) {
	exp := time.Now().Add(1 * time.Hour).Truncate(time.Second)
	token := signedToken(t, "V001", "VOTER", exp)

	claims, err := ClaimsFromToken(token)
	if err != nil {
		t.Fatalf("ClaimsFromToken: %v", err)
	}
	if claims.Subject != "V001" {
		t.Errorf("Subject = %q, want V001", claims.Subject)
	}
	if claims.Role != "VOTER" {
		t.Errorf("Role = %q, want VOTER", claims.Role)
	}
	if !claims.ExpiresAt.Equal(exp.UTC()) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, exp.UTC())
	}
}

func TestClaimsFromToken_Malformed(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b", "a.b.c"} {
		if _, err := ClaimsFromToken(token); err == nil {
			t.Errorf("ClaimsFromToken(%q) succeeded, want error", token)
		}
	}
}

func TestClaimsFromToken_MissingClaims(t *testing.T) {
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "V001"}).
		SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ClaimsFromToken(noExp); err == nil {
		t.Error("token without exp accepted, want error")
	}

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).
		SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := ClaimsFromToken(noSub); err == nil {
		t.Error("token without sub accepted, want error")
	}
}
