package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGuestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret")

	token, issued, err := auth.IssueGuestToken("Pepa")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued.IsGuest || issued.Username != "Pepa" || issued.UserID == "" {
		t.Fatalf("issued identity = %+v", issued)
	}

	parsed, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != issued {
		t.Errorf("parsed = %+v, want %+v", parsed, issued)
	}
}

func TestGuestTokenDefaultUsername(t *testing.T) {
	auth := NewAuthService("test-secret")

	_, issued, err := auth.IssueGuestToken("")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(issued.Username, "Hráč_") {
		t.Errorf("username = %q, want Hráč_ prefix", issued.Username)
	}
	if !strings.HasPrefix(issued.UserID, strings.TrimPrefix(issued.Username, "Hráč_")) {
		t.Errorf("username suffix %q should come from the id %q", issued.Username, issued.UserID)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewAuthService("secret-one").IssueGuestToken("Pepa")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewAuthService("secret-two").ParseToken(token); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	auth := NewAuthService("test-secret")

	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := auth.ParseToken(bad); err != ErrInvalidToken {
			t.Errorf("ParseToken(%q) err = %v, want ErrInvalidToken", bad, err)
		}
	}
}

func TestParseRejectsExpired(t *testing.T) {
	secret := "test-secret"
	past := time.Now().Add(-time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: "Pepa",
		Guest:    true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewAuthService(secret).ParseToken(signed); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken for expired token", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		Username: "Pepa",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user-1",
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewAuthService("test-secret").ParseToken(signed); err != ErrInvalidToken {
		t.Fatalf("err = %v, want ErrInvalidToken for alg=none", err)
	}
}
