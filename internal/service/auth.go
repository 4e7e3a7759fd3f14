// Package service holds the identity layer: guest token minting and parsing.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const guestTokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated player behind a socket.
type Identity struct {
	UserID   string
	Username string
	IsGuest  bool
}

type claims struct {
	Username string `json:"username"`
	Guest    bool   `json:"guest"`
	jwt.RegisteredClaims
}

// AuthService signs and verifies the portal's JWTs.
type AuthService struct {
	secret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// IssueGuestToken mints a fresh guest identity. An empty username gets the
// Hráč_<id prefix> default so the lobby never shows a blank name.
func (a *AuthService) IssueGuestToken(username string) (string, Identity, error) {
	id := uuid.NewString()
	if username == "" {
		username = "Hráč_" + id[:6]
	}

	identity := Identity{UserID: id, Username: username, IsGuest: true}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		Guest:    true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(guestTokenTTL)),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("sign guest token: %w", err)
	}
	return signed, identity, nil
}

// ParseToken verifies the signature and expiry and returns the identity.
func (a *AuthService) ParseToken(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if c.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID:   c.Subject,
		Username: c.Username,
		IsGuest:  c.Guest,
	}, nil
}
