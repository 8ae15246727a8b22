package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultSecret = "mapa-cultural-secret-change-me"

// Issuer signs and verifies admin session tokens.
// Tokens minted by the hosted auth service with the same HS256 secret verify as well.
type Issuer struct {
	secret []byte
}

// NewIssuer builds an Issuer; an empty secret falls back to the built-in default.
func NewIssuer(secret string) *Issuer {
	if strings.TrimSpace(secret) == "" {
		secret = defaultSecret
	}
	return &Issuer{secret: []byte(secret)}
}

// UsesDefaultSecret reports whether the insecure built-in secret is active.
func (i *Issuer) UsesDefaultSecret() bool {
	return string(i.secret) == defaultSecret
}

// Claims is the JWT payload.
type Claims struct {
	Email string `json:"email"`
	jwtlib.RegisteredClaims
}

// Sign creates a signed token for the given email.
func (i *Issuer) Sign(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strings.ToLower(strings.TrimSpace(email)),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates a token string and returns the claims.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Email) == "" {
		return nil, errors.New("token has no email")
	}
	return claims, nil
}
