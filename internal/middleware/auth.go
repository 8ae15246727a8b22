package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/pkg/jwt"
	"github.com/mapa-cultural/core/internal/pkg/response"
)

const (
	ContextKeyEmail = "session_email"
	TokenCookie     = "mapa_token"
)

// Auth returns a middleware that requires a valid session token.
func Auth(issuer *jwt.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := issuer.Parse(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// OptionalAuth records the session email when a valid token is present, without blocking.
func OptionalAuth(issuer *jwt.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, err := issuer.Parse(token); err == nil {
				c.Set(ContextKeyEmail, claims.Email)
			}
		}
		c.Next()
	}
}

// AdminOnly rejects requests whose session email is not the configured admin email.
// It must run after Auth.
func AdminOnly(adminEmail string) gin.HandlerFunc {
	want := normalizeEmail(adminEmail)
	return func(c *gin.Context) {
		if !IsAdminEmail(CurrentEmail(c), want) {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// IsAdminEmail compares two emails case-insensitively. An empty admin email never matches.
func IsAdminEmail(email, adminEmail string) bool {
	admin := normalizeEmail(adminEmail)
	return admin != "" && normalizeEmail(email) == admin
}

// CurrentEmail extracts the authenticated email from context.
func CurrentEmail(c *gin.Context) string {
	v, _ := c.Get(ContextKeyEmail)
	email, _ := v.(string)
	return email
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentEmail(c) != ""
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	if raw, err := c.Cookie(TokenCookie); err == nil {
		return NormalizeToken(raw)
	}
	return ""
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
