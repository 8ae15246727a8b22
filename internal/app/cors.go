package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mapa-cultural/core/internal/config"
)

// newCORS allows every origin in development. In production only the public URL
// and the allowed_origins patterns are accepted.
func newCORS(cfg *config.AppConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Idempotence-Key"},
		ExposeHeaders:    []string{"Content-Length", "X-Mapa-Cache"},
		AllowCredentials: true,
	}
	if cfg.IsDev() {
		c.AllowOriginFunc = func(string) bool { return true }
		return cors.New(c)
	}

	patterns := append([]string{extractOriginHost(cfg.PublicURL)}, cfg.AllowedOrigins...)
	c.AllowOriginFunc = func(origin string) bool {
		host := extractOriginHost(origin)
		for _, pattern := range patterns {
			if matchOriginPattern(extractOriginHost(pattern), host) {
				return true
			}
		}
		return false
	}
	return cors.New(c)
}

// extractOriginHost returns the "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOriginPattern supports exact hosts, "*.example.org" and "host:*".
func matchOriginPattern(pattern, host string) bool {
	switch {
	case pattern == "":
		return false
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
