package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/models"
)

const apiKeyContextKey = "api_key"

// Auth returns API-key authentication middleware for cfg.
//
// Keys are accepted from either header:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// When auth is disabled, or enabled with no usable key, every request passes.
// Keys are compared in constant time.
func Auth(cfg config.AuthConfig) gin.HandlerFunc {
	keys := usableKeys(cfg.APIKeys)
	if !cfg.Enabled || len(keys) == 0 {
		if cfg.Enabled {
			slog.Warn("auth enabled but no API keys configured; sneakers endpoint is open")
		}
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := extractAPIKey(c)
		if key == "" {
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized,
				"missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if !matchKey(keys, key) {
			abort(c, http.StatusUnauthorized, models.ErrCodeUnauthorized, "invalid API key")
			return
		}

		c.Set(apiKeyContextKey, key)
		c.Next()
	}
}

// usableKeys trims configured keys and drops blanks and duplicates.
func usableKeys(raw []string) [][]byte {
	seen := make(map[string]struct{}, len(raw))
	keys := make([][]byte, 0, len(raw))
	for _, k := range raw {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, []byte(k))
	}
	return keys
}

func matchKey(keys [][]byte, candidate string) bool {
	c := []byte(candidate)
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(k, c)
	}
	return match == 1
}

// abort stops the chain with the standard error body.
func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: code, Message: msg},
	})
}

// extractAPIKey tries X-API-Key first, then Authorization: Bearer.
func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
