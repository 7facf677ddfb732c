package auth

import (
	"context"
	"net/http"
	"strings"

	"pairchat/pkg/config"
	"pairchat/pkg/logger"
	"pairchat/pkg/utils"
)

type ctxIdentityKey struct{}
type ctxRoleKey struct{}

// Middleware checks the API key, applies per-key rate limiting and
// injects the caller's identity (X-Identity header) into the request
// context. With no keys configured every caller passes as frontend; that
// is the development mode.
func Middleware(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{rps: cfg.RateLimit.RPS, burst: cfg.RateLimit.Burst}
	frontend := keySet(cfg.APIKeys.Frontend)
	admin := keySet(cfg.APIKeys.Admin)
	open := len(frontend) == 0 && len(admin) == 0

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get("X-API-Key"))
			role := ""
			switch {
			case open:
				role = "frontend"
			case admin[key]:
				role = "admin"
			case frontend[key]:
				role = "frontend"
			default:
				logger.Warn("invalid_api_key", "path", r.URL.Path, "remote", r.RemoteAddr)
				utils.JSONError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			limitKey := key
			if limitKey == "" {
				limitKey = r.RemoteAddr
			}
			if !limiters.Allow(limitKey) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			ctx := context.WithValue(r.Context(), ctxRoleKey{}, role)
			if id := strings.TrimSpace(r.Header.Get("X-Identity")); id != "" {
				ctx = context.WithValue(ctx, ctxIdentityKey{}, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the caller's identity or empty string.
func IdentityFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxIdentityKey{}).(string); ok {
		return v
	}
	return ""
}

// RoleFromContext returns the caller's role or empty string.
func RoleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRoleKey{}).(string); ok {
		return v
	}
	return ""
}

func keySet(keys []string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k != "" {
			m[k] = true
		}
	}
	return m
}
