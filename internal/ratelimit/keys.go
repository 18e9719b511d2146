package ratelimit

import (
	"net/http"

	"github.com/noah-isme/storefront-engine/internal/cache"
	"github.com/noah-isme/storefront-engine/internal/common"
)

// ByIP buckets requests to route per client address.
func ByIP(route string) func(*http.Request) string {
	return func(r *http.Request) string {
		return cache.KeyRateLimit(route) + ":ip:" + common.ClientIP(r)
	}
}

// ByUser buckets requests to route per authenticated user, falling back to
// the client address for anonymous callers.
func ByUser(route string) func(*http.Request) string {
	return func(r *http.Request) string {
		if id, ok := common.UserID(r.Context()); ok {
			return cache.KeyRateLimit(route) + ":user:" + id
		}
		return cache.KeyRateLimit(route) + ":ip:" + common.ClientIP(r)
	}
}
