package cache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-engine/internal/cache"
)

func TestKeys(t *testing.T) {
	require.Equal(t, "catalog:product:p1", cache.KeyProduct("p1"))
	require.Equal(t, "catalog:product-gen:p1", cache.KeyProductGeneration("p1"))
	require.Equal(t, "verify:archive:p1", cache.KeyVerification("archive", "p1"))
	require.Equal(t, "ratelimit:verification-code", cache.KeyRateLimit("verification-code"))
}
