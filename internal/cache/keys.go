package cache

// KeyProduct is the catalog snapshot key for a product id.
func KeyProduct(id string) string {
	return "catalog:product:" + id
}

// KeyProductGeneration counts invalidations of a product snapshot.
func KeyProductGeneration(id string) string {
	return "catalog:product-gen:" + id
}

// KeyVerification scopes a verification code to a product and action.
func KeyVerification(action, productID string) string {
	return "verify:" + action + ":" + productID
}

// KeyRateLimit prefixes limiter buckets per route family.
func KeyRateLimit(route string) string {
	return "ratelimit:" + route
}
