package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// StockDecrementTotal counts decrement attempts by stock scope and outcome.
	StockDecrementTotal *prometheus.CounterVec
	// StatusTransitionTotal counts product lifecycle changes by action and outcome.
	StatusTransitionTotal *prometheus.CounterVec
	// VerificationTotal counts verification code issue/verify outcomes.
	VerificationTotal *prometheus.CounterVec
	// DiscountOpsTotal counts discount window mutations.
	DiscountOpsTotal *prometheus.CounterVec
	// DiscountCleanupProducts counts products detached from expired windows.
	DiscountCleanupProducts prometheus.Counter
	// CatalogCacheTotal counts product snapshot cache lookups by result.
	CatalogCacheTotal *prometheus.CounterVec
	// RateLimitedTotal counts requests rejected by a named limiter.
	RateLimitedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		StockDecrementTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_decrement_total",
			Help:      "Count of stock decrement outcomes.",
		}, []string{"scope", "result"}))
		StatusTransitionTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_status_transition_total",
			Help:      "Count of product status transitions by outcome.",
		}, []string{"action", "result"}))
		VerificationTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_code_total",
			Help:      "Count of verification code operations by outcome.",
		}, []string{"action", "result"}))
		DiscountOpsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_operations_total",
			Help:      "Count of discount window operations by outcome.",
		}, []string{"op", "result"}))
		DiscountCleanupProducts = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_cleanup_products_total",
			Help:      "Number of products detached from expired discount windows.",
		}))
		CatalogCacheTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Catalog snapshot cache lookups by result.",
		}, []string{"result"}))
		RateLimitedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by rate limiters.",
		}, []string{"limiter"}))
	})
}

// Inc bumps vec for labels; a nil vec (metrics not registered) is ignored.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}

// Result maps an error to the "ok"/"error" outcome label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
