package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ProductCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "product_list_cache_hits_total",
		Help: "Product listings served from cache",
	})

	ProductCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "product_list_cache_misses_total",
		Help: "Product listings that fell through to the database",
	})

	// Corrupt payloads and backend errors, counted in addition to the miss.
	ProductCacheErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "product_list_cache_errors_total",
		Help: "Cache reads that failed and were treated as a miss",
	})

	CartCheckouts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_checkouts_total",
		Help: "Successful checkouts",
	})

	CartCheckoutLines = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_checkout_lines_total",
		Help: "Order lines transitioned from in_cart to paid",
	})

	EmailJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_jobs_total",
		Help: "Email jobs by outcome",
	}, []string{"outcome"})
)

func Init() {
	prometheus.MustRegister(
		ProductCacheHits,
		ProductCacheMisses,
		ProductCacheErrors,
		CartCheckouts,
		CartCheckoutLines,
		EmailJobs,
	)
}
