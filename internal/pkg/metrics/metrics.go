package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BalanceFetchDuration observes how long one full balance refresh cycle takes.
	BalanceFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dust_balance_fetch_duration_seconds",
		Help:    "Duration of a full balance and allowance refresh cycle.",
		Buckets: prometheus.DefBuckets,
	})

	// BalanceFetchErrors counts per-token fetch failures.
	BalanceFetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dust_balance_fetch_errors_total",
		Help: "Number of per-token balance fetch failures.",
	})

	// PriceRefreshTotal counts price feed refresh attempts by outcome.
	PriceRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dust_price_refresh_total",
		Help: "Price feed refresh attempts by outcome.",
	}, []string{"status"})

	// QuoteRequestsTotal counts quote orchestration outcomes per token.
	QuoteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dust_quote_requests_total",
		Help: "Quote requests by outcome (ok, skipped, failed).",
	}, []string{"result"})

	// SweepSubmissionsTotal counts sweep transactions handed to the submitter.
	SweepSubmissionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dust_sweep_submissions_total",
		Help: "Number of sweep call batches submitted for broadcast.",
	})
)

// MustRegisterMetrics registers all pipeline metrics with the default registry.
// It panics on duplicate registration and must be called once from main.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		BalanceFetchDuration,
		BalanceFetchErrors,
		PriceRefreshTotal,
		QuoteRequestsTotal,
		SweepSubmissionsTotal,
	)
}
