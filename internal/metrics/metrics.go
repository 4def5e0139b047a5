// Package metrics defines Prometheus metrics for product-aggregator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pa"

// HTTP metrics.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last /healthz check succeeded, 0 otherwise.",
	})

	HTTPRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the per-client search throttle.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last /readyz check succeeded, 0 otherwise.",
	})

	HTTPPanicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_panics_total",
		Help:      "Handler panics recovered, by route.",
	}, []string{"path"})
)

// Search pipeline metrics.
var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total number of searches by outcome.",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Duration of complete searches in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	SearchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_results",
		Help:      "Number of products returned per successful search.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	ListingsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_skipped_total",
		Help:      "Upstream listings dropped during processing, by reason.",
	}, []string{"reason"})

	ResultCacheOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_operations_total",
		Help:      "Result cache operations by operation and result.",
	}, []string{"op", "result"})
)

// eBay API metrics.
var (
	EbayAPICallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ebay_api_calls_total",
		Help:      "Total cumulative eBay API calls.",
	})

	EbayResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ebay_responses_total",
		Help:      "eBay Browse API responses by status class.",
	}, []string{"status"})

	EbayDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ebay_daily_usage",
		Help:      "Current daily eBay API call count within the rolling 24-hour window.",
	})

	EbayDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ebay_daily_limit_hits_total",
		Help:      "Total number of times the daily eBay API limit was reached.",
	})

	TokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "OAuth token refresh attempts by result.",
	}, []string{"result"})
)

// Exchange rate metrics.
var (
	RateFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_fetches_total",
		Help:      "Exchange rate snapshot fetches by result.",
	}, []string{"result"})

	RateSnapshotFetchedAt = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rate_snapshot_fetched_timestamp_seconds",
		Help:      "Unix time at which the current exchange rate snapshot was fetched.",
	})
)
