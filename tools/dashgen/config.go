package main

import "errors"

// KnownMetrics is the set of metric names exported by product-aggregator
// plus recording rule names referenced in dashboards and alerts. Histogram
// series (_bucket, _sum, _count) resolve to their base name.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"pa_http_request_duration_seconds": true,
	"pa_http_requests_total":           true,
	"pa_http_rate_limited_total":       true,
	"pa_http_panics_total":             true,

	// Health metrics.
	"pa_healthz_up": true,
	"pa_readyz_up":  true,

	// Search pipeline metrics.
	"pa_searches_total":                true,
	"pa_search_duration_seconds":       true,
	"pa_search_results":                true,
	"pa_listings_skipped_total":        true,
	"pa_result_cache_operations_total": true,

	// eBay API metrics.
	"pa_ebay_api_calls_total":        true,
	"pa_ebay_responses_total":        true,
	"pa_ebay_daily_usage":            true,
	"pa_ebay_daily_limit_hits_total": true,
	"pa_token_refreshes_total":       true,

	// Exchange rate metrics.
	"pa_rate_fetches_total":                      true,
	"pa_rate_snapshot_fetched_timestamp_seconds": true,

	// Recording rules.
	"pa:http_requests:rate5m":       true,
	"pa:http_errors:rate5m":         true,
	"pa:http_rate_limited:rate5m":   true,
	"pa:searches:rate5m":            true,
	"pa:search_errors:rate5m":       true,
	"pa:cache_hit_ratio:rate5m":     true,
	"pa:ebay_api_calls:rate5m":      true,
	"pa:rate_fetch_failures:rate5m": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
