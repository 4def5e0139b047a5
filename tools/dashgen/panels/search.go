package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/gauge"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// SearchOutcomes returns a timeseries panel showing searches per second by
// outcome (success or error kind).
func SearchOutcomes() *timeseries.PanelBuilder {
	return lineSeries("Searches by Outcome", "Completed searches per second by outcome", "reqps").
		Span(8).
		WithTarget(PromQuery(`sum by (outcome) (rate(pa_searches_total`+jobSel+`[5m]))`, "{{outcome}}", "A")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// SearchLatency returns a timeseries panel showing end-to-end search
// duration percentiles, upstream pagination and conversion included.
func SearchLatency() *timeseries.PanelBuilder {
	const m = "pa_search_duration_seconds"
	return lineSeries("Search Latency", "End-to-end search duration percentiles", "s").
		Span(8).
		WithTarget(PromQuery(quantile(0.50, m), "p50", "A")).
		WithTarget(PromQuery(quantile(0.95, m), "p95", "B")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// ResultsPerSearch returns a timeseries panel showing the mean number of
// products returned by successful searches.
func ResultsPerSearch() *timeseries.PanelBuilder {
	return lineSeries("Results per Search", "Mean products returned per successful search", "short").
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(pa_search_results_sum`+jobSel+`[5m])) / sum(rate(pa_search_results_count`+jobSel+`[5m]))`,
			"mean", "A",
		)).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// SkippedListings returns a timeseries panel showing upstream listings
// dropped during processing, by reason.
func SkippedListings() *timeseries.PanelBuilder {
	return lineSeries("Skipped Listings", "Listings dropped per second by reason", "short").
		Span(TSWidth).
		WithTarget(PromQuery(`sum by (reason) (rate(pa_listings_skipped_total`+jobSel+`[5m]))`, "{{reason}}", "A")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// CacheHitRatio returns a gauge panel showing how often exports find the
// session's results in the result cache.
func CacheHitRatio() *gauge.PanelBuilder {
	return gauge.NewPanelBuilder().
		Title("Result Cache Hit %").
		Description("Share of result cache reads that found the session's results").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`pa:cache_hit_ratio:rate5m * 100`, "", "A")).
		Unit("percent").
		Min(0).
		Max(100).
		Thresholds(ThresholdsRedGreen(50)).
		ColorScheme(ColorSchemeThresholds())
}
