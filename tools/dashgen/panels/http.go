package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// lineSeries is the common shape of the timeseries panels on the dashboard.
func lineSeries(title, description, unit string) *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(TSHeight).
		Unit(unit).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		DrawStyle(common.GraphDrawStyleLine)
}

func quantile(q float64, metric string) string {
	return fmt.Sprintf(`histogram_quantile(%.2f, sum(rate(%s_bucket%s[5m])) by (le))`, q, metric, jobSel)
}

// RequestRate returns a timeseries panel showing the HTTP request rate.
func RequestRate() *timeseries.PanelBuilder {
	return lineSeries("Request Rate", "HTTP requests per second", "reqps").
		Span(8).
		WithTarget(PromQuery(`pa:http_requests:rate5m`, "req/s", "A")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// LatencyPercentiles returns a timeseries panel showing p50, p95, and p99
// HTTP request latencies.
func LatencyPercentiles() *timeseries.PanelBuilder {
	const m = "pa_http_request_duration_seconds"
	return lineSeries("Latency Percentiles", "HTTP request duration percentiles", "s").
		Span(8).
		WithTarget(PromQuery(quantile(0.50, m), "p50", "A")).
		WithTarget(PromQuery(quantile(0.95, m), "p95", "B")).
		WithTarget(PromQuery(quantile(0.99, m), "p99", "C")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// ErrorRate returns a timeseries panel showing the HTTP 5xx error rate
// as a percentage.
func ErrorRate() *timeseries.PanelBuilder {
	return lineSeries("Error Rate %", "HTTP 5xx error rate as percentage of total requests", "percent").
		Span(8).
		WithTarget(PromQuery(`pa:http_errors:rate5m / pa:http_requests:rate5m * 100`, "error %", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}

// ThrottledRate returns a timeseries panel showing searches rejected by the
// per-client throttle.
func ThrottledRate() *timeseries.PanelBuilder {
	return lineSeries("Throttled Searches", "Search requests answered with 429 per second", "reqps").
		Span(FullWidth).
		WithTarget(PromQuery(`pa:http_rate_limited:rate5m`, "429/s", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}
