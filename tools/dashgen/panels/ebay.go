package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// APICallsRate returns a timeseries panel showing the eBay API call rate.
func APICallsRate() *timeseries.PanelBuilder {
	return lineSeries("API Calls Rate", "eBay Browse API calls per second", "reqps").
		Span(6).
		WithTarget(PromQuery(`pa:ebay_api_calls:rate5m`, "calls/s", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// ResponsesByStatus returns a timeseries panel splitting Browse responses
// by status class.
func ResponsesByStatus() *timeseries.PanelBuilder {
	return lineSeries("Responses by Status", "eBay Browse API responses per second by status class", "reqps").
		Span(6).
		WithTarget(PromQuery(`sum by (status) (rate(pa_ebay_responses_total`+jobSel+`[5m]))`, "{{status}}", "A")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// DailyUsage returns a timeseries panel showing the rolling 24h eBay API
// usage with a threshold line at the daily budget.
func DailyUsage() *timeseries.PanelBuilder {
	return lineSeries("Daily Usage vs Limit", fmt.Sprintf("Rolling 24h eBay API call count (limit: %d)", EbayDailyLimit), "").
		Span(6).
		WithTarget(PromQuery(`pa_ebay_daily_usage`+jobSel, "usage", "A")).
		Thresholds(ThresholdsGreenYellowRed(float64(EbayDailyLimit)*0.8, float64(EbayDailyLimit))).
		ColorScheme(ColorSchemeThresholds())
}

// LimitHits returns a stat panel showing the number of daily limit hits
// in the past 24 hours.
func LimitHits() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Limit Hits (24h)").
		Description("Times the eBay daily budget was reached in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(3).
		WithTarget(PromQuery(`increase(pa_ebay_daily_limit_hits_total`+jobSel+`[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}

// TokenFailures returns a stat panel showing failed OAuth refreshes in the
// past 24 hours.
func TokenFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Token Failures (24h)").
		Description("Failed eBay OAuth token refreshes in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(3).
		WithTarget(PromQuery(`increase(pa_token_refreshes_total{job="`+Job+`",result="failure"}[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
