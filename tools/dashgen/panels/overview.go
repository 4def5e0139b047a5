package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/gauge"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
)

func upStat(title, description, metric string) *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title(title).
		Description(description).
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(metric+jobSel, "", "A")).
		Thresholds(ThresholdsRedGreen(1)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone).
		TextMode(common.BigValueTextModeValue)
}

// HealthzStat returns a stat panel showing the health check status.
func HealthzStat() *stat.PanelBuilder {
	return upStat("Healthz", "Health check status (1 = ok, 0 = failing)", "pa_healthz_up")
}

// ReadyzStat returns a stat panel showing the readiness check status, which
// covers the database and Redis backends when configured.
func ReadyzStat() *stat.PanelBuilder {
	return upStat("Readyz", "Readiness check status (1 = ready, 0 = a backend is down)", "pa_readyz_up")
}

// QuotaGauge returns a gauge panel showing eBay API daily usage as a
// percentage of the budget.
func QuotaGauge() *gauge.PanelBuilder {
	expr := fmt.Sprintf("pa_ebay_daily_usage%s / %d * 100", jobSel, EbayDailyLimit)
	return gauge.NewPanelBuilder().
		Title("eBay Quota %").
		Description("Daily eBay API usage as percentage of the budget").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(expr, "", "A")).
		Unit("percent").
		Min(0).
		Max(100).
		Thresholds(ThresholdsGreenYellowRed(80, 95)).
		ColorScheme(ColorSchemeThresholds())
}

// UptimeStat returns a stat panel showing process uptime.
func UptimeStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Uptime").
		Description("Time since process start").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(`time() - process_start_time_seconds`+jobSel, "", "A")).
		Unit("s").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}
