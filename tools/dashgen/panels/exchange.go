package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RateFetches returns a timeseries panel showing exchange rate snapshot
// fetches by result.
func RateFetches() *timeseries.PanelBuilder {
	return lineSeries("Rate Fetches", "Exchange rate snapshot fetches per second by result", "reqps").
		Span(TSWidth).
		WithTarget(PromQuery(`sum by (result) (rate(pa_rate_fetches_total`+jobSel+`[5m]))`, "{{result}}", "A")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// SnapshotAge returns a stat panel showing how old the exchange rate
// snapshot in use is.
func SnapshotAge() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Rate Snapshot Age").
		Description("Time since the current exchange rate snapshot was fetched").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`time() - pa_rate_snapshot_fetched_timestamp_seconds`+jobSel, "", "A")).
		Unit("s").
		Thresholds(ThresholdsGreenYellowRed(3600, 7200)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}
