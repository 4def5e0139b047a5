// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/product-aggregator/tools/dashgen/panels"
)

// BuildOverview constructs the product-aggregator overview dashboard.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Product Aggregator Overview").
		Uid("pa-overview").
		Tags([]string{"pa", "product-aggregator"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.QuotaGauge()).
		WithPanel(panels.UptimeStat()))

	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()).
		WithPanel(panels.ThrottledRate()))

	b.WithRow(dashboard.NewRowBuilder("Search").
		WithPanel(panels.SearchOutcomes()).
		WithPanel(panels.SearchLatency()).
		WithPanel(panels.ResultsPerSearch()).
		WithPanel(panels.SkippedListings()).
		WithPanel(panels.CacheHitRatio()))

	b.WithRow(dashboard.NewRowBuilder("eBay API").
		WithPanel(panels.APICallsRate()).
		WithPanel(panels.ResponsesByStatus()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()).
		WithPanel(panels.TokenFailures()))

	b.WithRow(dashboard.NewRowBuilder("Exchange Rates").
		WithPanel(panels.RateFetches()).
		WithPanel(panels.SnapshotAge()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
