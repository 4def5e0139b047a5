package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-aggregator/tools/dashgen/rules"
)

var testKnown = map[string]bool{
	"pa_http_requests_total":           true,
	"pa_http_request_duration_seconds": true,
	"pa:http_requests:rate5m":          true,
}

func TestExpr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expr     string
		wantErrs int
		wantWarn bool
	}{
		{name: "known counter", expr: `rate(pa_http_requests_total[5m])`},
		{name: "recording rule", expr: `pa:http_requests:rate5m * 100`},
		{name: "histogram bucket", expr: `histogram_quantile(0.95, sum(rate(pa_http_request_duration_seconds_bucket[5m])) by (le))`},
		{name: "scalar only", expr: `time()`},
		{name: "unknown metric", expr: `rate(pa_missing_total[5m])`, wantErrs: 1},
		{name: "two unknown metrics", expr: `a_total / b_total`, wantErrs: 2},
		{name: "syntax error", expr: `rate(pa_http_requests_total[5m]`, wantErrs: 1},
		{name: "empty", expr: "  ", wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Expr(tt.expr, testKnown)
			assert.Len(t, res.Errors, tt.wantErrs)
			assert.Equal(t, tt.wantWarn, len(res.Warnings) > 0)
			assert.Equal(t, tt.wantErrs == 0, res.Ok())
		})
	}
}

func TestDashboard_WalksNestedTargets(t *testing.T) {
	t.Parallel()

	dash := map[string]any{
		"panels": []any{
			map[string]any{
				"panels": []any{
					map[string]any{"targets": []any{
						map[string]any{"expr": `pa:http_requests:rate5m`},
						map[string]any{"expr": `pa_unknown`},
					}},
				},
			},
		},
	}

	res := Dashboard(dash, testKnown)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "pa_unknown")
}

func TestDashboard_NoQueries(t *testing.T) {
	t.Parallel()

	res := Dashboard(map[string]any{"panels": []any{}}, testKnown)
	assert.True(t, res.Ok())
	assert.NotEmpty(t, res.Warnings)
}

func TestRules(t *testing.T) {
	t.Parallel()

	cr := rules.PrometheusRule{
		Metadata: rules.PrometheusRuleMetadata{Name: "test"},
		Spec: rules.PrometheusRuleSpec{Groups: []rules.RuleGroup{{
			Name: "g",
			Rules: []rules.Rule{
				{Record: "pa:http_requests:rate5m", Expr: `sum(rate(pa_http_requests_total[5m]))`},
				{Alert: "Both", Record: "x", Expr: `pa_http_requests_total > 0`},
				{Alert: "Unknown", Expr: `pa_nope > 0`},
			},
		}}},
	}

	res := Rules(cr, testKnown)
	assert.Len(t, res.Errors, 2)
}
