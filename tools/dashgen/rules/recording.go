package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata:   metadata("pa-recording-rules"),
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "pa-recording",
					Rules: []Rule{
						{
							Record: "pa:http_requests:rate5m",
							Expr:   `sum(rate(pa_http_requests_total[5m]))`,
						},
						{
							Record: "pa:http_errors:rate5m",
							Expr:   `sum(rate(pa_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "pa:http_rate_limited:rate5m",
							Expr:   `sum(rate(pa_http_rate_limited_total[5m]))`,
						},
						{
							Record: "pa:searches:rate5m",
							Expr:   `sum(rate(pa_searches_total[5m]))`,
						},
						{
							Record: "pa:search_errors:rate5m",
							Expr:   `sum(rate(pa_searches_total{outcome!~"success|validation|no_data"}[5m]))`,
						},
						{
							Record: "pa:cache_hit_ratio:rate5m",
							Expr: `sum(rate(pa_result_cache_operations_total{op="get",result="hit"}[5m]))` +
								` / sum(rate(pa_result_cache_operations_total{op="get"}[5m]))`,
						},
						{
							Record: "pa:ebay_api_calls:rate5m",
							Expr:   `rate(pa_ebay_api_calls_total[5m])`,
						},
						{
							Record: "pa:rate_fetch_failures:rate5m",
							Expr:   `sum(rate(pa_rate_fetches_total{result="failure"}[5m]))`,
						},
					},
				},
			},
		},
	}
}
