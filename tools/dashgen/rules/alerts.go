package rules

func alert(name, expr, forDur, severity, summary, description string) Rule {
	return Rule{
		Alert:       name,
		Expr:        expr,
		For:         forDur,
		Labels:      map[string]string{"severity": severity},
		Annotations: map[string]string{"summary": summary, "description": description},
	}
}

// AlertRules returns a PrometheusRule CR containing alert rules for
// product-aggregator operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata:   metadata("pa-alerts"),
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "pa-alerts",
					Rules: []Rule{
						alert("PaDown",
							`absent(up{job="product-aggregator"})`, "2m", "critical",
							"Product Aggregator is down",
							"The product-aggregator job has been absent for more than 2 minutes."),
						alert("PaReadinessDown",
							`pa_readyz_up == 0`, "2m", "critical",
							"Product Aggregator readiness check is failing",
							"A configured backend (database or Redis) has been unreachable for more than 2 minutes."),
						alert("PaHighErrorRate",
							`pa:http_errors:rate5m / pa:http_requests:rate5m > 0.05`, "5m", "warning",
							"High HTTP error rate on Product Aggregator",
							"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes."),
						alert("PaSearchFailures",
							`pa:search_errors:rate5m / pa:searches:rate5m > 0.2`, "10m", "warning",
							"Searches are failing upstream",
							"More than 20% of searches ended with an upstream, currency or internal error over 10 minutes."),
						alert("PaRateFetchFailing",
							`pa:rate_fetch_failures:rate5m > 0`, "15m", "warning",
							"Exchange rate source is failing",
							"Exchange rate fetches have been failing for 15 minutes; conversions fall back to the cached snapshot."),
						alert("PaRateSnapshotStale",
							`time() - pa_rate_snapshot_fetched_timestamp_seconds > 7200`, "10m", "warning",
							"Exchange rate snapshot is stale",
							"The exchange rate snapshot in use is more than two hours old."),
						alert("PaEbayQuotaHigh",
							`pa_ebay_daily_usage > 4000`, "5m", "warning",
							"eBay API daily usage is above 80% of the quota",
							"Daily eBay API usage has exceeded 4000 calls (limit is 5000)."),
						alert("PaEbayLimitReached",
							`increase(pa_ebay_daily_limit_hits_total[5m]) > 0`, "0m", "critical",
							"eBay API daily limit has been reached",
							"The eBay Browse API daily quota has been exhausted. Searches fail with rate_limited until reset."),
						alert("PaHandlerPanics",
							`sum(increase(pa_http_panics_total[10m])) > 0`, "0m", "warning",
							"HTTP handlers are panicking",
							"At least one request handler panicked in the last 10 minutes; see the panic recovered log lines."),
					},
				},
			},
		},
	}
}
