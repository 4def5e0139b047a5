// Package validate checks generated dashboards and rules: every PromQL
// expression must parse and may only reference known metric names.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/product-aggregator/tools/dashgen/rules"
)

// histogramSuffixes are the series a histogram exports beside its base name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects the problems found in one artifact.
type Result struct {
	Errors   []error
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Expr parses one expression and checks its selectors against known.
func Expr(expr string, known map[string]bool) Result {
	var res Result
	if strings.TrimSpace(expr) == "" {
		res.Warnings = append(res.Warnings, "empty expression")
		return res
	}

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("parsing %q: %w", expr, err))
		return res
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !knownName(vs.Name, known) {
			res.Errors = append(res.Errors, fmt.Errorf("unknown metric %q in %q", vs.Name, expr))
		}
		return nil
	})
	return res
}

func knownName(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

// Dashboard checks every query target of a built dashboard. The dashboard is
// walked in its JSON form, so any panel type is covered.
func Dashboard(dash any, known map[string]bool) Result {
	var res Result

	data, err := json.Marshal(dash)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("marshaling dashboard: %w", err))
		return res
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("decoding dashboard: %w", err))
		return res
	}

	exprs := collectExprs(doc, nil)
	if len(exprs) == 0 {
		res.Warnings = append(res.Warnings, "dashboard has no query expressions")
	}
	for _, e := range exprs {
		res.merge(Expr(e, known))
	}
	return res
}

func collectExprs(v any, acc []string) []string {
	switch t := v.(type) {
	case map[string]any:
		if e, ok := t["expr"].(string); ok {
			acc = append(acc, e)
		}
		for _, child := range t {
			acc = collectExprs(child, acc)
		}
	case []any:
		for _, child := range t {
			acc = collectExprs(child, acc)
		}
	}
	return acc
}

// Rules checks every rule expression of a PrometheusRule CR. Each group
// must have a name and each rule exactly one of record or alert.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	for _, g := range cr.Spec.Groups {
		if g.Name == "" {
			res.Errors = append(res.Errors, fmt.Errorf("%s: rule group without name", cr.Metadata.Name))
		}
		for _, r := range g.Rules {
			if (r.Record == "") == (r.Alert == "") {
				res.Errors = append(res.Errors, fmt.Errorf("%s/%s: rule must set exactly one of record or alert", cr.Metadata.Name, g.Name))
			}
			res.merge(Expr(r.Expr, known))
		}
	}
	return res
}
