package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printProductsTable(w io.Writer, products []domain.NormalizedProduct) error {
	tw := newTabWriter(w)
	tw.writef("TITLE\tPRICE\tORIGINAL\tCONDITION\tRATING\tFEEDBACK\tCOUNTRY\n")
	for i := range products {
		p := &products[i]
		price := p.ConvertedPrice.StringFixed(2) + " " + p.Currency
		if !p.Converted {
			price += "*"
		}
		country := p.OriginCountry
		if country == "" {
			country = "-"
		}
		tw.writef("%s\t%s\t%s %s\t%s\t%.1f%%\t%d\t%s\n",
			truncate(p.Title, 50),
			price,
			p.Price.StringFixed(2),
			p.SourceCurrency,
			p.ConditionDisplay,
			p.SellerRatingPct,
			p.SellerFeedbackCount,
			country,
		)
	}
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
