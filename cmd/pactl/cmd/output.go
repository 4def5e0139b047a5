package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	apiclient "github.com/donaldgifford/product-aggregator/internal/api/client"
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

func printProductsTable(w io.Writer, products []apiclient.Product) error {
	tw := newTabWriter(w)
	tw.writef("TITLE\tPRICE\tCONDITION\tSELLER\tCOUNTRY\n")
	for i := range products {
		p := &products[i]
		price := fmt.Sprintf("%.2f %s", p.Price, p.Currency)
		if !p.Converted {
			price += "*"
		}
		country := p.OriginCountry
		if country == "" {
			country = "-"
		}
		tw.writef("%s\t%s\t%s\t%.1f%% (%d)\t%s\n",
			truncate(p.Title, 50),
			price,
			p.ConditionDisplay,
			p.SellerRatingPct,
			p.SellerFeedbackCount,
			country,
		)
	}
	return tw.finish()
}

func printRates(w io.Writer, r *apiclient.Rates, age time.Duration) error {
	tw := newTabWriter(w)
	tw.writef("Base:\t%s\n", r.Base)
	tw.writef("Fetched:\t%s (%s ago)\n", r.FetchedAt.Local().Format(time.DateTime), age.Round(time.Second))
	tw.writef("\n")
	tw.writef("CURRENCY\tRATE\n")

	codes := make([]string, 0, len(r.Rates))
	for code := range r.Rates {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		tw.writef("%s\t%.4f\n", code, r.Rates[code])
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
