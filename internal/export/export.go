// Package export renders a cached result set as CSV, JSON or XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// Export failures.
var (
	ErrNoData        = errors.New("no data to export")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatExcel Format = "excel"
)

const (
	filenamePrefix = "ebay_products"
	sheetName      = "Products"
	notAvailable   = "N/A"
)

var header = []string{
	"Product Title",
	"Price",
	"Currency",
	"Original Price",
	"Original Currency",
	"Condition",
	"Seller Rating (%)",
	"Seller Feedback Count",
	"Item Country",
	"Product URL",
}

// ParseFormat accepts csv, json, excel or xlsx in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Filename returns the download name for an export taken at now, e.g.
// ebay_products_20260601_093000.csv.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", filenamePrefix, now.Format("20060102_150405"), f.Extension())
}

// Write renders products to w in format f. An empty product list returns
// ErrNoData and writes nothing.
func Write(w io.Writer, f Format, products []domain.NormalizedProduct) error {
	if len(products) == 0 {
		return ErrNoData
	}

	switch f {
	case FormatCSV:
		return writeCSV(w, products)
	case FormatJSON:
		return writeJSON(w, products)
	case FormatExcel:
		return writeExcel(w, products)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// record is one exported row. Prices are fixed to two places.
type record struct {
	Title            string  `json:"Product Title"`
	Price            string  `json:"Price"`
	Currency         string  `json:"Currency"`
	OriginalPrice    string  `json:"Original Price"`
	OriginalCurrency string  `json:"Original Currency"`
	Condition        string  `json:"Condition"`
	SellerRating     float64 `json:"Seller Rating (%)"`
	SellerFeedback   int     `json:"Seller Feedback Count"`
	Country          string  `json:"Item Country"`
	URL              string  `json:"Product URL"`
}

func toRecord(p *domain.NormalizedProduct) record {
	country := p.OriginCountry
	if country == "" {
		country = notAvailable
	}
	return record{
		Title:            p.Title,
		Price:            p.ConvertedPrice.StringFixed(2),
		Currency:         p.Currency,
		OriginalPrice:    p.Price.StringFixed(2),
		OriginalCurrency: p.SourceCurrency,
		Condition:        p.ConditionDisplay,
		SellerRating:     p.SellerRatingPct,
		SellerFeedback:   p.SellerFeedbackCount,
		Country:          country,
		URL:              p.URL,
	}
}

func writeCSV(w io.Writer, products []domain.NormalizedProduct) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range products {
		r := toRecord(&products[i])
		if err := cw.Write([]string{
			r.Title,
			r.Price,
			r.Currency,
			r.OriginalPrice,
			r.OriginalCurrency,
			r.Condition,
			strconv.FormatFloat(r.SellerRating, 'f', -1, 64),
			strconv.Itoa(r.SellerFeedback),
			r.Country,
			r.URL,
		}); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, products []domain.NormalizedProduct) error {
	records := make([]record, len(products))
	for i := range products {
		records[i] = toRecord(&products[i])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func writeExcel(w io.Writer, products []domain.NormalizedProduct) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet writer: %w", err)
	}

	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := sw.SetRow("A1", row); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i := range products {
		p := &products[i]
		r := toRecord(p)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := sw.SetRow(cell, []any{
			r.Title,
			p.ConvertedPrice.Round(2).InexactFloat64(),
			r.Currency,
			p.Price.Round(2).InexactFloat64(),
			r.OriginalCurrency,
			r.Condition,
			r.SellerRating,
			r.SellerFeedback,
			r.Country,
			r.URL,
		}); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
