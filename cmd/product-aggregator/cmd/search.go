package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/product-aggregator/internal/engine"
	"github.com/donaldgifford/product-aggregator/internal/export"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// cliSession scopes the in-process result cache for one CLI run.
const cliSession = "cli"

func searchCommand() *cobra.Command {
	var (
		condition    string
		currency     string
		sortBy       string
		output       string
		exportFormat string
		exportPath   string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a product search in-process",
		Long: "Run the full search pipeline without starting the server: fetch\n" +
			"eBay listings, normalize conditions, convert prices, filter and sort.\n" +
			"Results are printed and can also be written to an export file.",
		Example: `  # Used laptops priced in euros, cheapest first
  product-aggregator search laptop --condition used --currency EUR

  # Best rated sellers, exported to a spreadsheet
  product-aggregator search "mechanical keyboard" --sort rating_desc --export excel`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, log, appOptions{forceMemoryCache: true})
			if err != nil {
				return err
			}
			defer a.close(ctx)

			products, count, err := a.engine.Execute(ctx, cliSession, domain.SearchRequest{
				Query:     strings.Join(args, " "),
				Condition: domain.ConditionFilter(condition),
				Currency:  currency,
				Sort:      domain.SortKey(sortBy),
			})
			if err != nil {
				return userError(err)
			}

			out := cmd.OutOrStdout()
			switch output {
			case "json":
				if err := outputJSON(out, products); err != nil {
					return err
				}
			default:
				if count == 0 {
					fmt.Fprintln(out, "No products found.")
				} else {
					fmt.Fprintf(out, "Found %d products\n\n", count)
					if err := printProductsTable(out, products); err != nil {
						return err
					}
				}
			}

			if exportFormat == "" {
				return nil
			}
			return writeExport(cmd, a.engine, exportFormat, exportPath)
		},
	}

	cmd.Flags().StringVar(&condition, "condition", "all", "condition filter (all, new, used)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "display currency")
	cmd.Flags().StringVar(&sortBy, "sort", "price_asc", "sort order (price_asc, price_desc, rating_asc, rating_desc)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	cmd.Flags().StringVar(&exportFormat, "export", "", "also write an export file (csv, json, excel)")
	cmd.Flags().StringVar(&exportPath, "export-path", "", "export file path (default ebay_products_<timestamp>.<ext>)")

	return cmd
}

func init() {
	rootCmd.AddCommand(searchCommand())
}

func writeExport(cmd *cobra.Command, eng *engine.Engine, formatName, path string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	results, err := eng.Export(cmd.Context(), cliSession)
	if err != nil {
		return userError(err)
	}

	if path == "" {
		path = export.Filename(format, time.Now())
	}

	f, err := os.Create(path) //nolint:gosec // path from trusted CLI flag
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}

	if err := export.Write(f, format, results.Products); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d products to %s\n", len(results.Products), path)
	return nil
}

// userError reduces a *engine.SearchError to its user-facing message.
func userError(err error) error {
	var se *engine.SearchError
	if errors.As(err, &se) {
		return errors.New(se.Message)
	}
	return err
}
