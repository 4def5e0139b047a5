package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/product-aggregator/internal/api/client"
)

func searchCmd() *cobra.Command {
	var (
		condition  string
		currency   string
		sortBy     string
		exportFmt  string
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search eBay listings in a target currency",
		Long: "Runs a search on the API server and prints the normalized results.\n" +
			"The session id is printed to stderr so a later export can reuse it.",
		Example: `  pactl search "thinkpad laptop" --currency EUR
  pactl search "mechanical keyboard" --condition used --sort price_desc
  pactl search "monitor" --export excel --export-path monitors.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			resp, err := c.Search(cmd.Context(), &apiclient.SearchRequest{
				ProductName: args[0],
				Condition:   condition,
				Currency:    currency,
				SortBy:      sortBy,
			})
			if err != nil {
				return err
			}

			if s := c.Session(); s != "" {
				fmt.Fprintln(os.Stderr, "Session:", s)
			}

			if jsonOutput() {
				if err := outputJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else if err := printProductsTable(cmd.OutOrStdout(), resp.Products); err != nil {
				return err
			}

			if exportFmt == "" {
				return nil
			}
			f, err := c.Export(cmd.Context(), exportFmt)
			if err != nil {
				return err
			}
			path, err := saveExport(f, exportPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported %d products to %s\n", resp.Count, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&condition, "condition", "all", "condition filter (all, new, used)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "target currency code")
	cmd.Flags().StringVar(&sortBy, "sort", "price_asc", "sort order (price_asc, price_desc)")
	cmd.Flags().StringVar(&exportFmt, "export", "", "also download the results (csv, json, excel)")
	cmd.Flags().StringVar(&exportPath, "export-path", "", "export file path (default: server filename)")

	return cmd
}
