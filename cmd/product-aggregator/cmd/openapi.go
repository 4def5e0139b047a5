package cmd

import (
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/product-aggregator/api/openapi"
)

func openapiCommand() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document for the HTTP API",
		Example: `  product-aggregator openapi
  product-aggregator openapi --format yaml --out api/openapi/openapi.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Registration only needs the handler types, not live backends.
			api := registerAPI(echo.New(), &app{})

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out) //nolint:gosec // output path from CLI flag
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return openapi.Write(w, api, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "document format (json, yaml)")
	cmd.Flags().StringVar(&out, "out", "", "write to file instead of stdout")

	return cmd
}
