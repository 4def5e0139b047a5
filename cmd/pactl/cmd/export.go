package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/product-aggregator/internal/api/client"
)

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the last search results of a session",
		Example: `  pactl export --session 6f1c... --format csv
  pactl export --session 6f1c... --format excel --out results.xlsx
  pactl export --session 6f1c... --format json --out -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if c.Session() == "" {
				return fmt.Errorf("--session is required; it is printed by pactl search")
			}

			f, err := c.Export(cmd.Context(), format)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := f.WriteTo(cmd.OutOrStdout())
				return err
			}
			path, err := saveExport(f, out)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Saved", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "export format (csv, json, excel)")
	cmd.Flags().StringVar(&out, "out", "", "output file, - for stdout (default: server filename)")

	return cmd
}

// saveExport writes f to path, or to the server-suggested filename when
// path is empty.
func saveExport(f *apiclient.ExportFile, path string) (string, error) {
	if path == "" {
		path = filepath.Base(f.Filename)
	}
	if path == "" || path == "." {
		return "", fmt.Errorf("server sent no filename; pass an output path")
	}

	file, err := os.Create(path) //nolint:gosec // output path from CLI flag
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.WriteTo(file); err != nil {
		file.Close() //nolint:errcheck,gosec // write error takes precedence
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
