// Package cmd implements the CLI commands for product-aggregator.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:          "product-aggregator",
	Short:        "Search eBay listings with normalized conditions and converted prices",
	Long:         "An API-first service that searches eBay listings, normalizes item conditions, converts prices into a chosen currency, and exports the results as CSV, JSON or Excel.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging.format (text, json, console)")

	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(openapiCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
