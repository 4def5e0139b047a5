package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

func ratesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Show the exchange rates the server converts with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			r, err := c.GetRates(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), r)
			}
			return printRates(cmd.OutOrStdout(), r, time.Duration(r.AgeSeconds)*time.Second)
		},
	}
}
