package cmd

import (
	"time"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/product-aggregator/internal/api/client"
)

func quotaCmd() *cobra.Command {
	var sync bool

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show the daily eBay API quota",
		Long: `Show the server's daily eBay call budget. With --sync the server first
reads eBay's own count and raises its local count to match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			var q *apiclient.Quota
			if sync {
				q, err = c.SyncQuota(cmd.Context())
			} else {
				q, err = c.GetQuota(cmd.Context())
			}
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), q)
			}

			tw := newTabWriter(cmd.OutOrStdout())
			tw.writef("Limit:\t%d\n", q.DailyLimit)
			tw.writef("Used:\t%d\n", q.DailyUsed)
			tw.writef("Remaining:\t%d\n", q.Remaining)
			if q.Exhausted {
				tw.writef("Status:\t%s\n", "exhausted until reset")
			}
			tw.writef("Resets:\t%s\n", q.ResetAt.Local().Format(time.DateTime))
			return tw.finish()
		},
	}

	cmd.Flags().BoolVar(&sync, "sync", false, "reconcile with eBay's usage count first")
	return cmd
}
