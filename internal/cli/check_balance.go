package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckBalanceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check-balance",
		Short: "Run one low-balance check",
		Long: `Trigger POST /cron/check-balance with the cron secret and print the run
summary. Exits non-zero if the run fails or another run is in progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, timeout, err := newClient(opts)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := client.TriggerBalanceCheck(ctx)
			if err != nil {
				return fmt.Errorf("check balance: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return printJSON(out, resp)
			}

			fmt.Fprintln(out, resp.Message)
			if resp.Checked != nil {
				fmt.Fprintf(out, "  Checked:        %d\n", *resp.Checked)
			}
			if resp.NeedingAlerts != nil {
				fmt.Fprintf(out, "  Needing alerts: %d\n", *resp.NeedingAlerts)
			}
			fmt.Fprintf(out, "  Sent:           %d\n", resp.Sent)
			for _, e := range resp.Errors {
				fmt.Fprintf(out, "  Error:          %s\n", e)
			}
			return nil
		},
	}
}
