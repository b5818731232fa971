package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aiinterface/notifier/internal/email"
	"github.com/aiinterface/notifier/internal/model"
)

func newSendCmd(opts *options) *cobra.Command {
	var (
		typ  string
		to   string
		data string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one notification email",
		Long: `Post a single request to /email/send with the email API secret.

  notifyctl send --type low_balance --to a@example.com \
    --data '{"userName":"Ada","currentBalance":2,"threshold":5}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &email.Request{
				Type: model.NotificationType(typ),
				To:   to,
			}
			if err := json.Unmarshal([]byte(data), &req.Data); err != nil {
				return fmt.Errorf("--data must be a JSON object: %w", err)
			}
			if err := req.Validate(); err != nil {
				return err
			}

			client, timeout, err := newClient(opts)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), timeout)
			defer cancel()

			id, err := client.Send(ctx, req)
			if err != nil {
				return fmt.Errorf("send email: %w", err)
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"success": true, "id": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s email to %s (id %s)\n", typ, to, id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "notification type: low_balance, account_notification or marketing")
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVarP(&data, "data", "d", "{}", "template data as a JSON object")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
