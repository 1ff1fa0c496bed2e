package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"narrator/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Publish a test message to the configured ntfy topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(out, "Notifications are disabled (notifications.ntfy_topic is empty)")
				return nil
			}
			payload := notifications.Payload{"message": text}
			if err := notifications.NewService(cfg).Publish(cmd.Context(), notifications.EventTest, payload); err != nil {
				return fmt.Errorf("publish to %s: %w", cfg.Notifications.NtfyTopic, err)
			}
			fmt.Fprintf(out, "Test notification sent to %s\n", cfg.Notifications.NtfyTopic)
			return nil
		},
	}
	cmd.Flags().StringVarP(&text, "message", "m", "", "Message body (default: a fixed test line)")
	return cmd
}
