package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"teleimage/internal/telegram"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Point the webhook at WEBHOOK_BASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWebhooks(true)
			if err != nil {
				return err
			}
			if err := w.Set(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", w.ExpectedURL())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWebhooks(false)
			if err != nil {
				return err
			}
			if err := w.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show Telegram's webhook info next to the expected URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWebhooks(false)
			if err != nil {
				return err
			}
			st, err := w.Status()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	})
	return cmd
}

func loadWebhooks(needBaseURL bool) (*telegram.Webhooks, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, err
	}
	check := e.cfg.RequireTelegram
	if needBaseURL {
		check = e.cfg.RequireWebhookURL
	}
	if err := check(); err != nil {
		return nil, err
	}
	tg, err := telegram.NewAPI(e.cfg.TelegramBotToken, e.cfg.TelegramAPIEndpoint)
	if err != nil {
		return nil, err
	}
	return telegram.NewWebhooks(tg, e.cfg.WebhookBaseURL), nil
}
