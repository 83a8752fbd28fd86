package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ikanisa/momo-relay/pkg/database"
)

func newWebhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Manage webhook subscriptions",
	}

	cmd.AddCommand(newWebhooksAddCmd())
	cmd.AddCommand(newWebhooksListCmd())
	cmd.AddCommand(newWebhooksSetActiveCmd("enable", true))
	cmd.AddCommand(newWebhooksSetActiveCmd("disable", false))
	cmd.AddCommand(newWebhooksDeleteCmd())

	return cmd
}

func newWebhooksAddCmd() *cobra.Command {
	var (
		name     string
		url      string
		phone    string
		apiKey   string
		secret   string
		insecure bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new webhook endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataRepo, err := openRepo()
			if err != nil {
				return err
			}

			cfg := &database.WebhookConfig{
				ID:                uuid.NewString(),
				Name:              name,
				URL:               url,
				PhoneMatchPattern: phone,
				APIKey:            apiKey,
				HMACSecret:        secret,
				IsActive:          true,
				CreatedAtEpochMs:  time.Now().UnixMilli(),
			}

			if err = dataRepo.SaveWebhook(cmd.Context(), cfg, insecure); err != nil {
				return err
			}

			fmt.Printf("registered webhook %s\n", cfg.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human readable endpoint name")
	cmd.Flags().StringVar(&url, "url", "", "delivery URL")
	cmd.Flags().StringVar(&phone, "phone", "*", "phone match pattern, * for all devices")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "value sent in the X-Api-Key header")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC signing secret")
	cmd.Flags().BoolVar(&insecure, "insecure", false,
		"allow plain http URLs outside of loopback")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("secret")

	return cmd
}

func newWebhooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered webhooks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataRepo, err := openRepo()
			if err != nil {
				return err
			}

			hooks, err := dataRepo.ListWebhooks(cmd.Context())
			if err != nil {
				return err
			}

			for _, hook := range hooks {
				state := "disabled"
				if hook.IsActive {
					state = "active"
				}

				fmt.Printf("%s  %-20s %-8s phone=%q %s\n",
					hook.ID, hook.Name, state, hook.PhoneMatchPattern, hook.URL)
			}

			return nil
		},
	}
}

func newWebhooksSetActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <webhook-id>",
		Short: fmt.Sprintf("%s a webhook", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataRepo, err := openRepo()
			if err != nil {
				return err
			}

			return dataRepo.SetWebhookActive(cmd.Context(), args[0], active)
		},
	}
}

func newWebhooksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <webhook-id>",
		Short: "Delete a webhook and stop its deliveries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataRepo, err := openRepo()
			if err != nil {
				return err
			}

			return dataRepo.DeleteWebhook(cmd.Context(), args[0])
		},
	}
}
