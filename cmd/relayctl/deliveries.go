package main

import (
	"fmt"
	"os"
	"time"

	"github.com/imroc/req/v3"
	"github.com/spf13/cobra"

	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/delivery"
	"github.com/ikanisa/momo-relay/pkg/webhook"
)

func newDeliveriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deliveries",
		Short: "Inspect and retry webhook deliveries",
	}

	cmd.AddCommand(newDeliveriesListCmd())
	cmd.AddCommand(newDeliveriesRetryCmd())

	return cmd
}

func newDeliveriesListCmd() *cobra.Command {
	var (
		status    string
		webhookID string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List delivery log entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataRepo, err := openRepo()
			if err != nil {
				return err
			}

			var entries []*database.DeliveryLog

			switch {
			case webhookID != "":
				entries, err = dataRepo.ListDeliveriesByWebhook(cmd.Context(), webhookID)
			default:
				entries, err = dataRepo.ListDeliveriesByStatus(
					cmd.Context(), database.DeliveryStatus(status))
			}
			if err != nil {
				return err
			}

			for _, entry := range entries {
				code := "-"
				if entry.ResponseCode != nil {
					code = fmt.Sprintf("%d", *entry.ResponseCode)
				}

				fmt.Printf("%s  %-9s retries=%d code=%s webhook=%s ref=%q\n",
					entry.ID, entry.Status, entry.RetryCount, code,
					entry.WebhookID, entry.TransactionRef)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(database.DeliveryStatusFailed),
		"filter by status: PENDING, SENT, DELIVERED or FAILED")
	cmd.Flags().StringVar(&webhookID, "webhook", "", "filter by webhook id instead")

	return cmd
}

func newDeliveriesRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <entry-id>",
		Short: "Re-attempt a delivery regardless of its retry budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataRepo, err := openRepo()
			if err != nil {
				return err
			}

			deviceID := os.Getenv("DEVICE_ID")
			if deviceID == "" {
				deviceID = "momo-relay"
			}

			sender := webhook.NewSender(req.DefaultClient(), deviceID, 10*time.Second)
			ledger := delivery.NewLedger(dataRepo, sender, delivery.Config{})

			outcome, err := ledger.Retry(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			code := "-"
			if outcome.ResponseCode != nil {
				code = fmt.Sprintf("%d", *outcome.ResponseCode)
			}

			fmt.Printf("%s code=%s\n", outcome.Status, code)

			return nil
		},
	}
}

func newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Show how much work is waiting for the backend and webhooks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dataRepo, err := openRepo()
			if err != nil {
				return err
			}

			transactions, err := dataRepo.PendingTransactionCount(cmd.Context())
			if err != nil {
				return err
			}

			deliveries, err := dataRepo.PendingDeliveryCount(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("transactions: %d\ndeliveries:   %d\n", transactions, deliveries)

			return nil
		},
	}
}
