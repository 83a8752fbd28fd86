package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ikanisa/momo-relay/pkg/repo"
)

var databasePath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "relayctl",
		Short: "Inspect and manage webhook subscriptions, deliveries and the sync backlog.",
	}

	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "momo-relay.db",
		"path to the local database file")

	rootCmd.AddCommand(newWebhooksCmd())
	rootCmd.AddCommand(newDeliveriesCmd())
	rootCmd.AddCommand(newPendingCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openRepo() (*repo.Gorm, error) {
	_ = godotenv.Load()

	if path := os.Getenv("DATABASE_PATH"); path != "" && databasePath == "momo-relay.db" {
		databasePath = path
	}

	db, err := repo.Open(databasePath)
	if err != nil {
		return nil, err
	}

	return repo.New(db), nil
}
