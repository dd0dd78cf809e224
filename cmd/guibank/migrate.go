package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the ledger database schema up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.TransactionCount(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Database is up to date (%d transactions)\n", count)
			return nil
		},
	}
}
