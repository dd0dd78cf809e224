package main

import (
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List ledger accounts and their linked statement numbers",
		RunE:  runAccounts,
	}
}

func runAccounts(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		cmd.Println("No accounts yet; import a statement to create one.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if _, err := w.Write([]byte("NICKNAME\tCOMPANY\tACCOUNT NUMBERS\n")); err != nil {
		return err
	}
	for _, acct := range accounts {
		if _, err := w.Write([]byte(
			acct.Nickname + "\t" + acct.Company + "\t" +
				strings.Join(acct.AccountNumbers, ", ") + "\n")); err != nil {
			return err
		}
	}
	return nil
}
