package router

import (
	"github.com/shopspring/decimal"
	"github.com/tbrownhe/guibank/internal/model"
)

// Reconcile recomputes every account's running balance by walking its
// transactions in date order from the start balance, overwriting whatever
// the plugin computed ad hoc. Plugins only need amounts approximately
// right-side-up; this pass is the one authoritative balance rule. Source
// formats that report balances only at intervals therefore come out fully
// filled.
func Reconcile(stmt *model.Statement) {
	for i := range stmt.Accounts {
		acct := &stmt.Accounts[i]
		model.SortTransactions(acct.Transactions)

		running := acct.StartBalance
		for j := range acct.Transactions {
			running = running.Add(acct.Transactions[j].Amount).Round(2)
			acct.Transactions[j].Balance = decimal.NewNullDecimal(running)
		}
	}
}
