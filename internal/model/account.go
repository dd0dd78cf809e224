package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account holds the transactions a statement reports for one account. The
// account number is whatever string the institution printed; AccountID is the
// ledger identity and stays zero until the import orchestrator resolves it.
type Account struct {
	AccountNum   string
	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal
	Transactions []Transaction
	AccountID    int64
}

// Resolved reports whether the account has been bound to a ledger identity.
func (a *Account) Resolved() bool {
	return a.AccountID != 0
}

// HashTransactions assigns a content hash to every transaction. Some
// institutions print genuinely identical rows twice in one statement; when
// that happens the description is suffixed with " D" and rehashed until the
// hash is unique within the account.
func (a *Account) HashTransactions() {
	seen := make(map[string]bool, len(a.Transactions))
	for i := range a.Transactions {
		txn := &a.Transactions[i]
		hash := txn.GenerateHash(a.AccountID)
		for seen[hash] {
			txn.Description += " D"
			hash = txn.GenerateHash(a.AccountID)
		}
		seen[hash] = true
		txn.Hash = hash
	}
}

// BalanceDiscrepancy returns the absolute difference between the reported
// balance change and the sum of transaction amounts, rounded to cents.
func (a *Account) BalanceDiscrepancy() decimal.Decimal {
	sum := decimal.Zero
	for _, txn := range a.Transactions {
		sum = sum.Add(txn.Amount)
	}
	change := a.EndBalance.Sub(a.StartBalance)
	return change.Sub(sum).Round(2).Abs()
}

func (a *Account) String() string {
	return fmt.Sprintf("account %s (%d transactions)", a.AccountNum, len(a.Transactions))
}
