package model

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single dated entry parsed out of a statement.
// Balance is the running account balance; it stays unset until the router's
// reconciliation pass fills it in.
type Transaction struct {
	TransactionDate time.Time
	PostingDate     time.Time
	Amount          decimal.Decimal
	Balance         decimal.NullDecimal
	Description     string
	Hash            string
}

// GenerateHash creates a content hash for duplicate detection. The hash is
// keyed by the resolved account identity rather than the source file, so a
// regenerated export with different bytes still hashes identically.
func (t *Transaction) GenerateHash(accountID int64) string {
	data := fmt.Sprintf("%d:%s:%s:%s",
		accountID,
		t.PostingDate.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		t.Description)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// SortTransactions orders transactions ascending by posting date. The sort is
// stable so same-day transactions keep their statement order, which balance
// reconciliation depends on.
func SortTransactions(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].PostingDate.Before(txns[j].PostingDate)
	})
}
