package router

import (
	"fmt"
	"time"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/model"
)

// maxDateSkew is how far a transaction date may precede its posting date.
// Card purchases can post weeks after the swipe; anything beyond this is a
// parse bug.
const maxDateSkew = 30 * 24 * time.Hour

// Validate checks a parsed statement against the schema invariants. All
// violations are collected and reported together so a mis-parsed statement
// can be diagnosed in one pass.
func Validate(stmt *model.Statement) error {
	var violations []string

	if stmt.StartDate.IsZero() || stmt.EndDate.IsZero() {
		violations = append(violations, "statement date range is unset")
	} else if stmt.EndDate.Before(stmt.StartDate) {
		violations = append(violations, fmt.Sprintf(
			"statement start date %s is after end date %s",
			stmt.StartDate.Format("2006-01-02"), stmt.EndDate.Format("2006-01-02")))
	}

	if len(stmt.Accounts) == 0 {
		violations = append(violations, "statement contains no accounts")
	}

	for _, acct := range stmt.Accounts {
		violations = append(violations, validateAccount(stmt, &acct)...)
	}

	if len(violations) > 0 {
		return &common.SchemaViolationError{Violations: violations}
	}
	return nil
}

func validateAccount(stmt *model.Statement, acct *model.Account) []string {
	var violations []string

	if acct.AccountNum == "" {
		violations = append(violations, "account number is empty")
	}

	for _, txn := range acct.Transactions {
		if txn.PostingDate.IsZero() {
			violations = append(violations, fmt.Sprintf(
				"account %s: transaction %q has no posting date", acct.AccountNum, txn.Description))
			continue
		}
		if txn.PostingDate.Before(stmt.StartDate) || txn.PostingDate.After(stmt.EndDate) {
			violations = append(violations, fmt.Sprintf(
				"account %s: posting date %s outside statement range %s - %s",
				acct.AccountNum, txn.PostingDate.Format("2006-01-02"),
				stmt.StartDate.Format("2006-01-02"), stmt.EndDate.Format("2006-01-02")))
		}
		if !txn.TransactionDate.IsZero() {
			skew := txn.PostingDate.Sub(txn.TransactionDate)
			if skew < 0 {
				skew = -skew
			}
			if skew > maxDateSkew {
				violations = append(violations, fmt.Sprintf(
					"account %s: transaction date %s too far from posting date %s",
					acct.AccountNum, txn.TransactionDate.Format("2006-01-02"),
					txn.PostingDate.Format("2006-01-02")))
			}
		}
		if txn.Description == "" {
			violations = append(violations, fmt.Sprintf(
				"account %s: transaction on %s has an empty description",
				acct.AccountNum, txn.PostingDate.Format("2006-01-02")))
		}
		if !txn.Balance.Valid {
			violations = append(violations, fmt.Sprintf(
				"account %s: transaction %q has no reconciled balance",
				acct.AccountNum, txn.Description))
		}
	}

	if disc := acct.BalanceDiscrepancy(); !disc.IsZero() {
		violations = append(violations, fmt.Sprintf(
			"account %s: balance change %s does not match transaction sum (discrepancy %s)",
			acct.AccountNum, acct.EndBalance.Sub(acct.StartBalance).StringFixed(2), disc.StringFixed(2)))
	}

	return violations
}
