package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/service"
)

const dateFormat = "2006-01-02"

// StatementExistsByHash reports whether a statement with this content hash
// was already imported.
func (s *SQLiteStorage) StatementExistsByHash(ctx context.Context, md5 string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM statements WHERE md5 = ?", md5)
}

// StatementExistsByFilename reports whether a statement already archived
// under this canonical filename. Catches the same statement re-exported with
// different bytes, where the content hash misses.
func (s *SQLiteStorage) StatementExistsByFilename(ctx context.Context, filename string) (bool, error) {
	return s.exists(ctx, "SELECT 1 FROM statements WHERE filename = ?", filename)
}

func (s *SQLiteStorage) exists(ctx context.Context, query string, arg any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check statement existence: %w", err)
}

// SaveStatement persists a statement and all its transactions in one
// database transaction. Every account must be resolved first. Transactions
// already present for their account are skipped rather than duplicated, so
// overlapping statements merge cleanly.
func (s *SQLiteStorage) SaveStatement(ctx context.Context, stmt *model.Statement, filename string) (service.ImportStats, error) {
	var stats service.ImportStats

	for i := range stmt.Accounts {
		if !stmt.Accounts[i].Resolved() {
			return stats, fmt.Errorf("account %s is not resolved", stmt.Accounts[i].AccountNum)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO statements (plugin_id, md5, filename, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)`,
		stmt.PluginID, stmt.ContentMD5, filename,
		stmt.StartDate.Format(dateFormat), stmt.EndDate.Format(dateFormat))
	if err != nil {
		return stats, fmt.Errorf("failed to insert statement: %w", err)
	}
	statementID, err := res.LastInsertId()
	if err != nil {
		return stats, fmt.Errorf("failed to read new statement id: %w", err)
	}

	for i := range stmt.Accounts {
		acct := &stmt.Accounts[i]

		if _, err = tx.ExecContext(ctx, `
			INSERT INTO statement_accounts (statement_id, account_id, start_balance, end_balance)
			VALUES (?, ?, ?, ?)`,
			statementID, acct.AccountID,
			acct.StartBalance.StringFixed(2), acct.EndBalance.StringFixed(2)); err != nil {
			return stats, fmt.Errorf("failed to insert balances for account %s: %w", acct.AccountNum, err)
		}

		for j := range acct.Transactions {
			txn := &acct.Transactions[j]
			insRes, insErr := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO transactions
					(statement_id, account_id, txn_date, posting_date, amount, balance, description, content_hash)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				statementID, acct.AccountID,
				txn.TransactionDate.Format(dateFormat), txn.PostingDate.Format(dateFormat),
				txn.Amount.StringFixed(2), txn.Balance.Decimal.StringFixed(2),
				txn.Description, txn.Hash)
			if insErr != nil {
				return stats, fmt.Errorf("failed to insert transaction: %w", insErr)
			}
			affected, insErr := insRes.RowsAffected()
			if insErr != nil {
				return stats, fmt.Errorf("failed to read insert result: %w", insErr)
			}
			if affected == 0 {
				stats.TransactionsSkipped++
			} else {
				stats.TransactionsSaved++
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE statements SET tx_count = ? WHERE id = ?", stats.TransactionsSaved, statementID); err != nil {
		return stats, fmt.Errorf("failed to record transaction count: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit statement: %w", err)
	}
	return stats, nil
}
