package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/service"
)

// GetAccountID resolves a statement's printed account number to the account
// it belongs to. Returns common.ErrNotFound for numbers never linked.
func (s *SQLiteStorage) GetAccountID(ctx context.Context, accountNum string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT account_id FROM account_numbers WHERE account_num = ?", accountNum).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account number %q: %w", accountNum, common.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up account number: %w", err)
	}
	return id, nil
}

// GetAccountNickname returns the user-chosen nickname for an account.
func (s *SQLiteStorage) GetAccountNickname(ctx context.Context, accountID int64) (string, error) {
	var nickname string
	err := s.db.QueryRowContext(ctx,
		"SELECT nickname FROM accounts WHERE id = ?", accountID).Scan(&nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("account %d: %w", accountID, common.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up account nickname: %w", err)
	}
	return nickname, nil
}

// CreateAccount links an account number to the account with the given
// nickname, creating the account if the nickname is new. Reusing an existing
// nickname attaches the number to that account, which is how renumbered
// cards stay one ledger account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, nickname, company, accountNum string) (int64, error) {
	if nickname == "" {
		return 0, fmt.Errorf("nickname cannot be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM accounts WHERE nickname = ?", nickname).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, insErr := tx.ExecContext(ctx,
			"INSERT INTO accounts (nickname, company) VALUES (?, ?)", nickname, company)
		if insErr != nil {
			return 0, fmt.Errorf("failed to create account %q: %w", nickname, insErr)
		}
		id, insErr = res.LastInsertId()
		if insErr != nil {
			return 0, fmt.Errorf("failed to read new account id: %w", insErr)
		}
	case err != nil:
		return 0, fmt.Errorf("failed to look up account %q: %w", nickname, err)
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO account_numbers (account_num, account_id) VALUES (?, ?)",
		accountNum, id); err != nil {
		return 0, fmt.Errorf("failed to link account number: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit account creation: %w", err)
	}
	return id, nil
}

// ListAccounts returns every account with its linked statement numbers.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]service.AccountInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, nickname, company FROM accounts ORDER BY nickname")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []service.AccountInfo
	for rows.Next() {
		var info service.AccountInfo
		if err := rows.Scan(&info.ID, &info.Nickname, &info.Company); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	for i := range accounts {
		nums, numErr := s.accountNumbers(ctx, accounts[i].ID)
		if numErr != nil {
			return nil, numErr
		}
		accounts[i].AccountNumbers = nums
	}
	return accounts, nil
}

func (s *SQLiteStorage) accountNumbers(ctx context.Context, accountID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT account_num FROM account_numbers WHERE account_id = ? ORDER BY account_num", accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list account numbers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var nums []string
	for rows.Next() {
		var num string
		if err := rows.Scan(&num); err != nil {
			return nil, fmt.Errorf("failed to scan account number: %w", err)
		}
		nums = append(nums, num)
	}
	return nums, rows.Err()
}
