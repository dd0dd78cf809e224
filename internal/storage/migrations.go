package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					nickname TEXT UNIQUE NOT NULL,
					company TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				// Statements print different numbers for the same account
				// over time, so numbers map many-to-one onto accounts.
				`CREATE TABLE IF NOT EXISTS account_numbers (
					account_num TEXT PRIMARY KEY,
					account_id INTEGER NOT NULL,
					FOREIGN KEY (account_id) REFERENCES accounts(id)
				)`,

				`CREATE TABLE IF NOT EXISTS statements (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					plugin_id TEXT NOT NULL,
					md5 TEXT UNIQUE NOT NULL,
					filename TEXT UNIQUE NOT NULL,
					start_date TEXT NOT NULL,
					end_date TEXT NOT NULL,
					tx_count INTEGER DEFAULT 0,
					imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					statement_id INTEGER NOT NULL,
					account_id INTEGER NOT NULL,
					txn_date TEXT NOT NULL,
					posting_date TEXT NOT NULL,
					amount TEXT NOT NULL,
					balance TEXT NOT NULL,
					description TEXT NOT NULL,
					content_hash TEXT NOT NULL,
					UNIQUE (account_id, content_hash),
					FOREIGN KEY (statement_id) REFERENCES statements(id),
					FOREIGN KEY (account_id) REFERENCES accounts(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Record per-account statement balances",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS statement_accounts (
					statement_id INTEGER NOT NULL,
					account_id INTEGER NOT NULL,
					start_balance TEXT NOT NULL,
					end_balance TEXT NOT NULL,
					PRIMARY KEY (statement_id, account_id),
					FOREIGN KEY (statement_id) REFERENCES statements(id),
					FOREIGN KEY (account_id) REFERENCES accounts(id)
				)
			`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Index transactions for ledger queries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_transactions_posting_date ON transactions(posting_date)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_statement_id ON transactions(statement_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies any pending schema migrations, each in its own
// transaction.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
