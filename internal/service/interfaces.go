// Package service defines the contracts between the import pipeline and its
// collaborators: the persistence layer and the interactive prompts.
package service

import (
	"context"

	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
)

// ImportStats reports what one statement's persistence actually wrote.
// Skipped counts transactions already present for their account.
type ImportStats struct {
	TransactionsSaved   int
	TransactionsSkipped int
}

// AccountInfo is one known account with its linked statement numbers.
type AccountInfo struct {
	Nickname       string
	Company        string
	AccountNumbers []string
	ID             int64
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Duplicate detection
	StatementExistsByHash(ctx context.Context, md5 string) (bool, error)
	StatementExistsByFilename(ctx context.Context, filename string) (bool, error)

	// Account operations
	GetAccountID(ctx context.Context, accountNum string) (int64, error)
	GetAccountNickname(ctx context.Context, accountID int64) (string, error)
	CreateAccount(ctx context.Context, nickname, company, accountNum string) (int64, error)
	ListAccounts(ctx context.Context) ([]AccountInfo, error)

	// Statement persistence
	SaveStatement(ctx context.Context, stmt *model.Statement, filename string) (ImportStats, error)
	TransactionCount(ctx context.Context) (int64, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// AccountResolver supplies a nickname for an account number the database has
// never seen, so the account can be created mid-import. Implementations that
// cannot ask anyone return common.ErrAccountResolutionRequired.
type AccountResolver interface {
	Resolve(ctx context.Context, accountNum string, meta plugin.Metadata) (nickname string, err error)
}

// MoveConfirmer decides whether to retry a failed archive move. Lock
// conflicts from files still open in a viewer are retryable once the user
// closes the viewer; anything else is not worth asking about.
type MoveConfirmer interface {
	ConfirmRetry(path string, reason error) bool
}
