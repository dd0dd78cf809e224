// Package importer orchestrates statement ingestion: duplicate detection,
// routing, account resolution, persistence, and filing the source document
// into the archive tree. Each file is imported at most once; a statement is
// either fully persisted or not touched at all.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/registry"
	"github.com/tbrownhe/guibank/internal/service"
)

// StatementRouter turns a statement file into a validated statement.
type StatementRouter interface {
	Route(path string) (*model.Statement, error)
}

// Dirs holds the archive tree the importer files documents into.
type Dirs struct {
	Inbox     string
	Success   string
	Duplicate string
	Fail      string
}

// Summary tallies one batch run.
type Summary struct {
	Imported   int
	Duplicates int
	Failed     int
}

// Processor imports statement files.
type Processor struct {
	store      service.Storage
	router     StatementRouter
	resolver   service.AccountResolver
	confirmer  service.MoveConfirmer
	snap       *registry.Snapshot
	dirs       Dirs
	extensions map[string]bool
	hardFail   bool
}

// Config wires a Processor.
type Config struct {
	Store      service.Storage
	Router     StatementRouter
	Resolver   service.AccountResolver
	Confirmer  service.MoveConfirmer
	Snapshot   *registry.Snapshot
	Dirs       Dirs
	Extensions []string
	HardFail   bool
}

// New creates a Processor.
func New(cfg Config) *Processor {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Processor{
		store:      cfg.Store,
		router:     cfg.Router,
		resolver:   cfg.Resolver,
		confirmer:  cfg.Confirmer,
		snap:       cfg.Snapshot,
		dirs:       cfg.Dirs,
		extensions: exts,
		hardFail:   cfg.HardFail,
	}
}

// ImportAll imports every statement file waiting in the inbox, filing each
// into the success, duplicate, or fail directory as it goes. When hard-fail
// is on, the first parse failure aborts the batch so the bad file can be
// fixed before anything else imports; duplicates never trip it. A canceled
// context stops the batch before the next file; unprocessed files stay in
// the inbox.
func (p *Processor) ImportAll(ctx context.Context) (Summary, error) {
	var summary Summary

	files, err := p.discover()
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		slog.Info("No statement files to import", "inbox", p.dirs.Inbox)
		return summary, nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing statements..."),
	)

	for _, path := range files {
		if ctx.Err() != nil {
			_ = bar.Finish()
			slog.Info("Import batch canceled; remaining files left in the inbox",
				"imported", summary.Imported)
			return summary, ctx.Err()
		}
		err := p.importAndFile(ctx, path, &summary)
		_ = bar.Add(1)
		if err != nil {
			_ = bar.Finish()
			return summary, err
		}
	}
	_ = bar.Finish()

	slog.Info("Import batch complete",
		"imported", summary.Imported,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed)
	return summary, nil
}

// ImportPath imports one explicitly named file, filing it like a batch run
// would. The returned summary has exactly one nonzero field.
func (p *Processor) ImportPath(ctx context.Context, path string) (Summary, error) {
	var summary Summary
	err := p.importAndFile(ctx, path, &summary)
	return summary, err
}

// importAndFile runs one import, tallies the outcome, and files failures
// into the fail directory. The returned error is non-nil only when the whole
// batch should stop.
func (p *Processor) importAndFile(ctx context.Context, path string, summary *Summary) error {
	err := p.ImportOne(ctx, path)
	switch {
	case err == nil:
		summary.Imported++
	case errors.Is(err, common.ErrDuplicate):
		summary.Duplicates++
		slog.Info("Skipped duplicate statement", "file", filepath.Base(path))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Cancellation mid-file is not the file's fault; leave it where it
		// is so the next run picks it up.
		return err
	default:
		summary.Failed++
		slog.Error("Failed to import statement", "file", filepath.Base(path), "error", err)
		if _, moveErr := common.MoveFile(path, p.dirs.Fail, filepath.Base(path)); moveErr != nil {
			slog.Error("Failed to move file to fail directory", "file", path, "error", moveErr)
		}
		if p.hardFail {
			return fmt.Errorf("import of %s failed: %w (%w)", filepath.Base(path), err, common.ErrHardFail)
		}
	}
	return nil
}

// ImportOne imports a single statement file. The sequence of guards makes
// re-running an import a no-op: the content hash catches the same bytes, the
// canonical filename catches the same statement re-exported with different
// bytes, and per-transaction hashes catch overlap with other statements.
func (p *Processor) ImportOne(ctx context.Context, path string) error {
	md5, err := model.HashFile(path)
	if err != nil {
		return err
	}

	seen, err := p.store.StatementExistsByHash(ctx, md5)
	if err != nil {
		return err
	}
	if seen {
		return p.duplicate(path, "content hash already imported")
	}

	stmt, err := p.router.Route(path)
	if err != nil {
		return err
	}
	stmt.ContentMD5 = md5

	if err := p.resolveAccounts(ctx, stmt); err != nil {
		return err
	}

	for i := range stmt.Accounts {
		stmt.Accounts[i].HashTransactions()
	}

	nickname, err := p.store.GetAccountNickname(ctx, stmt.Accounts[0].AccountID)
	if err != nil {
		return err
	}
	filename := stmt.ArchiveFilename(nickname)

	seen, err = p.store.StatementExistsByFilename(ctx, filename)
	if err != nil {
		return err
	}
	if seen {
		return p.duplicate(path, "canonical filename already imported")
	}

	stats, err := p.store.SaveStatement(ctx, stmt, filename)
	if err != nil {
		return err
	}

	slog.Info("Imported statement",
		"file", filepath.Base(path),
		"archive", filename,
		"plugin", stmt.PluginID,
		"saved", stats.TransactionsSaved,
		"skipped", stats.TransactionsSkipped)

	// The database row exists now; a failed archive move must not undo it.
	// It is reported loudly instead, since a file left in the inbox would be
	// flagged as a duplicate on the next run.
	archived, err := p.archive(path, filename)
	if err != nil {
		slog.Error("Statement imported but archive move failed; move the file manually",
			"file", path, "destination", filepath.Join(p.dirs.Success, filename), "error", err)
		return nil
	}
	stmt.ArchivedPath = archived
	return nil
}

// resolveAccounts maps every parsed account number to a ledger account,
// prompting for a nickname when the number is new.
func (p *Processor) resolveAccounts(ctx context.Context, stmt *model.Statement) error {
	meta, err := p.snap.Metadata(stmt.PluginID)
	if err != nil {
		return err
	}

	for i := range stmt.Accounts {
		acct := &stmt.Accounts[i]

		id, lookupErr := p.store.GetAccountID(ctx, acct.AccountNum)
		if lookupErr == nil {
			acct.AccountID = id
			continue
		}
		if !errors.Is(lookupErr, common.ErrNotFound) {
			return lookupErr
		}

		nickname, resolveErr := p.resolver.Resolve(ctx, acct.AccountNum, meta)
		if resolveErr != nil {
			return fmt.Errorf("account %s: %w", acct.AccountNum, resolveErr)
		}
		id, lookupErr = p.store.CreateAccount(ctx, nickname, meta.Company, acct.AccountNum)
		if lookupErr != nil {
			return lookupErr
		}
		acct.AccountID = id
	}
	return nil
}

// archive moves the source file into the success directory under its
// canonical name, retrying lock conflicts if the confirmer approves.
func (p *Processor) archive(path, filename string) (string, error) {
	for {
		archived, err := common.MoveFile(path, p.dirs.Success, filename)
		if err == nil {
			return archived, nil
		}

		var moveErr *common.FileMoveError
		if !errors.As(err, &moveErr) || !moveErr.Retryable {
			return "", err
		}
		if p.confirmer == nil || !p.confirmer.ConfirmRetry(path, err) {
			return "", err
		}
	}
}

func (p *Processor) duplicate(path, reason string) error {
	if _, err := common.MoveFile(path, p.dirs.Duplicate, filepath.Base(path)); err != nil {
		slog.Error("Failed to move duplicate file", "file", path, "error", err)
	}
	return fmt.Errorf("%s: %w", reason, common.ErrDuplicate)
}

// discover lists importable files in the inbox, sorted by name so batches
// run in a stable order.
func (p *Processor) discover() ([]string, error) {
	entries, err := os.ReadDir(p.dirs.Inbox)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", p.dirs.Inbox, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if len(p.extensions) > 0 && !p.extensions[ext] {
			continue
		}
		files = append(files, filepath.Join(p.dirs.Inbox, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
