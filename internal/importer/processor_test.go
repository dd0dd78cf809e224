package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
	"github.com/tbrownhe/guibank/internal/registry"
	"github.com/tbrownhe/guibank/internal/storage"
)

const testPluginID = "pdf_testbank"

type fakePlugin struct{}

func (fakePlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		PluginID:         testPluginID,
		Version:          "0.1.0",
		Suffix:           ".pdf",
		Company:          "Test Bank",
		StatementType:    "Test Statement",
		SearchExpression: "test bank",
		Instructions:     "Download it.",
	}
}

func (fakePlugin) Parse(_ *plugin.Input) (*model.Statement, error) {
	return nil, fmt.Errorf("not used; the router is stubbed")
}

// stubRouter fabricates statements per path instead of parsing files.
type stubRouter struct {
	routes map[string]func() (*model.Statement, error)
}

func (s *stubRouter) Route(path string) (*model.Statement, error) {
	factory, ok := s.routes[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("unexpected route %s", path)
	}
	stmt, err := factory()
	if stmt != nil {
		stmt.SourcePath = path
	}
	return stmt, err
}

type stubResolver struct {
	nickname string
	calls    int
}

func (r *stubResolver) Resolve(_ context.Context, _ string, _ plugin.Metadata) (string, error) {
	r.calls++
	if r.nickname == "" {
		return "", common.ErrAccountResolutionRequired
	}
	return r.nickname, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func marchStatement() (*model.Statement, error) {
	return &model.Statement{
		StartDate: day(2021, 3, 1),
		EndDate:   day(2021, 3, 31),
		PluginID:  testPluginID,
		Accounts: []model.Account{{
			AccountNum:   "12345",
			StartBalance: decimal.NewFromFloat(100.00),
			EndBalance:   decimal.NewFromFloat(130.00),
			Transactions: []model.Transaction{{
				TransactionDate: day(2021, 3, 10),
				PostingDate:     day(2021, 3, 10),
				Amount:          decimal.NewFromFloat(30.00),
				Balance:         decimal.NewNullDecimal(decimal.NewFromFloat(130.00)),
				Description:     "DEPOSIT",
			}},
		}},
	}, nil
}

type fixture struct {
	store    *storage.SQLiteStorage
	router   *stubRouter
	resolver *stubResolver
	dirs     Dirs
}

func newFixture(t *testing.T, hardFail bool) (*Processor, *fixture) {
	t.Helper()
	base := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(base, "guibank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	pluginDir := filepath.Join(base, "plugins")
	require.NoError(t, os.MkdirAll(pluginDir, 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(pluginDir, testPluginID+"_v0.1.0.pyc"), []byte("artifact"), 0o600))

	reg := registry.New(map[string]registry.Constructor{
		testPluginID: func() plugin.Plugin { return fakePlugin{} },
	})
	snap, err := reg.LoadAll(pluginDir)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Len())

	f := &fixture{
		store:    store,
		router:   &stubRouter{routes: map[string]func() (*model.Statement, error){}},
		resolver: &stubResolver{nickname: "test-account"},
		dirs: Dirs{
			Inbox:     filepath.Join(base, "inbox"),
			Success:   filepath.Join(base, "archive"),
			Duplicate: filepath.Join(base, "duplicates"),
			Fail:      filepath.Join(base, "failed"),
		},
	}
	require.NoError(t, os.MkdirAll(f.dirs.Inbox, 0o750))

	proc := New(Config{
		Store:      store,
		Router:     f.router,
		Resolver:   f.resolver,
		Snapshot:   snap,
		Dirs:       f.dirs,
		Extensions: []string{".pdf", ".csv"},
		HardFail:   hardFail,
	})
	return proc, f
}

func (f *fixture) drop(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(f.dirs.Inbox, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestImportOne(t *testing.T) {
	ctx := context.Background()

	t.Run("imports, resolves, and archives", func(t *testing.T) {
		proc, f := newFixture(t, false)
		f.router.routes["stmt.pdf"] = marchStatement
		path := f.drop(t, "stmt.pdf", "statement bytes")

		require.NoError(t, proc.ImportOne(ctx, path))

		assert.Equal(t, 1, f.resolver.calls)
		assert.NoFileExists(t, path)
		assert.FileExists(t, filepath.Join(f.dirs.Success, "test-account_20210301_20210331.pdf"))

		count, err := f.store.TransactionCount(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("same bytes are a duplicate", func(t *testing.T) {
		proc, f := newFixture(t, false)
		f.router.routes["stmt.pdf"] = marchStatement
		require.NoError(t, proc.ImportOne(ctx, f.drop(t, "stmt.pdf", "statement bytes")))

		// The same document lands in the inbox again under another name.
		again := f.drop(t, "stmt-copy.pdf", "statement bytes")
		err := proc.ImportOne(ctx, again)
		assert.ErrorIs(t, err, common.ErrDuplicate)
		assert.FileExists(t, filepath.Join(f.dirs.Duplicate, "stmt-copy.pdf"))

		count, countErr := f.store.TransactionCount(ctx)
		require.NoError(t, countErr)
		assert.EqualValues(t, 1, count)
	})

	t.Run("re-export with different bytes is caught by filename", func(t *testing.T) {
		proc, f := newFixture(t, false)
		f.router.routes["stmt.pdf"] = marchStatement
		f.router.routes["regenerated.pdf"] = marchStatement
		require.NoError(t, proc.ImportOne(ctx, f.drop(t, "stmt.pdf", "statement bytes")))

		err := proc.ImportOne(ctx, f.drop(t, "regenerated.pdf", "different bytes, same statement"))
		assert.ErrorIs(t, err, common.ErrDuplicate)
		assert.FileExists(t, filepath.Join(f.dirs.Duplicate, "regenerated.pdf"))
	})

	t.Run("unknown account without resolver answer fails", func(t *testing.T) {
		proc, f := newFixture(t, false)
		f.resolver.nickname = ""
		f.router.routes["stmt.pdf"] = marchStatement

		err := proc.ImportOne(ctx, f.drop(t, "stmt.pdf", "statement bytes"))
		assert.ErrorIs(t, err, common.ErrAccountResolutionRequired)

		count, countErr := f.store.TransactionCount(ctx)
		require.NoError(t, countErr)
		assert.Zero(t, count)
	})

	t.Run("known account skips the resolver", func(t *testing.T) {
		proc, f := newFixture(t, false)
		_, err := f.store.CreateAccount(ctx, "test-account", "Test Bank", "12345")
		require.NoError(t, err)
		f.router.routes["stmt.pdf"] = marchStatement

		require.NoError(t, proc.ImportOne(ctx, f.drop(t, "stmt.pdf", "statement bytes")))
		assert.Zero(t, f.resolver.calls)
	})
}

func TestImportAll(t *testing.T) {
	ctx := context.Background()

	t.Run("mixed batch", func(t *testing.T) {
		proc, f := newFixture(t, false)
		f.router.routes["good.pdf"] = marchStatement
		f.router.routes["bad.pdf"] = func() (*model.Statement, error) {
			return nil, fmt.Errorf("scrambled text layer")
		}
		f.drop(t, "good.pdf", "statement bytes")
		f.drop(t, "bad.pdf", "unparseable bytes")
		f.drop(t, "notes.txt", "ignored, wrong extension")

		summary, err := proc.ImportAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, Summary{Imported: 1, Failed: 1}, summary)

		assert.FileExists(t, filepath.Join(f.dirs.Fail, "bad.pdf"))
		assert.FileExists(t, filepath.Join(f.dirs.Inbox, "notes.txt"))
	})

	t.Run("hard fail aborts the batch", func(t *testing.T) {
		proc, f := newFixture(t, true)
		// Files import in name order; the failure comes first.
		f.router.routes["a-bad.pdf"] = func() (*model.Statement, error) {
			return nil, fmt.Errorf("scrambled text layer")
		}
		f.router.routes["b-good.pdf"] = marchStatement
		f.drop(t, "a-bad.pdf", "unparseable bytes")
		goodPath := f.drop(t, "b-good.pdf", "statement bytes")

		summary, err := proc.ImportAll(ctx)
		assert.ErrorIs(t, err, common.ErrHardFail)
		assert.Equal(t, Summary{Failed: 1}, summary)

		// The good file was never touched.
		assert.FileExists(t, goodPath)
		count, countErr := f.store.TransactionCount(ctx)
		require.NoError(t, countErr)
		assert.Zero(t, count)
	})

	t.Run("duplicates never trip hard fail", func(t *testing.T) {
		proc, f := newFixture(t, true)
		f.router.routes["stmt.pdf"] = marchStatement
		require.NoError(t, proc.ImportOne(ctx, f.drop(t, "stmt.pdf", "statement bytes")))

		f.drop(t, "copy1.pdf", "statement bytes")
		f.drop(t, "copy2.pdf", "statement bytes")

		summary, err := proc.ImportAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, Summary{Duplicates: 2}, summary)
	})

	t.Run("canceled context leaves files in the inbox", func(t *testing.T) {
		proc, f := newFixture(t, false)
		f.router.routes["good.pdf"] = marchStatement
		path := f.drop(t, "good.pdf", "statement bytes")

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		summary, err := proc.ImportAll(canceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, Summary{}, summary)

		// Nothing was filed as failed and nothing left the inbox.
		assert.FileExists(t, path)
		assert.NoFileExists(t, filepath.Join(f.dirs.Fail, "good.pdf"))

		count, countErr := f.store.TransactionCount(ctx)
		require.NoError(t, countErr)
		assert.Zero(t, count)
	})

	t.Run("cancellation mid-file stops without filing", func(t *testing.T) {
		proc, f := newFixture(t, false)
		canceled, cancel := context.WithCancel(ctx)
		f.router.routes["slow.pdf"] = func() (*model.Statement, error) {
			// Stands in for an interrupt arriving while this file parses.
			cancel()
			return nil, canceled.Err()
		}
		path := f.drop(t, "slow.pdf", "statement bytes")

		summary, err := proc.ImportAll(canceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, Summary{}, summary)
		assert.FileExists(t, path)
	})

	t.Run("empty inbox", func(t *testing.T) {
		proc, _ := newFixture(t, false)
		summary, err := proc.ImportAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, Summary{}, summary)
	})
}

func TestImportPath(t *testing.T) {
	ctx := context.Background()
	proc, f := newFixture(t, false)
	f.router.routes["stmt.pdf"] = marchStatement

	summary, err := proc.ImportPath(ctx, f.drop(t, "stmt.pdf", "statement bytes"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Imported: 1}, summary)
}
