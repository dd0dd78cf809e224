package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
)

type fakePlugin struct {
	meta plugin.Metadata
}

func (f *fakePlugin) Metadata() plugin.Metadata { return f.meta }

func (f *fakePlugin) Parse(_ *plugin.Input) (*model.Statement, error) {
	return &model.Statement{}, nil
}

func fakeConstructor(meta plugin.Metadata) Constructor {
	return func() plugin.Plugin { return &fakePlugin{meta: meta} }
}

func validMeta(id string) plugin.Metadata {
	return plugin.Metadata{
		PluginID:         id,
		Version:          "0.1.0",
		Suffix:           ".pdf",
		Company:          "Test Bank",
		StatementType:    "Test Statement",
		SearchExpression: "test bank&&statement",
		Instructions:     "Download from the test bank.",
	}
}

func writeArtifact(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("artifact"), 0o600))
}

func TestLoadAll(t *testing.T) {
	t.Run("loads matching artifacts", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "pdf_testbank_v0.1.0.pyc")
		writeArtifact(t, dir, "notes.txt") // ignored, not an artifact name

		reg := New(map[string]Constructor{
			"pdf_testbank": fakeConstructor(validMeta("pdf_testbank")),
		})
		snap, err := reg.LoadAll(dir)
		require.NoError(t, err)

		assert.Equal(t, 1, snap.Len())
		assert.Equal(t, []string{"pdf_testbank"}, snap.PluginIDs())

		impl, err := snap.Get("pdf_testbank")
		require.NoError(t, err)
		assert.NotNil(t, impl)

		meta, err := snap.Metadata("pdf_testbank")
		require.NoError(t, err)
		assert.Equal(t, "Test Bank", meta.Company)
	})

	t.Run("skips artifact without constructor", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "pdf_testbank_v0.1.0.pyc")
		writeArtifact(t, dir, "pdf_unknown_v0.2.0.pyc")

		reg := New(map[string]Constructor{
			"pdf_testbank": fakeConstructor(validMeta("pdf_testbank")),
		})
		snap, err := reg.LoadAll(dir)
		require.NoError(t, err)

		assert.Equal(t, 1, snap.Len())
		_, err = snap.Get("pdf_unknown")
		assert.ErrorIs(t, err, common.ErrPluginNotLoaded)
	})

	t.Run("skips metadata contract violations", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "pdf_blank_v0.1.0.pyc")

		meta := validMeta("pdf_blank")
		meta.Company = ""
		meta.Instructions = ""

		reg := New(map[string]Constructor{"pdf_blank": fakeConstructor(meta)})
		snap, err := reg.LoadAll(dir)
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Len())
	})

	t.Run("skips invalid search expression", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "pdf_badexpr_v0.1.0.pyc")

		meta := validMeta("pdf_badexpr")
		meta.SearchExpression = "alpha&&"

		reg := New(map[string]Constructor{"pdf_badexpr": fakeConstructor(meta)})
		snap, err := reg.LoadAll(dir)
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Len())
	})

	t.Run("skips artifact id mismatch", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "pdf_other_v0.1.0.pyc")

		// Constructor registered under one id, metadata claims another.
		reg := New(map[string]Constructor{"pdf_other": fakeConstructor(validMeta("pdf_testbank"))})
		snap, err := reg.LoadAll(dir)
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Len())
	})

	t.Run("duplicate artifacts keep one entry", func(t *testing.T) {
		dir := t.TempDir()
		writeArtifact(t, dir, "pdf_testbank_v0.1.0.pyc")
		writeArtifact(t, dir, "pdf_testbank_v0.2.0.pyc")

		reg := New(map[string]Constructor{
			"pdf_testbank": fakeConstructor(validMeta("pdf_testbank")),
		})
		snap, err := reg.LoadAll(dir)
		require.NoError(t, err)
		assert.Equal(t, 1, snap.Len())
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		reg := New(nil)
		_, err := reg.LoadAll(filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
	})

	t.Run("rebuild swaps the snapshot", func(t *testing.T) {
		dir := t.TempDir()
		reg := New(map[string]Constructor{
			"pdf_testbank": fakeConstructor(validMeta("pdf_testbank")),
		})

		before, err := reg.LoadAll(dir)
		require.NoError(t, err)
		assert.Equal(t, 0, before.Len())

		writeArtifact(t, dir, "pdf_testbank_v0.1.0.pyc")
		after, err := reg.LoadAll(dir)
		require.NoError(t, err)

		assert.Equal(t, 0, before.Len(), "old snapshot must be untouched")
		assert.Equal(t, 1, after.Len())
		assert.Same(t, after, reg.Snapshot())
	})
}

func TestSnapshotCandidatesAndSuffixes(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "pdf_testbank_v0.1.0.pyc")
	writeArtifact(t, dir, "csv_testbank_v0.1.0.pyc")

	csvMeta := validMeta("csv_testbank")
	csvMeta.Suffix = ".csv"
	csvMeta.SearchExpression = "test bank csv"

	reg := New(map[string]Constructor{
		"pdf_testbank": fakeConstructor(validMeta("pdf_testbank")),
		"csv_testbank": fakeConstructor(csvMeta),
	})
	snap, err := reg.LoadAll(dir)
	require.NoError(t, err)

	cands := snap.Candidates()
	require.Len(t, cands, 2)
	for _, cand := range cands {
		assert.NotEmpty(t, cand.PluginID)
		assert.NotEmpty(t, cand.Suffix)
		assert.NotEmpty(t, cand.Expression)
	}

	assert.Equal(t, []string{".csv", ".pdf"}, snap.Suffixes())
}
