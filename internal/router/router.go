// Package router turns statement files into validated Statement values. One
// router exists per supported suffix; each extracts the flat text used for
// plugin matching plus the richer input the matched plugin consumes, then
// holds every plugin's output to the same reconciliation and validation
// rules.
package router

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/match"
	"github.com/tbrownhe/guibank/internal/model"
	"github.com/tbrownhe/guibank/internal/plugin"
	"github.com/tbrownhe/guibank/internal/registry"
)

type reader func(path string) (*plugin.Input, error)

var readers = map[string]reader{
	".pdf":  readPDF,
	".csv":  readCSV,
	".xlsx": readXLSX,
	".ofx":  readOFX,
	".qfx":  readOFX,
}

// suffixAliases folds equivalent container formats together for plugin
// matching. Quicken's .qfx is OFX with a different extension.
var suffixAliases = map[string]string{
	".qfx": ".ofx",
}

// SupportedSuffix reports whether a reader exists for the file suffix.
func SupportedSuffix(suffix string) bool {
	_, ok := readers[strings.ToLower(suffix)]
	return ok
}

// Router routes files against one plugin snapshot. Rebuilding the registry
// produces a new snapshot; in-flight routes keep the one they started with.
type Router struct {
	snap *registry.Snapshot
}

// New creates a router over the given plugin snapshot.
func New(snap *registry.Snapshot) *Router {
	return &Router{snap: snap}
}

// Route extracts a file, selects the plugin that authored its format, parses
// it, reconciles running balances, and validates the result. Any schema
// violation is a hard error carrying every violated field at once.
func (r *Router) Route(path string) (*model.Statement, error) {
	suffix := strings.ToLower(filepath.Ext(path))
	read, ok := readers[suffix]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedSuffix, suffix)
	}

	input, err := read(path)
	if err != nil {
		return nil, err
	}

	matchSuffix := suffix
	if alias, ok := suffixAliases[suffix]; ok {
		matchSuffix = alias
	}
	pluginID, err := match.SelectPlugin(input.Text, matchSuffix, r.snap.Candidates())
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, filepath.Base(path))
	}

	impl, err := r.snap.Get(pluginID)
	if err != nil {
		return nil, err
	}

	stmt, err := impl.Parse(input)
	if err != nil {
		return nil, &common.ParseError{PluginID: pluginID, Err: err}
	}
	stmt.PluginID = pluginID
	stmt.SourcePath = path

	Reconcile(stmt)

	if err := Validate(stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}
