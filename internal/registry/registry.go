// Package registry discovers and loads parsing plugins. Artifacts on disk
// are named <plugin_id>_v<semver>.<ext>; each id maps to a statically linked
// constructor. A plugin that fails its metadata contract is skipped with a
// logged error and never aborts loading of the others.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/tbrownhe/guibank/internal/common"
	"github.com/tbrownhe/guibank/internal/match"
	"github.com/tbrownhe/guibank/internal/plugin"
)

// Constructor builds a fresh plugin instance.
type Constructor func() plugin.Plugin

var artifactRe = regexp.MustCompile(`^([a-z0-9_]+)_v(\d+\.\d+\.\d+)\.[A-Za-z0-9]+$`)

type entry struct {
	impl plugin.Plugin
	meta plugin.Metadata
}

// Snapshot is an immutable view of the loaded plugin set. Readers always see
// either the previous complete snapshot or the new one, never a partial map.
type Snapshot struct {
	entries map[string]entry
	order   []string
}

// Get returns the parsing implementation for a plugin id.
func (s *Snapshot) Get(pluginID string) (plugin.Plugin, error) {
	e, ok := s.entries[pluginID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrPluginNotLoaded, pluginID)
	}
	return e.impl, nil
}

// Metadata returns the validated metadata for a plugin id.
func (s *Snapshot) Metadata(pluginID string) (plugin.Metadata, error) {
	e, ok := s.entries[pluginID]
	if !ok {
		return plugin.Metadata{}, fmt.Errorf("%w: %s", common.ErrPluginNotLoaded, pluginID)
	}
	return e.meta, nil
}

// PluginIDs lists loaded plugins in scan order.
func (s *Snapshot) PluginIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Candidates exposes the plugin set to the match engine, in registry order.
func (s *Snapshot) Candidates() []match.Candidate {
	cands := make([]match.Candidate, 0, len(s.order))
	for _, id := range s.order {
		e := s.entries[id]
		cands = append(cands, match.Candidate{
			PluginID:   id,
			Suffix:     e.meta.Suffix,
			Expression: e.meta.SearchExpression,
		})
	}
	return cands
}

// Suffixes returns the distinct set of file suffixes the loaded plugins
// support, sorted.
func (s *Snapshot) Suffixes() []string {
	seen := make(map[string]bool)
	for _, e := range s.entries {
		seen[strings.ToLower(e.meta.Suffix)] = true
	}
	suffixes := make([]string, 0, len(seen))
	for suffix := range seen {
		suffixes = append(suffixes, suffix)
	}
	sort.Strings(suffixes)
	return suffixes
}

// Len returns the number of loaded plugins.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Registry owns the plugin snapshot. LoadAll may be called again at any time
// to rebuild it; the swap is atomic with respect to concurrent readers.
type Registry struct {
	constructors map[string]Constructor
	snap         atomic.Pointer[Snapshot]
}

// New creates a registry backed by the given constructor table.
func New(constructors map[string]Constructor) *Registry {
	r := &Registry{constructors: constructors}
	r.snap.Store(&Snapshot{entries: map[string]entry{}})
	return r
}

// LoadAll scans the artifact directory and builds a new snapshot. Each
// artifact is loaded independently: a missing constructor or a metadata
// contract violation skips that plugin only. If two artifacts claim the same
// plugin id, the later one scanned wins; version arbitration on disk belongs
// to the update mechanism, not the registry.
func (r *Registry) LoadAll(dir string) (*Snapshot, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan plugin directory %s: %w", dir, err)
	}

	snap := &Snapshot{entries: make(map[string]entry)}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := artifactRe.FindStringSubmatch(f.Name())
		if m == nil {
			continue
		}
		pluginID, version := m[1], m[2]

		impl, meta, loadErr := r.load(pluginID)
		if loadErr != nil {
			slog.Error("Failed to load plugin", "artifact", f.Name(), "error", loadErr)
			continue
		}
		if meta.Version != version {
			slog.Warn("Plugin artifact version differs from metadata",
				"plugin", pluginID, "artifact", version, "metadata", meta.Version)
		}

		if _, dup := snap.entries[pluginID]; dup {
			slog.Warn("Duplicate plugin artifact, later scan wins", "plugin", pluginID)
		} else {
			snap.order = append(snap.order, pluginID)
		}
		snap.entries[pluginID] = entry{impl: impl, meta: meta}
		slog.Info("Loaded plugin", "plugin", pluginID, "version", meta.Version, "suffix", meta.Suffix)
	}

	r.snap.Store(snap)
	return snap, nil
}

// Snapshot returns the current plugin set.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}

func (r *Registry) load(pluginID string) (plugin.Plugin, plugin.Metadata, error) {
	ctor, ok := r.constructors[pluginID]
	if !ok {
		return nil, plugin.Metadata{}, fmt.Errorf("no parser registered for %s", pluginID)
	}

	impl := ctor()
	meta := impl.Metadata()
	if meta.PluginID == "" {
		meta.PluginID = pluginID
	}
	if err := plugin.ValidateMetadata(meta); err != nil {
		return nil, plugin.Metadata{}, err
	}
	if meta.PluginID != pluginID {
		return nil, plugin.Metadata{}, fmt.Errorf("artifact id %s does not match metadata id %s", pluginID, meta.PluginID)
	}
	if _, err := match.Parse(meta.SearchExpression); err != nil {
		return nil, plugin.Metadata{}, fmt.Errorf("invalid search expression: %w", err)
	}

	return impl, meta, nil
}
