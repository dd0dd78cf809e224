package main

import (
	"context"
	"fmt"

	"github.com/tbrownhe/guibank/internal/config"
	"github.com/tbrownhe/guibank/internal/plugins"
	"github.com/tbrownhe/guibank/internal/registry"
	"github.com/tbrownhe/guibank/internal/storage"
)

// openStorage opens the ledger database and brings its schema current.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// loadRegistry scans the plugin directory and returns the resulting
// snapshot.
func loadRegistry() (*registry.Snapshot, error) {
	reg := registry.New(plugins.Constructors())
	snap, err := reg.LoadAll(config.PluginsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to load plugins: %w", err)
	}
	return snap, nil
}
