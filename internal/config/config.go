// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tbrownhe/guibank/internal/importer"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// SetDefaults registers the default configuration values with Viper. Called
// once at startup before any config file or environment variable is read.
func SetDefaults() {
	viper.SetDefault("db.path", "~/.local/share/guibank/guibank.db")
	viper.SetDefault("plugins.dir", "~/.config/guibank/plugins")
	viper.SetDefault("import.inbox_dir", "~/Documents/guibank/inbox")
	viper.SetDefault("import.success_dir", "~/Documents/guibank/archive")
	viper.SetDefault("import.duplicate_dir", "~/Documents/guibank/duplicates")
	viper.SetDefault("import.fail_dir", "~/Documents/guibank/failed")
	viper.SetDefault("import.hard_fail", false)
	viper.SetDefault("import.extensions", []string{".pdf", ".csv", ".xlsx", ".ofx", ".qfx"})
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// DBPath returns the expanded ledger database path.
func DBPath() string {
	return ExpandPath(viper.GetString("db.path"))
}

// PluginsDir returns the expanded plugin artifact directory.
func PluginsDir() string {
	return ExpandPath(viper.GetString("plugins.dir"))
}

// ImportDirs returns the expanded archive tree for imports.
func ImportDirs() importer.Dirs {
	return importer.Dirs{
		Inbox:     ExpandPath(viper.GetString("import.inbox_dir")),
		Success:   ExpandPath(viper.GetString("import.success_dir")),
		Duplicate: ExpandPath(viper.GetString("import.duplicate_dir")),
		Fail:      ExpandPath(viper.GetString("import.fail_dir")),
	}
}
