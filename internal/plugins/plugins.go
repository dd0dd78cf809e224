// Package plugins links every built-in parser into one constructor table.
// The registry decides which of these are live by scanning the plugin
// directory for their versioned artifacts.
package plugins

import (
	"github.com/tbrownhe/guibank/internal/plugin"
	"github.com/tbrownhe/guibank/internal/plugins/citi"
	"github.com/tbrownhe/guibank/internal/plugins/fedloan"
	"github.com/tbrownhe/guibank/internal/plugins/mohela"
	"github.com/tbrownhe/guibank/internal/plugins/occubank"
	"github.com/tbrownhe/guibank/internal/plugins/ofx"
	"github.com/tbrownhe/guibank/internal/plugins/wellsfargo"
	"github.com/tbrownhe/guibank/internal/registry"
)

// Constructors returns the full table of built-in parser constructors keyed
// by plugin ID.
func Constructors() map[string]registry.Constructor {
	return map[string]registry.Constructor{
		citi.PluginID:       func() plugin.Plugin { return citi.New() },
		fedloan.PluginID:    func() plugin.Plugin { return fedloan.New() },
		mohela.PluginID:     func() plugin.Plugin { return mohela.New() },
		occubank.PluginID:   func() plugin.Plugin { return occubank.New() },
		ofx.PluginID:        func() plugin.Plugin { return ofx.New() },
		wellsfargo.PluginID: func() plugin.Plugin { return wellsfargo.New() },
	}
}
