package main

import (
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tbrownhe/guibank/internal/config"
)

func pluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the loaded statement parsers",
		Long: `List the statement parsers loaded from the plugin directory.

A parser is live only if its versioned artifact is present in the plugin
directory; artifacts that fail validation are logged and skipped.`,
		RunE: runPlugins,
	}
}

func runPlugins(cmd *cobra.Command, _ []string) error {
	snap, err := loadRegistry()
	if err != nil {
		return err
	}

	if snap.Len() == 0 {
		cmd.Printf("No plugins loaded from %s\n", config.PluginsDir())
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if _, err := w.Write([]byte("PLUGIN\tVERSION\tSUFFIX\tCOMPANY\tSTATEMENT TYPE\n")); err != nil {
		return err
	}
	for _, id := range snap.PluginIDs() {
		meta, metaErr := snap.Metadata(id)
		if metaErr != nil {
			return metaErr
		}
		if _, err := w.Write([]byte(
			meta.PluginID + "\t" + meta.Version + "\t" + meta.Suffix + "\t" +
				meta.Company + "\t" + meta.StatementType + "\n")); err != nil {
			return err
		}
	}
	return nil
}
