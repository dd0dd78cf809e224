package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tbrownhe/guibank/internal/cli"
	"github.com/tbrownhe/guibank/internal/config"
	"github.com/tbrownhe/guibank/internal/importer"
	"github.com/tbrownhe/guibank/internal/router"
	"github.com/tbrownhe/guibank/internal/service"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import statement files into the ledger",
		Long: `Import statement files into the ledger.

With no arguments every supported file in the inbox directory is imported.
Each file is parsed by the plugin matching its contents, deduplicated
against previous imports, and filed into the archive tree. Pass explicit
file paths to import just those files.`,
		RunE: runImport,
	}

	cmd.Flags().Bool("hard-fail", false, "Abort the batch on the first failed file")
	cmd.Flags().Bool("non-interactive", false, "Never prompt; fail imports that need input")

	_ = viper.BindPFlag("import.hard_fail", cmd.Flags().Lookup("hard-fail"))
	_ = viper.BindPFlag("import.non_interactive", cmd.Flags().Lookup("non-interactive"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	snap, err := loadRegistry()
	if err != nil {
		return err
	}
	if snap.Len() == 0 {
		return fmt.Errorf("no plugins loaded from %s", config.PluginsDir())
	}

	var (
		resolver  service.AccountResolver
		confirmer service.MoveConfirmer
	)
	if viper.GetBool("import.non_interactive") {
		resolver = cli.NonInteractiveResolver{}
		confirmer = cli.NonInteractiveConfirmer{}
	} else {
		prompter := cli.NewPrompter(os.Stdin, os.Stdout)
		resolver = prompter
		confirmer = prompter
	}

	processor := importer.New(importer.Config{
		Store:      store,
		Router:     router.New(snap),
		Resolver:   resolver,
		Confirmer:  confirmer,
		Snapshot:   snap,
		Dirs:       config.ImportDirs(),
		Extensions: viper.GetStringSlice("import.extensions"),
		HardFail:   viper.GetBool("import.hard_fail"),
	})

	if len(args) > 0 {
		return importFiles(cmd, processor, args)
	}

	summary, err := processor.ImportAll(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd, summary)
	return nil
}

// importFiles imports an explicit list of paths, honoring hard-fail the same
// way a batch run does.
func importFiles(cmd *cobra.Command, processor *importer.Processor, paths []string) error {
	var summary importer.Summary
	for _, path := range paths {
		result, err := processor.ImportPath(cmd.Context(), path)
		summary.Imported += result.Imported
		summary.Duplicates += result.Duplicates
		summary.Failed += result.Failed
		if err != nil {
			return err
		}
	}
	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, summary importer.Summary) {
	cmd.Printf("Imported %d statement(s), %d duplicate(s), %d failed\n",
		summary.Imported, summary.Duplicates, summary.Failed)
}
