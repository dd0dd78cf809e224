package main

import (
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the guibank version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("guibank %s\n", version)
		},
	}
}
