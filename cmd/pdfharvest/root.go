package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pdfharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdfharvest",
		Short: "Crawl and ingest government press-release PDFs",
		Long: `pdfharvest crawls press-release listing pages, downloads the linked PDFs,
extracts their text and first table, and keeps track of every document and
file in a local SQLite state store.

Runs are resumable: files that failed or were not reached stay pending and
are picked up by the next run.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewLinksCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
