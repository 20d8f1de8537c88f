package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewLinksCmd creates the links command.
func NewLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links [seed-url]",
		Short: "Print the PDF links found from a listing page",
		Long: `Links crawls a listing page and its "Next" pages and prints every matching
PDF URL once, in the order found. Nothing is downloaded or stored.

Examples:
  pdfharvest links
  pdfharvest links --max-pages 2 https://www.mospi.gov.in/press-release`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLinksCmd,
	}

	addScraperFlags(cmd)
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pdfharvest in current or home directory)")

	return cmd
}

// runLinksCmd executes the links command.
func runLinksCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spider := newSpider(cfg, newFetchClient(cfg, logger), logger)

	links, err := spider.DiscoverPDFLinks(ctx, cfg.Seeds[0])
	if err != nil {
		return fmt.Errorf("failed to discover links: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, link := range links {
		fmt.Fprintln(out, link)
	}
	return nil
}
