package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/pdfharvest/internal/config"
	"github.com/nao1215/pdfharvest/internal/database"
	"github.com/nao1215/pdfharvest/internal/model"
	"github.com/nao1215/pdfharvest/internal/report"
	"github.com/spf13/cobra"
)

// Defaults for the status listing sizes.
const (
	defaultStatusPending = 20
	defaultStatusRecent  = 10
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the state store holds",
		Long: `Status reports the documents, files and tables recorded in the state store,
the files still waiting to be processed, and the most recent documents.

Examples:
  pdfharvest status
  pdfharvest status --pending 50
  pdfharvest status --markdown -o status.md
  pdfharvest status --json`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().Int("pending", defaultStatusPending,
		"Maximum number of pending files listed")
	cmd.Flags().Int("recent", defaultStatusRecent,
		"Maximum number of recent documents listed")

	addStoreFlags(cmd)
	addOutputFlags(cmd)

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	out, err := getOutputOptions(cmd)
	if err != nil {
		return err
	}

	pending, err := cmd.Flags().GetInt("pending")
	if err != nil {
		return err
	}
	recent, err := cmd.Flags().GetInt("recent")
	if err != nil {
		return err
	}

	status, err := loadStatus(commandContext(cmd), cfg, pending, recent)
	if err != nil {
		return err
	}

	return withReportWriter(out, cmd.OutOrStdout(), func(w report.Writer) error {
		_, err := w.Write(status)
		return err
	})
}

// loadStatus reads a snapshot of the state store. It never creates the
// database.
func loadStatus(ctx context.Context, cfg *config.Config, pending, recent int) (*model.Status, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(cfg.DataDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return nil, fmt.Errorf("no state store in %s (run 'pdfharvest run' first): %w", cfg.DataDir, err)
		}
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	defer db.Close()

	stats, err := db.Stats(ctx)
	if err != nil {
		return nil, err
	}

	status := &model.Status{
		GeneratedAt: time.Now(),
		DataDir:     cfg.DataDir,
		Stats:       stats,
	}

	if pending > 0 {
		if status.PendingFiles, err = db.ListUnprocessed(ctx, pending); err != nil {
			return nil, err
		}
	}
	if recent > 0 {
		if status.RecentDocuments, err = db.ListDocuments(ctx, recent); err != nil {
			return nil, err
		}
	}

	return status, nil
}
