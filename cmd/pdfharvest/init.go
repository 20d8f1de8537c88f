package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/pdfharvest/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/pdfharvest.yaml
var configTemplate []byte

// configFileName is where init writes by default.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .pdfharvest configuration file",
		Long: `Write a commented configuration file with the default seed, the scraper
settings and examples of per-host cookies and headers.

An existing file is left alone unless --force is given.

Examples:
  pdfharvest init
  pdfharvest init -o conf/harvest.yaml
  pdfharvest init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName, "Path of the configuration file to write")
	cmd.Flags().BoolP("force", "f", false, "Replace an existing file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := stringFlag(cmd, "output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeTemplate(path, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n"+
		"Edit the seeds, scraper limits and per-host headers, then run 'pdfharvest run'.\n", path)
	return nil
}

// writeTemplate creates path with owner-only permissions, since the file
// may end up holding session cookies.
func writeTemplate(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	f, err := os.OpenFile(filepath.Clean(path), flags, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	if _, err := f.Write(configTemplate); err != nil {
		_ = f.Close() //nolint:errcheck // the write error wins
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return f.Close()
}
