package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/pdfharvest/internal/report"
	"github.com/spf13/cobra"
)

// outputOptions selects the report format and destination.
type outputOptions struct {
	JSON     bool
	Markdown bool
	File     string
	Verbose  bool

	// Tee also prints the text summary on stdout when File is set.
	Tee bool
}

// addOutputFlags registers the report format and destination flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the text summary on stdout")
}

// getOutputOptions reads the output flags.
func getOutputOptions(cmd *cobra.Command) (outputOptions, error) {
	var opts outputOptions
	var err error

	if opts.JSON, err = cmd.Flags().GetBool("json"); err != nil {
		return opts, err
	}
	if opts.Markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.File, err = cmd.Flags().GetString("output"); err != nil {
		return opts, err
	}
	if opts.Tee, err = cmd.Flags().GetBool("tee"); err != nil {
		return opts, err
	}
	if opts.JSON && opts.Markdown {
		return opts, errConflictingFormats
	}
	opts.Verbose = getVerboseFlag(cmd)
	return opts, nil
}

// withReportWriter opens the destination, builds the writer for the selected
// format and hands it to fn.
func withReportWriter(opts outputOptions, stdout io.Writer, fn func(report.Writer) error) error {
	output := stdout
	if opts.File != "" {
		dir := filepath.Dir(opts.File)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case opts.JSON:
		w = report.NewVersionedJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case opts.Markdown:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewTextWriter(output, report.WithVerbose(opts.Verbose))
	}
	if opts.Tee && output != stdout {
		w = report.NewMultiWriter(w, report.NewTextWriter(stdout, report.WithVerbose(opts.Verbose)))
	}
	return fn(w)
}
