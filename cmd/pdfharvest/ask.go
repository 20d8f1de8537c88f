package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/pdfharvest/internal/index"
	"github.com/spf13/cobra"
)

// defaultTopK is the number of passages retrieved by ask.
const defaultTopK = 10

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Search the harvested text for passages answering a question",
		Long: `Ask ranks the indexed passages of every processed PDF against the question
and prints the best matches. With --prompt it prints a ready-to-use prompt for
a language model instead.

Examples:
  pdfharvest ask what was the CPI inflation in May
  pdfharvest ask -k 3 --prompt "index of industrial production growth"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAskCmd,
	}

	cmd.Flags().IntP("top", "k", defaultTopK,
		"Number of passages to retrieve")
	cmd.Flags().Bool("prompt", false,
		"Print the assembled question-answering prompt")

	addStoreFlags(cmd)

	return cmd
}

// runAskCmd executes the ask command.
func runAskCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	k, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}
	if k <= 0 {
		return errors.New("--top must be positive")
	}
	asPrompt, err := cmd.Flags().GetBool("prompt")
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")

	indexPath := filepath.Join(cfg.DataDir, index.FileName)
	if _, err := os.Stat(indexPath); err != nil {
		return fmt.Errorf("no index at %s (run 'pdfharvest run' first): %w", indexPath, err)
	}

	idx, err := index.Open(cfg.DataDir, index.WithLogger(setupLogger(cfg.Verbose)))
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer idx.Close()

	passages, err := idx.Retrieve(commandContext(cmd), question, k)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if asPrompt {
		prompt, err := index.BuildPrompt(question, passages)
		if err != nil {
			return err
		}
		fmt.Fprint(out, prompt)
		return nil
	}

	if len(passages) == 0 {
		sources, _, err := idx.Sources(commandContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "No matching passages in %d indexed source(s).\n", sources)
		return nil
	}
	for i, p := range passages {
		fmt.Fprintf(out, "[%d] %s #%d (score %.3f)\n", i+1, p.Source, p.Seq, p.Score)
		fmt.Fprintf(out, "    %s\n\n", strings.Join(strings.Fields(p.Content), " "))
	}
	return nil
}
