package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/nao1215/pdfharvest/internal/config"
	"github.com/nao1215/pdfharvest/internal/fetch"
	applog "github.com/nao1215/pdfharvest/internal/log"
	"github.com/spf13/cobra"
)

// addStoreFlags registers the flags every command that touches the data
// directory shares.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pdfharvest in current or home directory)")
	cmd.Flags().StringP("data-dir", "d", "",
		"Data directory holding raw/, processed/ and the SQLite files (default: XDG data home)")
}

// addScraperFlags registers the flags that tune fetching and crawling.
func addScraperFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPagesPerSeed,
		"Maximum number of listing pages visited per seed")
	cmd.Flags().Duration("rate-limit", config.DefaultRateLimit,
		"Minimum interval between two requests (0 disables spacing)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Bool("respect-robots", false,
		"Skip URLs disallowed by the site's robots.txt")
	cmd.Flags().String("pdf-prefix", config.DefaultPDFLinkPrefix,
		"Absolute URL prefix a link must start with to count as a press-release PDF")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the config file, the process
// environment and the command's flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	return loadConfig(cmd, args, os.LookupEnv)
}

// loadConfig layers the configuration sources. Only flags the user actually
// set override the file and the environment.
func loadConfig(cmd *cobra.Command, args []string, lookup config.LookupFunc) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := stringFlag(cmd, "config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	// An explicitly given config file must exist; a missing default one is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	foundPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case foundPath != "":
		file, err := config.LoadConfigFile(foundPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", foundPath, err)
		}
		file.Apply(cfg)
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	if err := config.ApplyEnvFrom(cfg, lookup); err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Seeds = append([]string(nil), args...)
	}
	if len(cfg.Seeds) == 0 {
		cfg.Seeds = []string{config.DefaultSeedURL}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// applyFlags copies every changed flag the command defines onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	if changed("data-dir") {
		if cfg.DataDir, err = flags.GetString("data-dir"); err != nil {
			return err
		}
	}
	if changed("limit") {
		if cfg.Limit, err = flags.GetInt("limit"); err != nil {
			return err
		}
	}
	if changed("ocr") {
		if cfg.UseOCR, err = flags.GetBool("ocr"); err != nil {
			return err
		}
	}
	if changed("max-pages") {
		if cfg.MaxPagesPerSeed, err = flags.GetInt("max-pages"); err != nil {
			return err
		}
	}
	if changed("rate-limit") {
		if cfg.RateLimit, err = flags.GetDuration("rate-limit"); err != nil {
			return err
		}
	}
	if changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed("respect-robots") {
		if cfg.RespectRobots, err = flags.GetBool("respect-robots"); err != nil {
			return err
		}
	}
	if changed("pdf-prefix") {
		if cfg.PDFLinkPrefix, err = flags.GetString("pdf-prefix"); err != nil {
			return err
		}
	}
	if changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	return nil
}

// stringFlag returns the flag value, or "" when the command lacks the flag.
func stringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	return cmd.Flags().GetString(name)
}

// setupLogger creates the JSON event logger on stderr and installs it as the
// process default.
func setupLogger(verbose bool) *slog.Logger {
	logger := applog.NewJSONLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// siteHeaders returns the per-host request headers from the config file:
// the configured headers plus a Cookie header when a cookie is set.
func siteHeaders(file *config.File) fetch.HeaderFunc {
	if file == nil {
		return nil
	}
	return func(host string) http.Header {
		sc := file.GetSiteConfig(host)
		if sc.Cookie == "" && len(sc.Headers) == 0 {
			return nil
		}
		h := make(http.Header, len(sc.Headers)+1)
		for k, v := range sc.Headers {
			h.Set(k, v)
		}
		if sc.Cookie != "" {
			h.Set("Cookie", sc.Cookie)
		}
		return h
	}
}

// newFetchClient builds the shared HTTP client from cfg.
func newFetchClient(cfg *config.Config, logger *slog.Logger) *fetch.Client {
	return fetch.New(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithRetry(cfg.MaxRetries, cfg.BackoffBase),
		fetch.WithMinInterval(cfg.RateLimit),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRespectRobots(cfg.RespectRobots),
		fetch.WithHeaders(siteHeaders(cfg.SiteConfigs)),
		fetch.WithLogger(logger),
	)
}

// errConflictingFormats is returned when both --json and --markdown are set.
var errConflictingFormats = errors.New("conflicting report formats: --json and --markdown are mutually exclusive")

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
