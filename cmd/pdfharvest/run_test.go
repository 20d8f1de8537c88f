package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nao1215/pdfharvest/internal/config"
	"github.com/nao1215/pdfharvest/internal/database"
	applog "github.com/nao1215/pdfharvest/internal/log"
)

// pressSite serves a one-page listing with two PDF links. The PDF bodies are
// not valid documents, so extraction fails and the files are still processed.
type pressSite struct {
	server    *httptest.Server
	downloads atomic.Int32

	mu       sync.Mutex
	language []string
}

func newPressSite(t *testing.T) *pressSite {
	t.Helper()

	s := &pressSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/press-release", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.language = append(s.language, r.Header.Get("Accept-Language"))
		s.mu.Unlock()

		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body><ul>
<li><span>12 June 2025</span> <a href="/files/press_release/cpi_may.pdf">CPI May 2025</a></li>
<li><span>13 June 2025</span> <a href="/files/press_release/iip_may.pdf">IIP May 2025</a></li>
<li><a href="/about">About</a></li>
</ul></body></html>`)
	})
	mux.HandleFunc("/files/press_release/", func(w http.ResponseWriter, r *http.Request) {
		s.downloads.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = fmt.Fprintf(w, "%%PDF-1.4 %s", filepath.Base(r.URL.Path))
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *pressSite) seed() string {
	return s.server.URL + "/press-release"
}

func (s *pressSite) prefix() string {
	return s.server.URL + "/files/press_release/"
}

// testConfig returns a config pointed at the site with no request spacing.
func testConfig(t *testing.T, s *pressSite) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.DataDir = t.TempDir()
	cfg.Seeds = []string{s.seed()}
	cfg.PDFLinkPrefix = s.prefix()
	cfg.RateLimit = 0
	cfg.MaxRetries = 0
	cfg.SiteConfigs = &config.File{
		Defaults: config.SiteConfig{
			Headers: map[string]string{"Accept-Language": "en-IN"},
		},
	}
	return cfg
}

// TestRunHarvest tests a complete harvest through the CLI wiring.
func TestRunHarvest(t *testing.T) {
	t.Parallel()

	t.Run("fresh run processes every file and writes the summary", func(t *testing.T) {
		t.Parallel()

		site := newPressSite(t)
		cfg := testConfig(t, site)
		var stdout, logs bytes.Buffer

		err := runHarvest(context.Background(), cfg, outputOptions{}, &stdout, applog.NewJSONLogger(&logs, false))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		summary := stdout.String()
		for _, want := range []string{"HARVEST RUN", "Files processed:      2", "cpi_may.pdf", "iip_may.pdf"} {
			if !strings.Contains(summary, want) {
				t.Errorf("expected summary to contain %q, got:\n%s", want, summary)
			}
		}
		if !strings.Contains(logs.String(), `"msg":"run_finished"`) {
			t.Errorf("expected run_finished event, got:\n%s", logs.String())
		}

		status, err := loadStatus(context.Background(), cfg, 10, 10)
		if err != nil {
			t.Fatalf("failed to load status: %v", err)
		}
		if status.Stats.Documents != 2 || status.Stats.Files != 2 || status.Stats.Processed != 2 {
			t.Errorf("unexpected stats %+v", status.Stats)
		}
		if len(status.PendingFiles) != 0 {
			t.Errorf("expected no pending files, got %d", len(status.PendingFiles))
		}
		if len(status.RecentDocuments) != 2 {
			t.Errorf("expected 2 recent documents, got %d", len(status.RecentDocuments))
		}
	})

	t.Run("second run downloads nothing again", func(t *testing.T) {
		t.Parallel()

		site := newPressSite(t)
		cfg := testConfig(t, site)
		logger := applog.NewJSONLogger(io.Discard, false)

		for range 2 {
			if err := runHarvest(context.Background(), cfg, outputOptions{}, io.Discard, logger); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}

		if got := site.downloads.Load(); got != 2 {
			t.Errorf("expected 2 downloads over both runs, got %d", got)
		}
	})

	t.Run("limit leaves files pending for the next run", func(t *testing.T) {
		t.Parallel()

		site := newPressSite(t)
		cfg := testConfig(t, site)
		cfg.Limit = 1
		logger := applog.NewJSONLogger(io.Discard, false)

		if err := runHarvest(context.Background(), cfg, outputOptions{}, io.Discard, logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		status, err := loadStatus(context.Background(), cfg, 10, 0)
		if err != nil {
			t.Fatalf("failed to load status: %v", err)
		}
		if status.Stats.Processed != 1 || len(status.PendingFiles) != 1 {
			t.Errorf("expected 1 processed and 1 pending, got %+v pending=%d",
				status.Stats, len(status.PendingFiles))
		}
		if status.PendingFiles[0].State() != "pending" {
			t.Errorf("expected pending state, got %q", status.PendingFiles[0].State())
		}
	})

	t.Run("configured headers reach the site", func(t *testing.T) {
		t.Parallel()

		site := newPressSite(t)
		cfg := testConfig(t, site)

		if err := runHarvest(context.Background(), cfg, outputOptions{}, io.Discard, applog.NewJSONLogger(io.Discard, false)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		site.mu.Lock()
		defer site.mu.Unlock()
		if len(site.language) == 0 || site.language[0] != "en-IN" {
			t.Errorf("expected Accept-Language en-IN, got %v", site.language)
		}
	})

	t.Run("cancelled run still writes a partial summary", func(t *testing.T) {
		t.Parallel()

		site := newPressSite(t)
		cfg := testConfig(t, site)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var stdout bytes.Buffer
		err := runHarvest(ctx, cfg, outputOptions{JSON: true}, &stdout, applog.NewJSONLogger(io.Discard, false))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !strings.Contains(stdout.String(), `"cancelled": true`) {
			t.Errorf("expected cancelled summary, got:\n%s", stdout.String())
		}
	})
}

// TestRunCmd tests the run command through the root command.
func TestRunCmd(t *testing.T) {
	t.Run("rejects conflicting formats", func(t *testing.T) {
		root := NewRootCmd()
		root.SetArgs([]string{"run", "--json", "--markdown", "--data-dir", t.TempDir(),
			"--config", writeConfigFile(t, ""), "https://example.gov/press-release"})

		err := root.Execute()
		if !errors.Is(err, errConflictingFormats) {
			t.Errorf("expected errConflictingFormats, got %v", err)
		}
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		root := NewRootCmd()
		root.SetArgs([]string{"run", "--limit", "0", "--data-dir", t.TempDir(),
			"--config", writeConfigFile(t, "")})

		err := root.Execute()
		if !errors.Is(err, config.ErrInvalidLimit) {
			t.Errorf("expected ErrInvalidLimit, got %v", err)
		}
	})

	t.Run("harvests and writes a markdown report file", func(t *testing.T) {
		site := newPressSite(t)
		dataDir := t.TempDir()
		reportPath := filepath.Join(t.TempDir(), "run.md")

		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs([]string{"run",
			"--config", writeConfigFile(t, ""),
			"--data-dir", dataDir,
			"--rate-limit", "0",
			"--pdf-prefix", site.prefix(),
			"-m", "-o", reportPath,
			site.seed(),
		})

		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		db, err := database.Open(dataDir, database.Options{})
		if err != nil {
			t.Fatalf("expected state store in data dir: %v", err)
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		if stats.Processed != 2 {
			t.Errorf("expected 2 processed files, got %+v", stats)
		}
		assertFileContains(t, reportPath, "# Harvest Run")
	})
}

// TestStatusCmd tests the status command.
func TestStatusCmd(t *testing.T) {
	t.Run("missing state store gives a hint", func(t *testing.T) {
		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs([]string{"status", "--config", writeConfigFile(t, ""), "--data-dir", t.TempDir()})

		err := root.Execute()
		if !errors.Is(err, database.ErrDatabaseNotFound) {
			t.Fatalf("expected ErrDatabaseNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "pdfharvest run") {
			t.Errorf("expected hint in error, got %v", err)
		}
	})

	t.Run("renders the store after a run", func(t *testing.T) {
		site := newPressSite(t)
		cfg := testConfig(t, site)
		cfg.Limit = 1
		if err := runHarvest(context.Background(), cfg, outputOptions{}, io.Discard, applog.NewJSONLogger(io.Discard, false)); err != nil {
			t.Fatalf("harvest failed: %v", err)
		}

		var out bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&out)
		root.SetArgs([]string{"status", "--config", writeConfigFile(t, ""), "--data-dir", cfg.DataDir})

		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{"PDFHARVEST STATUS", "Pending:    1", "PENDING FILES", "RECENT DOCUMENTS"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected status to contain %q, got:\n%s", want, out.String())
			}
		}
	})
}

// TestLinksCmd tests the links command.
func TestLinksCmd(t *testing.T) {
	site := newPressSite(t)

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"links",
		"--config", writeConfigFile(t, ""),
		"--rate-limit", "0",
		"--pdf-prefix", site.prefix(),
		site.seed(),
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := site.prefix() + "cpi_may.pdf\n" + site.prefix() + "iip_may.pdf\n"
	if out.String() != want {
		t.Errorf("links output = %q, want %q", out.String(), want)
	}
	if got := site.downloads.Load(); got != 0 {
		t.Errorf("expected no downloads, got %d", got)
	}
}

func TestLinksCmdFollowsConfiguredNextLabel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/archive", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Query().Get("page") == "2" {
			_, _ = io.WriteString(w, `<ul><li><span>01 May 2025</span> <a href="/files/older.pdf">Older</a></li></ul>`)
			return
		}
		_, _ = io.WriteString(w, `<ul><li><span>01 June 2025</span> <a href="/files/newer.pdf">Newer</a></li></ul>
<a href="/archive?page=2">Older releases</a>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"links",
		"--config", writeConfigFile(t, "scraper:\n  next_labels: [\"Older releases\"]\n"),
		"--rate-limit", "0",
		"--pdf-prefix", server.URL + "/files/",
		server.URL + "/archive",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := server.URL + "/files/newer.pdf\n" + server.URL + "/files/older.pdf\n"
	if out.String() != want {
		t.Errorf("links output = %q, want %q", out.String(), want)
	}
}

func assertFileContains(t *testing.T, path, want string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	if !strings.Contains(string(content), want) {
		t.Errorf("expected %s to contain %q, got:\n%s", path, want, content)
	}
}
