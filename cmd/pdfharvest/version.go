package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Stamped by the release build:
//
//	-ldflags "-X main.version=v1.2.0 -X main.commit=abc1234 -X main.date=2026-01-02"
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildStamp describes the running binary.
type buildStamp struct {
	Version string
	Commit  string
	Date    string
}

// currentBuild fills the stamp from ldflags first, then from the module and
// VCS data the go tool embeds.
func currentBuild() buildStamp {
	s := buildStamp{Version: version, Commit: commit, Date: date}

	info, ok := debug.ReadBuildInfo()
	if ok {
		if s.Version == "" {
			s.Version = info.Main.Version
		}
		for _, kv := range info.Settings {
			switch {
			case kv.Key == "vcs.revision" && s.Commit == "":
				s.Commit = shortRevision(kv.Value)
			case kv.Key == "vcs.time" && s.Date == "":
				s.Date = kv.Value
			}
		}
	}

	s.Version = orDefault(s.Version, "(devel)")
	s.Commit = orDefault(s.Commit, "unknown")
	s.Date = orDefault(s.Date, "unknown")
	return s
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func getVersion() string {
	return currentBuild().Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of pdfharvest.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			b := currentBuild()
			fmt.Fprintf(cmd.OutOrStdout(), "pdfharvest version %s\n  commit: %s\n  built:  %s\n",
				b.Version, b.Commit, b.Date)
		},
	}
}
