package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name looked up in the working and home
// directories.
const DefaultConfigFile = ".pdfharvest"

// ErrConfigNotFound is returned by LoadConfigFile for a missing file.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads a YAML configuration file. Unknown keys are
// rejected so a misspelled setting does not silently fall back to its
// default. An empty file is valid.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cf File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cf.Sites == nil {
		cf.Sites = map[string]SiteConfig{}
	}
	return &cf, nil
}

// FindConfigFile returns the configuration file to load, or "" when there
// is none. An explicit path is used only if it exists. Otherwise the first
// existing file among searchPaths wins.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if exists(explicit) {
			return explicit
		}
		return ""
	}
	for _, p := range searchPaths() {
		if exists(p) {
			return p
		}
	}
	return ""
}

// searchPaths lists ./.pdfharvest, ~/.pdfharvest and the XDG config.yaml.
func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
