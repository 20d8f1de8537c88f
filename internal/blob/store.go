package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyName is returned when a blob name is empty.
var ErrEmptyName = errors.New("empty file name")

// Store lays out raw PDFs and their extracted text on disk.
//
//	<RawDir>/<name>.pdf
//	<ProcessedDir>/<name>.txt
type Store struct {
	RawDir       string
	ProcessedDir string
}

// NewStore creates both directories if needed.
func NewStore(rawDir, processedDir string) (*Store, error) {
	for _, dir := range []string{rawDir, processedDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &Store{RawDir: rawDir, ProcessedDir: processedDir}, nil
}

// RawPath returns the path of the raw file called name.
func (s *Store) RawPath(name string) string {
	return filepath.Join(s.RawDir, name)
}

// Exists reports whether a non-empty raw file called name is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.RawPath(name))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Save writes a raw file through write and returns its path and SHA-256.
// Data goes to a temporary file first and is renamed into place only when
// write succeeds, so a failed download never leaves a partial file behind.
func (s *Store) Save(name string, write func(io.Writer) error) (string, string, error) {
	if name == "" {
		return "", "", ErrEmptyName
	}

	tmp, err := os.CreateTemp(s.RawDir, "."+name+".*.part")
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	dst := &hashingFile{f: tmp, h: sha256.New()}
	if err := write(dst); err != nil {
		return "", "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", "", fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return "", "", fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	finalPath := s.RawPath(name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	committed = true

	return finalPath, hex.EncodeToString(dst.h.Sum(nil)), nil
}

// hashingFile hashes what it writes to f. Rewind starts both over, which
// lets a retried download reuse the same temporary file.
type hashingFile struct {
	f *os.File
	h hash.Hash
}

func (w *hashingFile) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.h.Write(p[:n])
	return n, err
}

// Rewind truncates the file and resets the hash.
func (w *hashingFile) Rewind() error {
	if err := w.f.Truncate(0); err != nil {
		return err
	}
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	w.h.Reset()
	return nil
}

// TextPath returns where the extracted text of sourcePath is mirrored.
func (s *Store) TextPath(sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(s.ProcessedDir, base+".txt")
}

// WriteText mirrors extracted text for sourcePath and returns the text path.
func (s *Store) WriteText(sourcePath, text string) (string, error) {
	p := s.TextPath(sourcePath)
	if err := os.WriteFile(p, []byte(text), 0600); err != nil {
		return "", fmt.Errorf("failed to write text %s: %w", p, err)
	}
	return p, nil
}
