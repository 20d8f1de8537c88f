package blob

import (
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

// TestSanitize tests file name sanitization.
func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{name: "plain name unchanged", in: "report_2024.pdf", maxLen: 120, want: "report_2024.pdf"},
		{name: "disallowed run becomes one underscore", in: "a/b\\c?*d.pdf", maxLen: 120, want: "a_b_c_d.pdf"},
		{name: "parentheses and spaces kept", in: "CPI (May 2025).pdf", maxLen: 120, want: "CPI (May 2025).pdf"},
		{name: "leading and trailing separators trimmed", in: " ._-name-._ ", maxLen: 120, want: "name"},
		{name: "truncated to max length", in: strings.Repeat("a", 200), maxLen: 10, want: strings.Repeat("a", 10)},
		{name: "trim after truncation", in: "abc.....xyz", maxLen: 6, want: "abc"},
		{name: "unicode letters kept", in: "प्रेस विज्ञप्ति.pdf", maxLen: 120, want: "प्रेस विज्ञप्ति.pdf"},
		{name: "only separators gives empty", in: "///", maxLen: 120, want: ""},
		{name: "zero max uses default", in: strings.Repeat("b", 300), maxLen: 0, want: strings.Repeat("b", DefaultMaxNameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Sanitize(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Sanitize(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

// TestSanitizeProperties checks the output invariants on random inputs.
func TestSanitizeProperties(t *testing.T) {
	t.Parallel()

	alphabet := []rune("abcXYZ019_-.() /\\:*?\"<>|\t\n#%&é漢")
	rng := rand.New(rand.NewPCG(1, 2))

	allowed := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r) || strings.ContainsRune("_-.() ", r)
	}

	for i := range 500 {
		n := rng.IntN(80)
		var b strings.Builder
		for range n {
			b.WriteRune(alphabet[rng.IntN(len(alphabet))])
		}
		in := b.String()
		maxLen := 1 + rng.IntN(40)

		got := Sanitize(in, maxLen)

		if utf8.RuneCountInString(got) > maxLen {
			t.Fatalf("case %d: %q longer than %d", i, got, maxLen)
		}
		for _, r := range got {
			if !allowed(r) {
				t.Fatalf("case %d: %q contains disallowed rune %q", i, got, r)
			}
		}
		if got != "" && (strings.ContainsRune(trimSet, rune(got[0])) || strings.ContainsRune(trimSet, rune(got[len(got)-1]))) {
			t.Fatalf("case %d: %q has leading or trailing separator", i, got)
		}
		if Sanitize(in, maxLen) != got {
			t.Fatalf("case %d: not deterministic", i)
		}
	}
}

// TestHashFile tests hash determinism and sensitivity.
func TestHashFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	content := []byte(strings.Repeat("%PDF-1.4 data ", 2000))
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}

	first, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	second, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if first != second {
		t.Errorf("hash not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}

	content[len(content)/2] ^= 0x01
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatal(err)
	}
	changed, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if changed == first {
		t.Error("one changed byte must change the digest")
	}

	t.Run("empty file has the well-known digest", func(t *testing.T) {
		t.Parallel()

		empty := filepath.Join(t.TempDir(), "empty")
		if err := os.WriteFile(empty, nil, 0600); err != nil {
			t.Fatal(err)
		}
		got, err := HashFile(empty)
		if err != nil {
			t.Fatal(err)
		}
		if got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
			t.Errorf("unexpected digest %s", got)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		t.Parallel()

		if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error")
		}
	})
}

// TestFileNameForURL tests raw file naming.
func TestFileNameForURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "last segment", url: "https://example.gov/files/press_release/CPI_May.pdf", want: "CPI_May.pdf"},
		{name: "escaped segment", url: "https://example.gov/files/CPI%20May%202025.pdf", want: "CPI May 2025.pdf"},
		{name: "query ignored", url: "https://example.gov/files/a.pdf?download=1", want: "a.pdf"},
		{name: "trailing slash uses previous segment", url: "https://example.gov/files/report/", want: "report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FileNameForURL(tt.url); got != tt.want {
				t.Errorf("FileNameForURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}

	t.Run("no segment falls back to md5", func(t *testing.T) {
		t.Parallel()

		got := FileNameForURL("https://example.gov/")
		if !strings.HasSuffix(got, ".pdf") || len(got) != 32+len(".pdf") {
			t.Errorf("unexpected fallback name %q", got)
		}
		if FileNameForURL("https://example.gov/") != got {
			t.Error("fallback name must be deterministic")
		}
	})
}

// TestQualifiedName tests names for colliding URLs.
func TestQualifiedName(t *testing.T) {
	t.Parallel()

	a := QualifiedName("report.pdf", "https://example.gov/2024/report.pdf")
	b := QualifiedName("report.pdf", "https://example.gov/2025/report.pdf")

	if a == b {
		t.Fatalf("different URLs share the name %q", a)
	}
	for _, got := range []string{a, b} {
		if !strings.HasPrefix(got, "report_") || !strings.HasSuffix(got, ".pdf") || len(got) != len("report_.pdf")+8 {
			t.Errorf("unexpected qualified name %q", got)
		}
	}
	if QualifiedName("report.pdf", "https://example.gov/2024/report.pdf") != a {
		t.Error("qualified name must be deterministic")
	}
	if got := QualifiedName("report", "https://example.gov/report"); strings.Contains(got, ".") {
		t.Errorf("name without extension gained one: %q", got)
	}
}

// TestStore tests atomic saves and text mirroring.
func TestStore(t *testing.T) {
	t.Parallel()

	newStore := func(t *testing.T) *Store {
		t.Helper()
		dir := t.TempDir()
		s, err := NewStore(filepath.Join(dir, "raw"), filepath.Join(dir, "processed"))
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		return s
	}

	t.Run("save writes file and returns hash", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		path, hash, err := s.Save("a.pdf", func(w io.Writer) error {
			_, err := io.WriteString(w, "hello")
			return err
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if path != s.RawPath("a.pdf") {
			t.Errorf("path = %q", path)
		}
		want, err := HashFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if hash != want {
			t.Errorf("hash = %s, want %s", hash, want)
		}
		if !s.Exists("a.pdf") {
			t.Error("Exists should be true after Save")
		}
	})

	t.Run("failed write leaves nothing behind", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		boom := errors.New("connection reset")
		_, _, err := s.Save("b.pdf", func(w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected write error, got %v", err)
		}
		if s.Exists("b.pdf") {
			t.Error("partial file must not exist")
		}
		entries, err := os.ReadDir(s.RawDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty raw dir, found %d entries", len(entries))
		}
	})

	t.Run("rewind discards the first attempt", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		path, hash, err := s.Save("c.pdf", func(w io.Writer) error {
			if _, err := io.WriteString(w, "broken half of a"); err != nil {
				return err
			}
			rw, ok := w.(interface{ Rewind() error })
			if !ok {
				t.Fatal("Save writer cannot rewind")
			}
			if err := rw.Rewind(); err != nil {
				return err
			}
			_, err := io.WriteString(w, "%PDF-1.4 whole")
			return err
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "%PDF-1.4 whole" {
			t.Errorf("content = %q", data)
		}
		if want, _ := HashFile(path); hash != want {
			t.Errorf("hash = %s, want %s", hash, want)
		}
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		_, _, err := s.Save("", func(io.Writer) error { return nil })
		if !errors.Is(err, ErrEmptyName) {
			t.Errorf("expected ErrEmptyName, got %v", err)
		}
	})

	t.Run("write text uses base name with txt extension", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		p, err := s.WriteText(s.RawPath("CPI_May.pdf"), "text body")
		if err != nil {
			t.Fatalf("WriteText: %v", err)
		}
		if p != filepath.Join(s.ProcessedDir, "CPI_May.txt") {
			t.Errorf("text path = %q", p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "text body" {
			t.Errorf("text = %q", data)
		}
	})
}
