package blob

import (
	"crypto/md5" //nolint:gosec // file naming only, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxNameLength is the maximum length of a sanitized file name.
const DefaultMaxNameLength = 120

// hashChunkSize is the read size used when hashing files.
const hashChunkSize = 8192

// disallowedRun matches runs of characters outside the file name allow-list:
// letters (with their combining marks), digits, underscore, hyphen, period, parentheses and space.
var disallowedRun = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\-.() ]+`)

// trimSet are the separator characters stripped from both ends of a name.
const trimSet = " ._-"

// Sanitize turns name into a safe file name.
// Disallowed runs become a single underscore, the result is cut to maxLen
// runes and separator characters are trimmed from both ends. A maxLen of
// zero or less means DefaultMaxNameLength.
func Sanitize(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLength
	}

	safe := disallowedRun.ReplaceAllString(norm.NFC.String(name), "_")

	runes := []rune(safe)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	return strings.Trim(string(runes), trimSet)
}

// HashFile returns the lowercase hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the blob store
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashChunkSize)); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileNameForURL derives the raw file name for a download URL.
// It is the sanitized last path segment, or md5(url).pdf when the URL has
// no usable segment.
func FileNameForURL(rawURL string) string {
	var segment string
	if u, err := url.Parse(rawURL); err == nil {
		segment = path.Base(strings.TrimRight(u.Path, "/"))
		if unescaped, err := url.PathUnescape(segment); err == nil {
			segment = unescaped
		}
	}
	if segment == "." || segment == "/" {
		segment = ""
	}

	if name := Sanitize(segment, DefaultMaxNameLength); name != "" {
		return name
	}

	sum := md5.Sum([]byte(rawURL)) //nolint:gosec // file naming only
	return hex.EncodeToString(sum[:]) + ".pdf"
}

// QualifiedName inserts the first eight hex digits of md5(rawURL) before
// the extension of name. It separates URLs whose last segments collide.
func QualifiedName(name, rawURL string) string {
	sum := md5.Sum([]byte(rawURL)) //nolint:gosec // file naming only
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + hex.EncodeToString(sum[:4]) + ext
}
