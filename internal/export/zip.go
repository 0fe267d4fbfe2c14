// Package export packages ranked candidates for download.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/candidate-recommender/internal/types"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9@._+\-]+`)

// FileName builds the archive entry name "<score>_<email>_<name>.txt"
func FileName(c types.CandidateResult) string {
	email := "no-email"
	if c.Contact != nil && c.Contact.Email != "" {
		email = c.Contact.Email
	}
	name := c.ID
	if c.Source != "" {
		name = c.Source
	}
	name = filepath.Base(filepath.ToSlash(name))
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return fmt.Sprintf("%.2f_%s_%s.txt", c.Overall, sanitize(email), sanitize(name))
}

func sanitize(s string) string {
	s = unsafeNameChars.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "_.")
	if s == "" {
		return "unnamed"
	}
	return s
}

// WriteZip writes the text of the given candidates into a zip archive, in
// ranking order. Colliding names get a numeric suffix.
func WriteZip(w io.Writer, candidates []types.CandidateResult) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]int, len(candidates))
	now := time.Now()

	for _, c := range candidates {
		name := FileName(c)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d.txt", strings.TrimSuffix(name, ".txt"), n+1)
		} else {
			seen[name] = 1
		}

		entry, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := io.WriteString(entry, c.Text); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}
