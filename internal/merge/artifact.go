package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ArtifactWriter persists one human-readable markdown file per deep-fetch
// invocation. File names carry a timestamp plus a uuid fragment so no two
// writes ever target the same path.
type ArtifactWriter struct {
	dir string
}

func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{dir: dir}
}

// Save writes the artifact and returns its path.
func (w *ArtifactWriter) Save(sourceURL, fetchedContent, assistantResponse, userNote string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	now := time.Now()
	name := fmt.Sprintf("fetch_%s_%s_%s.md",
		now.Format("20060102_150405"), sanitizeURL(sourceURL), uuid.NewString()[:8])
	path := filepath.Join(w.dir, name)

	var sb strings.Builder
	sb.WriteString("# AI-Friendly Content Summary\n\n")
	sb.WriteString("- **Source**: " + sourceURL + "\n")
	sb.WriteString("- **Fetched**: " + now.Format(time.RFC3339) + "\n")
	if userNote != "" {
		sb.WriteString("- **User Note**: " + userNote + "\n")
	}
	sb.WriteString("\n---\n\n## Fetched Content\n\n")
	sb.WriteString(fetchedContent)
	sb.WriteString("\n\n---\n\n## Claude Analysis\n\n")
	sb.WriteString(assistantResponse)
	sb.WriteString("\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

func sanitizeURL(sourceURL string) string {
	if len(sourceURL) > 60 {
		sourceURL = sourceURL[:60]
	}
	return strings.Trim(unsafeChars.ReplaceAllString(sourceURL, "_"), "_")
}
