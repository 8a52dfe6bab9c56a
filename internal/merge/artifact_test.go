package merge

import (
	"os"
	"strings"
	"testing"
)

func TestArtifactWriterSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewArtifactWriter(dir)

	path, err := w.Save("https://example.com/some/long/path?q=1", "fetched body", "assistant answer", "please summarize")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	content := string(data)

	fetchedIdx := strings.Index(content, "## Fetched Content")
	analysisIdx := strings.Index(content, "## Claude Analysis")
	if fetchedIdx < 0 || analysisIdx < 0 || fetchedIdx > analysisIdx {
		t.Fatalf("section ordering wrong:\n%s", content)
	}
	for _, want := range []string{"https://example.com/some/long/path?q=1", "fetched body", "assistant answer", "please summarize"} {
		if !strings.Contains(content, want) {
			t.Fatalf("missing %q in artifact:\n%s", want, content)
		}
	}
}

func TestArtifactWriterUniqueNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewArtifactWriter(dir)

	first, err := w.Save("https://example.com", "a", "b", "")
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	second, err := w.Save("https://example.com", "a", "b", "")
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if first == second {
		t.Fatalf("two saves produced the same path: %s", first)
	}
}

func TestSanitizeURL(t *testing.T) {
	t.Parallel()

	got := sanitizeURL("https://example.com/a/b?c=d")
	if strings.ContainsAny(got, ":/?=") {
		t.Fatalf("unsafe characters left in %q", got)
	}
	if got == "" {
		t.Fatal("sanitized name must not be empty")
	}
}
