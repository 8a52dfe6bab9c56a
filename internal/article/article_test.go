package article

import (
	"strings"
	"testing"

	"github.com/tcb-dev/claudebridge/internal/models"
)

func TestFlatten(t *testing.T) {
	t.Parallel()

	blocks := []models.ArticleBlock{
		{Type: "header-one", Text: "The Big Picture"},
		{Type: "unstyled", Text: "Opening paragraph."},
		{Type: "header-two", Text: "Details"},
		{Type: "unordered-list-item", Text: "first point"},
		{Type: "ordered-list-item", Text: "second point"},
		{Type: "blockquote", Text: "a quote"},
		{Type: "", Text: "closing paragraph"},
	}

	got := Flatten(blocks)
	want := strings.Join([]string{
		"# The Big Picture",
		"Opening paragraph.",
		"## Details",
		"- first point",
		"- second point",
		"> a quote",
		"closing paragraph",
	}, "\n")

	if got != want {
		t.Fatalf("Flatten mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFlattenSkipsUnknownTypes(t *testing.T) {
	t.Parallel()

	blocks := []models.ArticleBlock{
		{Type: "unstyled", Text: "kept"},
		{Type: "code-block-fancy", Text: "dropped"},
		{Type: "unstyled", Text: "also kept"},
	}

	got := Flatten(blocks)
	if strings.Contains(got, "dropped") {
		t.Fatalf("unknown block type leaked into output: %q", got)
	}
	if got != "kept\nalso kept" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestFlattenMediaPlaceholders(t *testing.T) {
	t.Parallel()

	blocks := []models.ArticleBlock{
		{Type: "unstyled", Text: "before"},
		{Type: "atomic"},
		{Type: "unstyled", Text: "between"},
		{Type: "media"},
	}

	got := Flatten(blocks)
	if !strings.Contains(got, "[embedded media 1]") || !strings.Contains(got, "[embedded media 2]") {
		t.Fatalf("media placeholders missing or unnumbered: %q", got)
	}
}

func TestFlattenEmptyAndWhitespaceBlocks(t *testing.T) {
	t.Parallel()

	blocks := []models.ArticleBlock{
		{Type: "unstyled", Text: "   "},
		{Type: "header-one", Text: ""},
		{Type: "unstyled", Text: "only this"},
	}

	if got := Flatten(blocks); got != "only this" {
		t.Fatalf("expected blank blocks dropped, got %q", got)
	}
}

func TestFlattenNil(t *testing.T) {
	t.Parallel()

	if got := Flatten(nil); got != "" {
		t.Fatalf("expected empty string for nil blocks, got %q", got)
	}
}
