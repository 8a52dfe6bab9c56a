// Package article flattens a platform's nested long-form block structure
// (Twitter Articles / Notes) into one markdown string.
package article

import (
	"fmt"
	"strings"

	"github.com/tcb-dev/claudebridge/internal/models"
)

// MediaPlaceholder marks where an embedded media block sat in the article;
// the content merger lines these up with the analyzed image descriptions.
const MediaPlaceholder = "[embedded media %d]"

var headingLevels = map[string]int{
	"header-one":   1,
	"header-two":   2,
	"header-three": 3,
	"header-four":  4,
	"header-five":  5,
	"header-six":   6,
}

// Flatten walks the typed blocks in order and emits markdown, preserving
// heading levels and list structure. Unknown block types are skipped so a
// format change upstream degrades the output instead of failing the parse.
func Flatten(blocks []models.ArticleBlock) string {
	var lines []string
	media := 0

	for _, block := range blocks {
		text := strings.TrimSpace(block.Text)

		switch {
		case block.Type == "atomic" || block.Type == "media":
			media++
			lines = append(lines, fmt.Sprintf(MediaPlaceholder, media))
		case text == "":
			continue
		case headingLevels[block.Type] > 0:
			lines = append(lines, strings.Repeat("#", headingLevels[block.Type])+" "+text)
		case block.Type == "blockquote":
			lines = append(lines, "> "+text)
		case block.Type == "ordered-list-item", block.Type == "unordered-list-item":
			lines = append(lines, "- "+text)
		case block.Type == "unstyled" || block.Type == "":
			lines = append(lines, text)
		default:
			// Unknown block type: skip.
		}
	}

	return strings.Join(lines, "\n")
}
