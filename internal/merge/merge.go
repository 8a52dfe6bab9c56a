// Package merge assembles enriched per-URL content into the single ordered
// text block handed to the assistant, and writes the durable fetch-output
// artifacts.
package merge

import (
	"fmt"
	"strings"

	"github.com/tcb-dev/claudebridge/internal/models"
)

// FetchFailedPlaceholder stands in for a URL whose every strategy failed.
// Enrichment failure must never block delivery of the user's message.
const FetchFailedPlaceholder = "(unable to fetch content)"

const blockDelimiter = "\n\n---\n\n"

// Compose renders one URL's enrichment as ordered labeled sections:
// base text, article text, indexed image descriptions, extraction fields,
// and the source URL as a trailer for traceability.
func Compose(content models.EnrichedContent) string {
	var sections []string

	if content.BaseText != "" {
		sections = append(sections, content.BaseText)
	} else {
		sections = append(sections, FetchFailedPlaceholder)
	}

	if content.ArticleText != "" {
		sections = append(sections, "Article:\n"+content.ArticleText)
	}

	if block := imageBlock(content.ImageDescriptions); block != "" {
		sections = append(sections, block)
	}

	if content.Extraction != nil {
		sections = append(sections, extractionBlock(content.Extraction))
	}

	sections = append(sections, "Source: "+content.SourceURL)
	return strings.Join(sections, "\n\n")
}

// ComposeAll joins per-URL blocks in the order the URLs appeared.
func ComposeAll(contents []models.EnrichedContent) string {
	blocks := make([]string, 0, len(contents))
	for _, content := range contents {
		blocks = append(blocks, Compose(content))
	}
	return strings.Join(blocks, blockDelimiter)
}

// JoinBlocks concatenates already-composed per-URL blocks in order.
func JoinBlocks(blocks []string) string {
	return strings.Join(blocks, blockDelimiter)
}

// WrapMessage appends the merged enrichment to the user's original text
// with explicit markers so the assistant can tell them apart.
func WrapMessage(originalText, enrichedBlock string) string {
	if enrichedBlock == "" {
		return originalText
	}
	return fmt.Sprintf(
		"%s\n\n=== Auto-fetched link content ===\n\n%s\n\n=== End of link content ===\nAnswer the user's message using the link content above.",
		originalText, enrichedBlock)
}

func imageBlock(descriptions []string) string {
	var lines []string
	for i, description := range descriptions {
		if description == "" {
			// Analysis failed for this slot; keep numbering stable.
			continue
		}
		lines = append(lines, fmt.Sprintf("Image %d: %s", i+1, description))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Image analysis:\n" + strings.Join(lines, "\n")
}

func extractionBlock(extraction *models.Extraction) string {
	var lines []string
	lines = append(lines, "Extracted structure:")
	if extraction.Topic != "" {
		lines = append(lines, "Topic: "+extraction.Topic)
	}
	if len(extraction.KeyData) > 0 {
		lines = append(lines, "Key data: "+strings.Join(extraction.KeyData, "; "))
	}
	if len(extraction.Entities) > 0 {
		lines = append(lines, "Entities: "+strings.Join(extraction.Entities, ", "))
	}
	if extraction.Conclusion != "" {
		lines = append(lines, "Conclusion: "+extraction.Conclusion)
	}
	return strings.Join(lines, "\n")
}
