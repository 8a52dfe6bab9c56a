// Package enrich orchestrates the content-enrichment pipeline for one
// message: classify each URL, run the fetch cascade, flatten long-form
// articles, analyze images, optionally extract structure, and merge
// everything into one enriched text block. Enrichment is best-effort and
// never blocks delivery of the user's original text.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tcb-dev/claudebridge/internal/article"
	"github.com/tcb-dev/claudebridge/internal/cache"
	"github.com/tcb-dev/claudebridge/internal/merge"
	"github.com/tcb-dev/claudebridge/internal/models"
	"github.com/tcb-dev/claudebridge/internal/urldetect"
)

// Extraction only runs on pages with enough text to be worth the call.
const minExtractChars = 300

// Fetcher runs the per-platform strategy cascade for one URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, platform models.Platform) (models.FetchResult, string)
}

// ImageAnalyzer turns image URLs into ordered descriptions.
type ImageAnalyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, imageURLs []string, contextText string) []string
}

// Extractor is the optional structured-extraction capability.
type Extractor interface {
	Available() bool
	Extract(ctx context.Context, text string) (*models.Extraction, error)
}

// Enricher wires the pipeline stages together. All stages degrade
// gracefully: a missing capability or failed fetch produces placeholders,
// never an error to the caller.
type Enricher struct {
	fetcher   Fetcher
	images    ImageAnalyzer
	extractor Extractor
	cache     *cache.Cache
}

func New(fetcher Fetcher, images ImageAnalyzer, extractor Extractor, resultCache *cache.Cache) *Enricher {
	return &Enricher{fetcher: fetcher, images: images, extractor: extractor, cache: resultCache}
}

// Preprocess detects URLs in text and returns the enriched message plus a
// per-URL status summary. With no URLs, text comes back untouched. If ctx
// expires mid-flight the remaining enrichment is abandoned and the
// original text is returned.
func (e *Enricher) Preprocess(ctx context.Context, text string) (string, []string) {
	detected := urldetect.Detect(text)
	if len(detected) == 0 {
		return text, nil
	}
	log.Printf("detected %d URL(s) in message", len(detected))

	var (
		blocks    []string
		summaries []string
		succeeded bool
	)

	for _, d := range detected {
		if ctx.Err() != nil {
			summaries = append(summaries, "⏱️ enrichment aborted (time budget exceeded)")
			return text, summaries
		}

		block, method, ok := e.enrichOne(ctx, d)
		blocks = append(blocks, block)
		if ok {
			succeeded = true
			summaries = append(summaries, fmt.Sprintf("✅ %s → %s", d.URL, method))
		} else {
			summaries = append(summaries, fmt.Sprintf("⚠️ %s → fetch failed", d.URL))
		}
	}

	if !succeeded && len(blocks) == 0 {
		return text, summaries
	}
	return merge.WrapMessage(text, merge.JoinBlocks(blocks)), summaries
}

// EnrichURL runs the pipeline for a single URL, used by the /fetch deep
// fetch. The returned block is the merged labeled content.
func (e *Enricher) EnrichURL(ctx context.Context, rawURL string) (string, string, bool) {
	return e.enrichOne(ctx, urldetect.DetectedURL{URL: rawURL, Platform: urldetect.Classify(rawURL)})
}

func (e *Enricher) enrichOne(ctx context.Context, d urldetect.DetectedURL) (block, method string, ok bool) {
	if e.cache != nil {
		if cached, cachedMethod, hit := e.cache.Get(d.URL); hit {
			log.Printf("[cache] %s served from cache", d.URL)
			return cached, cachedMethod + " (cached)", true
		}
	}

	result, method := e.fetcher.Fetch(ctx, d.URL, d.Platform)

	content := models.EnrichedContent{
		SourceURL: d.URL,
		Platform:  d.Platform,
		Method:    method,
	}

	if !result.Succeeded {
		return merge.Compose(content), "", false
	}

	content.BaseText = result.Text
	if result.IsLongForm && len(result.RawBlocks) > 0 {
		content.ArticleText = article.Flatten(result.RawBlocks)
	}

	if len(result.ImageURLs) > 0 && e.images != nil {
		content.ImageDescriptions = e.images.Analyze(ctx, result.ImageURLs, result.Text)
		if described(content.ImageDescriptions) {
			content.Method += "+img"
		}
	}

	if d.Platform == models.PlatformGeneral && e.extractor != nil && e.extractor.Available() &&
		len(content.BaseText)+len(content.ArticleText) >= minExtractChars {
		extraction, err := e.extractor.Extract(ctx, content.BaseText+"\n"+content.ArticleText)
		switch {
		case err == nil:
			content.Extraction = extraction
			content.Method += "+extract"
		case errors.Is(err, models.ErrUnavailable):
			// Feature simply not configured; nothing to report.
		default:
			log.Printf("[extract] %s failed: %v", d.URL, err)
		}
	}

	block = merge.Compose(content)
	if e.cache != nil {
		e.cache.Put(d.URL, block, content.Method)
	}
	return block, content.Method, true
}

func described(descriptions []string) bool {
	for _, d := range descriptions {
		if d != "" {
			return true
		}
	}
	return false
}
