package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tcb-dev/claudebridge/internal/models"
)

// How much of a page we are willing to parse; title and meta tags live in
// the head, so half a megabyte is plenty.
const maxScrapeBody = 512 * 1024

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ScrapeStrategy is the universal fallback: plain HTTP GET plus title and
// meta description extraction. Broadest coverage, lowest fidelity.
type ScrapeStrategy struct {
	client *http.Client
}

func NewScrapeStrategy(client *http.Client) *ScrapeStrategy {
	if client == nil {
		client = &http.Client{}
	}
	return &ScrapeStrategy{client: client}
}

func (s *ScrapeStrategy) Name() string {
	return "http"
}

func (s *ScrapeStrategy) Fetch(ctx context.Context, rawURL string) (models.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.FetchResult{}, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.FetchResult{}, fmt.Errorf("http: %w", models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return models.FetchResult{}, fmt.Errorf("http: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return models.FetchResult{}, fmt.Errorf("http: parse document: %w", models.ErrParse)
	}

	var parts []string

	title := collapseSpace(doc.Find("title").First().Text())
	if title != "" {
		parts = append(parts, "Title: "+title)
	}
	if ogTitle := metaContent(doc, `meta[property="og:title"]`); ogTitle != "" && ogTitle != title {
		parts = append(parts, "OG title: "+ogTitle)
	}

	desc := metaContent(doc, `meta[property="og:description"]`)
	if desc == "" {
		desc = metaContent(doc, `meta[name="description"]`)
	}
	if desc != "" {
		parts = append(parts, "Description: "+desc)
	}

	if len(parts) == 0 {
		return models.FetchResult{}, fmt.Errorf("http: no usable metadata: %w", models.ErrParse)
	}

	result := models.FetchResult{
		Succeeded: true,
		Text:      strings.Join(parts, "\n"),
	}
	if ogImage := metaContent(doc, `meta[property="og:image"]`); ogImage != "" {
		result.ImageURLs = append(result.ImageURLs, ogImage)
	}
	return result, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return collapseSpace(content)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
