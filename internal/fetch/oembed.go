package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tcb-dev/claudebridge/internal/models"
)

// OEmbedStrategy resolves title/author metadata through the noembed.com
// oEmbed proxy, which covers YouTube and a few hundred other providers
// without downloading any media.
type OEmbedStrategy struct {
	client  *http.Client
	baseURL string
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error"`
}

func NewOEmbedStrategy(client *http.Client) *OEmbedStrategy {
	if client == nil {
		client = &http.Client{}
	}
	return &OEmbedStrategy{client: client, baseURL: "https://noembed.com/embed"}
}

func (s *OEmbedStrategy) Name() string {
	return "oembed"
}

func (s *OEmbedStrategy) Fetch(ctx context.Context, rawURL string) (models.FetchResult, error) {
	endpoint := s.baseURL + "?url=" + url.QueryEscape(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.FetchResult{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.FetchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.FetchResult{}, fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var apiResp oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return models.FetchResult{}, fmt.Errorf("oembed: decode: %w", models.ErrParse)
	}
	if apiResp.Error != "" {
		return models.FetchResult{}, fmt.Errorf("oembed: %s: %w", apiResp.Error, models.ErrUnsupported)
	}
	if apiResp.Title == "" {
		return models.FetchResult{}, fmt.Errorf("oembed: no title: %w", models.ErrParse)
	}

	parts := []string{"Title: " + apiResp.Title}
	if apiResp.AuthorName != "" {
		parts = append(parts, "Author/Channel: "+apiResp.AuthorName)
	}
	if apiResp.ProviderName != "" {
		parts = append(parts, "Provider: "+apiResp.ProviderName)
	}

	result := models.FetchResult{
		Succeeded: true,
		Text:      strings.Join(parts, "\n"),
	}
	if apiResp.ThumbnailURL != "" {
		result.ImageURLs = append(result.ImageURLs, apiResp.ThumbnailURL)
	}
	return result, nil
}
