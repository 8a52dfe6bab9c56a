package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tcb-dev/claudebridge/internal/models"
)

const userAgent = "claudebridge/1.0"

var xHostExpr = regexp.MustCompile(`^https?://(www\.|mobile\.)?(twitter\.com|x\.com)`)

// FxTwitterStrategy fetches tweet content through the fxtwitter.com JSON
// API. It is the highest-fidelity source for X/Twitter URLs: author,
// engagement, media and long-form Articles all come back structured.
type FxTwitterStrategy struct {
	client  *http.Client
	baseURL string
}

type fxTweetResponse struct {
	Tweet struct {
		Text   string `json:"text"`
		Author struct {
			Name       string `json:"name"`
			ScreenName string `json:"screen_name"`
		} `json:"author"`
		Article *struct {
			Title   string `json:"title"`
			Content struct {
				Blocks []models.ArticleBlock `json:"blocks"`
			} `json:"content"`
		} `json:"article"`
		Media struct {
			Photos []struct {
				URL string `json:"url"`
			} `json:"photos"`
			Videos []struct {
				Type         string `json:"type"`
				ThumbnailURL string `json:"thumbnail_url"`
			} `json:"videos"`
		} `json:"media"`
		Likes     int    `json:"likes"`
		Retweets  int    `json:"retweets"`
		Replies   int    `json:"replies"`
		CreatedAt string `json:"created_at"`
		Quote     *struct {
			Text   string `json:"text"`
			Author struct {
				ScreenName string `json:"screen_name"`
			} `json:"author"`
		} `json:"quote"`
	} `json:"tweet"`
}

func NewFxTwitterStrategy(client *http.Client) *FxTwitterStrategy {
	if client == nil {
		client = &http.Client{}
	}
	return &FxTwitterStrategy{client: client, baseURL: "https://api.fxtwitter.com"}
}

func (s *FxTwitterStrategy) Name() string {
	return "fxtwitter"
}

func (s *FxTwitterStrategy) Fetch(ctx context.Context, rawURL string) (models.FetchResult, error) {
	if !xHostExpr.MatchString(rawURL) {
		return models.FetchResult{}, fmt.Errorf("fxtwitter: %q: %w", rawURL, models.ErrUnsupported)
	}
	apiURL := xHostExpr.ReplaceAllString(rawURL, s.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return models.FetchResult{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return models.FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.FetchResult{}, fmt.Errorf("fxtwitter: %w", models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return models.FetchResult{}, fmt.Errorf("fxtwitter returned status %d", resp.StatusCode)
	}

	var apiResp fxTweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return models.FetchResult{}, fmt.Errorf("fxtwitter: decode: %w", models.ErrParse)
	}

	tweet := apiResp.Tweet
	if tweet.Text == "" && tweet.Author.ScreenName == "" {
		return models.FetchResult{}, fmt.Errorf("fxtwitter: empty tweet payload: %w", models.ErrParse)
	}

	var parts []string
	if tweet.Author.Name != "" || tweet.Author.ScreenName != "" {
		parts = append(parts, fmt.Sprintf("Author: %s (@%s)", tweet.Author.Name, tweet.Author.ScreenName))
	}
	if tweet.Text != "" {
		parts = append(parts, "Post:\n"+tweet.Text)
	}

	result := models.FetchResult{Succeeded: true}

	if tweet.Article != nil && len(tweet.Article.Content.Blocks) > 0 {
		if tweet.Article.Title != "" {
			parts = append(parts, "Article title: "+tweet.Article.Title)
		}
		result.IsLongForm = true
		result.RawBlocks = tweet.Article.Content.Blocks
	}

	for _, photo := range tweet.Media.Photos {
		if photo.URL != "" {
			result.ImageURLs = append(result.ImageURLs, photo.URL)
		}
	}
	if n := len(tweet.Media.Photos); n > 0 {
		parts = append(parts, fmt.Sprintf("Media: %d photo(s)", n))
	}

	// GIFs come back as videos with type "gif"; their static thumbnail is
	// good enough for visual analysis. Real videos are only noted.
	gifs, videos := 0, 0
	for _, video := range tweet.Media.Videos {
		if video.Type == "gif" && video.ThumbnailURL != "" {
			result.ImageURLs = append(result.ImageURLs, video.ThumbnailURL)
			gifs++
		} else {
			videos++
		}
	}
	if gifs > 0 {
		parts = append(parts, fmt.Sprintf("Media: %d GIF(s), thumbnails captured for analysis", gifs))
	}
	if videos > 0 {
		parts = append(parts, fmt.Sprintf("Media: %d video(s), not downloaded", videos))
	}

	if tweet.Likes > 0 || tweet.Retweets > 0 || tweet.Replies > 0 {
		parts = append(parts, fmt.Sprintf("Engagement: %d likes / %d reposts / %d replies",
			tweet.Likes, tweet.Retweets, tweet.Replies))
	}
	if tweet.CreatedAt != "" {
		parts = append(parts, "Posted: "+tweet.CreatedAt)
	}
	if tweet.Quote != nil && tweet.Quote.Text != "" {
		parts = append(parts, fmt.Sprintf("Quoted post (@%s):\n%s", tweet.Quote.Author.ScreenName, tweet.Quote.Text))
	}

	result.Text = strings.Join(parts, "\n")
	return result, nil
}
