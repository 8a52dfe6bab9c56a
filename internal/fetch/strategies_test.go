package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tcb-dev/claudebridge/internal/models"
)

func TestFxTwitterStrategyFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/u/status/1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
			"tweet": {
				"text": "hello world",
				"author": {"name": "Some User", "screen_name": "someuser"},
				"media": {
					"photos": [{"url": "https://pbs.example/a.jpg"}],
					"videos": [{"type": "gif", "thumbnail_url": "https://pbs.example/gif.jpg"}]
				},
				"likes": 10, "retweets": 2, "replies": 1,
				"created_at": "Wed Jan 01 00:00:00 +0000 2025"
			}
		}`))
	}))
	defer server.Close()

	strategy := NewFxTwitterStrategy(server.Client())
	strategy.baseURL = server.URL

	result, err := strategy.Fetch(context.Background(), "https://x.com/u/status/1")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("expected success")
	}
	if !strings.Contains(result.Text, "hello world") {
		t.Fatalf("tweet text missing: %q", result.Text)
	}
	if !strings.Contains(result.Text, "@someuser") {
		t.Fatalf("author missing: %q", result.Text)
	}
	if !strings.Contains(result.Text, "10 likes / 2 reposts / 1 replies") {
		t.Fatalf("engagement missing: %q", result.Text)
	}
	if len(result.ImageURLs) != 2 {
		t.Fatalf("expected photo + gif thumbnail, got %v", result.ImageURLs)
	}
	if result.ImageURLs[0] != "https://pbs.example/a.jpg" || result.ImageURLs[1] != "https://pbs.example/gif.jpg" {
		t.Fatalf("unexpected image order: %v", result.ImageURLs)
	}
	if result.IsLongForm {
		t.Fatal("plain tweet must not be long-form")
	}
}

func TestFxTwitterStrategyArticle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"tweet": {
				"text": "thread intro",
				"author": {"name": "Writer", "screen_name": "writer"},
				"article": {
					"title": "Long Read",
					"content": {"blocks": [
						{"type": "header-one", "text": "Intro"},
						{"type": "unstyled", "text": "Body paragraph."}
					]}
				}
			}
		}`))
	}))
	defer server.Close()

	strategy := NewFxTwitterStrategy(server.Client())
	strategy.baseURL = server.URL

	result, err := strategy.Fetch(context.Background(), "https://twitter.com/writer/status/9")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !result.IsLongForm {
		t.Fatal("expected long-form flag")
	}
	if len(result.RawBlocks) != 2 {
		t.Fatalf("expected 2 raw blocks, got %d", len(result.RawBlocks))
	}
	if !strings.Contains(result.Text, "Long Read") {
		t.Fatalf("article title missing: %q", result.Text)
	}
}

func TestFxTwitterStrategyRejectsOtherHosts(t *testing.T) {
	t.Parallel()

	strategy := NewFxTwitterStrategy(nil)
	_, err := strategy.Fetch(context.Background(), "https://example.com/page")
	if !errors.Is(err, models.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFxTwitterStrategyNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	strategy := NewFxTwitterStrategy(server.Client())
	strategy.baseURL = server.URL

	_, err := strategy.Fetch(context.Background(), "https://x.com/gone/status/0")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOEmbedStrategyFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			t.Error("missing url query parameter")
		}
		_, _ = w.Write([]byte(`{
			"title": "Never Gonna Give You Up",
			"author_name": "Rick Astley",
			"provider_name": "YouTube",
			"thumbnail_url": "https://i.ytimg.example/hq.jpg"
		}`))
	}))
	defer server.Close()

	strategy := NewOEmbedStrategy(server.Client())
	strategy.baseURL = server.URL

	result, err := strategy.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.Contains(result.Text, "Never Gonna Give You Up") {
		t.Fatalf("title missing: %q", result.Text)
	}
	if !strings.Contains(result.Text, "Rick Astley") {
		t.Fatalf("author missing: %q", result.Text)
	}
	if len(result.ImageURLs) != 1 {
		t.Fatalf("expected thumbnail url, got %v", result.ImageURLs)
	}
}

func TestOEmbedStrategyProviderError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "no matching providers found"}`))
	}))
	defer server.Close()

	strategy := NewOEmbedStrategy(server.Client())
	strategy.baseURL = server.URL

	_, err := strategy.Fetch(context.Background(), "https://unknown.example/thing")
	if !errors.Is(err, models.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestScrapeStrategyFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head>
			<title>  Example   Page </title>
			<meta property="og:description" content="A page about examples.">
			<meta property="og:image" content="https://example.com/cover.png">
		</head><body>hi</body></html>`))
	}))
	defer server.Close()

	strategy := NewScrapeStrategy(server.Client())

	result, err := strategy.Fetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.Contains(result.Text, "Title: Example Page") {
		t.Fatalf("collapsed title missing: %q", result.Text)
	}
	if !strings.Contains(result.Text, "A page about examples.") {
		t.Fatalf("description missing: %q", result.Text)
	}
	if len(result.ImageURLs) != 1 || result.ImageURLs[0] != "https://example.com/cover.png" {
		t.Fatalf("og:image not captured: %v", result.ImageURLs)
	}
}

func TestScrapeStrategyNoMetadata(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	}))
	defer server.Close()

	strategy := NewScrapeStrategy(server.Client())

	_, err := strategy.Fetch(context.Background(), server.URL)
	if !errors.Is(err, models.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
