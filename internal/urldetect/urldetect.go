// Package urldetect finds URLs in message text and classifies their source
// platform. Classification is pure host/path matching and never fails:
// anything unrecognized is PlatformGeneral.
package urldetect

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/tcb-dev/claudebridge/internal/models"
)

// Matches scheme-qualified URLs plus schemeless links to the platforms we
// special-case, in the order they appear in the text.
var urlExpr = regexp.MustCompile(`(?i)(?:https?://\S+|(?:www\.)?(?:twitter\.com|x\.com|t\.co|youtube\.com|youtu\.be)/\S+)`)

// DetectedURL pairs a URL with its classified platform.
type DetectedURL struct {
	URL      string
	Platform models.Platform
}

// Detect returns the unique URLs in text, in order of first appearance.
// Schemeless platform links are returned with https:// prepended so every
// detected URL is directly fetchable.
func Detect(text string) []DetectedURL {
	var found []DetectedURL
	seen := make(map[string]struct{})

	for _, match := range urlExpr.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:!?)")
		if !strings.Contains(match, "://") {
			match = "https://" + match
		}
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		found = append(found, DetectedURL{URL: match, Platform: Classify(match)})
	}

	return found
}

// Classify maps a raw URL to its platform tag. Total: malformed input and
// unmatched hosts yield PlatformGeneral.
func Classify(rawURL string) models.Platform {
	normalized := rawURL
	if !strings.Contains(normalized, "://") {
		normalized = "https://" + normalized
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return models.PlatformGeneral
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	path := parsed.EscapedPath()

	switch {
	case host == "twitter.com", host == "x.com", host == "t.co",
		strings.HasSuffix(host, ".twitter.com"), strings.HasSuffix(host, ".x.com"):
		return models.PlatformXTwitter
	case host == "youtu.be":
		return models.PlatformYouTube
	case host == "youtube.com", strings.HasSuffix(host, ".youtube.com"):
		if strings.HasPrefix(path, "/watch") || strings.HasPrefix(path, "/shorts/") || strings.HasPrefix(path, "/live/") {
			return models.PlatformYouTube
		}
		return models.PlatformGeneral
	default:
		return models.PlatformGeneral
	}
}
