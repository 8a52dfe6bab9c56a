package fetch

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/tcb-dev/claudebridge/internal/models"
)

// Cascade owns the per-platform ordered strategy lists. Richer sources come
// first; the plain HTTP scrape terminates every list because it has the
// broadest coverage. The first success short-circuits the remainder, and no
// strategy failure ever escapes the cascade.
type Cascade struct {
	strategies map[models.Platform][]Strategy
	timeout    time.Duration
}

// NewCascade builds the default strategy lists over one shared HTTP client.
// timeout is the per-attempt budget.
func NewCascade(client *http.Client, timeout time.Duration) *Cascade {
	if client == nil {
		client = &http.Client{}
	}
	fxtwitter := NewFxTwitterStrategy(client)
	oembed := NewOEmbedStrategy(client)
	scrape := NewScrapeStrategy(client)

	return &Cascade{
		strategies: map[models.Platform][]Strategy{
			models.PlatformXTwitter: {fxtwitter, oembed, scrape},
			models.PlatformYouTube:  {oembed, scrape},
			models.PlatformGeneral:  {scrape},
		},
		timeout: timeout,
	}
}

// NewCascadeWithStrategies is the test seam: callers supply the lists.
func NewCascadeWithStrategies(strategies map[models.Platform][]Strategy, timeout time.Duration) *Cascade {
	return &Cascade{strategies: strategies, timeout: timeout}
}

// Fetch tries each strategy for the platform in order and returns the first
// success plus the strategy name that produced it. If every strategy fails
// it returns the last typed failure; the caller degrades to a placeholder.
func (c *Cascade) Fetch(ctx context.Context, rawURL string, platform models.Platform) (models.FetchResult, string) {
	list := c.strategies[platform]
	if len(list) == 0 {
		list = c.strategies[models.PlatformGeneral]
	}

	last := models.FailedFetch(models.ErrorKindUnsupported)
	for _, strategy := range list {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		result, err := strategy.Fetch(attemptCtx, rawURL)
		cancel()

		if err == nil && result.Succeeded {
			log.Printf("[%s] fetched %s (%d chars, %d images)",
				strategy.Name(), rawURL, len(result.Text), len(result.ImageURLs))
			return result, strategy.Name()
		}

		kind := models.ErrorKindParse
		if err != nil {
			kind = kindFromError(err)
			log.Printf("[%s] %s failed: %v", strategy.Name(), rawURL, err)
		}
		last = models.FailedFetch(kind)

		if ctx.Err() != nil {
			// Overall budget gone; no point trying cheaper strategies.
			return models.FailedFetch(models.ErrorKindTimeout), ""
		}
	}

	return last, ""
}
