// Package vision downloads images into memory and turns them into text
// descriptions. It is platform-agnostic on purpose: the inputs are a URL
// list, a context string and limits, never a platform record.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	minImageBytes = 1000
	maxImageBytes = 20 * 1024 * 1024
)

// Describer is the vision backend. A backend whose Available() is false
// turns the whole orchestrator into a no-op.
type Describer interface {
	Available() bool
	DescribeImage(ctx context.Context, b64Data, mimeType, contextText string) (string, error)
}

// Orchestrator applies the image-analysis policy: cap the batch, download
// each image into a transient in-memory buffer, describe it, and keep
// output order aligned with input order. Buffers never touch disk and do
// not outlive one Analyze call.
type Orchestrator struct {
	client    *http.Client
	describer Describer
	enabled   bool
	maxImages int
	timeout   time.Duration
}

func NewOrchestrator(client *http.Client, describer Describer, enabled bool, maxImages int, timeout time.Duration) *Orchestrator {
	if client == nil {
		client = &http.Client{}
	}
	return &Orchestrator{
		client:    client,
		describer: describer,
		enabled:   enabled,
		maxImages: maxImages,
		timeout:   timeout,
	}
}

// Enabled reports whether analysis will actually run.
func (o *Orchestrator) Enabled() bool {
	return o != nil && o.enabled && o.describer != nil && o.describer.Available()
}

// Analyze returns one description per processed image, in input order.
// Excess URLs beyond the cap are dropped silently; a failed image yields an
// empty slot instead of aborting the batch. When the capability is off the
// result is nil, indistinguishable from "no images found".
func (o *Orchestrator) Analyze(ctx context.Context, imageURLs []string, contextText string) []string {
	if !o.Enabled() || len(imageURLs) == 0 {
		return nil
	}

	urls := imageURLs
	if len(urls) > o.maxImages {
		urls = urls[:o.maxImages]
	}
	log.Printf("[image] analyzing %d of %d image(s)", len(urls), len(imageURLs))

	descriptions := make([]string, len(urls))
	for i, imageURL := range urls {
		imgCtx, cancel := context.WithTimeout(ctx, o.timeout)
		description, err := o.analyzeOne(imgCtx, imageURL, contextText)
		cancel()

		if err != nil {
			log.Printf("[image] %s: %v", truncateURL(imageURL), err)
			continue
		}
		descriptions[i] = description
	}
	return descriptions
}

func (o *Orchestrator) analyzeOne(ctx context.Context, imageURL, contextText string) (string, error) {
	b64Data, mimeType, err := o.download(ctx, imageURL)
	if err != nil {
		return "", err
	}
	description, err := o.describer.DescribeImage(ctx, b64Data, mimeType, contextText)
	if err != nil {
		return "", err
	}
	return description, nil
}

// download fetches the image into memory only and returns it base64-encoded
// with a mime hint from the Content-Type header.
func (o *Orchestrator) download(ctx context.Context, imageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", "claudebridge/1.0")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("download body: %w", err)
	}
	if len(data) < minImageBytes {
		return "", "", fmt.Errorf("image too small (%d bytes)", len(data))
	}
	if len(data) > maxImageBytes {
		return "", "", fmt.Errorf("image too large (over %d bytes)", maxImageBytes)
	}

	return base64.StdEncoding.EncodeToString(data), mimeFromContentType(resp.Header.Get("Content-Type")), nil
}

func mimeFromContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "image/png"
	case strings.Contains(contentType, "gif"):
		return "image/gif"
	case strings.Contains(contentType, "webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func truncateURL(s string) string {
	if len(s) > 80 {
		return s[:80]
	}
	return s
}
