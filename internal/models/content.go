package models

import (
	"errors"
	"time"
)

// Platform identifies the source platform of a shared URL. Derived purely
// from host/path matching; unmatched hosts fall back to PlatformGeneral.
type Platform string

const (
	PlatformXTwitter Platform = "x_twitter"
	PlatformYouTube  Platform = "youtube"
	PlatformGeneral  Platform = "general"
)

// ErrorKind classifies a failed fetch or analysis attempt.
type ErrorKind string

const (
	ErrorKindNetwork     ErrorKind = "network"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindParse       ErrorKind = "parse_error"
	ErrorKindUnsupported ErrorKind = "unsupported"
	ErrorKindUnavailable ErrorKind = "unavailable"
)

// Sentinel errors strategies return; the cascade maps them to ErrorKinds.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrUnsupported = errors.New("content type not supported")
	ErrUnavailable = errors.New("capability unavailable")
	ErrParse       = errors.New("malformed response")
)

// ArticleBlock is one typed segment of a platform's long-form format
// (e.g. a Twitter Article / Notes content block).
type ArticleBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// FetchResult is the outcome of one strategy attempt. Succeeded=false
// implies Text is empty and ErrKind is set.
type FetchResult struct {
	Succeeded  bool
	Text       string
	ImageURLs  []string
	IsLongForm bool
	RawBlocks  []ArticleBlock
	ErrKind    ErrorKind
}

// FailedFetch builds the canonical failure result for a kind.
func FailedFetch(kind ErrorKind) FetchResult {
	return FetchResult{Succeeded: false, ErrKind: kind}
}

// Extraction is the structured-extraction pass output for general pages.
type Extraction struct {
	Topic      string   `json:"topic"`
	KeyData    []string `json:"key_data"`
	Entities   []string `json:"entities"`
	Conclusion string   `json:"conclusion"`
}

// EnrichedContent is the pipeline output for one URL, consumed once by the
// content merger.
type EnrichedContent struct {
	SourceURL         string
	Platform          Platform
	BaseText          string
	ArticleText       string
	ImageDescriptions []string
	Extraction        *Extraction
	Method            string
}

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryTurn is one persisted conversation turn.
type HistoryTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
