package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tcb-dev/claudebridge/internal/models"
)

type stubStrategy struct {
	name   string
	result models.FetchResult
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, rawURL string) (models.FetchResult, error) {
	s.calls++
	if s.err != nil {
		return models.FetchResult{}, s.err
	}
	return s.result, nil
}

func TestCascadeShortCircuit(t *testing.T) {
	t.Parallel()

	first := &stubStrategy{name: "rich", result: models.FetchResult{Succeeded: true, Text: "rich content"}}
	second := &stubStrategy{name: "http"}

	cascade := NewCascadeWithStrategies(map[models.Platform][]Strategy{
		models.PlatformXTwitter: {first, second},
	}, time.Second)

	result, method := cascade.Fetch(context.Background(), "https://x.com/u/status/1", models.PlatformXTwitter)
	if !result.Succeeded || result.Text != "rich content" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if method != "rich" {
		t.Fatalf("expected method rich, got %q", method)
	}
	if second.calls != 0 {
		t.Fatalf("later strategy invoked %d times after earlier success", second.calls)
	}
}

func TestCascadeAdvancesOnFailure(t *testing.T) {
	t.Parallel()

	first := &stubStrategy{name: "rich", err: errors.New("boom")}
	second := &stubStrategy{name: "http", result: models.FetchResult{Succeeded: true, Text: "fallback"}}

	cascade := NewCascadeWithStrategies(map[models.Platform][]Strategy{
		models.PlatformXTwitter: {first, second},
	}, time.Second)

	result, method := cascade.Fetch(context.Background(), "https://x.com/u/status/1", models.PlatformXTwitter)
	if !result.Succeeded || result.Text != "fallback" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if method != "http" {
		t.Fatalf("expected method http, got %q", method)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("unexpected call counts: %d, %d", first.calls, second.calls)
	}
}

func TestCascadeAllFail(t *testing.T) {
	t.Parallel()

	first := &stubStrategy{name: "rich", err: errors.New("unreachable")}
	second := &stubStrategy{name: "http", err: models.ErrNotFound}

	cascade := NewCascadeWithStrategies(map[models.Platform][]Strategy{
		models.PlatformGeneral: {first, second},
	}, time.Second)

	result, method := cascade.Fetch(context.Background(), "https://example.com", models.PlatformGeneral)
	if result.Succeeded {
		t.Fatal("expected failure result")
	}
	if result.Text != "" {
		t.Fatalf("failed result must carry no text, got %q", result.Text)
	}
	if result.ErrKind != models.ErrorKindNotFound {
		t.Fatalf("expected last failure kind not_found, got %q", result.ErrKind)
	}
	if method != "" {
		t.Fatalf("expected empty method, got %q", method)
	}
}

func TestCascadeGeneralUsesOnlyHTTP(t *testing.T) {
	t.Parallel()

	rich := &stubStrategy{name: "rich", result: models.FetchResult{Succeeded: true, Text: "rich"}}
	scrape := &stubStrategy{name: "http", result: models.FetchResult{Succeeded: true, Text: "title"}}

	cascade := NewCascadeWithStrategies(map[models.Platform][]Strategy{
		models.PlatformXTwitter: {rich, scrape},
		models.PlatformGeneral:  {scrape},
	}, time.Second)

	result, method := cascade.Fetch(context.Background(), "https://example.com/page", models.PlatformGeneral)
	if !result.Succeeded || method != "http" {
		t.Fatalf("unexpected result %+v via %q", result, method)
	}
	if rich.calls != 0 {
		t.Fatal("platform strategy invoked for general URL")
	}
}

func TestCascadeStopsWhenParentContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubStrategy{name: "rich", err: context.DeadlineExceeded}
	second := &stubStrategy{name: "http"}

	cascade := NewCascadeWithStrategies(map[models.Platform][]Strategy{
		models.PlatformGeneral: {first, second},
	}, time.Second)

	result, _ := cascade.Fetch(ctx, "https://example.com", models.PlatformGeneral)
	if result.Succeeded {
		t.Fatal("expected failure with cancelled context")
	}
	if result.ErrKind != models.ErrorKindTimeout {
		t.Fatalf("expected timeout kind, got %q", result.ErrKind)
	}
	if second.calls != 0 {
		t.Fatal("cascade kept trying after overall budget expired")
	}
}

func TestKindFromError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want models.ErrorKind
	}{
		{context.DeadlineExceeded, models.ErrorKindTimeout},
		{models.ErrNotFound, models.ErrorKindNotFound},
		{models.ErrUnsupported, models.ErrorKindUnsupported},
		{models.ErrParse, models.ErrorKindParse},
		{errors.New("connection refused"), models.ErrorKindNetwork},
	}
	for _, tc := range cases {
		if got := kindFromError(tc.err); got != tc.want {
			t.Errorf("kindFromError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
