// Package fetch implements the per-platform extraction strategies and the
// cascade that tries them in fidelity order until one succeeds.
package fetch

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/tcb-dev/claudebridge/internal/models"
)

// Strategy is a single named extraction method. Implementations return an
// error for any failure; the cascade converts errors into typed failure
// results and moves on.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, rawURL string) (models.FetchResult, error)
}

// kindFromError maps a strategy error onto the failure taxonomy.
func kindFromError(err error) models.ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrorKindTimeout
	case errors.Is(err, models.ErrNotFound):
		return models.ErrorKindNotFound
	case errors.Is(err, models.ErrUnsupported):
		return models.ErrorKindUnsupported
	case errors.Is(err, models.ErrUnavailable):
		return models.ErrorKindUnavailable
	case errors.Is(err, models.ErrParse):
		return models.ErrorKindParse
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ErrorKindTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return models.ErrorKindTimeout
	}

	return models.ErrorKindNetwork
}
