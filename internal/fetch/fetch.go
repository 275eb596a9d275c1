package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/maltedev/market-search-scraper/internal/models"
)

// ErrUnavailable marks a failure of the acquisition layer itself (for
// example a browser engine that cannot be launched). It is the one fetch
// error that halts pagination instead of advancing the funnel.
var ErrUnavailable = errors.New("fetch layer unavailable")

// Strategy is one acquisition method for a search page. Strategies are tried
// strictly in priority order by the funnel and must consult the shared
// content cache before doing network or browser work.
type Strategy interface {
	Name() string
	Resolve(q models.Query, page int) (models.FetchRequest, error)
	Execute(ctx context.Context, req models.FetchRequest) (string, error)
}

// StatusError is a non-2xx HTTP response surfaced as a failure.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// RetryableStatus reports whether an HTTP status is worth retrying:
// rate limiting, upstream 5xx, and the Cloudflare 52x range.
func RetryableStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504, 520, 521, 522, 523, 524:
		return true
	}
	return false
}

// Retryable classifies fetch failures for the retry executor. Transport
// timeouts and connection resets are transient; everything else, including
// non-retryable statuses and an unavailable fetch layer, fails immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUnavailable) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return RetryableStatus(statusErr.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
