package source

import (
	"errors"
	"fmt"

	"github.com/kstbyev/investflow/internal/httpclient"
)

// Source failure classes. Every error returned by Client wraps exactly one.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrTransport         = errors.New("transport failure")
	ErrEmptyResponse     = errors.New("empty response")
	ErrDecode            = errors.New("decode failure")
)

// Kind returns a short label for err suitable for logs and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "unknown"
	}
}

// classify maps executor failures onto the source taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, httpclient.ErrEmptyBody):
		return fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	case errors.Is(err, httpclient.ErrDecode):
		return fmt.Errorf("%w: %v", ErrDecode, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}
