package imagecache

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/httpclient"
	"github.com/kstbyev/investflow/internal/rate"
)

// maxLogoBytes caps a single logo download.
const maxLogoBytes = 2 << 20

// HTTPFetcher downloads logos over HTTP, rate limited per host.
type HTTPFetcher struct {
	exec *httpclient.Executor
}

// NewHTTPFetcher builds a fetcher. limits may be nil to disable rate limiting.
func NewHTTPFetcher(logger *zap.Logger, limits *rate.Manager, timeout time.Duration, retryMax int) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	return &HTTPFetcher{
		exec: httpclient.New(logger, limits, httpClient, retryMax, "logo", maxLogoBytes),
	}
}

// Fetch downloads rawURL and validates that the body is an image.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	body, _, err := f.exec.Get(ctx, rawURL, u.Host)
	if err != nil {
		return Image{}, err
	}
	return Decode(body)
}
