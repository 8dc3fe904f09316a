// Package source retrieves the instrument catalog from the remote JSON endpoint.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/httpclient"
	"github.com/kstbyev/investflow/internal/metrics"
	"github.com/kstbyev/investflow/pkg/model"
)

// DefaultURL is the public catalog endpoint.
const DefaultURL = "https://mustdev.ru/api/stocks.json"

// Fetcher is anything that can produce a full instrument list.
type Fetcher interface {
	FetchInstruments(ctx context.Context) ([]model.Instrument, error)
}

// Options configures a Client.
type Options struct {
	URL      string
	Timeout  time.Duration
	RetryMax int
}

// Client fetches the catalog over HTTP.
type Client struct {
	logger *zap.Logger
	exec   *httpclient.Executor
	url    string
	host   string
	err    error
}

// NewClient builds a client. An invalid URL is not fatal here: every fetch
// then fails with ErrSourceUnavailable so the catalog falls back.
func NewClient(logger *zap.Logger, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	c := &Client{logger: logger, url: opts.URL}
	u, err := url.Parse(opts.URL)
	switch {
	case opts.URL == "":
		c.err = fmt.Errorf("%w: no catalog url configured", ErrSourceUnavailable)
	case err != nil:
		c.err = fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		c.err = fmt.Errorf("%w: invalid catalog url %q", ErrSourceUnavailable, opts.URL)
	default:
		c.host = u.Host
	}
	if c.err != nil {
		logger.Warn("source.misconfigured", zap.String("url", opts.URL), zap.Error(c.err))
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	c.exec = httpclient.New(logger, nil, httpClient, opts.RetryMax, "source", 0)
	return c
}

// FetchInstruments downloads and decodes the full catalog.
func (c *Client) FetchInstruments(ctx context.Context) ([]model.Instrument, error) {
	if c.err != nil {
		return nil, c.err
	}

	start := time.Now()
	var raw []json.RawMessage
	if err := c.exec.GetJSON(ctx, c.url, c.host, &raw); err != nil {
		err = classify(err)
		metrics.ObserveSourceRequest(start, Kind(err))
		return nil, err
	}
	if raw == nil {
		metrics.ObserveSourceRequest(start, "empty_response")
		return nil, fmt.Errorf("%w: null payload", ErrEmptyResponse)
	}

	list := make([]model.Instrument, 0, len(raw))
	for i, item := range raw {
		var inst model.Instrument
		if err := json.Unmarshal(item, &inst); err != nil {
			metrics.ObserveSourceRequest(start, "decode")
			return nil, fmt.Errorf("%w: item %d: %v", ErrDecode, i, err)
		}
		list = append(list, inst)
	}

	metrics.ObserveSourceRequest(start, "ok")
	c.logger.Debug("source.fetched", zap.Int("count", len(list)), zap.Duration("elapsed", time.Since(start)))
	return list, nil
}
