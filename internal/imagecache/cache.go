// Package imagecache fetches remote logos at most once per URL and keeps them in memory.
package imagecache

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kstbyev/investflow/internal/metrics"
)

// Fetcher performs one underlying retrieval.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Image, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (Image, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (Image, error) { return f(ctx, url) }

// Options configures a Cache.
type Options struct {
	// MaxBytes bounds the total size of cached images. Zero or negative means unbounded.
	MaxBytes int64
	// FetchTimeout bounds each underlying retrieval. Zero means 10s.
	FetchTimeout time.Duration
}

// Cache coalesces concurrent requests per normalized URL and stores successes.
// Failures are never stored.
type Cache struct {
	fetcher Fetcher
	store   backing
	group   singleflight.Group
	timeout time.Duration
	logger  *zap.Logger
}

func New(fetcher Fetcher, opts Options, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}

	var store backing
	if opts.MaxBytes > 0 {
		rb, err := newRistrettoBacking(opts.MaxBytes)
		if err != nil {
			return nil, err
		}
		store = rb
	} else {
		store = &mapBacking{}
	}

	logger.Info("imagecache.initialized",
		zap.Int64("max_bytes", opts.MaxBytes),
		zap.Duration("fetch_timeout", opts.FetchTimeout))

	return &Cache{
		fetcher: fetcher,
		store:   store,
		timeout: opts.FetchTimeout,
		logger:  logger,
	}, nil
}

// Fetch returns the image for rawURL, retrieving it if it is not cached yet.
// Concurrent calls for the same key share one retrieval. The retrieval itself is
// bounded by FetchTimeout, not by ctx, so a caller that gives up does not fail the others.
func (c *Cache) Fetch(ctx context.Context, rawURL string) (Image, error) {
	key, err := NormalizeKey(rawURL)
	if err != nil {
		return Image{}, err
	}

	if img, ok := c.store.get(key); ok {
		metrics.IncLogoCache("hit")
		return img, nil
	}

	// led is written only if this caller's function runs; the channel send that
	// delivers res happens after it, so reading it below is safe.
	led := false
	ch := c.group.DoChan(key, func() (any, error) {
		led = true
		// A retrieval that finished between the lookup above and here already stored the image.
		if img, ok := c.store.get(key); ok {
			metrics.IncLogoCache("hit")
			return img, nil
		}
		metrics.IncLogoCache("miss")
		return c.retrieve(key)
	})

	select {
	case res := <-ch:
		if !led {
			metrics.IncLogoCache("coalesced")
		}
		if res.Err != nil {
			return Image{}, res.Err
		}
		return res.Val.(Image), nil
	case <-ctx.Done():
		return Image{}, ctx.Err()
	}
}

func (c *Cache) retrieve(key string) (Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	img, err := c.fetcher.Fetch(ctx, key)
	metrics.ObserveLogoFetch(start)
	if err != nil {
		metrics.IncLogoFetch("error")
		c.logger.Warn("imagecache.fetch_failed", zap.String("key", key), zap.Error(err))
		return Image{}, err
	}
	metrics.IncLogoFetch("ok")

	if !c.store.set(key, img) {
		c.logger.Debug("imagecache.not_admitted", zap.String("key", key), zap.Int64("bytes", img.Size()))
	}
	c.logger.Debug("imagecache.stored",
		zap.String("key", key),
		zap.String("format", img.Format),
		zap.Int64("bytes", img.Size()),
		zap.Duration("elapsed", time.Since(start)))
	return img, nil
}

// Peek returns a cached image without triggering a retrieval.
func (c *Cache) Peek(rawURL string) (Image, bool) {
	key, err := NormalizeKey(rawURL)
	if err != nil {
		return Image{}, false
	}
	return c.store.get(key)
}

// Close releases the backing store.
func (c *Cache) Close() {
	c.store.close()
}
