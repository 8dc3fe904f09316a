package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/source"
)

// Refresher is the subset of catalog.Catalog the job drives.
type Refresher interface {
	Refresh(ctx context.Context, src source.Fetcher) bool
	Len() int
}

// CatalogRefresher periodically reloads the catalog from its source.
type CatalogRefresher struct {
	logger   *zap.Logger
	catalog  Refresher
	src      source.Fetcher
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCatalogRefresher builds the job. timeout bounds each refresh; zero means interval.
func NewCatalogRefresher(logger *zap.Logger, catalog Refresher, src source.Fetcher, interval, timeout time.Duration) *CatalogRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &CatalogRefresher{
		logger:   logger,
		catalog:  catalog,
		src:      src,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the refresh loop until Stop is called or ctx is cancelled.
// A non-positive interval disables periodic refresh and Start returns at once.
func (r *CatalogRefresher) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("catalog_refresher.disabled", zap.Duration("interval", r.interval))
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("catalog_refresher.started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("catalog_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("catalog_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop halts the loop. It is safe to call more than once.
func (r *CatalogRefresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RunOnce performs a single refresh and reports whether its result was applied.
func (r *CatalogRefresher) RunOnce(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	applied := r.catalog.Refresh(ctx, r.src)
	if !applied {
		r.logger.Info("catalog_refresher.superseded", zap.Duration("duration", time.Since(start)))
		return false
	}
	r.logger.Info("catalog_refresher.success",
		zap.Int("instruments", r.catalog.Len()),
		zap.Duration("duration", time.Since(start)))
	return true
}
