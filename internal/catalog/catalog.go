// Package catalog owns the in-memory instrument list and derives the All and Favorites views.
package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/metrics"
	"github.com/kstbyev/investflow/internal/source"
	"github.com/kstbyev/investflow/pkg/eventbus"
	"github.com/kstbyev/investflow/pkg/model"
)

// Favorites is the persisted favorite set the catalog writes through to.
type Favorites interface {
	Contains(ticker string) bool
	Add(ticker string)
	Remove(ticker string)
	Replace(tickers []string)
	SeedAllowed() bool
}

// Invalidation reasons.
const (
	ReasonLoad   = "load"
	ReasonSeed   = "seed"
	ReasonToggle = "toggle"
)

// ViewsInvalidated is published after every change that makes earlier views stale.
type ViewsInvalidated struct {
	Reason     string
	Generation uint64
	Ticker     string
}

// Catalog holds the authoritative instrument list.
//
// Favorite write-through runs outside mu so a slow store never blocks readers.
// writeMu orders those writes and is always taken before mu.
type Catalog struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	items  []model.Instrument
	index  map[string]int
	gen    uint64
	loaded bool

	favs   Favorites
	bus    *eventbus.Bus
	logger *zap.Logger
}

// New creates an empty catalog. bus may be nil.
func New(favs Favorites, bus *eventbus.Bus, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		index:  make(map[string]int),
		favs:   favs,
		bus:    bus,
		logger: logger,
	}
}

// Load applies a source result synchronously and supersedes any Refresh in flight.
func (c *Catalog) Load(list []model.Instrument, err error) {
	c.apply(c.begin(), list, err)
}

// Refresh fetches from src and applies the result unless a newer Load or Refresh
// started meanwhile. It reports whether the result was applied.
func (c *Catalog) Refresh(ctx context.Context, src source.Fetcher) bool {
	gen := c.begin()
	list, err := src.FetchInstruments(ctx)
	return c.apply(gen, list, err)
}

func (c *Catalog) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.gen
}

func (c *Catalog) apply(gen uint64, list []model.Instrument, err error) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()

	if gen != c.gen {
		current := c.gen
		c.mu.Unlock()
		c.logger.Info("catalog.stale_result_discarded",
			zap.Uint64("generation", gen),
			zap.Uint64("current", current))
		metrics.IncCatalogLoad("stale", source.Kind(err))
		return false
	}

	if err != nil {
		kind := source.Kind(err)
		metrics.IncCatalogLoad("fallback", kind)
		if c.loaded {
			c.mu.Unlock()
			c.logger.Warn("catalog.load_failed",
				zap.String("kind", kind),
				zap.Bool("kept_current", true),
				zap.Error(err))
			return true
		}
		adopt := c.installSeedLocked()
		c.mu.Unlock()
		if adopt {
			c.favs.Replace(SeedFavorites())
			c.logger.Info("catalog.seed_favorites_adopted")
		}
		c.logger.Warn("catalog.load_failed",
			zap.String("kind", kind),
			zap.Bool("seeded", true),
			zap.Error(err))
		c.publish(ViewsInvalidated{Reason: ReasonSeed, Generation: gen})
		return true
	}

	c.replaceLocked(list)
	c.loaded = true
	size := len(c.items)
	c.mu.Unlock()

	metrics.IncCatalogLoad("ok", "none")
	metrics.CatalogSize.Set(float64(size))
	metrics.SetLastRefresh(time.Now())
	c.logger.Info("catalog.loaded", zap.Int("count", size), zap.Uint64("generation", gen))
	c.publish(ViewsInvalidated{Reason: ReasonLoad, Generation: gen})
	return true
}

// replaceLocked swaps in list, dropping repeated tickers and syncing favorite flags with the store.
func (c *Catalog) replaceLocked(list []model.Instrument) {
	items := make([]model.Instrument, 0, len(list))
	index := make(map[string]int, len(list))
	for _, inst := range list {
		if inst.Ticker == "" {
			continue
		}
		if _, dup := index[inst.Ticker]; dup {
			c.logger.Warn("catalog.duplicate_ticker", zap.String("ticker", inst.Ticker))
			continue
		}
		inst.IsFavorite = c.favs.Contains(inst.Ticker)
		index[inst.Ticker] = len(items)
		items = append(items, inst)
	}
	c.items = items
	c.index = index
}

// installSeedLocked installs the bundled list. It reports whether the seed's own
// favorites were adopted; the caller writes them through after releasing mu.
func (c *Catalog) installSeedLocked() bool {
	seed := Seed()
	adopt := c.favs.SeedAllowed()
	c.replaceLocked(seed)
	if adopt {
		for i := range c.items {
			c.items[i].IsFavorite = seed[i].IsFavorite
		}
	}
	c.loaded = true
	metrics.CatalogSize.Set(float64(len(c.items)))
	return adopt
}

// ToggleFavorite flips the favorite flag of ticker and writes it through.
// Unknown tickers are ignored; ok is false for them.
func (c *Catalog) ToggleFavorite(ticker string) (favorite, ok bool) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	i, found := c.index[ticker]
	if !found {
		c.mu.Unlock()
		c.logger.Debug("catalog.toggle_unknown", zap.String("ticker", ticker))
		metrics.IncFavoriteToggle("unknown")
		return false, false
	}
	favorite = !c.items[i].IsFavorite
	c.items[i].IsFavorite = favorite
	gen := c.gen
	c.mu.Unlock()

	if favorite {
		c.favs.Add(ticker)
	} else {
		c.favs.Remove(ticker)
	}

	if favorite {
		metrics.IncFavoriteToggle("added")
	} else {
		metrics.IncFavoriteToggle("removed")
	}
	c.logger.Debug("catalog.favorite_toggled", zap.String("ticker", ticker), zap.Bool("favorite", favorite))
	c.publish(ViewsInvalidated{Reason: ReasonToggle, Generation: gen, Ticker: ticker})
	return favorite, true
}

// View returns a snapshot of the requested tab in load order.
func (c *Catalog) View(tab Tab) []model.Instrument {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if tab != TabFavorites {
		out := make([]model.Instrument, len(c.items))
		copy(out, c.items)
		return out
	}
	out := make([]model.Instrument, 0)
	for _, inst := range c.items {
		if inst.IsFavorite {
			out = append(out, inst)
		}
	}
	return out
}

// Lookup returns the instrument with the given ticker.
func (c *Catalog) Lookup(ticker string) (model.Instrument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[ticker]
	if !ok {
		return model.Instrument{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Generation returns the number of loads started so far.
func (c *Catalog) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Loaded reports whether any data, remote or seed, has been installed.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) publish(ev ViewsInvalidated) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}
