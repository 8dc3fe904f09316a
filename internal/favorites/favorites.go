// Package favorites persists the set of tickers the user has starred.
//
// The set lives in a single string-array slot and every mutation rewrites the whole array.
// Writes are best effort: failures are logged and counted, never returned, and an in-memory
// mirror guarantees that reads in this process always reflect earlier writes.
package favorites

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/metrics"
	"github.com/kstbyev/investflow/internal/store"
)

// Key is the well-known slot name.
const Key = "favorite_stocks"

const ioTimeout = 2 * time.Second

// Store is the persisted favorites set.
type Store struct {
	mu     sync.RWMutex
	slot   store.Slot
	logger *zap.Logger
	set    map[string]struct{}
	known  bool
	// unread is set while the slot could not be read; the mirror may then be missing
	// persisted tickers, so seed adoption is refused and the next mutation re-reads first.
	unread bool
}

// New reads the slot once. A read failure starts from an empty set marked unread.
func New(slot store.Slot, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		slot:   slot,
		logger: logger,
		set:    make(map[string]struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	values, found, err := slot.Load(ctx, Key)
	if err != nil {
		logger.Warn("favorites.load_failed", zap.Error(err))
		metrics.IncError("favorites", "load_failed")
		s.unread = true
		return s
	}
	s.merge(values)
	s.known = found
	logger.Debug("favorites.loaded", zap.Int("count", len(s.set)), zap.Bool("known", found))
	return s
}

func (s *Store) merge(values []string) {
	for _, t := range values {
		if t != "" {
			s.set[t] = struct{}{}
		}
	}
}

// recoverLocked retries a failed initial read and folds the persisted tickers into the
// mirror, so a write after an outage does not drop them.
func (s *Store) recoverLocked() {
	if !s.unread {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	values, found, err := s.slot.Load(ctx, Key)
	if err != nil {
		s.logger.Warn("favorites.reload_failed", zap.Error(err))
		metrics.IncError("favorites", "load_failed")
		return
	}
	s.merge(values)
	s.known = s.known || found
	s.unread = false
	s.logger.Info("favorites.recovered", zap.Int("count", len(s.set)))
}

// All returns a copy of the ticker set.
func (s *Store) All() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{}, len(s.set))
	for t := range s.set {
		out[t] = struct{}{}
	}
	return out
}

// List returns the tickers sorted.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *Store) Contains(ticker string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[ticker]
	return ok
}

// Known reports whether the slot has ever been written, by this or an earlier process.
func (s *Store) Known() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.known
}

// Unread reports whether the slot could not be read yet.
func (s *Store) Unread() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// SeedAllowed reports whether default favorites may be adopted: the slot was read
// and has never been written.
func (s *Store) SeedAllowed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.known && !s.unread
}

// Add inserts ticker. Adding a present ticker does not touch the slot.
func (s *Store) Add(ticker string) {
	if ticker == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recoverLocked()
	if _, ok := s.set[ticker]; ok {
		return
	}
	s.set[ticker] = struct{}{}
	s.persistLocked()
}

// Remove deletes ticker. Removing an absent ticker does not touch the slot.
func (s *Store) Remove(ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recoverLocked()
	if _, ok := s.set[ticker]; !ok {
		return
	}
	delete(s.set, ticker)
	s.persistLocked()
}

// Replace overwrites the whole set; used when adopting seed favorites.
func (s *Store) Replace(tickers []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		if t != "" {
			s.set[t] = struct{}{}
		}
	}
	s.persistLocked()
}

func (s *Store) persistLocked() {
	s.known = true
	if s.unread {
		s.logger.Warn("favorites.save_deferred", zap.Int("count", len(s.set)))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	if err := s.slot.Save(ctx, Key, s.sortedLocked()); err != nil {
		s.logger.Warn("favorites.save_failed", zap.Int("count", len(s.set)), zap.Error(err))
		metrics.IncError("favorites", "save_failed")
	}
}

func (s *Store) sortedLocked() []string {
	out := make([]string, 0, len(s.set))
	for t := range s.set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
