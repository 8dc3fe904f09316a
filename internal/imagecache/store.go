package imagecache

import (
	"sync"

	"github.com/dgraph-io/ristretto"
)

// backing is where Ready images live.
type backing interface {
	get(key string) (Image, bool)
	set(key string, img Image) bool
	close()
}

// mapBacking never evicts.
type mapBacking struct{ m sync.Map }

func (b *mapBacking) get(key string) (Image, bool) {
	v, ok := b.m.Load(key)
	if !ok {
		return Image{}, false
	}
	return v.(Image), true
}

func (b *mapBacking) set(key string, img Image) bool {
	b.m.Store(key, img)
	return true
}

func (b *mapBacking) close() {}

// ristrettoBacking bounds the cache by total image bytes.
type ristrettoBacking struct {
	c *ristretto.Cache
}

func newRistrettoBacking(maxBytes int64) (*ristrettoBacking, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        1e5,
		MaxCost:            maxBytes,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &ristrettoBacking{c: c}, nil
}

func (b *ristrettoBacking) get(key string) (Image, bool) {
	v, ok := b.c.Get(key)
	if !ok {
		return Image{}, false
	}
	img, ok := v.(Image)
	return img, ok
}

// set blocks until the write is applied so the next get observes it.
// The admission policy may still reject the item.
func (b *ristrettoBacking) set(key string, img Image) bool {
	cost := img.Size()
	if cost < 1 {
		cost = 1
	}
	ok := b.c.Set(key, img, cost)
	b.c.Wait()
	return ok
}

func (b *ristrettoBacking) close() { b.c.Close() }
