package imagecache

import (
	"context"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/metrics"
)

// PlaceholderGlyph is the generic logo shown when nothing better is available.
const PlaceholderGlyph = "building.2.fill"

// Logo sources, in fallback order.
const (
	SourceRemote      = "remote"
	SourceIcon        = "icon"
	SourcePlaceholder = "placeholder"
)

// LogoRequest names the remote logo and the local icon of an instrument.
type LogoRequest struct {
	URL      string
	IconName string
}

// Logo is the resolved logo. Image is set only for SourceRemote; Name is set otherwise.
type Logo struct {
	Source string
	Image  Image
	Name   string
}

// Resolver applies the logo fallback chain: remote image, bundled icon, placeholder glyph.
type Resolver struct {
	cache  *Cache
	icons  map[string]struct{}
	logger *zap.Logger
}

// NewResolver builds a resolver. icons lists the icon names available locally.
func NewResolver(cache *Cache, icons []string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := make(map[string]struct{}, len(icons))
	for _, name := range icons {
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return &Resolver{cache: cache, icons: set, logger: logger}
}

// Logo never fails; errors from the remote fetch select a fallback instead.
func (r *Resolver) Logo(ctx context.Context, req LogoRequest) Logo {
	if req.URL != "" && r.cache != nil {
		img, err := r.cache.Fetch(ctx, req.URL)
		if err == nil {
			return Logo{Source: SourceRemote, Image: img}
		}
		r.logger.Debug("imagecache.fallback", zap.String("url", req.URL), zap.Error(err))
	}

	if _, ok := r.icons[req.IconName]; ok {
		metrics.IncLogoFallback(SourceIcon)
		return Logo{Source: SourceIcon, Name: req.IconName}
	}
	metrics.IncLogoFallback(SourcePlaceholder)
	return Logo{Source: SourcePlaceholder, Name: PlaceholderGlyph}
}

// HasIcon reports whether name is bundled locally.
func (r *Resolver) HasIcon(name string) bool {
	_, ok := r.icons[name]
	return ok
}
