package publisher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kstbyev/investflow/internal/catalog"
	"github.com/kstbyev/investflow/pkg/eventbus"
	"github.com/kstbyev/investflow/pkg/model"
)

// CatalogChangePublisher is what the bridge forwards catalog events to.
type CatalogChangePublisher interface {
	PublishCatalogChanged(ctx context.Context, ev model.CatalogChanged) error
}

// CatalogReader provides the state snapshot attached to each event.
type CatalogReader interface {
	Len() int
	View(tab catalog.Tab) []model.Instrument
}

// Bridge forwards ViewsInvalidated events from bus to pub until the returned function is called.
func Bridge(bus *eventbus.Bus, cat CatalogReader, pub CatalogChangePublisher, logger *zap.Logger) (stop func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return eventbus.Subscribe(bus, func(ev catalog.ViewsInvalidated) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		change := model.CatalogChanged{
			Reason:     ev.Reason,
			Generation: ev.Generation,
			Ticker:     ev.Ticker,
			Size:       cat.Len(),
			Favorites:  model.Tickers(cat.View(catalog.TabFavorites)),
		}
		if err := pub.PublishCatalogChanged(ctx, change); err != nil {
			logger.Warn("publisher.bridge_failed", zap.String("reason", ev.Reason), zap.Error(err))
		}
	})
}
