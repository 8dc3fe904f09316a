package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/kstbyev/investflow/internal/api"
	"github.com/kstbyev/investflow/internal/catalog"
	"github.com/kstbyev/investflow/internal/config"
	"github.com/kstbyev/investflow/internal/favorites"
	"github.com/kstbyev/investflow/internal/imagecache"
	"github.com/kstbyev/investflow/internal/jobs"
	"github.com/kstbyev/investflow/internal/publisher"
	"github.com/kstbyev/investflow/internal/rate"
	"github.com/kstbyev/investflow/internal/search"
	"github.com/kstbyev/investflow/internal/source"
	"github.com/kstbyev/investflow/internal/store"
	"github.com/kstbyev/investflow/internal/stream"
	"github.com/kstbyev/investflow/pkg/eventbus"
	"github.com/kstbyev/investflow/pkg/logger"
	"github.com/kstbyev/investflow/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [investflow]...")

	// --- Favorites store ---
	switch cfg.FavoritesBackend {
	case "postgres", "pg":
		logg.Info("favorites backend DSN: ", utils.MaskDSN(cfg.DatabaseURL))
	case "redis":
		logg.Info("favorites backend redis: ", cfg.RedisAddr)
	}
	st, err := store.Open(ctx, cfg.StoreOptions(), logger.Named("store"))
	if err != nil {
		logg.Fatalw("failed to init favorites store", "backend", cfg.FavoritesBackend, "error", err)
	}
	favs := favorites.New(st, logger.Named("favorites"))

	// --- Catalog ---
	bus := eventbus.New()
	cat := catalog.New(favs, bus, logger.Named("catalog"))
	src := source.NewClient(logger.Named("source"), cfg.SourceOptions())

	// --- Logo cache ---
	logoLimits := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.LogoHostRPS,
		Burst:             cfg.LogoHostBurst,
	})
	fetcher := imagecache.NewHTTPFetcher(logger.Named("logo"), logoLimits, cfg.LogoFetchTimeout, cfg.LogoRetryMax)
	cache, err := imagecache.New(fetcher, imagecache.Options{
		MaxBytes:     cfg.LogoCacheBytes,
		FetchTimeout: cfg.LogoFetchTimeout,
	}, logger.Named("imagecache"))
	if err != nil {
		logg.Fatalw("failed to init logo cache", "error", err)
	}
	resolver := imagecache.NewResolver(cache, cfg.LocalIcons, logger.Named("imagecache"))

	// --- Search ---
	folding, err := search.ParseFolding(cfg.SearchFolding)
	if err != nil {
		logg.Warnw("invalid search folding, using ascii", "value", cfg.SearchFolding, "error", err)
	}
	session := search.NewSession(search.NewMatcher(folding), nil)

	// --- NATS publisher (optional) ---
	var nc *nats.Conn
	var stopBridge func()
	if cfg.NATSURL != "" {
		pub, err := publisher.Connect(cfg.NATSURL, cfg.NATSSubject, cfg.ServiceName, logger.Named("publisher"))
		if err != nil {
			logg.Warnw("nats unavailable, catalog events will not be published", "url", cfg.NATSURL, "error", err)
		} else {
			nc = pub.Conn()
			stopBridge = publisher.Bridge(bus, cat, pub, logger.Named("publisher"))
		}
	}

	// --- Websocket invalidation feed (optional) ---
	var hub *stream.Hub
	var streamSrv *http.Server
	if cfg.StreamPort > 0 {
		hub = stream.NewHub(bus, logger.Named("stream"))
		mux := http.NewServeMux()
		mux.Handle(stream.Path, hub)
		streamSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.StreamPort),
			Handler:           mux,
			ReadHeaderTimeout: cfg.HTTPReadTimeout,
		}
		go func() {
			logg.Infof("catalog stream listening on :%d%s", cfg.StreamPort, stream.Path)
			if err := streamSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Fatalw("stream.listen_failed", "error", err)
			}
		}()
	}

	// --- Initial load + periodic refresh ---
	refresher := jobs.NewCatalogRefresher(logger.Named("jobs"), cat, src, cfg.CatalogRefreshInterval, cfg.CatalogTimeout*time.Duration(cfg.CatalogRetryMax+1))
	refresher.RunOnce(ctx)
	go refresher.Start(ctx)

	// --- Fiber HTTP Server ---
	app := api.NewApp(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})
	handler := api.NewHandler(logger.Named("api"), cat, session, resolver)
	api.RegisterRoutes(app, nc, st, handler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[investflow] running",
		"env", cfg.Env,
		"catalog_url", cfg.CatalogURL,
		"instruments", cat.Len(),
		"favorites_backend", cfg.FavoritesBackend,
		"refresh_interval", cfg.CatalogRefreshInterval,
		"logo_cache_bytes", cfg.LogoCacheBytes,
		"nats", nc != nil,
		"stream", hub != nil)

	<-ctx.Done()
	logg.Info("shutting down [investflow]...")

	refresher.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if hub != nil {
		hub.Close()
		if err := streamSrv.Shutdown(shutdownCtx); err != nil {
			logg.Warnw("stream.shutdown_failed", "error", err)
		}
	}
	if stopBridge != nil {
		stopBridge()
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	cache.Close()
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}
