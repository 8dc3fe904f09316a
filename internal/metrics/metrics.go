package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog loads by outcome; kind carries the source error class on fallback.
	CatalogLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investflow_catalog_loads_total",
			Help: "Catalog load attempts by result (ok | fallback | stale) and error kind.",
		},
		[]string{"result", "kind"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "investflow_catalog_instruments",
			Help: "Number of instruments currently held by the catalog.",
		},
	)

	FavoriteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investflow_favorite_toggles_total",
			Help: "Favorite toggles by resulting state (added | removed | unknown).",
		},
		[]string{"result"},
	)

	// Measures duration of catalog source requests.
	SourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "investflow_source_request_duration_seconds",
			Help:    "Duration of catalog source requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"result"},
	)

	// Logo cache lookups: hit | miss | coalesced.
	LogoCacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investflow_logo_cache_access_total",
			Help: "Logo cache lookups by result.",
		},
		[]string{"result"},
	)

	LogoFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investflow_logo_fetches_total",
			Help: "Underlying logo retrievals by result (ok | error).",
		},
		[]string{"result"},
	)

	LogoFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "investflow_logo_fetch_duration_seconds",
			Help:    "Duration of underlying logo retrievals in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	LogoFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investflow_logo_fallbacks_total",
			Help: "Logo requests served from a fallback (icon | placeholder).",
		},
		[]string{"source"},
	)

	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investflow_nats_messages_total",
			Help: "Catalog events published to NATS by subject and result.",
		},
		[]string{"subject", "result"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "investflow_errors_total",
			Help: "Absorbed errors by component and reason.",
		},
		[]string{"component", "reason"},
	)

	LastRefreshTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "investflow_catalog_last_refresh_timestamp",
			Help: "Unix time of the last applied catalog load.",
		},
	)
)

// ObserveSourceRequest records one catalog source request by result.
func ObserveSourceRequest(start time.Time, result string) {
	SourceRequestDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// ObserveLogoFetch records one remote logo retrieval.
func ObserveLogoFetch(start time.Time) {
	LogoFetchDuration.Observe(time.Since(start).Seconds())
}

func IncCatalogLoad(result, kind string) {
	CatalogLoadsTotal.WithLabelValues(result, kind).Inc()
}

func IncFavoriteToggle(result string) {
	FavoriteTogglesTotal.WithLabelValues(result).Inc()
}

func IncLogoCache(result string) {
	LogoCacheAccess.WithLabelValues(result).Inc()
}

func IncLogoFetch(result string) {
	LogoFetchesTotal.WithLabelValues(result).Inc()
}

func IncLogoFallback(source string) {
	LogoFallbacksTotal.WithLabelValues(source).Inc()
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}

func SetLastRefresh(t time.Time) {
	LastRefreshTimestamp.Set(float64(t.Unix()))
}
