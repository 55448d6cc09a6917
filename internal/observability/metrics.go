package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// observation pipeline.
type Metrics struct {
	ObservationsBySource *prometheus.CounterVec // labels: source={SYNOP,METAR,EC}
	SourceFetchErrors    *prometheus.CounterVec // labels: source={SYNOP,METAR,EC}
	BulletinsFetched     prometheus.Counter
	ReportsDecoded       prometheus.Counter

	// Station metadata metrics.
	MetadataRefresh *prometheus.CounterVec // labels: outcome={success,stale,failed}
	MetadataLookups *prometheus.CounterVec // labels: result={hit,miss}

	// On-disk cache metrics.
	CacheReads *prometheus.CounterVec // labels: key, result={hit,miss,stale}

	RankingDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsBySource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coldwatch",
			Name:      "observations_total",
			Help:      "Observations collected, by source.",
		}, []string{"source"}),
		SourceFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coldwatch",
			Name:      "source_fetch_errors_total",
			Help:      "Whole-source fetch failures, by source.",
		}, []string{"source"}),
		BulletinsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coldwatch",
			Name:      "synop_bulletins_fetched_total",
			Help:      "SYNOP bulletin files fetched from the upstream server.",
		}),
		ReportsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coldwatch",
			Name:      "synop_reports_decoded_total",
			Help:      "Station reports decoded from SYNOP bulletins.",
		}),
		MetadataRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coldwatch",
			Name:      "station_table_refresh_total",
			Help:      "Station history table refresh attempts, by outcome.",
		}, []string{"outcome"}),
		MetadataLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coldwatch",
			Name:      "station_lookups_total",
			Help:      "Station metadata lookups, by result.",
		}, []string{"result"}),
		CacheReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coldwatch",
			Name:      "file_cache_reads_total",
			Help:      "On-disk cache reads, by key and result.",
		}, []string{"key", "result"}),
		RankingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coldwatch",
			Name:      "ranking_duration_seconds",
			Help:      "Duration of a complete fetch-reconcile-rank cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	prometheus.MustRegister(
		m.ObservationsBySource,
		m.SourceFetchErrors,
		m.BulletinsFetched,
		m.ReportsDecoded,
		m.MetadataRefresh,
		m.MetadataLookups,
		m.CacheReads,
		m.RankingDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsBySource: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coldwatch", Name: "observations_total"}, []string{"source"}),
		SourceFetchErrors:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coldwatch", Name: "source_fetch_errors_total"}, []string{"source"}),
		BulletinsFetched:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coldwatch", Name: "synop_bulletins_fetched_total"}),
		ReportsDecoded:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coldwatch", Name: "synop_reports_decoded_total"}),
		MetadataRefresh:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coldwatch", Name: "station_table_refresh_total"}, []string{"outcome"}),
		MetadataLookups:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coldwatch", Name: "station_lookups_total"}, []string{"result"}),
		CacheReads:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coldwatch", Name: "file_cache_reads_total"}, []string{"key", "result"}),
		RankingDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "coldwatch", Name: "ranking_duration_seconds"}),
	}
}
