package isd

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/arcticlab/coldwatch/internal/observability"
)

// TableFetcher retrieves the raw station history file text.
type TableFetcher interface {
	FetchTable(ctx context.Context) (string, error)
}

// Resolver owns the station table lifecycle: lazily fetched on first lookup,
// refreshed wholesale once the loaded copy is older than the TTL, and kept
// serving stale data when a refresh fails. Callers never see refresh errors;
// resolution degrades to not-found only when no table was ever loaded.
type Resolver struct {
	fetcher TableFetcher
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	mu        sync.Mutex
	table     *Table
	fetchedAt time.Time
}

// NewResolver creates a Resolver. A nil clock defaults to real time.
func NewResolver(fetcher TableFetcher, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics, clk clockwork.Clock) *Resolver {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Resolver{
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		clock:   clk,
	}
}

// Lookup resolves a SYNOP station number to its metadata, trying the id
// as-is, then with a leading zero, then with a trailing zero.
func (r *Resolver) Lookup(ctx context.Context, stationID string) (StationMetadata, bool) {
	table := r.getOrRefresh(ctx)
	if table == nil {
		return StationMetadata{}, false
	}

	for _, key := range keyVariants(stationID) {
		if m, ok := table.Get(key); ok {
			r.metrics.MetadataLookups.WithLabelValues("hit").Inc()
			return m, true
		}
	}
	r.metrics.MetadataLookups.WithLabelValues("miss").Inc()
	return StationMetadata{}, false
}

// keyVariants lists the lookup keys to try, in order. Five-digit WMO numbers
// map to six-character USAF codes by a padding convention that varies by
// station block, so both paddings are tried before giving up.
func keyVariants(stationID string) []string {
	variants := []string{stationID}
	if len(stationID) == 5 {
		variants = append(variants, "0"+stationID, stationID+"0")
	}
	return variants
}

// getOrRefresh returns the current table, refreshing it when stale. A failed
// refresh keeps the previous table; the returned table is nil only when no
// fetch has ever succeeded.
func (r *Resolver) getOrRefresh(ctx context.Context) *Table {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.table != nil && r.clock.Now().Sub(r.fetchedAt) < r.ttl {
		return r.table
	}

	text, err := r.fetcher.FetchTable(ctx)
	if err != nil {
		if r.table != nil {
			r.logger.Warn("station table refresh failed, serving stale data",
				"error", err, "age", r.clock.Now().Sub(r.fetchedAt))
			r.metrics.MetadataRefresh.WithLabelValues("stale").Inc()
		} else {
			r.logger.Error("station table fetch failed with no previous table", "error", err)
			r.metrics.MetadataRefresh.WithLabelValues("failed").Inc()
		}
		return r.table
	}

	table := ParseTable(text)
	r.logger.Info("station table loaded", "stations", table.Len())
	r.metrics.MetadataRefresh.WithLabelValues("success").Inc()

	r.table = table
	r.fetchedAt = r.clock.Now()
	return r.table
}
