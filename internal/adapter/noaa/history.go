package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/arcticlab/coldwatch/internal/adapter/cache"
	"github.com/arcticlab/coldwatch/internal/observability"
)

const historyCacheKey = "isd-history"

// HistoryFetcher downloads the ISD station history table. The raw text is
// cached on disk so restarts within the cache window skip the ~3 MB download,
// and a stale copy serves as fallback when the upstream is unreachable.
// It implements isd.TableFetcher.
type HistoryFetcher struct {
	url      string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	cache    *cache.FileCache
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewHistoryFetcher creates a HistoryFetcher backed by the given on-disk cache.
func NewHistoryFetcher(url string, timeout, cacheTTL time.Duration, fileCache *cache.FileCache, logger *slog.Logger, metrics *observability.Metrics) *HistoryFetcher {
	return &HistoryFetcher{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		circuit:  newCircuitBreaker("isd-history"),
		cache:    fileCache,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  metrics,
	}
}

// FetchTable returns the raw history file text.
func (f *HistoryFetcher) FetchTable(ctx context.Context) (string, error) {
	if data, ok := f.cache.Get(historyCacheKey, f.cacheTTL); ok {
		f.metrics.CacheReads.WithLabelValues(historyCacheKey, "hit").Inc()
		return data, nil
	}
	f.metrics.CacheReads.WithLabelValues(historyCacheKey, "miss").Inc()

	resp, err := doRequestWithResilience(ctx, f.client, f.circuit, defaultBackoff, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, f.url, nil)
	})
	if err != nil {
		if stale, ok := f.cache.GetStale(historyCacheKey); ok {
			f.logger.Warn("station history download failed, using stale cache", "error", err)
			f.metrics.CacheReads.WithLabelValues(historyCacheKey, "stale").Inc()
			return stale, nil
		}
		return "", fmt.Errorf("download station history: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read station history: %w", err)
	}

	data := string(body)
	if err := f.cache.Put(historyCacheKey, data); err != nil {
		f.logger.Warn("station history cache write failed", "error", err)
	}
	return data, nil
}
