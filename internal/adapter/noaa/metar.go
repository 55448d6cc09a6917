package noaa

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/arcticlab/coldwatch/internal/adapter/cache"
	"github.com/arcticlab/coldwatch/internal/domain"
	"github.com/arcticlab/coldwatch/internal/observability"
)

const metarCacheKey = "metar"

// MetarFetcher downloads the gzipped METAR cache CSV and normalizes its rows
// into observations. Payloads are cached on disk; when the upstream fetch
// fails, a stale cached payload is used instead of failing the source.
type MetarFetcher struct {
	url      string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	cache    *cache.FileCache
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewMetarFetcher creates a MetarFetcher backed by the given on-disk cache.
func NewMetarFetcher(url string, timeout, cacheTTL time.Duration, fileCache *cache.FileCache, logger *slog.Logger, metrics *observability.Metrics) *MetarFetcher {
	return &MetarFetcher{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		circuit:  newCircuitBreaker("metar"),
		cache:    fileCache,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  metrics,
	}
}

// Name implements pipeline.ObservationSource.
func (f *MetarFetcher) Name() string {
	return string(domain.SourceMETAR)
}

// Fetch returns the current METAR observation set.
func (f *MetarFetcher) Fetch(ctx context.Context) ([]domain.Observation, error) {
	if data, ok := f.cache.Get(metarCacheKey, f.cacheTTL); ok {
		f.metrics.CacheReads.WithLabelValues(metarCacheKey, "hit").Inc()
		return f.parse(data), nil
	}
	f.metrics.CacheReads.WithLabelValues(metarCacheKey, "miss").Inc()

	data, err := f.download(ctx)
	if err != nil {
		// Stale data beats an empty source.
		if stale, ok := f.cache.GetStale(metarCacheKey); ok {
			f.logger.Warn("metar download failed, using stale cache", "error", err)
			f.metrics.CacheReads.WithLabelValues(metarCacheKey, "stale").Inc()
			return f.parse(stale), nil
		}
		return nil, fmt.Errorf("download metar data: %w", err)
	}

	if err := f.cache.Put(metarCacheKey, data); err != nil {
		f.logger.Warn("metar cache write failed", "error", err)
	}
	return f.parse(data), nil
}

// download fetches and decompresses the METAR cache file.
func (f *MetarFetcher) download(ctx context.Context) (string, error) {
	resp, err := doRequestWithResilience(ctx, f.client, f.circuit, defaultBackoff, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, f.url, nil)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return "", fmt.Errorf("decompress metar data: %w", err)
	}
	return string(data), nil
}

// parse converts the METAR CSV payload into observations. Rows missing a
// station id, coordinates, or a temperature are skipped silently. The file
// carries preamble lines before the header row, so the header is located by
// content rather than position.
func (f *MetarFetcher) parse(data string) []domain.Observation {
	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		columns      map[string]int
		observations []domain.Observation
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		if columns == nil {
			if idx := headerIndex(record); idx != nil {
				columns = idx
			}
			continue
		}

		obs, ok := parseMetarRow(record, columns)
		if !ok {
			continue
		}
		observations = append(observations, obs)
	}

	f.logger.Info("metar parse complete", "observations", len(observations))
	return observations
}

// headerIndex maps column names to positions when the record is the header row.
func headerIndex(record []string) map[string]int {
	idx := make(map[string]int, len(record))
	for i, name := range record {
		idx[strings.TrimSpace(name)] = i
	}
	if _, ok := idx["station_id"]; !ok {
		return nil
	}
	return idx
}

func parseMetarRow(record []string, columns map[string]int) (domain.Observation, bool) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	stationID := get("station_id")
	lat, errLat := strconv.ParseFloat(get("latitude"), 64)
	lon, errLon := strconv.ParseFloat(get("longitude"), 64)
	tempC, errTemp := strconv.ParseFloat(get("temp_c"), 64)
	if stationID == "" || errLat != nil || errLon != nil || errTemp != nil {
		return domain.Observation{}, false
	}

	observedAt, err := time.Parse(time.RFC3339, get("observation_time"))
	if err != nil {
		observedAt = time.Now().UTC()
	}

	obs, err := domain.NewObservation(stationID, lat, lon, tempC, observedAt, domain.SourceMETAR)
	if err != nil {
		return domain.Observation{}, false
	}
	return obs, true
}
