// Package noaa fetches upstream NOAA feeds: SYNOP bulletin files from the
// raw surface-report directory, the gzipped METAR observation cache, and the
// ISD station history table.
package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/arcticlab/coldwatch/internal/observability"
	"github.com/arcticlab/coldwatch/internal/synop"
)

// region describes one cold-region bulletin family on the upstream server.
type region struct {
	name     string
	pattern  *regexp.Regexp
	maxFiles int
}

// Cold-region bulletin filename patterns. Antarctic stations report through
// several national met centers, each with its own originator suffix.
var coldRegions = []region{
	{name: "russia", pattern: regexp.MustCompile(`(?i)^sm[ru][a-z]\d+\.`), maxFiles: 30},
	{name: "canada", pattern: regexp.MustCompile(`(?i)^smca\d+\.`), maxFiles: 20},
	{name: "greenland", pattern: regexp.MustCompile(`(?i)^smgl\d+\.`), maxFiles: 10},
	{name: "antarctica-ammc", pattern: regexp.MustCompile(`(?i)^smaa\d+\.ammc\.`), maxFiles: 20},
	{name: "antarctica-nzsp", pattern: regexp.MustCompile(`(?i)^smaa\d+\.nzsp\.`), maxFiles: 20},
	{name: "antarctica-sawb", pattern: regexp.MustCompile(`(?i)^smaa\d+\.sawb\.`), maxFiles: 20},
	{name: "antarctica-lfpw", pattern: regexp.MustCompile(`(?i)^smaa\d+\.lfpw\.`), maxFiles: 20},
	{name: "antarctica-liib", pattern: regexp.MustCompile(`(?i)^smaa\d+\.liib\.`), maxFiles: 20},
	{name: "antarctica-ruml", pattern: regexp.MustCompile(`(?i)^smaa\d+\.ruml\.`), maxFiles: 20},
}

// hrefRe extracts *.txt filenames from the upstream directory listing HTML.
var hrefRe = regexp.MustCompile(`href="([^"]+\.txt)"`)

// SynopFetcher downloads and decodes SYNOP bulletins for all cold regions.
// Decoded reports are cached in memory per region; SYNOP stations report on
// 3-6 hour cycles, so a short TTL loses nothing.
type SynopFetcher struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	cacheTTL   time.Duration
	batchSize  int
	batchPause time.Duration

	mu     sync.Mutex
	cached map[string]cachedReports
}

type cachedReports struct {
	reports   []synop.Report
	fetchedAt time.Time
}

// SynopConfig bundles the fetcher's knobs.
type SynopConfig struct {
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
	BatchSize  int
	BatchPause time.Duration
}

// NewSynopFetcher creates a SynopFetcher. A nil clock defaults to real time.
func NewSynopFetcher(cfg SynopConfig, logger *slog.Logger, metrics *observability.Metrics, clk clockwork.Clock) *SynopFetcher {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &SynopFetcher{
		baseURL:    cfg.BaseURL,
		client:     &http.Client{Timeout: cfg.Timeout},
		circuit:    newCircuitBreaker("synop"),
		logger:     logger,
		metrics:    metrics,
		clock:      clk,
		cacheTTL:   cfg.CacheTTL,
		batchSize:  cfg.BatchSize,
		batchPause: cfg.BatchPause,
		cached:     make(map[string]cachedReports),
	}
}

// FetchReports fetches and decodes bulletins for every cold region
// concurrently. A region that fails contributes nothing; an error is returned
// only when the directory listing itself is unreachable and nothing was
// cached.
func (f *SynopFetcher) FetchReports(ctx context.Context) ([]synop.Report, error) {
	files, err := f.listBulletinFiles(ctx)
	if err != nil {
		if cached := f.allCached(); len(cached) > 0 {
			f.logger.Warn("bulletin listing failed, serving cached reports", "error", err)
			return cached, nil
		}
		return nil, fmt.Errorf("list bulletin files: %w", err)
	}

	var (
		g, gctx = errgroup.WithContext(ctx)
		mu      sync.Mutex
		all     []synop.Report
	)
	for _, reg := range coldRegions {
		g.Go(func() error {
			reports, err := f.fetchRegion(gctx, reg, files)
			if err != nil {
				f.logger.Warn("region fetch failed", "region", reg.name, "error", err)
				return nil
			}
			mu.Lock()
			all = append(all, reports...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.logger.Info("synop fetch complete", "reports", len(all))
	return all, nil
}

// fetchRegion returns a region's decoded reports, from cache when fresh.
func (f *SynopFetcher) fetchRegion(ctx context.Context, reg region, files []string) ([]synop.Report, error) {
	f.mu.Lock()
	if entry, ok := f.cached[reg.name]; ok && f.clock.Now().Sub(entry.fetchedAt) < f.cacheTTL {
		f.mu.Unlock()
		return entry.reports, nil
	}
	f.mu.Unlock()

	var matched []string
	for _, file := range files {
		if reg.pattern.MatchString(file) {
			matched = append(matched, file)
		}
	}
	if len(matched) > reg.maxFiles {
		matched = matched[:reg.maxFiles]
	}
	if len(matched) == 0 {
		return nil, nil
	}

	reports, err := f.fetchBulletins(ctx, matched)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cached[reg.name] = cachedReports{reports: reports, fetchedAt: f.clock.Now()}
	f.mu.Unlock()
	return reports, nil
}

// fetchBulletins downloads the named bulletin files in bounded batches with a
// short pause between batches, as a courtesy to the upstream server. Files
// that fail to download or decode are skipped.
func (f *SynopFetcher) fetchBulletins(ctx context.Context, files []string) ([]synop.Report, error) {
	var (
		mu  sync.Mutex
		all []synop.Report
	)

	for start := 0; start < len(files); start += f.batchSize {
		end := start + f.batchSize
		if end > len(files) {
			end = len(files)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, file := range files[start:end] {
			g.Go(func() error {
				body, err := f.fetchBulletin(gctx, file)
				if err != nil {
					f.logger.Warn("bulletin fetch failed", "file", file, "error", err)
					return nil
				}
				f.metrics.BulletinsFetched.Inc()

				reports := synop.DecodeBulletin(body)
				f.metrics.ReportsDecoded.Add(float64(len(reports)))

				mu.Lock()
				all = append(all, reports...)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if end < len(files) && f.batchPause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.batchPause):
			}
		}
	}

	return all, nil
}

func (f *SynopFetcher) fetchBulletin(ctx context.Context, filename string) (string, error) {
	resp, err := doRequestWithResilience(ctx, f.client, f.circuit, defaultBackoff, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, f.baseURL+filename, nil)
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read bulletin %s: %w", filename, err)
	}
	return string(body), nil
}

// listBulletinFiles scrapes the upstream directory listing for bulletin
// filenames.
func (f *SynopFetcher) listBulletinFiles(ctx context.Context) ([]string, error) {
	resp, err := doRequestWithResilience(ctx, f.client, f.circuit, defaultBackoff, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, f.baseURL, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read directory listing: %w", err)
	}

	var files []string
	for _, match := range hrefRe.FindAllStringSubmatch(string(body), -1) {
		files = append(files, match[1])
	}
	return files, nil
}

func (f *SynopFetcher) allCached() []synop.Report {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []synop.Report
	for _, entry := range f.cached {
		all = append(all, entry.reports...)
	}
	return all
}
