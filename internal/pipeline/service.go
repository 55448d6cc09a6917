package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arcticlab/coldwatch/internal/domain"
	"github.com/arcticlab/coldwatch/internal/observability"
)

// Publisher exports a reconciled observation set downstream.
type Publisher interface {
	Publish(ctx context.Context, observations []domain.Observation) error
}

// Service runs the fetch-reconcile-rank flow across all sources. Sources are
// held in priority order; a source that fails contributes nothing, and only
// an empty merged set fails the whole request.
type Service struct {
	sources       []ObservationSource
	publisher     Publisher
	logger        *slog.Logger
	metrics       *observability.Metrics
	sourceTimeout time.Duration
	ready         atomic.Bool
}

// NewService creates a Service. Pass sources highest-priority first; a nil
// publisher disables downstream export.
func NewService(sources []ObservationSource, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, sourceTimeout time.Duration) *Service {
	return &Service{
		sources:       sources,
		publisher:     publisher,
		logger:        logger,
		metrics:       metrics,
		sourceTimeout: sourceTimeout,
	}
}

// CheckReadiness returns nil once a ranking has succeeded, or an error
// describing why the service is not yet ready.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no ranking has completed yet")
	}
	return nil
}

// ColdestReport fetches every source, reconciles the results, and ranks the
// merged set. It fails only when no source produced any observation.
func (s *Service) ColdestReport(ctx context.Context) (domain.RankedResult, error) {
	start := time.Now()

	sets := s.fetchAll(ctx)
	merged := Reconcile(sets...)

	result, err := Rank(merged)
	if err != nil {
		return domain.RankedResult{}, err
	}

	s.metrics.RankingDuration.Observe(time.Since(start).Seconds())
	s.ready.Store(true)
	s.logger.Info("ranking complete",
		"stations", result.TotalStations,
		"coldest_station", result.Coldest.StationID,
		"coldest_temp_c", result.Coldest.TempC,
		"duration", time.Since(start),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, merged); err != nil {
			s.logger.Warn("publish reconciled observations failed", "error", err)
		}
	}
	return result, nil
}

// fetchAll queries every source concurrently and returns their observation
// sets in registration order. A failing source yields an empty set; errors
// never cross the source boundary.
func (s *Service) fetchAll(ctx context.Context) [][]domain.Observation {
	sets := make([][]domain.Observation, len(s.sources))

	var g errgroup.Group
	for i, source := range s.sources {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			observations, err := source.Fetch(fetchCtx)
			if err != nil {
				s.logger.Error("source fetch failed", "source", source.Name(), "error", err)
				s.metrics.SourceFetchErrors.WithLabelValues(source.Name()).Inc()
				return nil
			}

			s.metrics.ObservationsBySource.WithLabelValues(source.Name()).Add(float64(len(observations)))
			sets[i] = observations
			return nil
		})
	}
	_ = g.Wait()

	return sets
}
