// Package pipeline ties the observation sources together: it fans out to
// each upstream, reconciles the overlapping station sets by source priority,
// and ranks the survivors by temperature.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/arcticlab/coldwatch/internal/domain"
	"github.com/arcticlab/coldwatch/internal/isd"
	"github.com/arcticlab/coldwatch/internal/stations"
	"github.com/arcticlab/coldwatch/internal/synop"
)

// ObservationSource is one upstream feed of temperature observations.
type ObservationSource interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Observation, error)
}

// BulletinSource retrieves decoded SYNOP reports.
type BulletinSource interface {
	FetchReports(ctx context.Context) ([]synop.Report, error)
}

// MetadataResolver resolves a SYNOP station number to reference metadata.
type MetadataResolver interface {
	Lookup(ctx context.Context, stationID string) (isd.StationMetadata, bool)
}

// SynopSource adapts decoded SYNOP reports into enriched Observations.
// Reports are deduplicated by recency first, then each surviving station is
// resolved against the reference table; stations the table misses still get
// a displayable name and country from the fallback.
type SynopSource struct {
	bulletins BulletinSource
	resolver  MetadataResolver
	logger    *slog.Logger
}

// NewSynopSource creates a SynopSource.
func NewSynopSource(bulletins BulletinSource, resolver MetadataResolver, logger *slog.Logger) *SynopSource {
	return &SynopSource{
		bulletins: bulletins,
		resolver:  resolver,
		logger:    logger,
	}
}

// Name implements ObservationSource.
func (s *SynopSource) Name() string {
	return string(domain.SourceSYNOP)
}

// Fetch implements ObservationSource.
func (s *SynopSource) Fetch(ctx context.Context) ([]domain.Observation, error) {
	reports, err := s.bulletins.FetchReports(ctx)
	if err != nil {
		return nil, err
	}
	reports = synop.DedupeByStation(reports)

	resolved := 0
	observations := make([]domain.Observation, 0, len(reports))
	for _, report := range reports {
		var lat, lon float64
		var name, country string

		meta, ok := s.resolver.Lookup(ctx, report.StationID)
		if ok {
			lat, lon = meta.Lat, meta.Lon
			name, country = meta.Name, meta.Country
			resolved++
		}
		if name == "" || country == "" {
			info := stations.Describe(report.StationID)
			if name == "" {
				name = info.Name
			}
			if country == "" {
				country = info.Country
			}
		}

		obs, err := domain.NewObservation(
			report.StationID, lat, lon, report.TempC(), report.Timestamp, domain.SourceSYNOP)
		if err != nil {
			continue
		}
		obs.Name = name
		obs.Country = country
		observations = append(observations, obs)
	}

	s.logger.Info("synop source complete",
		"reports", len(reports), "resolved", resolved, "observations", len(observations))
	return observations, nil
}
