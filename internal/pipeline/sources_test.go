package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcticlab/coldwatch/internal/domain"
	"github.com/arcticlab/coldwatch/internal/isd"
	"github.com/arcticlab/coldwatch/internal/pipeline"
	"github.com/arcticlab/coldwatch/internal/synop"
)

type mockBulletinSource struct {
	reports []synop.Report
	err     error
}

func (m *mockBulletinSource) FetchReports(_ context.Context) ([]synop.Report, error) {
	return m.reports, m.err
}

type mockResolver struct {
	table map[string]isd.StationMetadata
}

func (m *mockResolver) Lookup(_ context.Context, stationID string) (isd.StationMetadata, bool) {
	meta, ok := m.table[stationID]
	return meta, ok
}

func synopReport(stationID string, tempTenths int, ts time.Time) synop.Report {
	return synop.Report{StationID: stationID, TempTenths: tempTenths, Timestamp: ts}
}

func TestSynopSourceEnrichesFromReferenceTable(t *testing.T) {
	ts := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	bulletins := &mockBulletinSource{reports: []synop.Report{
		synopReport("24688", -521, ts),
	}}
	resolver := &mockResolver{table: map[string]isd.StationMetadata{
		"24688": {USAF: "246880", Name: "OJMJAKON", Country: "RS", Lat: 63.25, Lon: 143.15},
	}}

	source := pipeline.NewSynopSource(bulletins, resolver, slog.Default())
	assert.Equal(t, "SYNOP", source.Name())

	observations, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)

	obs := observations[0]
	assert.Equal(t, "24688", obs.StationID)
	assert.InDelta(t, -52.1, obs.TempC, 0.001)
	assert.Equal(t, "OJMJAKON", obs.Name)
	assert.Equal(t, "RS", obs.Country)
	assert.InDelta(t, 63.25, obs.Latitude, 0.001)
	assert.InDelta(t, 143.15, obs.Longitude, 0.001)
	assert.Equal(t, domain.SourceSYNOP, obs.Source)
	assert.Equal(t, "2026-01-09T00:00:00Z", obs.ObservationTime)
}

func TestSynopSourceFallbackForUnresolvedStations(t *testing.T) {
	ts := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	bulletins := &mockBulletinSource{reports: []synop.Report{
		synopReport("30372", -138, ts),
	}}

	source := pipeline.NewSynopSource(bulletins, &mockResolver{}, slog.Default())

	observations, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)

	obs := observations[0]
	assert.Equal(t, "30372 Station", obs.Name)
	assert.Equal(t, "Unknown", obs.Country)
	assert.Zero(t, obs.Latitude)
	assert.Zero(t, obs.Longitude)
}

func TestSynopSourceDeduplicatesByRecency(t *testing.T) {
	older := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	newer := older.Add(6 * time.Hour)
	bulletins := &mockBulletinSource{reports: []synop.Report{
		synopReport("71082", -440, older),
		synopReport("71082", -452, newer),
	}}

	source := pipeline.NewSynopSource(bulletins, &mockResolver{}, slog.Default())

	observations, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.InDelta(t, -45.2, observations[0].TempC, 0.001)
}

func TestSynopSourcePropagatesFetchError(t *testing.T) {
	bulletins := &mockBulletinSource{err: errors.New("listing unavailable")}

	source := pipeline.NewSynopSource(bulletins, &mockResolver{}, slog.Default())

	_, err := source.Fetch(context.Background())
	require.Error(t, err)
}
