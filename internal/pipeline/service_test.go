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
	"github.com/arcticlab/coldwatch/internal/observability"
	"github.com/arcticlab/coldwatch/internal/pipeline"
)

// --- mocks ---

type mockSource struct {
	name         string
	observations []domain.Observation
	err          error
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(_ context.Context) ([]domain.Observation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.observations, nil
}

type mockPublisher struct {
	published [][]domain.Observation
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, observations []domain.Observation) error {
	m.published = append(m.published, observations)
	return m.err
}

func newService(t *testing.T, publisher pipeline.Publisher, sources ...pipeline.ObservationSource) *pipeline.Service {
	t.Helper()
	return pipeline.NewService(sources, publisher, slog.Default(),
		observability.NewMetricsForTesting(), 5*time.Second)
}

// --- tests ---

func TestServiceColdestReport(t *testing.T) {
	synopSrc := &mockSource{name: "SYNOP", observations: []domain.Observation{
		makeObservation(t, "24688", -52.1, domain.SourceSYNOP),
		makeObservation(t, "CYLT", -40.0, domain.SourceSYNOP),
	}}
	metarSrc := &mockSource{name: "METAR", observations: []domain.Observation{
		makeObservation(t, "CYLT", -35.0, domain.SourceMETAR),
		makeObservation(t, "NZSP", -61.2, domain.SourceMETAR),
	}}
	ecSrc := &mockSource{name: "EC", observations: []domain.Observation{
		makeObservation(t, "YEU", -41.0, domain.SourceEC),
	}}

	svc := newService(t, nil, synopSrc, metarSrc, ecSrc)

	result, err := svc.ColdestReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "NZSP", result.Coldest.StationID)
	assert.Equal(t, 4, result.TotalStations)

	// CYLT came from both feeds; the higher-priority SYNOP reading survives.
	var cylt domain.Station
	for _, station := range result.Top5 {
		if station.StationID == "CYLT" {
			cylt = station
		}
	}
	require.NotEmpty(t, cylt.StationID)
	assert.Equal(t, domain.SourceSYNOP, cylt.Source)
	assert.InDelta(t, -40.0, cylt.TempC, 0.001)
}

func TestServiceToleratesFailingSource(t *testing.T) {
	synopSrc := &mockSource{name: "SYNOP", err: errors.New("upstream listing unavailable")}
	metarSrc := &mockSource{name: "METAR", observations: []domain.Observation{
		makeObservation(t, "NZSP", -61.2, domain.SourceMETAR),
	}}

	svc := newService(t, nil, synopSrc, metarSrc)

	result, err := svc.ColdestReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalStations)
	assert.Equal(t, "NZSP", result.Coldest.StationID)
}

func TestServiceAllSourcesEmpty(t *testing.T) {
	svc := newService(t, nil,
		&mockSource{name: "SYNOP", err: errors.New("down")},
		&mockSource{name: "METAR"},
		&mockSource{name: "EC"},
	)

	_, err := svc.ColdestReport(context.Background())
	require.ErrorIs(t, err, domain.ErrNoObservations)
}

func TestServiceReadiness(t *testing.T) {
	src := &mockSource{name: "METAR", observations: []domain.Observation{
		makeObservation(t, "NZSP", -61.2, domain.SourceMETAR),
	}}
	svc := newService(t, nil, src)

	require.Error(t, svc.CheckReadiness(context.Background()))

	_, err := svc.ColdestReport(context.Background())
	require.NoError(t, err)
	assert.NoError(t, svc.CheckReadiness(context.Background()))
}

func TestServiceReadinessNotSetOnFailure(t *testing.T) {
	svc := newService(t, nil, &mockSource{name: "SYNOP", err: errors.New("down")})

	_, err := svc.ColdestReport(context.Background())
	require.Error(t, err)
	assert.Error(t, svc.CheckReadiness(context.Background()))
}

func TestServicePublishesReconciledSet(t *testing.T) {
	publisher := &mockPublisher{}
	src := &mockSource{name: "SYNOP", observations: []domain.Observation{
		makeObservation(t, "24688", -52.1, domain.SourceSYNOP),
		makeObservation(t, "04270", -29.0, domain.SourceSYNOP),
	}}
	svc := newService(t, publisher, src)

	_, err := svc.ColdestReport(context.Background())
	require.NoError(t, err)
	require.Len(t, publisher.published, 1)
	assert.Len(t, publisher.published[0], 2)
}

func TestServicePublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("broker unreachable")}
	src := &mockSource{name: "SYNOP", observations: []domain.Observation{
		makeObservation(t, "24688", -52.1, domain.SourceSYNOP),
	}}
	svc := newService(t, publisher, src)

	result, err := svc.ColdestReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "24688", result.Coldest.StationID)
}
