package domain

import (
	"errors"
	"math"
	"time"
)

// Source identifies the upstream feed an observation came from.
type Source string

const (
	SourceMETAR Source = "METAR"
	SourceEC    Source = "EC"
	SourceSYNOP Source = "SYNOP"
)

// Observation is the canonical reconciled record. Every source is normalized
// into this shape before reconciliation; a record that reaches this type
// always carries a finite temperature.
type Observation struct {
	StationID       string  `json:"stationId"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	TempC           float64 `json:"tempC"`
	ObservationTime string  `json:"observationTime"` // RFC 3339, UTC
	Name            string  `json:"name,omitempty"`
	Country         string  `json:"country,omitempty"`
	Source          Source  `json:"source"`
}

// NewObservation builds an Observation, rejecting records that must not
// survive the pipeline: missing station ids and non-finite temperatures.
func NewObservation(stationID string, lat, lon, tempC float64, observedAt time.Time, source Source) (Observation, error) {
	if stationID == "" {
		return Observation{}, errors.New("observation: empty station id")
	}
	if math.IsNaN(tempC) || math.IsInf(tempC, 0) {
		return Observation{}, errors.New("observation: temperature is not finite")
	}
	return Observation{
		StationID:       stationID,
		Latitude:        lat,
		Longitude:       lon,
		TempC:           tempC,
		ObservationTime: observedAt.UTC().Format(time.RFC3339),
		Source:          source,
	}, nil
}

// Station is an Observation whose Name and Country have been resolved.
type Station struct {
	Observation
}

// NewStation promotes an Observation to a Station. Name and Country must be set.
func NewStation(obs Observation) (Station, error) {
	if obs.Name == "" || obs.Country == "" {
		return Station{}, errors.New("station: name and country are required")
	}
	return Station{Observation: obs}, nil
}

// RankedResult is the outcome of one coldest-place ranking. It is built fresh
// per request and never persisted.
type RankedResult struct {
	Coldest       Station        `json:"coldest"`
	Top5          []Station      `json:"top5"`
	TotalStations int            `json:"totalStations"`
	Sources       map[Source]int `json:"sources"`
}

// ErrNoObservations is returned when ranking is asked to run over an empty
// observation set. It is the only failure the core propagates to callers;
// everything upstream degrades to partial data instead.
var ErrNoObservations = errors.New("no observations to rank")
