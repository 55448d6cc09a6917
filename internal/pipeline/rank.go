package pipeline

import (
	"sort"

	"github.com/arcticlab/coldwatch/internal/domain"
	"github.com/arcticlab/coldwatch/internal/stations"
)

// topN is how many of the coldest stations the result carries.
const topN = 5

// Rank orders observations by temperature, coldest first, and returns the
// winner plus the rest of the leaderboard. The sort is stable, so equal
// temperatures keep their reconciled order. An empty input is the one
// condition the service treats as fatal, reported as ErrNoObservations.
func Rank(observations []domain.Observation) (domain.RankedResult, error) {
	if len(observations) == 0 {
		return domain.RankedResult{}, domain.ErrNoObservations
	}

	ranked := make([]domain.Observation, len(observations))
	copy(ranked, observations)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TempC < ranked[j].TempC
	})

	sources := make(map[domain.Source]int, 3)
	for _, obs := range ranked {
		sources[obs.Source]++
	}

	n := topN
	if len(ranked) < n {
		n = len(ranked)
	}
	top := make([]domain.Station, 0, n)
	for _, obs := range ranked[:n] {
		top = append(top, promote(obs))
	}

	return domain.RankedResult{
		Coldest:       top[0],
		Top5:          top,
		TotalStations: len(ranked),
		Sources:       sources,
	}, nil
}

// promote fills any missing display metadata and lifts the observation to a
// Station. The fallback never returns empty fields, so promotion cannot fail.
func promote(obs domain.Observation) domain.Station {
	if obs.Name == "" || obs.Country == "" {
		info := stations.Describe(obs.StationID)
		if obs.Name == "" {
			obs.Name = info.Name
		}
		if obs.Country == "" {
			obs.Country = info.Country
		}
	}
	station, _ := domain.NewStation(obs)
	return station
}
