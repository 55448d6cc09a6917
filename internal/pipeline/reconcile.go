package pipeline

import (
	"strings"

	"github.com/arcticlab/coldwatch/internal/domain"
)

// Reconcile merges per-source observation sets into one record per station.
// Earlier sets win: pass them in source-priority order (SYNOP, METAR, EC).
// Station ids are compared case-insensitively, so a METAR "cylt" never
// shadows a SYNOP "CYLT". Order within a set is preserved.
func Reconcile(sourceSets ...[]domain.Observation) []domain.Observation {
	total := 0
	for _, set := range sourceSets {
		total += len(set)
	}

	seen := make(map[string]struct{}, total)
	merged := make([]domain.Observation, 0, total)
	for _, set := range sourceSets {
		for _, obs := range set {
			key := strings.ToUpper(obs.StationID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, obs)
		}
	}
	return merged
}
