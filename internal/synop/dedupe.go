package synop

// DedupeByStation keeps one report per station, preferring the most recent
// timestamp. First-seen order is preserved; on equal timestamps the earlier
// report is kept. This is the same-source recency merge — cross-source
// deduplication happens later in the pipeline and uses priority, not time.
func DedupeByStation(reports []Report) []Report {
	if len(reports) == 0 {
		return nil
	}

	index := make(map[string]int, len(reports))
	deduped := make([]Report, 0, len(reports))

	for _, r := range reports {
		i, seen := index[r.StationID]
		if !seen {
			index[r.StationID] = len(deduped)
			deduped = append(deduped, r)
			continue
		}
		if r.Timestamp.After(deduped[i].Timestamp) {
			deduped[i] = r
		}
	}
	return deduped
}
