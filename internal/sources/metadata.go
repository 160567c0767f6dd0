package sources

import (
	"time"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

const hoursPerDay = 24

// BuildMetadata merges fetch results into per-source-id metadata. Segments
// sharing an id accumulate: counts and durations sum, the snapshot timestamp
// takes the most recent segment. Staleness and freshness are computed on the
// merged record.
func BuildMetadata(results []FetchResult, now time.Time, staleAfterDays, freshWithinHours int) map[string]catalog.SourceMetadata {
	merged := make(map[string]catalog.SourceMetadata)

	for _, result := range results {
		if !result.OK {
			continue
		}
		id := result.Descriptor.ID
		meta := merged[id]
		meta.AccumulatedCount += len(result.Listings)
		meta.DurationMs += result.DurationMs
		if result.SnapshotTimestamp.After(meta.SnapshotTimestamp) {
			meta.SnapshotTimestamp = result.SnapshotTimestamp
		}
		merged[id] = meta
	}

	for id, meta := range merged {
		age := now.Sub(meta.SnapshotTimestamp)
		meta.AgeDays = age.Hours() / hoursPerDay
		meta.StaleExcluded = meta.AgeDays > float64(staleAfterDays)
		meta.FreshData = age.Hours() <= float64(freshWithinHours)
		merged[id] = meta
	}

	return merged
}
