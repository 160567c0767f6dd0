package history

import (
	"sort"
	"time"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

// RetentionDays is the default bound on the rolling log's distinct UTC days.
const RetentionDays = 30

// ScraperRun is one source's outcome for a day.
type ScraperRun struct {
	Source     string `json:"source"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	Count      int    `json:"count"`
	DurationMs int64  `json:"durationMs"`
}

// DayEntry is one UTC day's scraper outcomes. Re-running within the same day
// replaces the entry rather than appending a second one.
type DayEntry struct {
	DayUTC      string       `json:"dayUTC"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Scrapers    []ScraperRun `json:"scrapers"`
}

// Log is the published scraper-data artifact.
type Log struct {
	Days []DayEntry `json:"days"`
}

// BuildDayEntry converts merged source metadata and per-source errors into
// today's log entry. Sources are sorted by id for stable output.
func BuildDayEntry(metadata map[string]catalog.SourceMetadata, failures map[string]string, now time.Time) DayEntry {
	entry := DayEntry{
		DayUTC:      now.UTC().Format("2006-01-02"),
		GeneratedAt: now.UTC(),
	}

	ids := make([]string, 0, len(metadata)+len(failures))
	for id := range metadata {
		ids = append(ids, id)
	}
	for id := range failures {
		if _, ok := metadata[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		if meta, ok := metadata[id]; ok {
			entry.Scrapers = append(entry.Scrapers, ScraperRun{
				Source:     id,
				OK:         true,
				Count:      meta.AccumulatedCount,
				DurationMs: meta.DurationMs,
			})
			continue
		}
		entry.Scrapers = append(entry.Scrapers, ScraperRun{
			Source: id,
			Error:  failures[id],
		})
	}
	return entry
}

// Merge folds today's entry into the previous log: any existing entry for
// the same dayUTC is replaced, days sort ascending, and retention truncates
// to the newest retentionDays (zero or below falls back to the 30-day
// default). The previous log may be nil when the read failed.
func Merge(previous *Log, today DayEntry, retentionDays int) *Log {
	if retentionDays <= 0 {
		retentionDays = RetentionDays
	}
	days := make([]DayEntry, 0, retentionDays+1)
	if previous != nil {
		for _, day := range previous.Days {
			if day.DayUTC == today.DayUTC {
				continue
			}
			days = append(days, day)
		}
	}
	days = append(days, today)

	sort.Slice(days, func(i, j int) bool { return days[i].DayUTC < days[j].DayUTC })
	if len(days) > retentionDays {
		days = days[len(days)-retentionDays:]
	}
	return &Log{Days: days}
}
