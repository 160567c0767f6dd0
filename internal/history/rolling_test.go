package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/soletrack/soletrack-backend/internal/catalog"
)

func TestBuildDayEntrySortsAndTagsFailures(t *testing.T) {
	now := time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)
	metadata := map[string]catalog.SourceMetadata{
		"zappos":            {AccumulatedCount: 12, DurationMs: 340},
		"running-warehouse": {AccumulatedCount: 40, DurationMs: 810},
	}
	failures := map[string]string{"nike-sale": "connection refused"}

	entry := BuildDayEntry(metadata, failures, now)
	if entry.DayUTC != "2026-08-28" {
		t.Fatalf("unexpected dayUTC: %s", entry.DayUTC)
	}
	if len(entry.Scrapers) != 3 {
		t.Fatalf("expected 3 scraper rows, got %d", len(entry.Scrapers))
	}
	if entry.Scrapers[0].Source != "nike-sale" || entry.Scrapers[0].OK {
		t.Fatalf("expected sorted failing source first: %+v", entry.Scrapers[0])
	}
	if entry.Scrapers[0].Error == "" {
		t.Fatal("failure row must carry the error")
	}
	if entry.Scrapers[1].Source != "running-warehouse" || entry.Scrapers[1].Count != 40 {
		t.Fatalf("unexpected row: %+v", entry.Scrapers[1])
	}
}

func TestMergeReplacesSameDay(t *testing.T) {
	previous := &Log{Days: []DayEntry{
		{DayUTC: "2026-08-27", Scrapers: []ScraperRun{{Source: "a", OK: true, Count: 5}}},
		{DayUTC: "2026-08-28", Scrapers: []ScraperRun{{Source: "a", OK: true, Count: 1}}},
	}}
	today := DayEntry{DayUTC: "2026-08-28", Scrapers: []ScraperRun{{Source: "a", OK: true, Count: 9}}}

	merged := Merge(previous, today, RetentionDays)
	if len(merged.Days) != 2 {
		t.Fatalf("same-day rerun must replace, got %d days", len(merged.Days))
	}
	if merged.Days[1].Scrapers[0].Count != 9 {
		t.Fatal("expected today's entry to replace the earlier one")
	}
}

func TestMergeSortsAscendingAndTruncates(t *testing.T) {
	previous := &Log{}
	for i := 0; i < 35; i++ {
		day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		previous.Days = append(previous.Days, DayEntry{DayUTC: day.Format("2006-01-02")})
	}
	// Prepend-order input should still come out ascending.
	for i, j := 0, len(previous.Days)-1; i < j; i, j = i+1, j-1 {
		previous.Days[i], previous.Days[j] = previous.Days[j], previous.Days[i]
	}

	today := DayEntry{DayUTC: "2026-08-28"}
	merged := Merge(previous, today, 0)

	if len(merged.Days) != RetentionDays {
		t.Fatalf("expected %d retained days, got %d", RetentionDays, len(merged.Days))
	}
	for i := 1; i < len(merged.Days); i++ {
		if merged.Days[i-1].DayUTC >= merged.Days[i].DayUTC {
			t.Fatalf("days not ascending at %d: %s >= %s", i, merged.Days[i-1].DayUTC, merged.Days[i].DayUTC)
		}
	}
	if merged.Days[len(merged.Days)-1].DayUTC != "2026-08-28" {
		t.Fatal("today must be the newest retained day")
	}
}

func TestMergeFromNilPrevious(t *testing.T) {
	merged := Merge(nil, DayEntry{DayUTC: "2026-08-28"}, RetentionDays)
	if len(merged.Days) != 1 || merged.Days[0].DayUTC != "2026-08-28" {
		t.Fatalf("nil previous must start a fresh log: %+v", merged.Days)
	}
}

func TestMergeHonorsConfiguredRetention(t *testing.T) {
	previous := &Log{}
	for i := 0; i < 10; i++ {
		day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		previous.Days = append(previous.Days, DayEntry{DayUTC: day.Format("2006-01-02")})
	}

	merged := Merge(previous, DayEntry{DayUTC: "2026-08-28"}, 3)
	if len(merged.Days) != 3 {
		t.Fatalf("expected 3 retained days, got %d", len(merged.Days))
	}
	if merged.Days[2].DayUTC != "2026-08-28" {
		t.Fatalf("today must survive truncation, got %s", merged.Days[2].DayUTC)
	}
}

func TestMergeIsIdempotentPerDay(t *testing.T) {
	var log *Log
	for run := 0; run < 5; run++ {
		entry := DayEntry{DayUTC: "2026-08-28", Scrapers: []ScraperRun{{Source: fmt.Sprintf("run-%d", run), OK: true}}}
		log = Merge(log, entry, RetentionDays)
	}
	if len(log.Days) != 1 {
		t.Fatalf("five same-day runs must keep one entry, got %d", len(log.Days))
	}
	if log.Days[0].Scrapers[0].Source != "run-4" {
		t.Fatal("latest run must win the day")
	}
}
