package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(FetcherParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Retries: 0,
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	return fetcher
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deals":[{"name":"Ghost 16"}],"lastUpdated":"2026-08-27T10:00:00Z"}`))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	fetcher := newTestFetcher(t)
	results := fetcher.FetchAll(context.Background(), []Descriptor{
		{ID: "good", DisplayName: "Good", SnapshotURL: good.URL},
		{ID: "bad", DisplayName: "Bad", SnapshotURL: bad.URL},
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].OK {
		t.Fatalf("good source should succeed: %s", results[0].Error)
	}
	if len(results[0].Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(results[0].Listings))
	}
	if results[0].SnapshotTimestamp.IsZero() {
		t.Fatal("expected snapshot timestamp to be parsed")
	}
	if results[1].OK {
		t.Fatal("bad source should fail")
	}
	if results[1].Error == "" {
		t.Fatal("failure should carry an error message")
	}
	if !strings.Contains(results[1].Error, string(pkgerrors.CodeSourceFetch)) {
		t.Fatalf("failure should be recorded as a fetch error: %s", results[1].Error)
	}
}

func TestFetchAppendsCacheBustToken(t *testing.T) {
	var sawToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawToken = r.URL.Query().Get("cb")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	results := fetcher.FetchAll(context.Background(), []Descriptor{
		{ID: "src", DisplayName: "Src", SnapshotURL: server.URL + "?region=us"},
	})

	if !results[0].OK {
		t.Fatalf("fetch failed: %s", results[0].Error)
	}
	if sawToken == "" {
		t.Fatal("expected cache-bust token on request")
	}
}

func TestFetchRejectsMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	results := fetcher.FetchAll(context.Background(), []Descriptor{
		{ID: "src", DisplayName: "Src", SnapshotURL: server.URL},
	})

	if results[0].OK {
		t.Fatal("malformed payload should fail the source")
	}
}

func TestDecodeSnapshotEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		count   int
		wantTS  bool
	}{
		{"bare array", `[{"name":"a"},{"name":"b"}]`, 2, false},
		{"deals", `{"deals":[{"name":"a"}],"lastUpdated":"2026-08-27T00:00:00Z"}`, 1, true},
		{"items", `{"items":[{"name":"a"}]}`, 1, false},
		{"output", `{"output":{"deals":[{"name":"a"}],"lastUpdated":"2026-08-27T00:00:00Z"}}`, 1, true},
		{"data", `{"data":{"deals":[{"name":"a"},{"name":"b"}]}}`, 2, false},
		{"epoch millis", `{"deals":[{"name":"a"}],"timestamp":1787104800000}`, 1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listings, ts, err := decodeSnapshot([]byte(tc.payload))
			if err != nil {
				t.Fatalf("decodeSnapshot: %v", err)
			}
			if len(listings) != tc.count {
				t.Fatalf("expected %d listings, got %d", tc.count, len(listings))
			}
			if tc.wantTS && ts.IsZero() {
				t.Fatal("expected a parsed timestamp")
			}
			if !tc.wantTS && !ts.IsZero() {
				t.Fatalf("expected zero timestamp, got %v", ts)
			}
		})
	}
}

func TestDecodeSnapshotNoDealList(t *testing.T) {
	if _, _, err := decodeSnapshot([]byte(`{"foo":"bar"}`)); err == nil {
		t.Fatal("expected error for unrecognizable payload")
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"deals":[{"name":"a"}]}`))
	}))
	defer server.Close()

	fetcher, err := NewFetcher(FetcherParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Retries: 2,
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	results := fetcher.FetchAll(context.Background(), []Descriptor{
		{ID: "flaky", DisplayName: "Flaky", SnapshotURL: server.URL},
	})

	if !results[0].OK {
		t.Fatalf("expected retry to recover: %s", results[0].Error)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestDefaultRegistrySharesIDsAcrossSegments(t *testing.T) {
	descriptors := DefaultRegistry("https://snapshots.example.com")
	byID := make(map[string]int)
	for _, desc := range descriptors {
		byID[desc.ID]++
		if desc.SnapshotURL == "" {
			t.Fatalf("descriptor %s missing snapshot url", desc.ID)
		}
	}
	if byID["running-warehouse"] != 2 {
		t.Fatalf("expected 2 running-warehouse segments, got %d", byID["running-warehouse"])
	}
	if byID["nike-sale"] != 2 {
		t.Fatalf("expected 2 nike-sale segments, got %d", byID["nike-sale"])
	}
	if len(byID) < 15 {
		t.Fatalf("expected a broad registry, got %d distinct ids", len(byID))
	}
}

func TestFetchTimestampFallsBackToNow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deals":[{"name":"a"}]}`))
	}))
	defer server.Close()

	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	fetcher, err := NewFetcher(FetcherParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Now:    func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}

	results := fetcher.FetchAll(context.Background(), []Descriptor{
		{ID: "src", DisplayName: "Src", SnapshotURL: server.URL},
	})
	if !results[0].SnapshotTimestamp.Equal(fixed) {
		t.Fatalf("expected fallback timestamp %v, got %v", fixed, results[0].SnapshotTimestamp)
	}
}
