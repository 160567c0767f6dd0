package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/soletrack/soletrack-backend/internal/catalog"
	pkgerrors "github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
	"github.com/soletrack/soletrack-backend/pkg/metrics"
)

const (
	defaultFetchTimeout = 30 * time.Second
	retryBaseDelay      = 200 * time.Millisecond
)

// FetchResult is the outcome of one snapshot segment fetch. Exactly one of
// the success fields or Error is meaningful.
type FetchResult struct {
	Descriptor        Descriptor
	OK                bool
	Error             string
	Listings          []catalog.RawListing
	SnapshotTimestamp time.Time
	DurationMs        int64
}

// FetcherParams configure the fan-out fetcher.
type FetcherParams struct {
	Logger     *logger.Logger
	Metrics    *metrics.PipelineMetrics
	HTTPClient *http.Client
	Timeout    time.Duration
	Retries    int
	Now        func() time.Time
}

// Fetcher downloads source snapshots concurrently, isolating failures per
// source.
type Fetcher struct {
	logg       *logger.Logger
	metrics    *metrics.PipelineMetrics
	httpClient *http.Client
	retries    int
	now        func() time.Time
}

func NewFetcher(params FetcherParams) (*Fetcher, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Fetcher{
		logg:       params.Logger,
		metrics:    params.Metrics,
		httpClient: httpClient,
		retries:    params.Retries,
		now:        now,
	}, nil
}

// FetchAll fans out to every descriptor concurrently. One source's failure
// never aborts or delays the others; each slot in the returned slice matches
// the descriptor at the same index.
func (f *Fetcher) FetchAll(ctx context.Context, descriptors []Descriptor) []FetchResult {
	results := make([]FetchResult, len(descriptors))
	var wg sync.WaitGroup
	for idx, desc := range descriptors {
		wg.Add(1)
		go func(idx int, desc Descriptor) {
			defer wg.Done()
			results[idx] = f.fetchOne(ctx, desc)
		}(idx, desc)
	}
	wg.Wait()
	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, desc Descriptor) FetchResult {
	start := f.now()
	sourceCtx := f.logg.WithSource(ctx, desc.ID)

	var listings []catalog.RawListing
	var snapshotTS time.Time

	backoff := retry.WithMaxRetries(uint64(f.retries), retry.NewExponential(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		decoded, ts, err := f.download(ctx, desc)
		if err != nil {
			return retry.RetryableError(err)
		}
		listings = decoded
		snapshotTS = ts
		return nil
	})

	duration := f.now().Sub(start)
	f.metrics.ObserveFetchDuration(desc.ID, duration)

	if err != nil {
		fetchErr := pkgerrors.Wrap(pkgerrors.CodeSourceFetch, err, err.Error())
		f.logg.Error(sourceCtx, "source fetch failed", fetchErr)
		f.metrics.IncSourceOutcome(desc.ID, "fail")
		return FetchResult{
			Descriptor: desc,
			Error:      fetchErr.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}

	if snapshotTS.IsZero() {
		// Snapshot carried no timestamp; treat it as freshly produced.
		snapshotTS = f.now()
	}

	f.metrics.IncSourceOutcome(desc.ID, "ok")
	countCtx := f.logg.WithField(sourceCtx, "listings", len(listings))
	f.logg.Info(countCtx, "source snapshot fetched")

	return FetchResult{
		Descriptor:        desc,
		OK:                true,
		Listings:          listings,
		SnapshotTimestamp: snapshotTS,
		DurationMs:        duration.Milliseconds(),
	}
}

func (f *Fetcher) download(ctx context.Context, desc Descriptor) ([]catalog.RawListing, time.Time, error) {
	requestURL, err := cacheBust(desc.SnapshotURL)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("building snapshot url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, time.Time{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, time.Time{}, fmt.Errorf("snapshot request returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, time.Time{}, err
	}

	return decodeSnapshot(body)
}

// cacheBust appends a uniqueness token so repeated runs never read a stale
// intermediary cache.
func cacheBust(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	q.Set("cb", uuid.NewString())
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// decodeSnapshot accepts every envelope shape the sources have historically
// published: {deals:[...]}, {items:[...]}, {output:{deals}}, {data:{deals}},
// or a bare array.
func decodeSnapshot(body []byte) ([]catalog.RawListing, time.Time, error) {
	var bare []catalog.RawListing
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, time.Time{}, nil
	}

	var envelope struct {
		Deals       []catalog.RawListing `json:"deals"`
		Items       []catalog.RawListing `json:"items"`
		LastUpdated any                  `json:"lastUpdated"`
		Timestamp   any                  `json:"timestamp"`
		ScrapedAt   any                  `json:"scrapedAt"`
		GeneratedAt any                  `json:"generatedAt"`
		Output      *struct {
			Deals       []catalog.RawListing `json:"deals"`
			LastUpdated any                  `json:"lastUpdated"`
		} `json:"output"`
		Data *struct {
			Deals       []catalog.RawListing `json:"deals"`
			LastUpdated any                  `json:"lastUpdated"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, time.Time{}, fmt.Errorf("malformed snapshot payload: %w", err)
	}

	listings := envelope.Deals
	tsCandidates := []any{envelope.LastUpdated, envelope.Timestamp, envelope.ScrapedAt, envelope.GeneratedAt}
	switch {
	case listings != nil:
	case envelope.Items != nil:
		listings = envelope.Items
	case envelope.Output != nil && envelope.Output.Deals != nil:
		listings = envelope.Output.Deals
		tsCandidates = append([]any{envelope.Output.LastUpdated}, tsCandidates...)
	case envelope.Data != nil && envelope.Data.Deals != nil:
		listings = envelope.Data.Deals
		tsCandidates = append([]any{envelope.Data.LastUpdated}, tsCandidates...)
	default:
		return nil, time.Time{}, fmt.Errorf("snapshot payload has no recognizable deal list")
	}

	var ts time.Time
	for _, candidate := range tsCandidates {
		if parsed, ok := parseTimestamp(candidate); ok {
			ts = parsed
			break
		}
	}

	return listings, ts, nil
}

func parseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed, true
			}
		}
	case float64:
		// Unix epoch; millisecond values dominate the historical snapshots.
		if v > 1e12 {
			return time.UnixMilli(int64(v)).UTC(), true
		}
		if v > 1e9 {
			return time.Unix(int64(v), 0).UTC(), true
		}
	}
	return time.Time{}, false
}
