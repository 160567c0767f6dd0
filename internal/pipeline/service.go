package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/soletrack/soletrack-backend/internal/catalog"
	"github.com/soletrack/soletrack-backend/internal/daily"
	"github.com/soletrack/soletrack-backend/internal/dedupe"
	"github.com/soletrack/soletrack-backend/internal/history"
	"github.com/soletrack/soletrack-backend/internal/normalize"
	"github.com/soletrack/soletrack-backend/internal/sources"
	"github.com/soletrack/soletrack-backend/internal/stats"
	"github.com/soletrack/soletrack-backend/internal/validate"
	"github.com/soletrack/soletrack-backend/pkg/config"
	"github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
	"github.com/soletrack/soletrack-backend/pkg/metrics"
)

// Artifact object names. Every run fully replaces all five.
const (
	ArtifactDeals       = "deals.json"
	ArtifactUnaltered   = "unaltered-deals.json"
	ArtifactStats       = "stats.json"
	ArtifactDailyDeals  = "daily-deals.json"
	ArtifactScraperData = "scraper-data.json"
)

// ArtifactStore is the persistence surface the pipeline publishes to.
type ArtifactStore interface {
	WriteJSON(ctx context.Context, name string, v any) error
	ReadJSON(ctx context.Context, name string, out any) error
}

type snapshotFetcher interface {
	FetchAll(ctx context.Context, descriptors []sources.Descriptor) []sources.FetchResult
}

// ServiceParams wire the aggregation pipeline.
type ServiceParams struct {
	Logger      *logger.Logger
	Metrics     *metrics.PipelineMetrics
	Fetcher     snapshotFetcher
	Store       ArtifactStore
	Descriptors []sources.Descriptor
	Lock        *RunLock
	Aggregation config.AggregationConfig
	Flags       config.FeatureFlagsConfig
	Now         func() time.Time
}

// Service runs the full aggregation pipeline: fan-out fetch, normalize,
// validate, dedupe, stats, daily sampling, history merge, publish.
type Service struct {
	logg        *logger.Logger
	metrics     *metrics.PipelineMetrics
	fetcher     snapshotFetcher
	store       ArtifactStore
	descriptors []sources.Descriptor
	lock        *RunLock
	validator   *validate.Validator
	cfg         config.AggregationConfig
	flags       config.FeatureFlagsConfig
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New(errors.CodeInternal, "pipeline requires a logger")
	}
	if params.Fetcher == nil || params.Store == nil {
		return nil, errors.New(errors.CodeInternal, "pipeline requires a fetcher and a store")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:        params.Logger,
		metrics:     params.Metrics,
		fetcher:     params.Fetcher,
		store:       params.Store,
		descriptors: params.Descriptors,
		lock:        params.Lock,
		validator: validate.New(validate.Bounds{
			MinSalePrice:       params.Aggregation.MinSalePrice,
			MaxSalePrice:       params.Aggregation.MaxSalePrice,
			MinDiscountPercent: params.Aggregation.MinDiscountPercent,
			MaxDiscountPercent: params.Aggregation.MaxDiscountPercent,
		}),
		cfg:   params.Aggregation,
		flags: params.Flags,
		now:   now,
	}, nil
}

// Summary reports one completed pass back to the caller: total and
// per-store deal counts, rejection tallies, every source's outcome, and the
// freshness rows. Trigger responses serve it as the success payload.
type Summary struct {
	RunAt           time.Time                        `json:"runAt"`
	TotalDeals      int                              `json:"totalDeals"`
	DealsByStore    map[string]int                   `json:"dealsByStore"`
	Rejections      map[validate.RejectionReason]int `json:"rejections"`
	ScraperResults  map[string]catalog.ScraperResult `json:"scraperResults"`
	SourceFreshness []catalog.SourceFreshness        `json:"sourceFreshness"`
}

// Run executes one aggregation pass. It either publishes all five artifacts
// and returns a summary, or fails before touching any of them; on publish
// failure the errors from every attempted artifact are combined.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	runCtx := s.logg.WithRunID(ctx, uuid.NewString())
	start := s.now()

	if s.lock != nil {
		acquired, err := s.lock.Acquire(runCtx)
		if err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "acquiring run lock")
		}
		if !acquired {
			s.logg.Warn(runCtx, "aggregation run already in flight, skipping")
			return nil, errors.New(errors.CodeConflict, "aggregation run already in flight")
		}
		defer func() {
			if err := s.lock.Release(runCtx); err != nil {
				s.logg.Warn(s.logg.WithField(runCtx, "error", err.Error()), "releasing run lock failed")
			}
		}()
	}

	summary, err := s.run(runCtx)

	s.metrics.ObserveRunDuration(s.now().Sub(start))
	if err != nil {
		s.metrics.IncRunFailure()
		s.logg.Error(runCtx, "aggregation run failed", err)
		return nil, err
	}
	s.metrics.IncRunSuccess()
	return summary, nil
}

func (s *Service) run(ctx context.Context) (*Summary, error) {
	now := s.now().UTC()

	results := s.fetcher.FetchAll(ctx, s.descriptors)
	metadata := sources.BuildMetadata(results, now, s.cfg.StaleAfterDays, s.cfg.FreshWithinHours)
	failures := collectFailures(results, metadata)

	rawPool := s.normalizePool(ctx, results, metadata)
	validated, rejections := s.validator.Validate(rawPool)
	deduped := dedupe.Deduplicate(validated, dedupe.Options{StrictMode: s.flags.StrictDedup})

	countsCtx := s.logg.WithFields(ctx, map[string]any{
		"raw":       len(rawPool),
		"validated": len(validated),
		"deduped":   len(deduped),
		"rejected":  rejections,
	})
	s.logg.Info(countsCtx, "deal pool assembled")

	statsReport := stats.Build(deduped, now)
	dailySet := daily.Sample(deduped, now.Format("2006-01-02"), s.cfg.DailyDealCount)

	previousLog := s.readPreviousLog(ctx)
	scraperLog := history.Merge(previousLog, history.BuildDayEntry(metadata, failures, now), s.cfg.HistoryDays)

	dealsArtifact := s.buildCatalog(deduped, metadata, failures, now)
	unaltered := &catalog.UnalteredSnapshot{GeneratedAt: now, Sources: metadata, Deals: rawPool}

	var publishErr error
	publish := func(name string, v any) {
		if err := s.store.WriteJSON(ctx, name, v); err != nil {
			publishErr = multierr.Append(publishErr, errors.Wrap(errors.CodePublish, err, "writing "+name))
		}
	}
	publish(ArtifactDeals, dealsArtifact)
	publish(ArtifactUnaltered, unaltered)
	publish(ArtifactStats, statsReport)
	publish(ArtifactDailyDeals, dailySet)
	publish(ArtifactScraperData, scraperLog)
	if publishErr != nil {
		return nil, publishErr
	}

	s.metrics.SetDealsTotal(len(deduped))
	s.logg.Info(s.logg.WithField(ctx, "total_deals", len(deduped)), "artifacts published")
	return &Summary{
		RunAt:           now,
		TotalDeals:      dealsArtifact.TotalDeals,
		DealsByStore:    dealsArtifact.DealsByStore,
		Rejections:      rejections,
		ScraperResults:  dealsArtifact.ScraperResults,
		SourceFreshness: dealsArtifact.SourceFreshness,
	}, nil
}

// normalizePool converts every non-stale source's raw listings into
// canonical deals. Stale-excluded sources contribute nothing to the pool
// even though their metadata is still reported.
func (s *Service) normalizePool(ctx context.Context, results []sources.FetchResult, metadata map[string]catalog.SourceMetadata) []catalog.Deal {
	staleCounted := make(map[string]struct{})
	pool := make([]catalog.Deal, 0, 256)

	for _, result := range results {
		if !result.OK {
			continue
		}
		id := result.Descriptor.ID
		if meta, ok := metadata[id]; ok && meta.StaleExcluded {
			if _, counted := staleCounted[id]; !counted {
				staleCounted[id] = struct{}{}
				s.metrics.IncSourceOutcome(id, "stale")
				s.logg.Warn(s.logg.WithSource(ctx, id), "source snapshot stale, excluding")
			}
			continue
		}
		for _, raw := range result.Listings {
			if deal := normalize.Normalize(raw, result.Descriptor.DisplayName); deal != nil {
				pool = append(pool, *deal)
			}
		}
	}
	return pool
}

func (s *Service) readPreviousLog(ctx context.Context) *history.Log {
	var previous history.Log
	if err := s.store.ReadJSON(ctx, ArtifactScraperData, &previous); err != nil {
		// Best effort: a missing or unreadable log starts retention fresh.
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "previous scraper log unavailable, starting empty")
		return nil
	}
	return &previous
}

func (s *Service) buildCatalog(deals []catalog.Deal, metadata map[string]catalog.SourceMetadata, failures map[string]string, now time.Time) *catalog.Catalog {
	byStore := make(map[string]int)
	for i := range deals {
		byStore[deals[i].Store]++
	}

	scraperResults := make(map[string]catalog.ScraperResult, len(metadata)+len(failures))
	for id, meta := range metadata {
		scraperResults[id] = catalog.ScraperResult{
			OK:            true,
			Count:         meta.AccumulatedCount,
			DurationMs:    meta.DurationMs,
			AgeDays:       meta.AgeDays,
			StaleExcluded: meta.StaleExcluded,
		}
	}
	for id, message := range failures {
		if _, ok := scraperResults[id]; !ok {
			scraperResults[id] = catalog.ScraperResult{Error: message}
		}
	}

	freshness := make([]catalog.SourceFreshness, 0, len(metadata))
	for id, meta := range metadata {
		freshness = append(freshness, catalog.SourceFreshness{
			Store:            s.displayName(id),
			StoreLastUpdated: meta.SnapshotTimestamp,
			FreshData:        meta.FreshData,
		})
	}
	sort.Slice(freshness, func(i, j int) bool { return freshness[i].Store < freshness[j].Store })

	return &catalog.Catalog{
		LastUpdated:     now,
		TotalDeals:      len(deals),
		DealsByStore:    byStore,
		ScraperResults:  scraperResults,
		SourceFreshness: freshness,
		Deals:           deals,
	}
}

func (s *Service) displayName(id string) string {
	for _, desc := range s.descriptors {
		if desc.ID == id {
			return desc.DisplayName
		}
	}
	return id
}

// collectFailures maps source ids to an error message when every segment of
// the source failed. A source with one good segment still counts as fetched.
func collectFailures(results []sources.FetchResult, metadata map[string]catalog.SourceMetadata) map[string]string {
	failures := make(map[string]string)
	for _, result := range results {
		if result.OK {
			continue
		}
		id := result.Descriptor.ID
		if _, fetched := metadata[id]; fetched {
			continue
		}
		if _, ok := failures[id]; !ok {
			failures[id] = result.Error
		}
	}
	return failures
}
