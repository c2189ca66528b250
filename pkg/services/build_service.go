// Package services orchestrates the offline score build pipeline and the
// runtime read path over the persisted store.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/database"
	"github.com/skylane-labs/fieldscore/pkg/extraction"
	"github.com/skylane-labs/fieldscore/pkg/facts"
	"github.com/skylane-labs/fieldscore/pkg/llm"
	"github.com/skylane-labs/fieldscore/pkg/models"
	"github.com/skylane-labs/fieldscore/pkg/observability"
	"github.com/skylane-labs/fieldscore/pkg/ontology"
	"github.com/skylane-labs/fieldscore/pkg/repositories"
	"github.com/skylane-labs/fieldscore/pkg/retry"
	"github.com/skylane-labs/fieldscore/pkg/reviews"
	"github.com/skylane-labs/fieldscore/pkg/scoring"
)

// BuildOptions selects what a single build run covers.
type BuildOptions struct {
	// Incremental skips airports whose review set is unchanged since their
	// last successful build. Airports whose last attempt failed are always
	// reprocessed.
	Incremental bool

	// Airports restricts the run to the given idents and forces their
	// rebuild even when Incremental would skip them. An ident with no
	// reviews is still processed so its fact features get scored.
	Airports []string
}

// BuildConfig tunes a build service. Zero values select defaults.
type BuildConfig struct {
	// Retry bounds the per-review extraction retry budget.
	// Nil selects retry.DefaultConfig.
	Retry *retry.Config

	// AIConfidenceScale multiplies the confidence of tags extracted from
	// machine-generated reviews. Only values in (0,1) scale; zero and
	// anything at or above 1 leave confidences untouched.
	AIConfidenceScale float64
}

// BuildService runs the offline pipeline that turns raw reviews and official
// facts into persisted feature scores.
//
// Per run: load reviews grouped by airport, decide which airports need work,
// then per airport extract tags, aggregate them, map feature scores, and
// commit everything in one transaction. One airport's failure never aborts
// the run; a final transaction stamps the build metadata.
type BuildService interface {
	// Run executes one build and reports per-airport outcomes. A non-nil
	// BuildResult with Success=false means some airports failed while the
	// run itself completed. Returns apperrors.ErrBuildInProgress when a
	// run is already active on this service.
	Run(ctx context.Context, opts BuildOptions) (*models.BuildResult, error)
}

type buildService struct {
	store      *database.Store
	source     reviews.Source
	factSource facts.Source
	extractor  extraction.Extractor
	summarizer extraction.Summarizer
	ont        *ontology.Ontology
	scoringCfg *scoring.Config
	personas   *scoring.PersonaSet
	pool       *llm.WorkerPool
	retryCfg   *retry.Config
	aiScale    float64
	features   []string
	clock      clockwork.Clock
	metrics    *observability.BuildMetrics
	logger     *zap.Logger

	scoresRepo    repositories.ScoresRepository
	tagsRepo      repositories.TagsRepository
	summariesRepo repositories.SummariesRepository
	metaRepo      repositories.MetaRepository
	stateRepo     repositories.StateRepository

	running atomic.Bool
}

// NewBuildService creates the build orchestrator. The summarizer may be nil,
// which disables per-airport summaries.
func NewBuildService(
	store *database.Store,
	source reviews.Source,
	factSource facts.Source,
	extractor extraction.Extractor,
	summarizer extraction.Summarizer,
	ont *ontology.Ontology,
	scoringCfg *scoring.Config,
	personas *scoring.PersonaSet,
	pool *llm.WorkerPool,
	clock clockwork.Clock,
	metrics *observability.BuildMetrics,
	cfg BuildConfig,
	logger *zap.Logger,
) BuildService {
	retryCfg := cfg.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &buildService{
		store:         store,
		source:        source,
		factSource:    factSource,
		extractor:     extractor,
		summarizer:    summarizer,
		ont:           ont,
		scoringCfg:    scoringCfg,
		personas:      personas,
		pool:          pool,
		retryCfg:      retryCfg,
		aiScale:       cfg.AIConfidenceScale,
		features:      scoringCfg.FeatureNames(),
		clock:         clock,
		metrics:       metrics,
		logger:        logger.Named("build-orchestrator"),
		scoresRepo:    repositories.NewScoresRepository(),
		tagsRepo:      repositories.NewTagsRepository(),
		summariesRepo: repositories.NewSummariesRepository(),
		metaRepo:      repositories.NewMetaRepository(),
		stateRepo:     repositories.NewStateRepository(),
	}
}

// Run executes one build.
func (s *buildService) Run(ctx context.Context, opts BuildOptions) (*models.BuildResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperrors.ErrBuildInProgress
	}
	defer s.running.Store(false)

	buildID := uuid.New().String()
	startedAt := s.clock.Now().UTC()
	logger := s.logger.With(zap.String("build_id", buildID))

	s.metrics.BuildRunning.Set(1)
	defer s.metrics.BuildRunning.Set(0)

	logger.Info("Starting score build",
		zap.Bool("incremental", opts.Incremental),
		zap.Strings("airports", opts.Airports),
		zap.String("source_version", s.source.SourceVersion()),
		zap.String("ontology_version", s.ont.Version()),
		zap.String("scoring_version", s.scoringCfg.Version()))

	// Loading stage. Newly declared features need their score columns before
	// any airport writes.
	if err := s.store.ReconcileFeatureColumns(ctx, s.features); err != nil {
		return nil, fmt.Errorf("reconcile feature columns: %w", err)
	}

	raws, err := s.source.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	batches, forced := selectBatches(reviews.GroupByAirport(raws), opts.Airports)

	var states map[string]*models.AirportState
	if opts.Incremental {
		states, err = s.stateRepo.All(ctx, s.store.DB())
		if err != nil {
			return nil, fmt.Errorf("load airport state: %w", err)
		}
	}

	var results []models.AirportResult
	var toProcess []models.ReviewBatch
	for _, batch := range batches {
		if opts.Incremental && !forced[batch.AirportIdent] && upToDate(states[batch.AirportIdent], batch) {
			logger.Debug("Skipping airport, review set unchanged",
				zap.String("airport_ident", batch.AirportIdent),
				zap.Int("reviews", len(batch.Reviews)))
			results = append(results, models.AirportResult{
				AirportIdent: batch.AirportIdent,
				Status:       models.AirportSkipped,
				Reviews:      len(batch.Reviews),
			})
			continue
		}
		toProcess = append(toProcess, batch)
	}

	logger.Info("Processing airports",
		zap.Int("total", len(batches)),
		zap.Int("to_process", len(toProcess)),
		zap.Int("skipped", len(results)))

	// Processing stage. The breaker is run-scoped: all extraction workers
	// share it so a dead provider stops the run from burning its whole retry
	// budget airport by airport.
	breaker := llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())

	items := make([]llm.WorkItem[*models.AirportResult], 0, len(toProcess))
	for _, batch := range toProcess {
		items = append(items, llm.WorkItem[*models.AirportResult]{
			ID: batch.AirportIdent,
			Execute: func(ctx context.Context) (*models.AirportResult, error) {
				return s.processAirport(ctx, breaker, batch), nil
			},
		})
	}

	workResults := llm.Process(ctx, s.pool, items, func(completed, total int) {
		logger.Debug("Build progress", zap.Int("completed", completed), zap.Int("total", total))
	})

	for _, r := range workResults {
		if r.Err != nil {
			// The pool only errors on cancellation before execution.
			results = append(results, models.AirportResult{
				AirportIdent: r.ID,
				Status:       models.AirportFailed,
				Err:          r.Err,
			})
			continue
		}
		results = append(results, *r.Result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].AirportIdent < results[j].AirportIdent })

	// Finalizing stage.
	metaEntries := []struct{ key, value string }{
		{models.MetaSourceVersion, s.source.SourceVersion()},
		{models.MetaOntologyVersion, s.ont.Version()},
		{models.MetaScoringVersion, s.scoringCfg.Version()},
		{models.MetaPersonasVersion, s.personas.Version()},
		{models.MetaBuildID, buildID},
		{models.MetaBuiltAt, s.clock.Now().UTC().Format(time.RFC3339)},
	}
	if err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		for _, e := range metaEntries {
			if err := s.metaRepo.Set(ctx, tx, e.key, e.value); err != nil {
				return fmt.Errorf("set %s: %w", e.key, err)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("write build metadata: %w", err)
	}

	result := &models.BuildResult{
		BuildID:   buildID,
		StartedAt: startedAt,
		Duration:  s.clock.Since(startedAt),
		Airports:  results,
	}
	for _, r := range results {
		result.Processed++
		switch r.Status {
		case models.AirportWritten:
			result.Written++
		case models.AirportSkipped:
			result.Skipped++
		case models.AirportFailed:
			result.Failed++
			result.FailedIdents = append(result.FailedIdents, r.AirportIdent)
		}
		s.metrics.AirportsProcessed.WithLabelValues(string(r.Status)).Inc()
	}
	result.Success = result.Failed == 0
	s.metrics.BuildDuration.Observe(result.Duration.Seconds())

	logger.Info("Build complete",
		zap.Bool("success", result.Success),
		zap.Int("processed", result.Processed),
		zap.Int("written", result.Written),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Strings("failed_idents", result.FailedIdents),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// processAirport runs the per-airport pipeline: extract, validate, aggregate,
// map, summarize, then commit in one transaction. Failures are encoded in the
// returned result so one airport can never abort the run.
func (s *buildService) processAirport(ctx context.Context, breaker *llm.CircuitBreaker, batch models.ReviewBatch) *models.AirportResult {
	ident := batch.AirportIdent

	fail := func(err error) *models.AirportResult {
		s.logger.Error("Airport build failed",
			zap.String("airport_ident", ident),
			zap.Error(err))
		s.recordFailedState(ctx, batch)
		return &models.AirportResult{
			AirportIdent: ident,
			Status:       models.AirportFailed,
			Reviews:      len(batch.Reviews),
			Err:          err,
		}
	}

	var tags []models.Tag
	dropped := 0
	for _, review := range batch.Reviews {
		if allowed, cbErr := breaker.Allow(); !allowed {
			return fail(apperrors.NewExtractionError(ident, cbErr))
		}

		start := time.Now()
		var candidates []extraction.Candidate
		attempts := 0
		err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
			attempts++
			if attempts > 1 {
				s.metrics.ExtractionRetries.Inc()
			}
			var exErr error
			candidates, exErr = s.extractor.Extract(ctx, review)
			return exErr
		})
		s.metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			breaker.RecordFailure()
			if apperrors.StageOf(err) == "" {
				err = apperrors.NewExtractionError(ident, err)
			}
			return fail(fmt.Errorf("extract review %s: %w", review.Fingerprint(), err))
		}
		breaker.RecordSuccess()
		s.metrics.ReviewsExtracted.Inc()

		reviewTags, reviewDropped := extraction.Validate(s.ont, review, candidates, s.aiScale)
		if reviewDropped > 0 {
			s.logger.Warn("Dropped invalid extraction candidates",
				zap.String("airport_ident", ident),
				zap.String("review", review.Fingerprint()),
				zap.Int("dropped", reviewDropped))
		}
		tags = append(tags, reviewTags...)
		dropped += reviewDropped
	}
	s.metrics.TagsDropped.Add(float64(dropped))

	summary := s.summarize(ctx, breaker, batch)

	factValues, err := s.factSource.Values(ctx, ident)
	if err != nil {
		return fail(apperrors.NewMappingError(ident, fmt.Errorf("read facts: %w", err)))
	}

	featureScores := s.scoringCfg.Scores(ident, scoring.Aggregate(tags), factValues)

	now := s.clock.Now().UTC()
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.scoresRepo.Upsert(ctx, tx, featureScores, s.features, now); err != nil {
			return fmt.Errorf("upsert scores: %w", err)
		}
		if err := s.tagsRepo.Replace(ctx, tx, ident, tags); err != nil {
			return fmt.Errorf("replace tags: %w", err)
		}
		if summary != "" {
			if err := s.summariesRepo.Upsert(ctx, tx, &models.AirportSummary{
				AirportIdent: ident,
				Summary:      summary,
				ReviewCount:  len(batch.Reviews),
				GeneratedAt:  now,
			}); err != nil {
				return fmt.Errorf("upsert summary: %w", err)
			}
		} else {
			// A kept summary that no longer matches the review set would
			// misrepresent the airport.
			if err := s.summariesRepo.Delete(ctx, tx, ident); err != nil {
				return fmt.Errorf("delete stale summary: %w", err)
			}
		}
		return s.stateRepo.Upsert(ctx, tx, &models.AirportState{
			AirportIdent:  ident,
			LastProcessed: now,
			ReviewDigest:  batch.Digest(),
			ReviewCount:   len(batch.Reviews),
			LastStatus:    models.AirportWritten,
		})
	})
	if err != nil {
		return fail(apperrors.NewStorageError(ident, err))
	}
	s.metrics.TagsWritten.Add(float64(len(tags)))

	s.logger.Info("Airport written",
		zap.String("airport_ident", ident),
		zap.Int("reviews", len(batch.Reviews)),
		zap.Int("tags", len(tags)),
		zap.Int("tags_dropped", dropped),
		zap.Int("features", len(s.features)))

	return &models.AirportResult{
		AirportIdent: ident,
		Status:       models.AirportWritten,
		Reviews:      len(batch.Reviews),
		Tags:         len(tags),
		TagsDropped:  dropped,
	}
}

// summarize generates the airport's review summary. Summaries are enrichment:
// a failure is logged and the airport keeps building, it just loses (or
// drops) its summary.
func (s *buildService) summarize(ctx context.Context, breaker *llm.CircuitBreaker, batch models.ReviewBatch) string {
	if s.summarizer == nil || len(batch.Reviews) == 0 {
		return ""
	}

	if allowed, cbErr := breaker.Allow(); !allowed {
		s.logger.Warn("Skipping summary, extraction provider unavailable",
			zap.String("airport_ident", batch.AirportIdent),
			zap.Error(cbErr))
		return ""
	}

	var summary string
	err := retry.DoIfRetryable(ctx, s.retryCfg, func() error {
		var sumErr error
		summary, sumErr = s.summarizer.Summarize(ctx, batch)
		return sumErr
	})
	if err != nil {
		breaker.RecordFailure()
		s.logger.Warn("Summary generation failed",
			zap.String("airport_ident", batch.AirportIdent),
			zap.Error(err))
		return ""
	}
	breaker.RecordSuccess()
	return summary
}

// recordFailedState marks the airport failed so incremental builds retry it
// even when the review digest is unchanged. Best effort: the airport is
// already failing for a more interesting reason.
func (s *buildService) recordFailedState(ctx context.Context, batch models.ReviewBatch) {
	state := &models.AirportState{
		AirportIdent:  batch.AirportIdent,
		LastProcessed: s.clock.Now().UTC(),
		ReviewDigest:  batch.Digest(),
		ReviewCount:   len(batch.Reviews),
		LastStatus:    models.AirportFailed,
	}
	if err := s.stateRepo.Upsert(ctx, s.store.DB(), state); err != nil {
		s.logger.Warn("Could not record airport failure state",
			zap.String("airport_ident", batch.AirportIdent),
			zap.Error(err))
	}
}

// selectBatches applies the explicit ident filter. With no filter every
// batch is selected and nothing is forced. With a filter, only the named
// idents are selected, all of them forced, and idents without reviews get
// an empty batch so their fact features still build.
func selectBatches(batches []models.ReviewBatch, idents []string) ([]models.ReviewBatch, map[string]bool) {
	if len(idents) == 0 {
		return batches, map[string]bool{}
	}

	forced := make(map[string]bool, len(idents))
	for _, ident := range idents {
		forced[ident] = true
	}

	selected := make([]models.ReviewBatch, 0, len(forced))
	seen := make(map[string]bool, len(forced))
	for _, batch := range batches {
		if forced[batch.AirportIdent] {
			selected = append(selected, batch)
			seen[batch.AirportIdent] = true
		}
	}
	for ident := range forced {
		if !seen[ident] {
			selected = append(selected, models.ReviewBatch{AirportIdent: ident})
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].AirportIdent < selected[j].AirportIdent })
	return selected, forced
}

// upToDate reports whether an airport's last successful build covered the
// same review set. Failed attempts never count as up to date.
func upToDate(state *models.AirportState, batch models.ReviewBatch) bool {
	if state == nil || state.LastStatus != models.AirportWritten {
		return false
	}
	return state.ReviewDigest == batch.Digest()
}

var _ BuildService = (*buildService)(nil)
