package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/ports"
	"PersonsPipeline/internal/processing"
)

// PipelineDeps wires the stages and driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source       ports.PersonSource
	Validator    *processing.Validator
	Cleaner      *processing.Cleaner
	Deduplicator *processing.Deduplicator
	Anonymizer   *processing.Anonymizer
	Persister    *Persister
	Profiler     *processing.Profiler
	Publisher    ports.SummaryPublisher
	Recorder     ports.RunRecorder
	Logger       *slog.Logger
	Clock        func() time.Time

	TotalQuantity int
	ChunkSize     int
}

// Pipeline implements the fetch, validate, clean, deduplicate, anonymize, persist and profile workflow.
type Pipeline struct {
	source       ports.PersonSource
	validator    *processing.Validator
	cleaner      *processing.Cleaner
	deduplicator *processing.Deduplicator
	anonymizer   *processing.Anonymizer
	persister    *Persister
	profiler     *processing.Profiler
	publisher    ports.SummaryPublisher
	recorder     ports.RunRecorder
	logger       *slog.Logger
	clock        func() time.Time

	totalQuantity int
	chunkSize     int
}

// NewPipeline constructs the orchestration component. Missing pure stages get defaults.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := orDiscard(deps.Logger)
	p := &Pipeline{
		source:        deps.Source,
		validator:     deps.Validator,
		cleaner:       deps.Cleaner,
		deduplicator:  deps.Deduplicator,
		anonymizer:    deps.Anonymizer,
		persister:     deps.Persister,
		profiler:      deps.Profiler,
		publisher:     deps.Publisher,
		recorder:      deps.Recorder,
		logger:        logger,
		clock:         deps.Clock,
		totalQuantity: deps.TotalQuantity,
		chunkSize:     deps.ChunkSize,
	}
	if p.validator == nil {
		p.validator = processing.NewValidator(logger)
	}
	if p.cleaner == nil {
		p.cleaner = processing.NewCleaner(logger)
	}
	if p.deduplicator == nil {
		p.deduplicator = processing.NewDeduplicator(logger)
	}
	if p.anonymizer == nil {
		p.anonymizer = processing.NewAnonymizer(logger)
	}
	if p.profiler == nil {
		p.profiler = processing.NewProfiler(logger)
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// Run executes one full refresh. Per-record and per-chunk failures are absorbed by the
// stages; a persist failure or a stage fault makes the returned error non-nil while the
// report still carries everything computed up to that point.
func (p *Pipeline) Run(ctx context.Context) (report domain.RunReport, err error) {
	report = domain.RunReport{RunID: uuid.NewString(), StartedAt: p.clock()}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("pipeline started", "total_quantity", p.totalQuantity, "chunk_size", p.chunkSize)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrStageFault, r)
			report.Fault = err
			logger.Error("pipeline aborted", "panic", r, "stack", string(debug.Stack()))
		}
		report.FinishedAt = p.clock()
		p.finish(ctx, logger, report)
	}()

	err = p.run(ctx, logger, &report)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, report *domain.RunReport) error {
	if p.source == nil {
		return fmt.Errorf("%w: no person source configured", domain.ErrStageFault)
	}

	raw, fetch := p.source.FetchAll(ctx, p.totalQuantity, p.chunkSize)
	report.Fetch = fetch
	logger.Info("fetch finished", "report", fetch)

	valid, validated := p.validator.Validate(raw)
	report.Validate = validated

	cleaned, cleanReport := p.cleaner.Clean(valid)
	report.Clean = cleanReport

	unique, duplicates, dedup := p.deduplicator.Deduplicate(cleaned)
	report.Dedup = dedup
	report.Duplicates = len(duplicates)
	logger.Info("duplicates removed", "duplicates", len(duplicates))

	anonymized, anonReport := p.anonymizer.Anonymize(unique)
	report.Anonymize = anonReport

	for _, stage := range report.Stages() {
		if len(stage.Dropped) > 0 {
			logger.Warn("records dropped", "stage", stage.Stage, "count", len(stage.Dropped), "reasons", stage.Reasons())
		}
	}

	var persistErr error
	if p.persister != nil {
		report.Persisted, persistErr = p.persister.Persist(ctx, anonymized)
		if persistErr != nil {
			report.PersistErr = persistErr
			logger.Error("persist failed", "error", persistErr, "persisted", report.Persisted)
		}
	}

	report.Profile = p.profiler.Profile(anonymized)
	if body, err := json.MarshalIndent(report.Profile, "", "  "); err == nil {
		logger.Info("data profile", "profile", string(body))
	}

	if persistErr != nil {
		return fmt.Errorf("persist: %w", persistErr)
	}
	return nil
}

// finish reports the run to the summary publisher and the metrics recorder; neither can fail the run.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, report domain.RunReport) {
	logger.Info("pipeline finished", "report", report)

	if p.publisher != nil {
		if err := p.publisher.PublishRun(ctx, report); err != nil {
			logger.Warn("publish run summary failed", "error", err)
		}
	}
	if p.recorder != nil {
		p.recorder.ObserveRun(report)
		if err := p.recorder.Flush(ctx); err != nil {
			logger.Warn("push run metrics failed", "error", err)
		}
	}
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
