package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"PersonsPipeline/internal/config"
	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/infrastructure/metrics"
	"PersonsPipeline/internal/infrastructure/notify"
	"PersonsPipeline/internal/infrastructure/source"
	"PersonsPipeline/internal/infrastructure/storage"
	"PersonsPipeline/internal/logging"
	"PersonsPipeline/internal/ports"
	"PersonsPipeline/internal/processing"
	"PersonsPipeline/internal/usecase"
)

// Application wires configs to use cases and owns the adapters' lifecycle.
type Application struct {
	cfg       config.Config
	pipeline  *usecase.Pipeline
	db        *sql.DB
	publisher *notify.KafkaPublisher
	logger    *slog.Logger
}

// New builds a runnable application from a validated config.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	client := source.NewClient(
		cfg.Source.APIURL,
		&http.Client{Timeout: cfg.Source.RequestTimeout},
		source.RetryPolicy{
			Attempts:      cfg.Source.Retry.Attempts,
			BackoffFactor: cfg.Source.Retry.BackoffFactor,
			Statuses:      cfg.Source.Retry.Statuses,
		},
		baseLogger.With("component", "source.client"),
	)
	chunked := source.NewChunkedSource(client, cfg.Source.Concurrency, baseLogger.With("component", "source"))

	db, err := storage.OpenPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	repo := storage.NewPostgresRepository(db)

	application := &Application{cfg: cfg, db: db, logger: baseLogger}

	var publisher ports.SummaryPublisher
	if cfg.Kafka.Enabled() {
		kp, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, baseLogger.With("component", "notify.kafka"))
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		application.publisher = kp
		publisher = kp
	}

	stageLogger := baseLogger.With("component", "processing")
	application.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:        chunked,
		Validator:     processing.NewValidator(stageLogger),
		Cleaner:       processing.NewCleaner(stageLogger),
		Deduplicator:  processing.NewDeduplicator(stageLogger),
		Anonymizer:    processing.NewAnonymizer(stageLogger),
		Persister:     usecase.NewPersister(repo, cfg.Database.BatchSize, baseLogger.With("component", "persister")),
		Profiler:      processing.NewProfiler(stageLogger),
		Publisher:     publisher,
		Recorder:      metrics.New(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job),
		Logger:        baseLogger.With("component", "pipeline"),
		TotalQuantity: cfg.Source.TotalQuantity,
		ChunkSize:     cfg.Source.ChunkSize,
	})
	return application, nil
}

// Run performs a single full-refresh pipeline execution and releases the adapters.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	report, err := a.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", report.RunID, err)
	}
	if report.Fetch.Requested > 0 && report.Fetch.Fetched == 0 {
		return fmt.Errorf("run %s: %w fetched", report.RunID, domain.ErrNoRecords)
	}
	return nil
}

func (a *Application) close() {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown", "error", err)
	}
}
