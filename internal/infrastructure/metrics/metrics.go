package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"PersonsPipeline/internal/domain"
	"PersonsPipeline/internal/ports"
)

// Metrics holds the gauges describing the last pipeline run. Runs are batch jobs,
// so values are pushed to a Pushgateway instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry
	pusher   *push.Pusher

	Records       *prometheus.GaugeVec
	Dropped       *prometheus.GaugeVec
	FailedChunks  prometheus.Gauge
	Duplicates    prometheus.Gauge
	PersistFailed prometheus.Gauge
	RunFailed     prometheus.Gauge
	Duration      prometheus.Gauge
	LastSuccess   prometheus.Gauge
}

var _ ports.RunRecorder = (*Metrics)(nil)

// New registers the run metrics on a private registry. An empty gatewayURL disables pushing.
func New(gatewayURL, job string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		Records: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "persons_pipeline_records",
			Help: "Records leaving each stage of the last run",
		}, []string{"stage"}),
		Dropped: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "persons_pipeline_dropped_records",
			Help: "Records dropped in the last run by stage and reason",
		}, []string{"stage", "reason"}),
		FailedChunks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "persons_pipeline_failed_chunks",
			Help: "Chunks that failed after retries in the last run",
		}),
		Duplicates: factory.NewGauge(prometheus.GaugeOpts{
			Name: "persons_pipeline_duplicates",
			Help: "Duplicate records removed in the last run",
		}),
		PersistFailed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "persons_pipeline_persist_failed",
			Help: "1 when the last run failed to persist, 0 otherwise",
		}),
		RunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "persons_pipeline_run_failed",
			Help: "1 when the last run aborted in a stage, 0 otherwise",
		}),
		Duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "persons_pipeline_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "persons_pipeline_last_success_timestamp_seconds",
			Help: "Unix time of the last run that persisted successfully",
		}),
	}

	if gatewayURL != "" {
		if job == "" {
			job = "persons_pipeline"
		}
		m.pusher = push.New(gatewayURL, job).Gatherer(reg)
	}
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun sets every gauge from report.
func (m *Metrics) ObserveRun(report domain.RunReport) {
	m.Records.WithLabelValues(string(domain.StageFetch)).Set(float64(report.Fetch.Fetched))
	m.Records.WithLabelValues(string(domain.StagePersist)).Set(float64(report.Persisted))
	m.Records.WithLabelValues(string(domain.StageProfile)).Set(float64(report.Profile.TotalRecords))

	m.Dropped.Reset()
	for _, stage := range report.Stages() {
		m.Records.WithLabelValues(string(stage.Stage)).Set(float64(stage.Out))
		for reason, n := range stage.Reasons() {
			m.Dropped.WithLabelValues(string(stage.Stage), reason).Set(float64(n))
		}
	}

	m.FailedChunks.Set(float64(len(report.Fetch.Failed)))
	m.Duplicates.Set(float64(report.Duplicates))
	m.Duration.Set(report.Duration().Seconds())

	m.PersistFailed.Set(boolGauge(report.PersistErr != nil))
	m.RunFailed.Set(boolGauge(report.Fault != nil))
	if report.Succeeded() && !report.FinishedAt.IsZero() {
		m.LastSuccess.Set(float64(report.FinishedAt.Unix()))
	}
}

// Flush pushes the registry to the Pushgateway, if one is configured.
func (m *Metrics) Flush(ctx context.Context) error {
	if m.pusher == nil {
		return nil
	}
	if err := m.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
