// Package observability provides Prometheus metrics for CLV runs.
package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"donor-clv/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "donor_clv"

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Pipeline stages.
const (
	StageRead    = "read"
	StageCompute = "compute"
	StagePublish = "publish"
)

// Metrics holds the Prometheus metrics of one batch process.
// All record methods are no-ops on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	// Input metrics
	DonorsRead    prometheus.Counter
	DonorsValid   prometheus.Counter
	DonorsInvalid *prometheus.CounterVec

	// Result metrics
	CPA                    prometheus.Gauge
	SegmentDonors          *prometheus.GaugeVec
	SegmentMeanAdjustedCLV *prometheus.GaugeVec
	RowsPublished          *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	StageDuration     *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Input metrics
		DonorsRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "donors_read_total",
			Help:      "Total number of donor records read from the source",
		}),
		DonorsValid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "donors_valid_total",
			Help:      "Total number of donor records that produced metrics",
		}),
		DonorsInvalid: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "input",
			Name:      "donors_invalid_total",
			Help:      "Total number of donor records excluded by reason",
		}, []string{"reason"}),

		// Result metrics
		CPA: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "result",
			Name:      "cpa",
			Help:      "Cost per acquisition of the last run",
		}),
		SegmentDonors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "result",
			Name:      "segment_donors",
			Help:      "Number of donors per CLV segment in the last run",
		}, []string{"segment"}),
		SegmentMeanAdjustedCLV: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "result",
			Name:      "segment_mean_adjusted_clv",
			Help:      "Mean adjusted CLV per segment in the last run",
		}, []string{"segment"}),
		RowsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "rows_total",
			Help:      "Total number of rows written by sink",
		}, []string{"sink"}),

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Registry exposes the underlying registry as a gatherer.
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// RecordRead adds n donor records read from the source.
func (m *Metrics) RecordRead(n int) {
	if m == nil {
		return
	}
	m.DonorsRead.Add(float64(n))
}

// RecordValid adds n donors that produced metrics.
func (m *Metrics) RecordValid(n int) {
	if m == nil {
		return
	}
	m.DonorsValid.Add(float64(n))
}

// RecordInvalid counts one excluded record.
func (m *Metrics) RecordInvalid(reason string) {
	if m == nil {
		return
	}
	m.DonorsInvalid.WithLabelValues(reason).Inc()
}

// RecordResult sets the result gauges from a completed computation.
// Segments without donors are reset to zero.
func (m *Metrics) RecordResult(cpa float64, summaries []*domain.SegmentSummary) {
	if m == nil {
		return
	}
	m.CPA.Set(cpa)
	for _, seg := range domain.Segments {
		m.SegmentDonors.WithLabelValues(string(seg)).Set(0)
		m.SegmentMeanAdjustedCLV.WithLabelValues(string(seg)).Set(0)
	}
	for _, s := range summaries {
		m.SegmentDonors.WithLabelValues(string(s.Segment)).Set(float64(s.DonorCount))
		m.SegmentMeanAdjustedCLV.WithLabelValues(string(s.Segment)).Set(s.MeanAdjustedCLV)
	}
}

// RecordPublished adds n rows written to sink.
func (m *Metrics) RecordPublished(sink string, n int) {
	if m == nil {
		return
	}
	m.RowsPublished.WithLabelValues(sink).Add(float64(n))
}

// RecordStage records the duration of one pipeline stage.
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records a finished pipeline run.
func (m *Metrics) RecordRun(status string, d time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	m.PipelineDuration.Observe(d.Seconds())
	if status == StatusSuccess {
		m.LastSuccessfulRun.Set(float64(finishedAt.Unix()))
	}
}

// Push sends all metrics to a Prometheus pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
