package engine

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunebase/casugen/internal/models"
)

const instrumentationName = "github.com/dunebase/casugen/internal/engine"

// Metrics bundles the OTel tracer/instruments and Prometheus collectors the
// engine reports job-lifecycle telemetry through. Grounded on the pack's
// job-phase-span + gauge/counter pattern: spans bracket each lifecycle
// phase (the whole run, distribute, generate), counters track
// terminal outcomes, gauges track live concurrency.
type Metrics struct {
	tracer trace.Tracer

	jobsSubmitted   metric.Int64Counter
	jobsCompleted   metric.Int64Counter
	jobDuration     metric.Float64Histogram
	patientsEmitted metric.Int64Counter

	jobsByStatus  *prometheus.GaugeVec
	activeWorkers prometheus.Gauge
	patientsTotal prometheus.Counter
}

// NewMetrics builds the instrument set and registers the Prometheus
// collectors against reg (typically prometheus.DefaultRegisterer).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	jobsSubmitted, err := meter.Int64Counter("casugen.jobs.submitted", metric.WithDescription("generation jobs submitted"))
	if err != nil {
		return nil, err
	}
	jobsCompleted, err := meter.Int64Counter("casugen.jobs.completed", metric.WithDescription("generation jobs finished, by terminal status"))
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("casugen.job.duration_seconds", metric.WithDescription("wall-clock duration of a generation job"))
	if err != nil {
		return nil, err
	}
	patientsEmitted, err := meter.Int64Counter("casugen.patients.emitted", metric.WithDescription("synthetic patient records emitted"))
	if err != nil {
		return nil, err
	}

	jobsByStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "casugen",
		Name:      "jobs_by_status",
		Help:      "current number of jobs in each lifecycle status",
	}, []string{"status"})
	activeWorkers := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "casugen",
		Name:      "active_workers",
		Help:      "number of flow-simulation worker goroutines currently running across in-flight jobs",
	})
	patientsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "casugen",
		Name:      "patients_total",
		Help:      "total synthetic patients generated across all jobs",
	})

	for _, c := range []prometheus.Collector{jobsByStatus, activeWorkers, patientsTotal} {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				_ = are
				continue
			}
			return nil, err
		}
	}

	return &Metrics{
		tracer:          otel.Tracer(instrumentationName),
		jobsSubmitted:   jobsSubmitted,
		jobsCompleted:   jobsCompleted,
		jobDuration:     jobDuration,
		patientsEmitted: patientsEmitted,
		jobsByStatus:    jobsByStatus,
		activeWorkers:   activeWorkers,
		patientsTotal:   patientsTotal,
	}, nil
}

// StartPhase opens a span for one named phase of a job's run (the engine
// uses run, distribute and generate) and returns the function that ends it.
func (m *Metrics) StartPhase(ctx context.Context, jobID, phase string) (context.Context, func()) {
	if m == nil {
		return ctx, func() {}
	}
	ctx, span := m.tracer.Start(ctx, "casugen.job."+phase, trace.WithAttributes(
		attribute.String("job_id", jobID),
	))
	return ctx, func() { span.End() }
}

func (m *Metrics) recordSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.jobsSubmitted.Add(ctx, 1)
}

func (m *Metrics) recordFinished(ctx context.Context, status models.JobStatus, duration time.Duration, patients int) {
	if m == nil {
		return
	}
	m.jobsCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", string(status))))
	if patients > 0 {
		m.patientsEmitted.Add(ctx, int64(patients))
		m.patientsTotal.Add(float64(patients))
	}
	m.jobsByStatus.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) workerStarted(n int) {
	if m == nil {
		return
	}
	m.activeWorkers.Add(float64(n))
}

func (m *Metrics) workerStopped(n int) {
	if m == nil {
		return
	}
	m.activeWorkers.Sub(float64(n))
}
