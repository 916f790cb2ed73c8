package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dunebase/casugen/internal/models"
)

func TestNilMetricsMethodsAreNoop(t *testing.T) {
	var m *Metrics
	ctx, end := m.StartPhase(context.Background(), "job-1", "resolve")
	end()
	if ctx == nil {
		t.Fatal("StartPhase on a nil *Metrics should still return a usable context")
	}
	m.recordSubmitted(context.Background())
	m.recordFinished(context.Background(), models.JobCompleted, time.Second, 10)
	m.workerStarted(2)
	m.workerStopped(2)
}

func TestNewMetricsToleratesDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("first NewMetrics failed: %v", err)
	}
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("second NewMetrics against the same registerer should tolerate AlreadyRegisteredError, got: %v", err)
	}
}

func TestRecordFinishedUpdatesJobsByStatusGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	m.recordFinished(context.Background(), models.JobCompleted, 5*time.Second, 50)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "casugen_jobs_by_status" {
			found = true
		}
		if f.GetName() == "casugen_patients_total" {
			for _, metric := range f.GetMetric() {
				if metric.GetCounter().GetValue() != 50 {
					t.Fatalf("casugen_patients_total = %v, want 50", metric.GetCounter().GetValue())
				}
			}
		}
	}
	if !found {
		t.Fatal("casugen_jobs_by_status metric family not registered")
	}
}
