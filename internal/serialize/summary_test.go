package serialize

import (
	"testing"

	"github.com/dunebase/casugen/internal/models"
)

func TestSummaryAccumulatorEmpty(t *testing.T) {
	acc := NewSummaryAccumulator()
	s := acc.Finish()
	if s.TotalPatients != 0 {
		t.Fatalf("TotalPatients = %d, want 0", s.TotalPatients)
	}
	if s.PolytraumaRate != 0 || s.MeanMortality != 0 {
		t.Fatalf("rates on an empty accumulator should be 0, got %v / %v", s.PolytraumaRate, s.MeanMortality)
	}
}

func TestSummaryAccumulatorCounts(t *testing.T) {
	acc := NewSummaryAccumulator()
	acc.Add(&models.Patient{
		Triage:          models.TriageT1,
		Outcome:         models.FacilityKIA,
		PolytraumaCodes: []string{"a", "b"},
		Timeline: []models.TimelineEvent{
			{Facility: models.FacilityPOI},
			{Facility: models.FacilityRole1},
		},
	})
	acc.Add(&models.Patient{
		Triage:  models.TriageT3,
		Outcome: models.FacilityRTD,
		Timeline: []models.TimelineEvent{
			{Facility: models.FacilityPOI},
		},
	})

	s := acc.Finish()
	if s.TotalPatients != 2 {
		t.Fatalf("TotalPatients = %d, want 2", s.TotalPatients)
	}
	if s.CountByTriage[models.TriageT1] != 1 || s.CountByTriage[models.TriageT3] != 1 {
		t.Fatalf("CountByTriage = %v, want 1 each for T1/T3", s.CountByTriage)
	}
	if s.CountByOutcome[models.FacilityKIA] != 1 || s.CountByOutcome[models.FacilityRTD] != 1 {
		t.Fatalf("CountByOutcome = %v, want 1 each for KIA/RTD", s.CountByOutcome)
	}
	if s.PolytraumaRate != 0.5 {
		t.Fatalf("PolytraumaRate = %v, want 0.5 (1 of 2 patients)", s.PolytraumaRate)
	}
	if s.MeanMortality != 0.5 {
		t.Fatalf("MeanMortality = %v, want 0.5 (1 of 2 KIA)", s.MeanMortality)
	}
	if s.FacilityDistribution[models.FacilityPOI] != 2 {
		t.Fatalf("FacilityDistribution[POI] = %d, want 2 (both patients visited POI)", s.FacilityDistribution[models.FacilityPOI])
	}
	if s.FacilityDistribution[models.FacilityRole1] != 1 {
		t.Fatalf("FacilityDistribution[Role1] = %d, want 1", s.FacilityDistribution[models.FacilityRole1])
	}
}

func TestSummaryAccumulatorDedupesRepeatedFacilityVisits(t *testing.T) {
	acc := NewSummaryAccumulator()
	acc.Add(&models.Patient{
		Triage:  models.TriageT2,
		Outcome: models.FacilityRTD,
		Timeline: []models.TimelineEvent{
			{Facility: models.FacilityRole1},
			{Facility: models.FacilityRole1},
			{Facility: models.FacilityRole2},
		},
	})
	s := acc.Finish()
	if s.FacilityDistribution[models.FacilityRole1] != 1 {
		t.Fatalf("FacilityDistribution[Role1] = %d, want 1 (visit counted once per patient)", s.FacilityDistribution[models.FacilityRole1])
	}
}
