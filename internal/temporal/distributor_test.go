package temporal

import (
	"testing"
	"time"

	"github.com/dunebase/casugen/internal/models"
)

func baseScenario() *models.ResolvedScenario {
	return &models.ResolvedScenario{
		TotalPatients: 200,
		Days:          2,
		BaseDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Overrides: models.Overrides{
			Intensity: models.IntensityMedium,
			Tempo:     models.TempoSustained,
		},
		Fronts: []models.Front{
			{Name: "north", CasualtyShare: 0.6},
			{Name: "south", CasualtyShare: 0.4},
		},
		Seed: 99,
	}
}

func TestDistributeProducesExactCount(t *testing.T) {
	s := baseScenario()
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	if len(events) != s.TotalPatients {
		t.Fatalf("len(events) = %d, want %d", len(events), s.TotalPatients)
	}
}

func TestDistributeEventsWithinDaySpan(t *testing.T) {
	s := baseScenario()
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	end := s.BaseDate.Add(time.Duration(s.Days*24) * time.Hour)
	for _, e := range events {
		if e.Timestamp.Before(s.BaseDate) || e.Timestamp.After(end) {
			t.Fatalf("event timestamp %v outside scenario window [%v, %v]", e.Timestamp, s.BaseDate, end)
		}
		if e.DayIndex < 0 || e.DayIndex >= s.Days {
			t.Fatalf("event day_index %d outside [0,%d)", e.DayIndex, s.Days)
		}
	}
}

func TestDistributeEventsSortedByTimestamp(t *testing.T) {
	s := baseScenario()
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Fatalf("events not sorted ascending at index %d", i)
		}
	}
}

func TestDistributeEventIDsSequentialFromOne(t *testing.T) {
	s := baseScenario()
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	for i, e := range events {
		if e.EventID != int64(i+1) {
			t.Fatalf("events[%d].EventID = %d, want %d", i, e.EventID, i+1)
		}
	}
}

func TestDistributeIsDeterministicForSameSeed(t *testing.T) {
	s1 := baseScenario()
	s2 := baseScenario()
	e1, err := Distribute(s1)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	e2, err := Distribute(s2)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	if len(e1) != len(e2) {
		t.Fatalf("lengths differ: %d vs %d", len(e1), len(e2))
	}
	for i := range e1 {
		if !e1[i].Timestamp.Equal(e2[i].Timestamp) || e1[i].FrontName != e2[i].FrontName {
			t.Fatalf("event %d diverged between identical-seed runs: %+v vs %+v", i, e1[i], e2[i])
		}
	}
}

func TestDistributeDifferentSeedsDiverge(t *testing.T) {
	s1 := baseScenario()
	s2 := baseScenario()
	s2.Seed = 100

	e1, err := Distribute(s1)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	e2, err := Distribute(s2)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	same := true
	for i := range e1 {
		if !e1[i].Timestamp.Equal(e2[i].Timestamp) {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced an identical schedule")
	}
}

func TestDistributeOnlyUsesConfiguredFronts(t *testing.T) {
	s := baseScenario()
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	valid := map[string]bool{"north": true, "south": true}
	for _, e := range events {
		if !valid[e.FrontName] {
			t.Fatalf("event front %q is not one of the configured fronts", e.FrontName)
		}
	}
}

func TestDistributeMassCasualtyClusterStillYieldsExactCount(t *testing.T) {
	s := baseScenario()
	s.Overrides.SpecialEvents.MassCasualty = true
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	if len(events) != s.TotalPatients {
		t.Fatalf("len(events) = %d, want %d even with a mass-casualty cluster", len(events), s.TotalPatients)
	}
}

func TestDistributeZeroPatientsYieldsNoEvents(t *testing.T) {
	s := baseScenario()
	s.TotalPatients = 0
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("len(events) = %d, want 0", len(events))
	}
}

func TestDistributeNoFrontsYieldsEmptyFrontName(t *testing.T) {
	s := baseScenario()
	s.Fronts = nil
	s.TotalPatients = 5
	events, err := Distribute(s)
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	for _, e := range events {
		if e.FrontName != "" {
			t.Fatalf("event front = %q, want empty with no fronts configured", e.FrontName)
		}
	}
}
