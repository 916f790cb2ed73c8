package serialize

import "github.com/dunebase/casugen/internal/models"

// SummaryAccumulator computes Job.Summary incrementally as patients stream
// through the serializer, rather than in a second pass over the output.
type SummaryAccumulator struct {
	total          int
	byTriage       map[models.TriageCategory]int
	byOutcome      models.FacilityDistribution
	polytraumaHits int
	mortalitySum   float64
	byFacilityVisited models.FacilityDistribution
}

func NewSummaryAccumulator() *SummaryAccumulator {
	return &SummaryAccumulator{
		byTriage:          map[models.TriageCategory]int{},
		byOutcome:         models.FacilityDistribution{},
		byFacilityVisited: models.FacilityDistribution{},
	}
}

// Add folds one finished patient into the running totals.
func (s *SummaryAccumulator) Add(p *models.Patient) {
	s.total++
	s.byTriage[p.Triage]++
	s.byOutcome[p.Outcome]++
	if p.PolytraumaIndicators() {
		s.polytraumaHits++
	}
	if p.Outcome == models.FacilityKIA {
		s.mortalitySum++
	}
	seen := map[models.FacilityRole]bool{}
	for _, ev := range p.Timeline {
		if ev.Facility != "" && !seen[ev.Facility] {
			seen[ev.Facility] = true
			s.byFacilityVisited[ev.Facility]++
		}
	}
}

// Finish produces the terminal Summary object for the job record.
func (s *SummaryAccumulator) Finish() *models.Summary {
	polytraumaRate := 0.0
	meanMortality := 0.0
	if s.total > 0 {
		polytraumaRate = float64(s.polytraumaHits) / float64(s.total)
		meanMortality = s.mortalitySum / float64(s.total)
	}
	return &models.Summary{
		TotalPatients:        s.total,
		CountByTriage:        s.byTriage,
		CountByOutcome:       s.byOutcome,
		PolytraumaRate:       polytraumaRate,
		MeanMortality:        meanMortality,
		FacilityDistribution: s.byFacilityVisited,
	}
}
