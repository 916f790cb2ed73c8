package flow

import (
	"time"

	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/rng"
)

// applyDiagnosticRefinement refines the displayed condition with per-role
// accuracy (POI 0.60, Role1 0.75, Role2 0.85, Role3 0.95, Role4 0.99,
// overridable per facility via Overrides.DiagnosticAccuracy): with
// probability 1-accuracy it emits a diagnostic_refinement event changing
// the displayed condition within the same clinical family (same injury-type
// pool).
func applyDiagnosticRefinement(patient *models.Patient, s *models.ResolvedScenario, cat *catalog.Catalog, facility models.FacilityRole, at time.Time, stream *rng.Stream) {
	accuracy, ok := effectiveDiagnosticAccuracy(s, facility)
	if !ok {
		return
	}
	if !stream.Bool(1 - accuracy) {
		return
	}

	pool := cat.InjuryPools[patient.InjuryType]
	if len(pool) == 0 {
		return
	}
	weights := make([]float64, len(pool))
	for i, e := range pool {
		weights[i] = e.Weight
	}
	idx := stream.Categorical(weights)
	if idx < 0 {
		return
	}
	entry := pool[idx]

	patient.Diagnostics = append(patient.Diagnostics, models.Diagnostic{
		Facility:   facility,
		Timestamp:  at,
		Code:       entry.Code,
		System:     entry.System,
		Confidence: accuracy,
	})
	patient.AppendTimeline(models.KindDiagnosticRefinement, facility, at)
}

// effectiveDiagnosticAccuracy layers a scenario-level DiagnosticAccuracy
// override atop the built-in per-role baseline; once a scenario supplies an
// override for a role it is authoritative for that role.
func effectiveDiagnosticAccuracy(s *models.ResolvedScenario, facility models.FacilityRole) (float64, bool) {
	if v, ok := s.Overrides.DiagnosticAccuracy[facility]; ok {
		return v, true
	}
	v, ok := diagnosticAccuracyByRole[facility]
	return v, ok
}
