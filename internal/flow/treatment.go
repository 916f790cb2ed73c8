package flow

import (
	"time"

	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/models"
)

const (
	minKIABiasFactor = 0.05
	maxKIABiasFactor = 1.0
)

// applyTreatments applies the catalog-defined treatment set for the
// (facility, triage, injury_type) cell. When treatment_utility is enabled,
// each treatment's effectiveness stacks multiplicatively into a factor that
// dampens the *next* facility's local KIA probability, bounded to
// [0.05, 1.0]; earlier timeline entries are never rewritten.
func applyTreatments(patient *models.Patient, s *models.ResolvedScenario, cat *catalog.Catalog, facility models.FacilityRole, at time.Time, kiaBiasFactor *float64) {
	specs := treatmentsFor(cat, facility)
	if len(specs) == 0 {
		return
	}

	factor := 1.0
	applied := 0
	for _, spec := range specs {
		if spec.Triage != patient.Triage || spec.InjuryType != patient.InjuryType {
			continue
		}
		effectiveness := spec.Effectiveness
		if override, ok := s.Overrides.TreatmentEffectiveness[spec.Procedure]; ok {
			effectiveness = override
		}
		patient.Treatments = append(patient.Treatments, models.Treatment{
			Facility:      facility,
			Timestamp:     at,
			Procedure:     spec.Procedure,
			Effectiveness: effectiveness,
		})
		patient.AppendTimeline(models.KindTreatment, facility, at)
		applied++

		if s.SimulationFlags.TreatmentUtility {
			factor *= (1 - effectiveness)
		}
	}

	if s.SimulationFlags.TreatmentUtility && applied > 0 {
		*kiaBiasFactor = clamp(factor, minKIABiasFactor, maxKIABiasFactor)
	}
}

// treatmentsFor resolves a facility's catalog-defined treatment specs.
func treatmentsFor(cat *catalog.Catalog, facility models.FacilityRole) []catalog.TreatmentSpec {
	profile, ok := cat.Facilities[facility]
	if !ok {
		return nil
	}
	return profile.Treatments
}
