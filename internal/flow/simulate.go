// Package flow is the probabilistic Markov facility-routing state machine.
// Given a freshly synthesized Patient it
// drives dwell sampling, the biased next-state draw, transit legs,
// treatment and diagnostic-refinement events, through to KIA/RTD
// absorption.
package flow

import (
	"fmt"
	"time"

	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/rng"
)

const (
	maxTimelineEvents = 100
	maxTimelineSpan   = 5 * 24 * time.Hour
)

var diagnosticAccuracyByRole = map[models.FacilityRole]float64{
	models.FacilityPOI:   0.60,
	models.FacilityRole1: 0.75,
	models.FacilityRole2: 0.85,
	models.FacilityRole3: 0.95,
	models.FacilityRole4: 0.99,
}

// Simulate drives patient through the facility automaton until it reaches a
// terminal facility (KIA or RTD), appending timeline/treatment/diagnostic
// events with monotonically non-decreasing timestamps. A patient that
// cannot progress (all destination mass zero) fails the whole job with a
// SIMULATION_INVARIANT error.
func Simulate(patient *models.Patient, s *models.ResolvedScenario, cat *catalog.Catalog, stream *rng.Stream) error {
	kiaBiasFactor := 1.0 // cumulative multiplicative treatment effect on next-facility KIA probability
	currentTime := patient.InjuryTime

	for {
		facility := patient.CurrentFacility
		if facility.IsTerminal() {
			return nil
		}

		if len(patient.Timeline) >= maxTimelineEvents || currentTime.Sub(patient.InjuryTime) >= maxTimelineSpan {
			// Safety valve against runaway trajectories: the patient is
			// absorbed as RTD and counted in the summary like any RTD outcome.
			absorb(patient, currentTime, models.FacilityRTD)
			return nil
		}

		treatmentFactor := 1.0
		applyTreatments(patient, s, cat, facility, currentTime, &treatmentFactor)
		if s.SimulationFlags.DiagnosticUncertainty {
			applyDiagnosticRefinement(patient, s, cat, facility, currentTime, stream)
		}

		dwell := cat.DwellRange(facility, patient.Triage)
		dwellHours := stream.UniformFloat(dwell.MinHours, dwell.MaxHours)
		dwellEnd := currentTime.Add(time.Duration(dwellHours * float64(time.Hour)))

		facilityProfile := effectiveFacility(s, cat, facility)
		pKIALocal := clamp(facilityProfile.BaseKIARate*cat.TriageKIAModifier(patient.Triage)*kiaBiasFactor, 0, 1)
		pRTDLocal := clamp(facilityProfile.BaseRTDRate*cat.TriageRTDModifier(patient.Triage), 0, 1)

		row, _, err := cat.Row(patient.Triage, facility)
		if err != nil {
			return models.NewPipelineError(models.ErrSimulationInvariant, "reading transition row", err)
		}

		next, err := drawNextState(row, pKIALocal, pRTDLocal, stream, s.SimulationFlags.MarkovRouting)
		if err != nil {
			return models.NewPipelineError(models.ErrSimulationInvariant, fmt.Sprintf("patient %s cannot progress from %s", patient.PatientID, facility), err)
		}

		if facility == models.FacilityRole4 && next != models.FacilityKIA {
			// Role4 doctrine special: dwell expiry without a KIA draw
			// transitions to RTD deterministically.
			next = models.FacilityRTD
		}

		if next.IsTerminal() {
			absorb(patient, dwellEnd, next)
			return nil
		}

		currentTime = appendTransitLeg(patient, cat, facility, next, dwellEnd, stream)
		kiaBiasFactor = treatmentFactor // treatment effect applies only to the immediately next facility
	}
}

// effectiveFacility layers a scenario-level FacilityConfig override atop the
// catalog baseline; once a scenario supplies an override it is authoritative.
func effectiveFacility(s *models.ResolvedScenario, cat *catalog.Catalog, role models.FacilityRole) *catalog.FacilityProfile {
	base := cat.Facilities[role]
	override, ok := s.Facilities[role]
	if !ok {
		return base
	}
	merged := *base
	if override.KIARate > 0 {
		merged.BaseKIARate = override.KIARate
	}
	if override.RTDRate > 0 {
		merged.BaseRTDRate = override.RTDRate
	}
	return &merged
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// drawNextState biases the KIA/RTD columns of row by the local probabilities
// then picks the next facility. With markovRouting on (the default Markov
// chain behavior) it renormalizes and samples categorically. With
// markovRouting off it instead always advances to the single highest-mass
// destination, a deterministic stand-in for the stochastic draw. If
// non-terminal mass vanishes after biasing, it renormalizes/picks over the
// terminal states only. If the total mass collapses to zero, the patient
// cannot progress.
func drawNextState(row [7]float64, pKIALocal, pRTDLocal float64, stream *rng.Stream, markovRouting bool) (models.FacilityRole, error) {
	biased := row
	kiaIdx, rtdIdx := catalog.KIAIndex(), catalog.RTDIndex()
	biased[kiaIdx] *= pKIALocal
	biased[rtdIdx] *= pRTDLocal

	nonTerminalSum := 0.0
	for i := range biased {
		if i != kiaIdx && i != rtdIdx {
			nonTerminalSum += biased[i]
		}
	}

	total := nonTerminalSum + biased[kiaIdx] + biased[rtdIdx]
	if total <= 0 {
		return "", fmt.Errorf("all destination mass is zero after bias")
	}

	if nonTerminalSum <= 0 {
		terminalOnly := make([]float64, 7)
		terminalOnly[kiaIdx] = biased[kiaIdx]
		terminalOnly[rtdIdx] = biased[rtdIdx]
		idx := pickIndex(terminalOnly, stream, markovRouting)
		if idx < 0 {
			return "", fmt.Errorf("terminal-only renormalization yielded no mass")
		}
		return catalog.StateAt(idx), nil
	}

	idx := pickIndex(biased[:], stream, markovRouting)
	if idx < 0 {
		return "", fmt.Errorf("categorical draw failed on biased row")
	}
	return catalog.StateAt(idx), nil
}

// pickIndex draws an index from weights: categorically when markovRouting is
// on, or deterministically (the single highest-weight index) when off.
func pickIndex(weights []float64, stream *rng.Stream, markovRouting bool) int {
	if markovRouting {
		return stream.Categorical(weights)
	}
	best := -1
	for i, w := range weights {
		if w > 0 && (best < 0 || w > weights[best]) {
			best = i
		}
	}
	return best
}

func absorb(patient *models.Patient, at time.Time, outcome models.FacilityRole) {
	kind := models.KindRTD
	if outcome == models.FacilityKIA {
		kind = models.KindKIA
	}
	patient.SetFacility(outcome)
	patient.AppendTimeline(kind, outcome, at)
	patient.Outcome = outcome
	patient.OutcomeTime = at
}

// appendTransitLeg inserts the evacuation_start/transit_start/arrival
// bracket around a leg to a non-terminal facility and returns the arrival
// time, which becomes the caller's new "current time".
func appendTransitLeg(patient *models.Patient, cat *catalog.Catalog, from, to models.FacilityRole, departTime time.Time, stream *rng.Stream) time.Time {
	transit := cat.TransitRange(from, to, patient.Triage)
	transitHours := stream.UniformFloat(transit.MinHours, transit.MaxHours)
	arrival := departTime.Add(time.Duration(transitHours * float64(time.Hour)))

	evac := patient.AppendTimeline(models.KindEvacuationStart, from, departTime)
	evac.NextFacility = to
	evac.EvacuationDurationHours = transitHours

	transitEvt := patient.AppendTimeline(models.KindTransitStart, from, departTime)
	transitEvt.FromFacility = from
	transitEvt.ToFacility = to
	transitEvt.TransitDurationHours = transitHours

	patient.SetFacility(to)
	patient.AppendTimeline(models.KindArrival, to, arrival)

	return arrival
}
