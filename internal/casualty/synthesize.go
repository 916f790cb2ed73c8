// Package casualty synthesizes clinical detail: for each InjuryEvent it
// draws demographics, injury type, triage, polytrauma set, and initial
// vitals, producing a Patient whose trajectory holds only its arrival@POI
// TimelineEvent.
package casualty

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/rng"
)

// Synthesize turns one InjuryEvent into a fully clinically-populated
// Patient. The event's front was already chosen by the temporal
// distributor; this step resolves nationality, demographics, injury,
// triage, polytrauma, and initial vitals.
func Synthesize(event *models.InjuryEvent, s *models.ResolvedScenario, cat *catalog.Catalog, stream *rng.Stream) (*models.Patient, error) {
	front := findFront(s.Fronts, event.FrontName)
	if front == nil {
		return nil, fmt.Errorf("injury event references unknown front %q", event.FrontName)
	}

	nationality := drawNationality(front, stream)
	demo := drawDemographics(cat, nationality, stream)

	injuryType := drawInjuryType(s.InjuryMix, stream)

	var warfarePattern models.WarfarePattern
	var primaryCode, primarySystem string

	if s.SimulationFlags.WarfareModifiers && injuryType == models.InjuryBattle && len(s.WarfareFlags) > 0 {
		warfarePattern = drawWarfarePattern(s.WarfareFlags)
		event.WarfareModifierKey = string(warfarePattern)
		profile := cat.WarfarePatterns[warfarePattern]
		code, system := drawBattleCodeWithOverlay(cat, profile, stream)
		primaryCode, primarySystem = code, system
	} else {
		code, system := drawFromPool(cat.InjuryPools[injuryType], stream)
		primaryCode, primarySystem = code, system
	}

	triage := drawTriage(cat, s, injuryType, warfarePattern, stream)

	var polytrauma []string
	polyRate := polytraumaRate(s, cat, warfarePattern)
	if warfarePattern != "" && stream.Bool(polyRate) {
		polytrauma = drawPolytrauma(cat.WarfarePatterns[warfarePattern], primaryCode, stream)
	}

	vitals := drawInitialVitals(cat, triage, stream)

	patient := &models.Patient{
		PatientID:       uuid.New().String(),
		EventID:         event.EventID,
		FrontName:       event.FrontName,
		Demographics:    demo,
		Triage:          triage,
		InjuryType:      injuryType,
		WarfarePattern:  warfarePattern,
		PrimaryCode:     primaryCode,
		PrimarySystem:   primarySystem,
		PolytraumaCodes: polytrauma,
		InitialVitals:   vitals,
		InjuryTime:      event.Timestamp,
	}
	patient.SetFacility(models.FacilityPOI)
	patient.AppendTimeline(models.KindArrival, models.FacilityPOI, event.Timestamp)
	return patient, nil
}

func findFront(fronts []models.Front, name string) *models.Front {
	for i := range fronts {
		if fronts[i].Name == name {
			return &fronts[i]
		}
	}
	return nil
}

func drawNationality(front *models.Front, stream *rng.Stream) string {
	weights := make([]float64, len(front.NationalityDistribution))
	for i, n := range front.NationalityDistribution {
		weights[i] = n.Percent
	}
	idx := stream.Categorical(weights)
	if idx < 0 {
		idx = 0
	}
	return front.NationalityDistribution[idx].Nationality
}

func drawDemographics(cat *catalog.Catalog, nationality string, stream *rng.Stream) models.Demographics {
	pool, ok := cat.Nationalities[nationality]
	if !ok {
		for _, p := range cat.Nationalities {
			pool = p
			break
		}
	}
	sex := "M"
	given := pickName(pool.GivenNamesMale, stream)
	if stream.Bool(0.5) {
		sex = "F"
		given = pickName(pool.GivenNamesFemale, stream)
	}
	family := pickName(pool.FamilyNames, stream)
	age := stream.UniformInt(18, 45)
	return models.Demographics{
		Nationality: nationality,
		Sex:         sex,
		Age:         age,
		GivenName:   given,
		FamilyName:  family,
	}
}

func pickName(names []string, stream *rng.Stream) string {
	if len(names) == 0 {
		return "Unknown"
	}
	return names[stream.IntN(len(names))]
}

func drawInjuryType(mix models.InjuryMix, stream *rng.Stream) models.InjuryType {
	weights := []float64{mix.Disease, mix.NonBattle, mix.Battle}
	idx := stream.Categorical(weights)
	switch idx {
	case 0:
		return models.InjuryDisease
	case 1:
		return models.InjuryNonBattle
	default:
		return models.InjuryBattle
	}
}

// drawWarfarePattern picks among the currently-active flags. Every active
// flag carries the same implicit weight, so the draw is always a full tie;
// the tie is broken deterministically by always taking the first candidate
// in the catalog's canonical AllWarfarePatterns order rather than map order
// or an RNG draw.
func drawWarfarePattern(active map[models.WarfarePattern]bool) models.WarfarePattern {
	for _, p := range models.AllWarfarePatterns {
		if active[p] {
			return p
		}
	}
	return ""
}

func drawFromPool(entries []catalog.SnomedEntry, stream *rng.Stream) (string, string) {
	if len(entries) == 0 {
		return "", ""
	}
	weights := make([]float64, len(entries))
	for i, e := range entries {
		weights[i] = e.Weight
	}
	idx := stream.Categorical(weights)
	if idx < 0 {
		idx = 0
	}
	return entries[idx].Code, entries[idx].System
}

// drawBattleCodeWithOverlay samples the primary code from the Battle pool,
// weights overlaid by the active warfare pattern's InjuryCodeWeights.
func drawBattleCodeWithOverlay(cat *catalog.Catalog, profile *catalog.WarfareProfile, stream *rng.Stream) (string, string) {
	entries := cat.InjuryPools[models.InjuryBattle]
	if len(entries) == 0 {
		return "", ""
	}
	weights := make([]float64, len(entries))
	for i, e := range entries {
		w := e.Weight
		if profile != nil {
			if overlay, ok := profile.InjuryCodeWeights[e.Code]; ok {
				w = overlay
			}
		}
		weights[i] = w
	}
	idx := stream.Categorical(weights)
	if idx < 0 {
		idx = 0
	}
	return entries[idx].Code, entries[idx].System
}

func drawTriage(cat *catalog.Catalog, s *models.ResolvedScenario, injuryType models.InjuryType, pattern models.WarfarePattern, stream *rng.Stream) models.TriageCategory {
	base := cat.BaseTriageDistribution
	weights := map[models.TriageCategory]float64{
		models.TriageT1: base[models.TriageT1],
		models.TriageT2: base[models.TriageT2],
		models.TriageT3: base[models.TriageT3],
	}
	if pattern != "" {
		if profile, ok := cat.WarfarePatterns[pattern]; ok {
			for triageCat, bias := range profile.TriageBias {
				weights[triageCat] += bias
			}
		}
	}
	// Intensity override: higher intensity skews towards more urgent triage.
	intensityShift := (s.Overrides.Intensity.Multiplier() - 1.0) * 0.15
	weights[models.TriageT1] += intensityShift
	weights[models.TriageT3] -= intensityShift

	order := []models.TriageCategory{models.TriageT1, models.TriageT2, models.TriageT3}
	wlist := make([]float64, len(order))
	for i, t := range order {
		w := weights[t]
		if w < 0 {
			w = 0
		}
		wlist[i] = w
	}
	idx := stream.Categorical(wlist)
	if idx < 0 {
		idx = 2
	}
	return order[idx]
}

func polytraumaRate(s *models.ResolvedScenario, cat *catalog.Catalog, pattern models.WarfarePattern) float64 {
	if pattern == "" {
		return 0
	}
	if rate, ok := s.Overrides.PolytraumaRates[pattern]; ok {
		return rate
	}
	if profile, ok := cat.WarfarePatterns[pattern]; ok {
		return profile.PolytraumaRate
	}
	return 0
}

func drawPolytrauma(profile *catalog.WarfareProfile, primaryCode string, stream *rng.Stream) []string {
	if profile == nil || len(profile.CorrelatedCodes) == 0 {
		return nil
	}
	n := stream.UniformInt(1, 3)
	var pool []string
	for _, c := range profile.CorrelatedCodes {
		if c != primaryCode {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	codes := make([]string, 0, n)
	used := map[int]bool{}
	for len(codes) < n {
		idx := stream.IntN(len(pool))
		if used[idx] {
			continue
		}
		used[idx] = true
		codes = append(codes, pool[idx])
	}
	return codes
}

func drawInitialVitals(cat *catalog.Catalog, triage models.TriageCategory, stream *rng.Stream) models.Vitals {
	band := cat.VitalsByTriage[triage]
	return models.Vitals{
		HeartRate:       stream.UniformInt(int(band.HeartRate.MinHours), int(band.HeartRate.MaxHours)),
		RespiratoryRate: stream.UniformInt(int(band.RespiratoryRate.MinHours), int(band.RespiratoryRate.MaxHours)),
		SystolicBP:      stream.UniformInt(int(band.SystolicBP.MinHours), int(band.SystolicBP.MaxHours)),
		DiastolicBP:     stream.UniformInt(int(band.DiastolicBP.MinHours), int(band.DiastolicBP.MaxHours)),
		SpO2:            stream.UniformInt(int(band.SpO2.MinHours), int(band.SpO2.MaxHours)),
		GCS:             stream.UniformInt(int(band.GCS.MinHours), int(band.GCS.MaxHours)),
		TemperatureC:    stream.UniformFloat(band.TemperatureC.MinHours, band.TemperatureC.MaxHours),
	}
}
