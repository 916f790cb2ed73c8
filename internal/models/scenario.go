package models

import (
	"time"
)

// WarfarePattern is one of the warfare-style flags a scenario can set.
type WarfarePattern string

const (
	WarfareConventional WarfarePattern = "conventional"
	WarfareArtillery    WarfarePattern = "artillery"
	WarfareUrban        WarfarePattern = "urban"
	WarfareGuerrilla    WarfarePattern = "guerrilla"
	WarfareDrone        WarfarePattern = "drone"
	WarfareNaval        WarfarePattern = "naval"
	WarfareCBRN         WarfarePattern = "cbrn"
	WarfarePeacekeeping WarfarePattern = "peacekeeping"
)

// AllWarfarePatterns lists every recognized warfare flag.
var AllWarfarePatterns = []WarfarePattern{
	WarfareConventional, WarfareArtillery, WarfareUrban, WarfareGuerrilla,
	WarfareDrone, WarfareNaval, WarfareCBRN, WarfarePeacekeeping,
}

// IsValid reports whether w is a recognized warfare pattern.
func (w WarfarePattern) IsValid() bool {
	for _, p := range AllWarfarePatterns {
		if p == w {
			return true
		}
	}
	return false
}

// Intensity scales the whole tempo curve.
type Intensity string

const (
	IntensityLow     Intensity = "low"
	IntensityMedium  Intensity = "medium"
	IntensityHigh    Intensity = "high"
	IntensityExtreme Intensity = "extreme"
)

// Multiplier returns the scalar associated with the intensity level.
func (i Intensity) Multiplier() float64 {
	switch i {
	case IntensityLow:
		return 0.5
	case IntensityHigh:
		return 1.5
	case IntensityExtreme:
		return 2.0
	default:
		return 1.0
	}
}

// IsValid reports whether i is one of the four recognized levels.
func (i Intensity) IsValid() bool {
	switch i {
	case IntensityLow, IntensityMedium, IntensityHigh, IntensityExtreme:
		return true
	}
	return false
}

// Tempo is the day-indexed weight-profile shape.
type Tempo string

const (
	TempoSustained   Tempo = "sustained"
	TempoEscalating  Tempo = "escalating"
	TempoSurge       Tempo = "surge"
	TempoDeclining   Tempo = "declining"
	TempoIntermittent Tempo = "intermittent"
)

// IsValid reports whether t is one of the five recognized tempo curves.
func (t Tempo) IsValid() bool {
	switch t {
	case TempoSustained, TempoEscalating, TempoSurge, TempoDeclining, TempoIntermittent:
		return true
	}
	return false
}

// InjuryType classifies the origin of a casualty's primary condition.
type InjuryType string

const (
	InjuryDisease        InjuryType = "Disease"
	InjuryNonBattle      InjuryType = "Non-Battle Injury"
	InjuryBattle         InjuryType = "Battle Injury"
)

// TriageCategory is the urgency band assigned to a patient.
type TriageCategory string

const (
	TriageT1 TriageCategory = "T1"
	TriageT2 TriageCategory = "T2"
	TriageT3 TriageCategory = "T3"
)

// FacilityRole identifies a node in the routing automaton.
type FacilityRole string

const (
	FacilityPOI   FacilityRole = "POI"
	FacilityRole1 FacilityRole = "Role1"
	FacilityRole2 FacilityRole = "Role2"
	FacilityRole3 FacilityRole = "Role3"
	FacilityRole4 FacilityRole = "Role4"
	FacilityKIA   FacilityRole = "KIA"
	FacilityRTD   FacilityRole = "RTD"
)

// NonTerminalFacilities lists the five facility states a patient can dwell in.
var NonTerminalFacilities = []FacilityRole{FacilityPOI, FacilityRole1, FacilityRole2, FacilityRole3, FacilityRole4}

// IsTerminal reports whether f is an absorbing state (KIA or RTD).
func (f FacilityRole) IsTerminal() bool {
	return f == FacilityKIA || f == FacilityRTD
}

// InjuryMix is the Disease/Non-Battle/Battle split; weights must sum to 1.0 ± 1e-6.
type InjuryMix struct {
	Disease    float64 `json:"disease" koanf:"disease" validate:"gte=0,lte=1"`
	NonBattle  float64 `json:"non_battle" koanf:"non_battle" validate:"gte=0,lte=1"`
	Battle     float64 `json:"battle" koanf:"battle" validate:"gte=0,lte=1"`
}

// Sum returns the total of the three weights.
func (m InjuryMix) Sum() float64 {
	return m.Disease + m.NonBattle + m.Battle
}

// NationalityShare is one entry of a front's nationality distribution.
type NationalityShare struct {
	Nationality string  `json:"nationality" koanf:"nationality" validate:"required"`
	Percent     float64 `json:"percent" koanf:"percent" validate:"gte=0,lte=100"`
}

// Front is a theater subdivision contributing a share of total casualties.
type Front struct {
	Name                   string             `json:"name" koanf:"name" validate:"required"`
	NationalityDistribution []NationalityShare `json:"nationality_distribution" koanf:"nationality_distribution" validate:"required,dive"`
	CasualtyShare          float64            `json:"casualty_share" koanf:"casualty_share" validate:"gte=0,lte=1"`
}

// FacilityConfig overrides per-facility routing rates for a scenario.
type FacilityConfig struct {
	Role     FacilityRole `json:"role" koanf:"role" validate:"required"`
	Capacity *int         `json:"capacity,omitempty" koanf:"capacity"`
	KIARate  float64      `json:"kia_rate" koanf:"kia_rate" validate:"gte=0,lte=1"`
	RTDRate  float64      `json:"rtd_rate" koanf:"rtd_rate" validate:"gte=0,lte=1"`
}

// SimulationFlags toggles optional behaviors in the synthesis and flow
// simulation stages.
type SimulationFlags struct {
	TreatmentUtility      bool `json:"treatment_utility" koanf:"treatment_utility"`
	DiagnosticUncertainty bool `json:"diagnostic_uncertainty" koanf:"diagnostic_uncertainty"`
	MarkovRouting         bool `json:"markov_routing" koanf:"markov_routing"`
	WarfareModifiers      bool `json:"warfare_modifiers" koanf:"warfare_modifiers"`
}

// SpecialEvents configures the temporal-distributor's bucket-weight injections.
type SpecialEvents struct {
	MajorOffensive bool `json:"major_offensive" koanf:"major_offensive"`
	Ambush         bool `json:"ambush" koanf:"ambush"`
	MassCasualty   bool `json:"mass_casualty" koanf:"mass_casualty"`
}

// EnvironmentalConditions configures multiplicative damping of bucket weights.
type EnvironmentalConditions struct {
	NightOperations   bool `json:"night_operations" koanf:"night_operations"`
	ExtremeWeather    bool `json:"extreme_weather" koanf:"extreme_weather"`
	MountainousTerrain bool `json:"mountainous_terrain" koanf:"mountainous_terrain"`
	UrbanEnvironment  bool `json:"urban_environment" koanf:"urban_environment"`
}

// Overrides carries per-scenario tuning knobs layered atop catalog defaults.
type Overrides struct {
	Intensity             Intensity                `json:"intensity" koanf:"intensity" validate:"required"`
	Tempo                 Tempo                     `json:"tempo" koanf:"tempo" validate:"required"`
	SpecialEvents         SpecialEvents             `json:"special_events" koanf:"special_events"`
	Environment           EnvironmentalConditions   `json:"environment" koanf:"environment"`
	TreatmentEffectiveness map[string]float64       `json:"treatment_effectiveness,omitempty" koanf:"treatment_effectiveness"`
	DiagnosticAccuracy    map[FacilityRole]float64  `json:"diagnostic_accuracy,omitempty" koanf:"diagnostic_accuracy"`
	PolytraumaRates       map[WarfarePattern]float64 `json:"polytrauma_rates,omitempty" koanf:"polytrauma_rates"`
}

// UserConfig is the raw, unvalidated scenario configuration submitted by a caller.
type UserConfig struct {
	TotalPatients   int                       `json:"total_patients" koanf:"total_patients" validate:"required,gte=1"`
	Days            int                       `json:"days" koanf:"days" validate:"required,gte=1,lte=30"`
	BaseDate        string                    `json:"base_date" koanf:"base_date" validate:"required"`
	InjuryMix       InjuryMix                 `json:"injury_mix" koanf:"injury_mix"`
	WarfareFlags    []WarfarePattern          `json:"warfare_flags" koanf:"warfare_flags"`
	SimulationFlags SimulationFlags           `json:"simulation_flags" koanf:"simulation_flags"`
	Fronts          []Front                   `json:"fronts" koanf:"fronts" validate:"required,min=1,dive"`
	Facilities      []FacilityConfig          `json:"facilities,omitempty" koanf:"facilities"`
	Overrides       Overrides                 `json:"overrides" koanf:"overrides"`
	Seed            *int64                    `json:"seed,omitempty" koanf:"seed"`
	OutputFormats   []string                  `json:"output_formats,omitempty" koanf:"output_formats"`
	Compression     bool                      `json:"compression,omitempty" koanf:"compression"`
	EncryptionPassword string                 `json:"encryption_password,omitempty" koanf:"encryption_password"`
}

// ResolvedScenario is the frozen, validated scenario a job runs against.
// It is built once by the scenario resolver and never mutated again.
type ResolvedScenario struct {
	TotalPatients   int
	Days            int
	BaseDate        time.Time
	InjuryMix       InjuryMix
	WarfareFlags    map[WarfarePattern]bool
	SimulationFlags SimulationFlags
	Fronts          []Front
	Facilities      map[FacilityRole]FacilityConfig
	Overrides       Overrides
	Seed            int64
	OutputFormats   []string
	Compression     bool
	EncryptionPassword string
}

// ActiveWarfarePatterns returns the warfare flags set to true, in stable order.
func (r *ResolvedScenario) ActiveWarfarePatterns() []WarfarePattern {
	var active []WarfarePattern
	for _, p := range AllWarfarePatterns {
		if r.WarfareFlags[p] {
			active = append(active, p)
		}
	}
	return active
}
