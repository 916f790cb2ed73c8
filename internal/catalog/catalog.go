// Package catalog is the reference catalog: immutable, lazily loaded
// tables shared read-only across every job. It is the only component with
// process lifetime: nationalities, name pools, injury codes, evacuation and
// transit time ranges, warfare-pattern tables, and per-triage transition
// matrices.
package catalog

import (
	"fmt"
	"sync"

	"github.com/dunebase/casugen/internal/models"
)

// TimeRange is an inclusive U(min,max) sampling bound expressed in hours.
type TimeRange struct {
	MinHours float64
	MaxHours float64
}

// VitalsRange is the triage-conditioned band initial vitals are drawn from.
type VitalsRange struct {
	HeartRate       TimeRange
	RespiratoryRate TimeRange
	SystolicBP      TimeRange
	DiastolicBP     TimeRange
	SpO2            TimeRange
	GCS             TimeRange
	TemperatureC    TimeRange
}

// SnomedEntry is one clinical condition code available to the synthesizer.
type SnomedEntry struct {
	Code    string
	System  string
	Display string
	Weight  float64
}

// WarfareProfile is the catalog's per-pattern overlay on injury codes and
// outcomes.
type WarfareProfile struct {
	PolytraumaRate     float64
	SeverityMultiplier float64
	MortalityMultiplier float64
	// InjuryCodeWeights overlays (replaces) the plain Battle-Injury pool
	// weighting for this pattern; codes not listed keep the base weight.
	InjuryCodeWeights map[string]float64
	// TriageBias nudges the base triage distribution towards T1 (e.g.
	// artillery). Values are added to the linear triage weights before normalizing.
	TriageBias map[models.TriageCategory]float64
	// CorrelatedCodes is the pool polytrauma draws sample additional codes
	// from, once the primary code is fixed.
	CorrelatedCodes []string
}

// FacilityProfile is a non-terminal facility's own tunable rates, layered
// under any per-scenario FacilityConfig override.
type FacilityProfile struct {
	Role          models.FacilityRole
	BaseKIARate   float64
	BaseRTDRate   float64
	Treatments    []TreatmentSpec
	DiagnosticAccuracy float64
}

// TreatmentSpec is a catalog-defined intervention available at a facility
// for a given (triage, injury_type) cell.
type TreatmentSpec struct {
	Procedure     string
	InjuryType    models.InjuryType
	Triage        models.TriageCategory
	Effectiveness float64
}

// TriageModifiers scales a facility's base KIA/RTD rate by triage category.
type TriageModifiers struct {
	KIA map[models.TriageCategory]float64
	RTD map[models.TriageCategory]float64
}

// stateOrder fixes the seven observable automaton states to array slots so
// transition matrices are flat float64 rows, not maps.
var stateOrder = []models.FacilityRole{
	models.FacilityPOI, models.FacilityRole1, models.FacilityRole2,
	models.FacilityRole3, models.FacilityRole4, models.FacilityKIA, models.FacilityRTD,
}

func stateIndexOf(r models.FacilityRole) int {
	for i, s := range stateOrder {
		if s == r {
			return i
		}
	}
	return -1
}

const numStates = 7

// TransitionMatrix is one 7x7 row-stochastic matrix for a single triage
// category; KIA and RTD rows must be identity (absorbing).
type TransitionMatrix [numStates][numStates]float64

// Catalog is the full, validated reference data set. All fields are
// populated once by Load and never mutated afterward, so reads need no
// further synchronization.
type Catalog struct {
	Facilities      map[models.FacilityRole]*FacilityProfile
	TriageModifiers TriageModifiers
	DwellTimes      map[dwellKey]TimeRange
	TransitTimes    map[transitKey]TimeRange
	Nationalities   map[string]*NamePool
	InjuryPools     map[models.InjuryType][]SnomedEntry
	WarfarePatterns map[models.WarfarePattern]*WarfareProfile
	TransitionMatrices map[models.TriageCategory]TransitionMatrix
	VitalsByTriage  map[models.TriageCategory]VitalsRange
	BaseTriageDistribution map[models.TriageCategory]float64

	once sync.Once
}

type dwellKey struct {
	Facility models.FacilityRole
	Triage   models.TriageCategory
}

type transitKey struct {
	From, To models.FacilityRole
	Triage   models.TriageCategory
}

// NamePool is a nationality's demographic draw pool.
type NamePool struct {
	GivenNamesMale   []string
	GivenNamesFemale []string
	FamilyNames      []string
}

// DwellRange returns the dwell-time band for (facility, triage), falling
// back to a conservative default if the catalog has no specific entry.
func (c *Catalog) DwellRange(facility models.FacilityRole, triage models.TriageCategory) TimeRange {
	if tr, ok := c.DwellTimes[dwellKey{facility, triage}]; ok {
		return tr
	}
	return TimeRange{MinHours: 1, MaxHours: 6}
}

// TransitRange returns the transit-time band for the directed leg
// (from,to) at the given triage, falling back to a conservative default.
func (c *Catalog) TransitRange(from, to models.FacilityRole, triage models.TriageCategory) TimeRange {
	if tr, ok := c.TransitTimes[transitKey{from, to, triage}]; ok {
		return tr
	}
	return TimeRange{MinHours: 0.25, MaxHours: 4}
}

// TriageKIAModifier returns the multiplier applied to a facility's base KIA
// rate for the given triage category.
func (c *Catalog) TriageKIAModifier(t models.TriageCategory) float64 {
	if v, ok := c.TriageModifiers.KIA[t]; ok {
		return v
	}
	return 1.0
}

// TriageRTDModifier returns the multiplier applied to a facility's base RTD
// rate for the given triage category.
func (c *Catalog) TriageRTDModifier(t models.TriageCategory) float64 {
	if v, ok := c.TriageModifiers.RTD[t]; ok {
		return v
	}
	return 1.0
}

// Row returns the transition-matrix row for (triage, facility) as an array
// indexed in stateOrder order, plus the index of facility within that order.
func (c *Catalog) Row(triage models.TriageCategory, facility models.FacilityRole) ([numStates]float64, int, error) {
	m, ok := c.TransitionMatrices[triage]
	if !ok {
		return [numStates]float64{}, -1, fmt.Errorf("no transition matrix for triage %s", triage)
	}
	idx := stateIndexOf(facility)
	if idx < 0 {
		return [numStates]float64{}, -1, fmt.Errorf("unknown facility %s", facility)
	}
	return m[idx], idx, nil
}

// KIAIndex and RTDIndex locate the two absorbing columns within a row.
func KIAIndex() int { return stateIndexOf(models.FacilityKIA) }
func RTDIndex() int { return stateIndexOf(models.FacilityRTD) }

// StateAt returns the facility role occupying slot i in stateOrder.
func StateAt(i int) models.FacilityRole { return stateOrder[i] }

// NumStates is the fixed automaton size (POI, Role1-4, KIA, RTD).
func NumStates() int { return numStates }
