package models

import "time"

// Demographics is the set of identity attributes drawn for a patient.
type Demographics struct {
	Nationality string `json:"nationality"`
	Sex         string `json:"sex"`
	Age         int    `json:"age"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
}

// Vitals is a single vital-signs reading.
type Vitals struct {
	HeartRate       int     `json:"heart_rate"`
	RespiratoryRate int     `json:"respiratory_rate"`
	SystolicBP      int     `json:"systolic_bp"`
	DiastolicBP     int     `json:"diastolic_bp"`
	SpO2            int     `json:"spo2"`
	GCS             int     `json:"gcs"`
	TemperatureC    float64 `json:"temperature_c"`
}

// TimelineEventKind is the tagged variant of a single timeline entry.
type TimelineEventKind string

const (
	KindArrival              TimelineEventKind = "arrival"
	KindEvacuationStart      TimelineEventKind = "evacuation_start"
	KindTransitStart         TimelineEventKind = "transit_start"
	KindTreatment            TimelineEventKind = "treatment"
	KindDiagnosticRefinement TimelineEventKind = "diagnostic_refinement"
	KindRTD                  TimelineEventKind = "rtd"
	KindKIA                  TimelineEventKind = "kia"
)

// TimelineEvent is one append-only entry in a patient's trajectory log.
// Timestamps are monotone non-decreasing per patient.
type TimelineEvent struct {
	Kind                   TimelineEventKind `json:"kind"`
	Facility               FacilityRole      `json:"facility"`
	Timestamp              time.Time         `json:"timestamp"`
	HoursSinceInjury       float64           `json:"hours_since_injury"`
	NextFacility           FacilityRole      `json:"next_facility,omitempty"`
	EvacuationDurationHours float64          `json:"evacuation_duration_hours,omitempty"`
	TransitDurationHours   float64           `json:"transit_duration_hours,omitempty"`
	FromFacility           FacilityRole      `json:"from_facility,omitempty"`
	ToFacility             FacilityRole      `json:"to_facility,omitempty"`
	TriageCategory         TriageCategory    `json:"triage_category,omitempty"`
}

// Treatment is a single intervention applied at a facility, ordered.
type Treatment struct {
	Facility      FacilityRole `json:"facility"`
	Timestamp     time.Time    `json:"timestamp"`
	Procedure     string       `json:"procedure"`
	Effectiveness float64      `json:"effectiveness"`
}

// Diagnostic is a refinement of the primary injury code made at a facility,
// ordered; only populated when diagnostic_uncertainty is enabled.
type Diagnostic struct {
	Facility   FacilityRole `json:"facility"`
	Timestamp  time.Time    `json:"timestamp"`
	Code       string       `json:"code"`
	System     string       `json:"system"`
	Confidence float64      `json:"confidence"`
}

// PatientStatus is the current observable state of a patient mid-trajectory.
type PatientStatus string

const (
	StatusAtPOI      PatientStatus = "AT_POI"
	StatusInTransit  PatientStatus = "IN_TRANSIT"
	StatusAtRole1    PatientStatus = "AT_ROLE1"
	StatusAtRole2    PatientStatus = "AT_ROLE2"
	StatusAtRole3    PatientStatus = "AT_ROLE3"
	StatusAtRole4    PatientStatus = "AT_ROLE4"
	StatusKIA        PatientStatus = "KIA"
	StatusRTD        PatientStatus = "RTD"
)

func statusForFacility(f FacilityRole) PatientStatus {
	switch f {
	case FacilityPOI:
		return StatusAtPOI
	case FacilityRole1:
		return StatusAtRole1
	case FacilityRole2:
		return StatusAtRole2
	case FacilityRole3:
		return StatusAtRole3
	case FacilityRole4:
		return StatusAtRole4
	case FacilityKIA:
		return StatusKIA
	case FacilityRTD:
		return StatusRTD
	default:
		return StatusAtPOI
	}
}

// Patient is the fully synthesized casualty record emitted by the pipeline.
type Patient struct {
	PatientID       string          `json:"patient_id"`
	EventID         int64           `json:"event_id"`
	FrontName       string          `json:"front_name"`
	Demographics    Demographics    `json:"demographics"`
	Triage          TriageCategory  `json:"triage_category"`
	InjuryType      InjuryType      `json:"injury_type"`
	WarfarePattern  WarfarePattern  `json:"warfare_pattern,omitempty"`
	PrimaryCode     string          `json:"primary_code"`
	PrimarySystem   string          `json:"primary_system"`
	PolytraumaCodes []string        `json:"polytrauma_codes,omitempty"`
	InitialVitals   Vitals          `json:"initial_vitals"`

	CurrentFacility FacilityRole    `json:"current_facility"`
	CurrentStatus   PatientStatus   `json:"current_status"`
	Timeline        []TimelineEvent `json:"timeline_events"`
	Treatments      []Treatment     `json:"treatments,omitempty"`
	Diagnostics     []Diagnostic    `json:"diagnostics,omitempty"`

	InjuryTime  time.Time    `json:"injury_time"`
	Outcome     FacilityRole `json:"outcome,omitempty"`
	OutcomeTime time.Time    `json:"outcome_time,omitempty"`
}

// PolytraumaIndicators reports whether this patient carries more than one
// significant injury code.
func (p *Patient) PolytraumaIndicators() bool {
	return len(p.PolytraumaCodes) > 0
}

// SetFacility updates CurrentFacility and the derived CurrentStatus together
// so they can never drift out of sync.
func (p *Patient) SetFacility(f FacilityRole) {
	p.CurrentFacility = f
	p.CurrentStatus = statusForFacility(f)
}

// AppendTimeline appends an event, deriving HoursSinceInjury from InjuryTime.
func (p *Patient) AppendTimeline(kind TimelineEventKind, facility FacilityRole, ts time.Time) *TimelineEvent {
	ev := TimelineEvent{
		Kind:             kind,
		Facility:         facility,
		Timestamp:        ts,
		HoursSinceInjury: ts.Sub(p.InjuryTime).Hours(),
	}
	p.Timeline = append(p.Timeline, ev)
	return &p.Timeline[len(p.Timeline)-1]
}

// LastTreatmentEffectiveness returns the effectiveness of the most recent
// treatment applied anywhere in the trajectory, or 0 if none has occurred.
func (p *Patient) LastTreatmentEffectiveness() float64 {
	if len(p.Treatments) == 0 {
		return 0
	}
	return p.Treatments[len(p.Treatments)-1].Effectiveness
}
