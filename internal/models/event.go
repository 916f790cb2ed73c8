package models

import "time"

// InjuryEvent is a single scheduled casualty-generation event produced by
// the temporal distributor. It carries no clinical detail yet; that is
// filled in during synthesis.
type InjuryEvent struct {
	EventID               int64     `json:"event_id"`
	Timestamp             time.Time `json:"timestamp"`
	FrontName             string    `json:"front_name"`
	DayIndex              int       `json:"day_index"`
	IsMassCasualtyCluster bool      `json:"is_mass_casualty_cluster"`
	WarfareModifierKey    string    `json:"warfare_modifier_key,omitempty"`
}
