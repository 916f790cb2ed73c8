// Package temporal converts a ResolvedScenario's total casualty count and
// day span into a timestamped, deterministically reproducible schedule of
// InjuryEvents.
package temporal

import (
	"sort"
	"time"

	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/rng"
)

// TemporalStreamIndex is the reserved worker index for the single RNG
// stream the distributor uses. The distributor runs once, before the job
// is partitioned across per-event worker streams (indices 0..P-1), so it
// never collides with them.
const TemporalStreamIndex = -1

const hoursPerMassCasualtyCluster = 1

// Distribute produces exactly scenario.TotalPatients InjuryEvents spread
// across scenario.Days*24 hourly buckets, ordered by sampled time with
// event_id assigned in that order. Given the same scenario and seed the
// schedule is byte-for-byte identical regardless of how it is later
// partitioned across workers.
func Distribute(s *models.ResolvedScenario) ([]models.InjuryEvent, error) {
	totalHours := s.Days * 24
	stream := rng.New(s.Seed, TemporalStreamIndex)

	weights := buildBucketWeights(s, totalHours)

	fronts := weightedFrontPicker(s.Fronts)

	type draw struct {
		hour    int
		jitter  float64
		front   string
		cluster bool
	}
	draws := make([]draw, 0, s.TotalPatients)

	remaining := s.TotalPatients
	if s.Overrides.SpecialEvents.MassCasualty && remaining > 0 {
		clusterSize := stream.UniformInt(30, 100)
		if clusterSize > remaining {
			clusterSize = remaining
		}
		clusterHour := peakHour(weights)
		clusterJitter := stream.Float64()
		for i := 0; i < clusterSize; i++ {
			draws = append(draws, draw{hour: clusterHour, jitter: clusterJitter, front: fronts(stream), cluster: true})
		}
		remaining -= clusterSize
	}

	for i := 0; i < remaining; i++ {
		bucket := stream.Categorical(weights)
		if bucket < 0 {
			bucket = 0
		}
		draws = append(draws, draw{hour: bucket, jitter: stream.Float64(), front: fronts(stream)})
	}

	events := make([]models.InjuryEvent, len(draws))
	for i, d := range draws {
		ts := s.BaseDate.Add(bucketOffset(d.hour, d.jitter))
		events[i] = models.InjuryEvent{
			Timestamp:             ts,
			FrontName:             d.front,
			DayIndex:              d.hour / 24,
			IsMassCasualtyCluster: d.cluster,
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	for i := range events {
		events[i].EventID = int64(i + 1)
	}

	return events, nil
}

// buildBucketWeights computes the final per-hour weight w_i: tempo curve x
// intensity scalar x environmental damping x special-event injections.
func buildBucketWeights(s *models.ResolvedScenario, totalHours int) []float64 {
	weights := make([]float64, totalHours)
	intensity := s.Overrides.Intensity.Multiplier()
	for h := 0; h < totalHours; h++ {
		w := tempoWeight(s.Overrides.Tempo, h, totalHours) * intensity
		w *= environmentalDamping(s.Overrides.Environment, h)
		weights[h] = w
	}
	applySpecialEvents(weights, s.Overrides.SpecialEvents)
	return weights
}

// environmentalDamping applies multiplicative environmental conditions:
// night_operations dampens night hours (22:00-05:59) to 0.7x; the remaining
// conditions are multipliers in the same spirit, with conservative values
// chosen where no exact figure is specified.
func environmentalDamping(e models.EnvironmentalConditions, hourIndex int) float64 {
	mult := 1.0
	hourOfDay := hourIndex % 24
	isNight := hourOfDay >= 22 || hourOfDay < 6
	if e.NightOperations && isNight {
		mult *= 0.7
	}
	if e.ExtremeWeather {
		mult *= 0.75
	}
	if e.MountainousTerrain {
		mult *= 0.85
	}
	if e.UrbanEnvironment {
		mult *= 1.2
	}
	return mult
}

// applySpecialEvents injects the major_offensive and ambush window boosts
// in place. mass_casualty is handled separately as a single cluster draw.
func applySpecialEvents(weights []float64, se models.SpecialEvents) {
	if se.MajorOffensive && len(weights) >= 4 {
		start := peakHour(weights)
		for i := start; i < start+4 && i < len(weights); i++ {
			weights[i] *= 3
		}
	}
	if se.Ambush && len(weights) >= 1 {
		start := peakHour(weights)
		weights[start] *= 2
	}
}

func peakHour(weights []float64) int {
	best := 0
	for i, w := range weights {
		if w > weights[best] {
			best = i
		}
	}
	return best
}

// bucketOffset returns the duration from the scenario base_date to a
// sampled instant within the hourly bucket, jittered uniformly inside it.
func bucketOffset(hour int, jitter float64) time.Duration {
	return time.Duration(hour)*time.Hour + time.Duration(jitter*float64(time.Hour))
}

// weightedFrontPicker returns a closure drawing a front name proportional to
// casualty_share using the caller-supplied RNG stream.
func weightedFrontPicker(fronts []models.Front) func(*rng.Stream) string {
	weights := make([]float64, len(fronts))
	for i, f := range fronts {
		weights[i] = f.CasualtyShare
	}
	return func(s *rng.Stream) string {
		if len(fronts) == 0 {
			return ""
		}
		idx := s.Categorical(weights)
		if idx < 0 {
			idx = 0
		}
		return fronts[idx].Name
	}
}
