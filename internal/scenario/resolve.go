// Package scenario merges user configuration with catalog defaults,
// validates every structural and doctrinal invariant, and produces a
// frozen ResolvedScenario. Resolution never mutates network or disk state
// and is idempotent.
package scenario

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/models"
)

const mixSumTolerance = 1e-6
const frontShareTolerance = 1e-6
const nationalitySumTolerance = 0.1

var structValidator = validator.New()

// Resolver merges user configuration against a loaded Catalog.
type Resolver struct {
	catalog       *catalog.Catalog
	maxPatients   int
}

// New builds a Resolver bound to a catalog and the operator-configured
// per-job patient quota.
func New(cat *catalog.Catalog, maxPatients int) *Resolver {
	return &Resolver{catalog: cat, maxPatients: maxPatients}
}

// Resolve validates cfg and, if it passes every invariant, returns a frozen
// ResolvedScenario. On failure it returns the complete categorized error
// set rather than the first error found.
func (r *Resolver) Resolve(cfg models.UserConfig) (*models.ResolvedScenario, *models.ValidationErrorSet) {
	errs := &models.ValidationErrorSet{}

	if err := structValidator.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				errs.Add(fe.Namespace(), fe.Tag())
			}
		} else {
			errs.Add("config", err.Error())
		}
	}

	baseDate, dateErr := time.Parse("2006-01-02", cfg.BaseDate)
	if dateErr != nil {
		errs.Add("base_date", "must be parseable as YYYY-MM-DD")
	}

	if r.maxPatients > 0 && cfg.TotalPatients > r.maxPatients {
		errs.Add("total_patients", fmt.Sprintf("exceeds configured quota of %d", r.maxPatients))
	}

	if sum := cfg.InjuryMix.Sum(); abs(sum-1.0) > mixSumTolerance {
		errs.Add("injury_mix", fmt.Sprintf("must sum to 1.0 +/- %g, got %.6f", mixSumTolerance, sum))
	}

	if !cfg.Overrides.Intensity.IsValid() {
		errs.Add("overrides.intensity", "must be one of low, medium, high, extreme")
	}
	if !cfg.Overrides.Tempo.IsValid() {
		errs.Add("overrides.tempo", "must be one of sustained, escalating, surge, declining, intermittent")
	}

	frontShareTotal := 0.0
	for i, f := range cfg.Fronts {
		frontShareTotal += f.CasualtyShare
		natSum := 0.0
		for _, n := range f.NationalityDistribution {
			natSum += n.Percent
		}
		if abs(natSum-100) > nationalitySumTolerance {
			errs.Add(fmt.Sprintf("fronts[%d].nationality_distribution", i), fmt.Sprintf("must sum to 100 +/- %g, got %.4f", nationalitySumTolerance, natSum))
		}
	}
	if len(cfg.Fronts) > 0 && abs(frontShareTotal-1.0) > frontShareTolerance {
		errs.Add("fronts", fmt.Sprintf("casualty_share must sum to 1.0 +/- %g, got %.6f", frontShareTolerance, frontShareTotal))
	}

	facilities := map[models.FacilityRole]models.FacilityConfig{}
	for i, f := range cfg.Facilities {
		if f.KIARate < 0 || f.KIARate > 1 {
			errs.Add(fmt.Sprintf("facilities[%d].kia_rate", i), "must be in [0,1]")
		}
		if f.RTDRate < 0 || f.RTDRate > 1 {
			errs.Add(fmt.Sprintf("facilities[%d].rtd_rate", i), "must be in [0,1]")
		}
		facilities[f.Role] = f
	}

	warfareFlags := map[models.WarfarePattern]bool{}
	for i, w := range cfg.WarfareFlags {
		if !w.IsValid() {
			errs.Add(fmt.Sprintf("warfare_flags[%d]", i), "not a recognized warfare pattern")
			continue
		}
		warfareFlags[w] = true

		_, catalogHasProfile := r.catalog.WarfarePatterns[w]
		_, overrideHasRate := cfg.Overrides.PolytraumaRates[w]
		if !catalogHasProfile && !overrideHasRate {
			// Absent polytrauma entries must fail validation, not silently
			// default to conventional.
			errs.Add(fmt.Sprintf("warfare_flags[%d]", i), fmt.Sprintf("%q has no catalog or override polytrauma table", w))
		}
	}

	for key, rate := range cfg.Overrides.PolytraumaRates {
		if rate < 0 || rate > 1 {
			errs.Add(fmt.Sprintf("overrides.polytrauma_rates[%s]", key), "must be in [0,1]")
		}
	}
	for key, acc := range cfg.Overrides.DiagnosticAccuracy {
		if acc < 0 || acc > 1 {
			errs.Add(fmt.Sprintf("overrides.diagnostic_accuracy[%s]", key), "must be in [0,1]")
		}
	}
	for key, eff := range cfg.Overrides.TreatmentEffectiveness {
		if eff < 0 || eff > 1 {
			errs.Add(fmt.Sprintf("overrides.treatment_effectiveness[%s]", key), "must be in [0,1]")
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	formats := cfg.OutputFormats
	if len(formats) == 0 {
		formats = []string{"ndjson"}
	}

	return &models.ResolvedScenario{
		TotalPatients:      cfg.TotalPatients,
		Days:               cfg.Days,
		BaseDate:           baseDate,
		InjuryMix:          cfg.InjuryMix,
		WarfareFlags:       warfareFlags,
		SimulationFlags:    cfg.SimulationFlags,
		Fronts:             cfg.Fronts,
		Facilities:         facilities,
		Overrides:          cfg.Overrides,
		Seed:               seed,
		OutputFormats:      formats,
		Compression:        cfg.Compression,
		EncryptionPassword: cfg.EncryptionPassword,
	}, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
