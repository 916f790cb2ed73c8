package catalog

import (
	"fmt"
	"math"
	"os"

	"github.com/dunebase/casugen/internal/models"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const rowSumTolerance = 1e-9

// overrideFile is the optional shape an operator may supply via
// CATALOG_OVERRIDE_PATH to retune a handful of catalog knobs without a
// rebuild. Anything left zero-valued keeps the built-in default.
type overrideFile struct {
	Facilities []struct {
		Role    string  `koanf:"role"`
		KIARate float64 `koanf:"kia_rate"`
		RTDRate float64 `koanf:"rtd_rate"`
	} `koanf:"facilities"`
}

// Load builds the process-lifetime Catalog: built-in defaults, optionally
// layered with a YAML override file, then self-checked for row-sum and
// doctrine invariants. A failing check is fatal to the process
// (CATALOG_INVARIANT), since every job depends on this shared, read-only
// state.
func Load(overridePath string) (*Catalog, error) {
	c := defaultCatalog()

	if overridePath != "" {
		if _, err := os.Stat(overridePath); err == nil {
			if err := applyOverride(c, overridePath); err != nil {
				return nil, models.NewPipelineError(models.ErrCatalogInvariant, "applying catalog override", err)
			}
		}
	}

	if err := c.selfCheck(); err != nil {
		return nil, models.NewPipelineError(models.ErrCatalogInvariant, "catalog self-check failed", err)
	}
	return c, nil
}

func applyOverride(c *Catalog, path string) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading override file: %w", err)
	}
	var ov overrideFile
	if err := k.Unmarshal("", &ov); err != nil {
		return fmt.Errorf("parsing override file: %w", err)
	}
	for _, f := range ov.Facilities {
		role := models.FacilityRole(f.Role)
		profile, ok := c.Facilities[role]
		if !ok {
			return fmt.Errorf("override references unknown facility role %q", f.Role)
		}
		if f.KIARate > 0 {
			profile.BaseKIARate = f.KIARate
		}
		if f.RTDRate > 0 {
			profile.BaseRTDRate = f.RTDRate
		}
	}
	return nil
}

// selfCheck validates the loaded catalog: row sums, absorbing KIA/RTD rows,
// and POI doctrine bounds.
func (c *Catalog) selfCheck() error {
	for triage, matrix := range c.TransitionMatrices {
		for i := 0; i < numStates; i++ {
			sum := 0.0
			for j := 0; j < numStates; j++ {
				sum += matrix[i][j]
			}
			if math.Abs(sum-1.0) > rowSumTolerance {
				return fmt.Errorf("triage %s row %s sums to %.12f, want 1.0 +/- %g", triage, StateAt(i), sum, rowSumTolerance)
			}
		}

		kiaIdx, rtdIdx := KIAIndex(), RTDIndex()
		if matrix[kiaIdx][kiaIdx] != 1.0 {
			return fmt.Errorf("triage %s KIA row is not identity", triage)
		}
		if matrix[rtdIdx][rtdIdx] != 1.0 {
			return fmt.Errorf("triage %s RTD row is not identity", triage)
		}

		poiIdx := stateIndexOf(models.FacilityPOI)
		role1Idx := stateIndexOf(models.FacilityRole1)
		if matrix[poiIdx][role1Idx] < 0.85 {
			return fmt.Errorf("triage %s POI->Role1 mass %.4f below 0.85 doctrine floor", triage, matrix[poiIdx][role1Idx])
		}
		for _, idx := range []int{stateIndexOf(models.FacilityRole2), stateIndexOf(models.FacilityRole3), stateIndexOf(models.FacilityRole4)} {
			if matrix[poiIdx][idx] > 0.04 {
				return fmt.Errorf("triage %s POI->%s direct mass %.4f exceeds 0.04 doctrine ceiling", triage, StateAt(idx), matrix[poiIdx][idx])
			}
		}
	}

	for pattern, profile := range c.WarfarePatterns {
		if profile.PolytraumaRate < 0 || profile.PolytraumaRate > 1 {
			return fmt.Errorf("warfare pattern %s polytrauma rate %.4f out of [0,1]", pattern, profile.PolytraumaRate)
		}
	}

	for role, profile := range c.Facilities {
		if profile.BaseKIARate < 0 || profile.BaseKIARate > 1 {
			return fmt.Errorf("facility %s kia rate %.4f out of [0,1]", role, profile.BaseKIARate)
		}
		if profile.BaseRTDRate < 0 || profile.BaseRTDRate > 1 {
			return fmt.Errorf("facility %s rtd rate %.4f out of [0,1]", role, profile.BaseRTDRate)
		}
	}
	return nil
}
