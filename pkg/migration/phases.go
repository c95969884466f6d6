package migration

import (
	"cmp"
	"fmt"
	"slices"
)

// Module is a unit of code migrated as a whole.
type Module struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Files int     `json:"files"`
	Risk  float64 `json:"risk"`
}

// Wave is a cumulative traffic or code share of phase 3.
type Wave struct {
	Percentage int      `json:"percentage"`
	ModuleIDs  []string `json:"module_ids"`
}

// Phase is one step of the fixed five-phase template.
type Phase struct {
	Index              int      `json:"index"`
	Name               string   `json:"name"`
	MinWeeks           int      `json:"min_weeks"`
	MaxWeeks           int      `json:"max_weeks"`
	Description        string   `json:"description"`
	Activities         []string `json:"activities"`
	Milestones         []string `json:"milestones"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	RollbackTriggers   []string `json:"rollback_triggers"`
	Parallelizable     bool     `json:"parallelizable"`
	Waves              []Wave   `json:"waves,omitempty"`
}

// parallelFrom is the first phase index that can overlap its neighbors.
const parallelFrom = 3

var wavePercentages = []int{25, 50, 75, 100}

func buildPhases(s Strategy, current, target TechnologyProfile, modules []Module) []Phase {
	phases := []Phase{
		{
			Name:        "Foundation & Preparation",
			MinWeeks:    2,
			MaxWeeks:    3,
			Description: fmt.Sprintf("Prepare infrastructure to run %s and %s side by side.", current, target),
			Activities: []string{
				"Set up feature flag infrastructure",
				"Configure dual-stack CI/CD pipelines",
				"Capture performance and error-rate baselines",
				"Deploy monitoring and alerting for both stacks",
			},
			Milestones: []string{
				"Feature flags operational in production",
				"Both stacks build and deploy from CI",
				"Baseline dashboards published",
			},
			AcceptanceCriteria: []string{
				"Flags toggle within 1 minute without a deploy",
				"Baselines cover latency, error rate and throughput",
			},
			RollbackTriggers: []string{
				"CI pipeline instability blocking legacy releases",
			},
		},
		{
			Name:        "Test Backfill & Characterization",
			MinWeeks:    3,
			MaxWeeks:    4,
			Description: "Lock down current behavior before anything moves.",
			Activities: []string{
				"Raise coverage of critical paths",
				"Write characterization tests for high-risk modules",
				"Add contract tests at integration boundaries",
			},
			Milestones: []string{
				"Critical path coverage at or above 80%",
				"Characterization suite green against legacy",
			},
			AcceptanceCriteria: []string{
				"Every module scheduled for migration has characterization tests",
				"Contract tests run in CI against legacy",
			},
			RollbackTriggers: []string{
				"Characterization tests reveal undocumented behavior that blocks the plan",
			},
		},
		{
			Name:        "Abstraction Layer Introduction",
			MinWeeks:    2,
			MaxWeeks:    4,
			Description: fmt.Sprintf("Introduce the %s seam with no behavior change.", s.Title),
			Activities:  slices.Clone(s.abstraction),
			Milestones: []string{
				"Abstraction deployed to production at 0% new traffic",
				"No measurable latency overhead from the abstraction",
			},
			AcceptanceCriteria: []string{
				"All characterization tests pass through the abstraction",
				"P99 latency within 5% of baseline",
			},
			RollbackTriggers: []string{
				"P99 latency above 2x baseline",
				"Any characterization test failure",
			},
		},
		{
			Name:        "Incremental Migration",
			MinWeeks:    8,
			MaxWeeks:    16,
			Description: fmt.Sprintf("Migrate modules in 25/50/75/100%% waves: %s.", s.cutover),
			Activities: []string{
				"Migrate the lowest-risk modules first",
				fmt.Sprintf("Port modules to %s on %s", target.Framework, target.Runtime),
				"Hold each wave until error rates match baseline",
			},
			Milestones: []string{
				"25% of modules migrated",
				"50% of modules migrated",
				"75% of modules migrated",
				"100% of modules migrated",
			},
			AcceptanceCriteria: []string{
				"Error rate at or below baseline for each wave",
				"No data integrity violations",
			},
			RollbackTriggers: []string{
				"Error rate above 1% for 5 minutes",
				"P99 latency above 2x baseline for 10 minutes",
				"Any data integrity check failure",
			},
			Waves: assignWaves(modules),
		},
		{
			Name:        "Legacy Decommission & Cleanup",
			MinWeeks:    2,
			MaxWeeks:    4,
			Description: "Remove the legacy path once the new one has carried full load.",
			Activities: []string{
				"Delete legacy code and infrastructure",
				"Collapse abstractions introduced for the migration",
				"Remove migration feature flags",
				"Archive legacy data stores",
			},
			Milestones: []string{
				"Legacy system shut down",
				"All migration flags removed",
			},
			AcceptanceCriteria: []string{
				"No traffic to legacy for two release cycles",
				"Runbooks updated for the new stack",
			},
			RollbackTriggers: []string{
				"Discovery of a consumer still depending on legacy",
			},
		},
	}

	for i := range phases {
		phases[i].Index = i
		phases[i].Parallelizable = i >= parallelFrom
	}
	return phases
}

// SortModules orders modules by ascending risk, then ID.
func SortModules(modules []Module) []Module {
	out := slices.Clone(modules)
	slices.SortStableFunc(out, func(a, b Module) int {
		if c := cmp.Compare(a.Risk, b.Risk); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// assignWaves splits risk-sorted modules into cumulative quarter waves.
// Each module appears in exactly one wave.
func assignWaves(modules []Module) []Wave {
	sorted := SortModules(modules)
	waves := make([]Wave, len(wavePercentages))
	start := 0
	for i, pct := range wavePercentages {
		end := (len(sorted)*pct + 99) / 100
		ids := []string{}
		for _, m := range sorted[start:end] {
			ids = append(ids, m.ID)
		}
		waves[i] = Wave{Percentage: pct, ModuleIDs: ids}
		start = end
	}
	return waves
}
