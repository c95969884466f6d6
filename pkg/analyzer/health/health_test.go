package health

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/analyzer/coverage"
	"github.com/panbanda/revamp/pkg/analyzer/deadcode"
	"github.com/panbanda/revamp/pkg/analyzer/deps"
	"github.com/panbanda/revamp/pkg/analyzer/smells"
	"github.com/panbanda/revamp/pkg/config"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newAggregator() *Aggregator {
	return New(config.DefaultConfig(), WithClock(func() time.Time { return fixedNow }))
}

func goodCoverage() *coverage.Summary {
	return &coverage.Summary{Found: true, LinePct: 100, BranchPct: 100, FunctionPct: 100, TestQualityScore: 100}
}

func TestAggregateEmptyProject(t *testing.T) {
	r := newAggregator().Aggregate(Inputs{Root: "/empty"})

	assert.InDelta(t, 100.0, r.Scores.Overall, 1e-9)
	assert.InDelta(t, 100.0, r.Scores.Coverage, 1e-9)
	assert.Empty(t, r.PrioritizedActions)
	assert.Equal(t, "A", r.Grade())
	assert.Equal(t, fixedNow, r.GeneratedAt)
	_, err := uuid.Parse(r.ID)
	assert.NoError(t, err)
	assert.NotNil(t, r.Dependencies)
	assert.NotNil(t, r.Warnings)
}

func TestAggregateMissingCoverage(t *testing.T) {
	r := newAggregator().Aggregate(Inputs{Files: 10, TotalLines: 500, Coverage: &coverage.Summary{}})

	// every other section is clean, coverage contributes 0 of its 20%
	assert.InDelta(t, 80.0, r.Scores.Overall, 1e-9)
	require.Len(t, r.PrioritizedActions, 1)
	a := r.PrioritizedActions[0]
	assert.Equal(t, CategoryTesting, a.Category)
	assert.Equal(t, PriorityHigh, a.Priority)
	assert.InDelta(t, 20.0, a.Impact, 1e-9)
	assert.Contains(t, a.Description, "No coverage summary")
}

func TestAggregateWeightedScore(t *testing.T) {
	in := Inputs{
		Files:        4,
		Dependencies: &deps.Analysis{Score: 50},
		DeadCode:     &deadcode.Analysis{Summary: deadcode.Summary{PercentageOfCodebase: 10}},
		Complexity:   &complexity.Analysis{Summary: complexity.Summary{FilesAnalyzed: 4, Violations: 1}},
		Architecture: &smells.Analysis{Summary: smells.Summary{TotalSmells: 2}},
		Coverage:     &coverage.Summary{Found: true, LinePct: 70, BranchPct: 50, FunctionPct: 60, TestQualityScore: 60.5},
	}

	r := newAggregator().Aggregate(in)

	assert.InDelta(t, 80.0, r.Scores.DeadCode, 1e-9)
	assert.InDelta(t, 50.0, r.Scores.Dependencies, 1e-9)
	assert.InDelta(t, 75.0, r.Scores.Complexity, 1e-9)
	assert.InDelta(t, 94.0, r.Scores.Architecture, 1e-9)
	assert.InDelta(t, 60.5, r.Scores.Coverage, 1e-9)

	want := 0.10*80 + 0.20*50 + 0.25*75 + 0.25*94 + 0.20*60.5
	assert.InDelta(t, want, r.Scores.Overall, 1e-9)
	assert.Equal(t, "C", r.Grade())

	// dead code is 10% > 5% so it earns an action; coverage is 70% >= 60% so none
	require.Len(t, r.PrioritizedActions, 1)
	assert.Equal(t, CategoryDeadCode, r.PrioritizedActions[0].Category)
	assert.InDelta(t, 2.0, r.PrioritizedActions[0].Impact, 1e-9)
}

func TestAggregateActionOrdering(t *testing.T) {
	in := Inputs{
		Files: 3,
		Dependencies: &deps.Analysis{
			Score:                  0,
			EOLDependencies:        []string{"moment"},
			VulnerableDependencies: []string{"lodash"},
		},
		DeadCode: &deadcode.Analysis{Summary: deadcode.Summary{PercentageOfCodebase: 20, TotalDeadLines: 200}},
		Complexity: &complexity.Analysis{
			Hotspots: []complexity.Hotspot{{Path: "src/big.js", Cyclomatic: 45}, {Path: "src/ok.js", Cyclomatic: 12}},
			Summary:  complexity.Summary{FilesAnalyzed: 2, Violations: 1, CriticalFiles: 1},
		},
		Architecture: &smells.Analysis{
			Smells: []smells.Smell{{
				Type:     smells.TypeCircularDependency,
				Files:    []string{"a.js", "b.js"},
				Severity: smells.SeverityMedium,
			}},
			Summary: smells.Summary{TotalSmells: 1, CycleCount: 1},
		},
		Coverage: &coverage.Summary{Found: true, LinePct: 30, TestQualityScore: 30},
	}

	r := newAggregator().Aggregate(in)

	var got []Category
	for _, a := range r.PrioritizedActions {
		got = append(got, a.Category)
	}
	// high tier by impact: dependencies 20, testing 14, complexity 12.5, architecture 0.75
	assert.Equal(t, []Category{
		CategorySecurity,
		CategoryDependencies,
		CategoryTesting,
		CategoryComplexity,
		CategoryArchitecture,
		CategoryDeadCode,
	}, got)

	assert.Equal(t, []string{"src/big.js"}, r.PrioritizedActions[3].Targets)
	assert.Equal(t, []string{"a.js", "b.js"}, r.PrioritizedActions[4].Targets)
	assert.Equal(t, []string{"lodash"}, r.PrioritizedActions[0].Targets)
}

func TestAggregateOneActionPerCategory(t *testing.T) {
	many := make([]string, 25)
	for i := range many {
		many[i] = "pkg" + string(rune('a'+i))
	}
	in := Inputs{
		Files:        1,
		Dependencies: &deps.Analysis{Score: 10, VulnerableDependencies: many},
		Coverage:     goodCoverage(),
	}

	r := newAggregator().Aggregate(in)

	require.Len(t, r.PrioritizedActions, 1)
	assert.Len(t, r.PrioritizedActions[0].Targets, maxTargets)
	assert.Contains(t, r.PrioritizedActions[0].Description, "and 15 more")
}

func TestAggregateClampsOverall(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Health.Weights = config.HealthWeights{DeadCode: 1, Dependencies: 1, Complexity: 1, Architecture: 1, Coverage: 1}

	r := New(cfg).Aggregate(Inputs{Files: 1, Coverage: goodCoverage()})

	assert.InDelta(t, 100.0, r.Scores.Overall, 1e-9)
}

func TestAggregateCarriesWarnings(t *testing.T) {
	warnings := []string{"cycle detector not installed"}
	r := newAggregator().Aggregate(Inputs{Warnings: warnings})

	assert.Equal(t, warnings, r.Warnings)
	r.Warnings[0] = "changed"
	assert.Equal(t, "cycle detector not installed", warnings[0])
}

func TestSortActionsStableOnTies(t *testing.T) {
	actions := []Action{
		{Title: "first", Priority: PriorityHigh, Impact: 5},
		{Title: "low", Priority: PriorityLow, Impact: 50},
		{Title: "second", Priority: PriorityHigh, Impact: 5},
		{Title: "crit", Priority: PriorityCritical, Impact: 1},
	}
	SortActions(actions)

	var titles []string
	for _, a := range actions {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"crit", "first", "second", "low"}, titles)
}

func TestGrade(t *testing.T) {
	tests := map[float64]string{95: "A", 85: "B", 75: "C", 65: "D", 10: "F"}
	for score, want := range tests {
		r := &Report{Scores: Scores{Overall: score}}
		assert.Equal(t, want, r.Grade())
	}
}

type penaltyCounts struct {
	eol, vulnerable, violations, smells int
}

func inputsWith(c penaltyCounts) Inputs {
	cfg := config.DefaultConfig().Dependencies
	entries := make([]deps.Entry, 10)
	for i := range entries {
		entries[i].UpdateType = deps.UpdatePatch
		if i < c.eol {
			entries[i].IsEOL = true
		}
		if i < c.vulnerable {
			entries[i].Vulnerabilities = []deps.Vulnerability{{ID: "CVE-1"}}
		}
	}
	return Inputs{
		Files:        10,
		Dependencies: &deps.Analysis{Dependencies: entries, Score: deps.Score(entries, cfg.Penalties)},
		DeadCode:     &deadcode.Analysis{Summary: deadcode.Summary{PercentageOfCodebase: 5}},
		Complexity:   &complexity.Analysis{Summary: complexity.Summary{FilesAnalyzed: 10, Violations: c.violations}},
		Architecture: &smells.Analysis{Summary: smells.Summary{TotalSmells: c.smells}},
		Coverage:     &coverage.Summary{Found: true, LinePct: 70, TestQualityScore: 70},
	}
}

func TestOverallNeverRisesWithMorePenalties(t *testing.T) {
	baseline := penaltyCounts{eol: 1, vulnerable: 1, violations: 1, smells: 1}

	tests := []struct {
		name string
		step func(*penaltyCounts)
	}{
		{"eol dependencies", func(c *penaltyCounts) { c.eol++ }},
		{"vulnerable dependencies", func(c *penaltyCounts) { c.vulnerable++ }},
		{"complexity violations", func(c *penaltyCounts) { c.violations++ }},
		{"architecture smells", func(c *penaltyCounts) { c.smells++ }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := newAggregator()
			counts := baseline
			prev := agg.Aggregate(inputsWith(counts)).Scores.Overall

			for range 40 {
				tt.step(&counts)
				got := agg.Aggregate(inputsWith(counts)).Scores.Overall
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 100.0)
				assert.LessOrEqual(t, got, prev, "%+v", counts)
				prev = got
			}
		})
	}
}
