package migration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/revamp/pkg/config"
)

func legacyProfile() TechnologyProfile {
	return TechnologyProfile{
		Language:     "javascript",
		Runtime:      "node14",
		Framework:    "express",
		Database:     "mysql",
		BuildSystem:  "npm",
		Architecture: ArchMonolith,
	}
}

func modernProfile() TechnologyProfile {
	return TechnologyProfile{
		Language:     "typescript",
		Runtime:      "node20",
		Framework:    "nestjs",
		Database:     "postgresql",
		BuildSystem:  "pnpm",
		Architecture: ArchMicroservices,
	}
}

func newPlanner() *Planner {
	return New(config.DefaultConfig().Migration,
		WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }))
}

func TestSelectStrategy(t *testing.T) {
	base := legacyProfile()

	tests := []struct {
		name   string
		mutate func(*TechnologyProfile)
		from   func() TechnologyProfile
		want   StrategyName
	}{
		{"monolith to microservices", func(p *TechnologyProfile) { p.Architecture = ArchMicroservices }, legacyProfile, StrategyStranglerFig},
		{"framework swap", func(p *TechnologyProfile) { p.Framework = "fastify" }, legacyProfile, StrategyBranchByAbstraction},
		{"database swap", func(p *TechnologyProfile) { p.Database = "postgresql" }, legacyProfile, StrategyParallelRun},
		{"framework case only", func(p *TechnologyProfile) { p.Framework = "Express" }, legacyProfile, StrategyBranchByAbstraction},
		{"identical", func(*TechnologyProfile) {}, legacyProfile, StrategyBranchByAbstraction},
		{
			"microservices to serverless with new database",
			func(p *TechnologyProfile) { p.Architecture = ArchServerless; p.Database = "dynamodb" },
			func() TechnologyProfile { p := base; p.Architecture = ArchMicroservices; return p },
			StrategyParallelRun,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := tt.from()
			target := current
			tt.mutate(&target)
			assert.Equal(t, tt.want, SelectStrategy(current, target))
		})
	}
}

func TestCatalog(t *testing.T) {
	strategies := Strategies()
	require.Len(t, strategies, 5)
	for _, s := range strategies {
		assert.NotEmpty(t, s.Rationale, s.Name)
		assert.NotEmpty(t, s.Prerequisites, s.Name)
		assert.NotEmpty(t, s.Constraints, s.Name)
		assert.NotEmpty(t, s.SuccessCriteria, s.Name)
		assert.NotEmpty(t, s.abstraction, s.Name)
		assert.NotEmpty(t, s.rollback, s.Name)
	}

	_, ok := LookupStrategy("big-bang")
	assert.False(t, ok)
}

func TestPlanMonolithToMicroservices(t *testing.T) {
	plan, err := newPlanner().Plan(Request{Current: legacyProfile(), Target: modernProfile()})
	require.NoError(t, err)

	assert.Equal(t, StrategyStranglerFig, plan.Strategy.Name)
	assert.False(t, plan.Overridden)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, 2024, plan.GeneratedAt.Year())

	require.Len(t, plan.Phases, 5)
	names := []string{
		"Foundation & Preparation",
		"Test Backfill & Characterization",
		"Abstraction Layer Introduction",
		"Incremental Migration",
		"Legacy Decommission & Cleanup",
	}
	for i, ph := range plan.Phases {
		assert.Equal(t, i, ph.Index)
		assert.Equal(t, names[i], ph.Name)
		assert.NotEmpty(t, ph.Milestones)
		assert.NotEmpty(t, ph.AcceptanceCriteria)
		assert.NotEmpty(t, ph.RollbackTriggers)
		assert.Equal(t, i >= 3, ph.Parallelizable)
	}
	assert.Contains(t, plan.Phases[2].Activities[0], "routing facade")

	require.Len(t, plan.Risks, 5)
	assert.Equal(t, LevelMedium, plan.Risks[0].Probability)

	assert.Equal(t, 5, plan.Rollback.FlagToggleMinutes)
	assert.Equal(t, 30, plan.Rollback.FullVerificationMinutes)
	assert.Len(t, plan.Rollback.Triggers, 4)
	assert.NotEmpty(t, plan.Rollback.Checklist)

	tl := plan.Timeline
	assert.Equal(t, 17, tl.MinWeeks)
	assert.Equal(t, 31, tl.MaxWeeks)
	assert.Equal(t, 23, tl.BufferedMinWeeks)
	assert.Equal(t, 41, tl.BufferedMaxWeeks)
	assert.Equal(t, []int{3, 4}, tl.ParallelizablePhases)

	c := plan.Cost
	assert.InDelta(t, 1000.0, c.EngineeringHours, 1e-9)
	assert.InDelta(t, 150000.0, c.EngineeringCost, 1e-9)
	assert.InDelta(t, 250.0, c.ContingencyHours, 1e-9)
	assert.InDelta(t, 37500.0, c.ContingencyCost, 1e-9)
	assert.InDelta(t, 217500.0, c.Total, 1e-9)
	assert.Equal(t, "USD", c.Currency)
}

func TestPlanCostFollowsConfig(t *testing.T) {
	cfg := config.DefaultConfig().Migration
	cfg.HourlyRate = 100
	cfg.Infrastructure = 0
	cfg.Tooling = 0
	cfg.Training = 0
	cfg.ContingencyRate = 0.5

	c := New(cfg).Cost(5)

	assert.InDelta(t, 1000*100+500*100, c.Total, 1e-9)
}

func TestBufferedWeeksRoundUpOnlyWhenFractional(t *testing.T) {
	assert.Equal(t, 13, buffered(10, 30))
	assert.Equal(t, 14, buffered(10, 31))
	assert.Equal(t, 10, buffered(10, 0))
}

func TestPlanStrategyOverride(t *testing.T) {
	plan, err := newPlanner().Plan(Request{
		Current:  legacyProfile(),
		Target:   modernProfile(),
		Strategy: StrategyExpandContract,
	})
	require.NoError(t, err)

	assert.Equal(t, StrategyExpandContract, plan.Strategy.Name)
	assert.True(t, plan.Overridden)
}

func TestPlanUnknownStrategy(t *testing.T) {
	_, err := newPlanner().Plan(Request{Current: legacyProfile(), Target: modernProfile(), Strategy: "big-bang"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	assert.Contains(t, err.Error(), "strangler-fig")
}

func TestPlanRejectsInvalidProfiles(t *testing.T) {
	tests := []struct {
		name    string
		current func(*TechnologyProfile)
		target  func(*TechnologyProfile)
		role    string
		want    string
	}{
		{"missing language", func(p *TechnologyProfile) { p.Language = "" }, nil, "current", "language is required"},
		{"missing database", nil, func(p *TechnologyProfile) { p.Database = "" }, "target", "database is required"},
		{"bad architecture", nil, func(p *TechnologyProfile) { p.Architecture = "mainframe" }, "target", "architecture must be one of"},
		{"missing architecture", func(p *TechnologyProfile) { p.Architecture = "" }, nil, "current", "architecture is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, target := legacyProfile(), modernProfile()
			if tt.current != nil {
				tt.current(&current)
			}
			if tt.target != nil {
				tt.target(&target)
			}

			plan, err := newPlanner().Plan(Request{Current: current, Target: target})

			assert.Nil(t, plan)
			var perr *ProfileError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.role, perr.Profile)
			assert.Contains(t, err.Error(), tt.want)
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestPlanOptionalFieldsNotRequired(t *testing.T) {
	current := legacyProfile()
	current.BuildSystem = ""
	current.TestFramework = ""
	current.Deployment = ""

	_, err := newPlanner().Plan(Request{Current: current, Target: modernProfile()})
	assert.NoError(t, err)
}

func TestPlanLowHealthRaisesRisks(t *testing.T) {
	score := 35.0
	plan, err := newPlanner().Plan(Request{Current: legacyProfile(), Target: modernProfile(), HealthScore: &score})
	require.NoError(t, err)

	byID := make(map[string]Risk)
	for _, r := range plan.Risks {
		byID[r.ID] = r
	}
	assert.Equal(t, LevelHigh, byID[riskParity].Probability)
	assert.Equal(t, LevelHigh, byID[riskSchedule].Probability)
	assert.Equal(t, LevelMedium, byID[riskPerformance].Probability)
	assert.Equal(t, LevelLow, byID[riskDataLoss].Probability)

	healthy := 75.0
	plan, err = newPlanner().Plan(Request{Current: legacyProfile(), Target: modernProfile(), HealthScore: &healthy})
	require.NoError(t, err)
	assert.Equal(t, LevelMedium, plan.Risks[0].Probability)
}

func TestPlanModuleWaves(t *testing.T) {
	modules := []Module{
		{ID: "billing", Risk: 9},
		{ID: "auth", Risk: 2},
		{ID: "reports", Risk: 5},
		{ID: "search", Risk: 1},
		{ID: "admin", Risk: 2},
	}

	plan, err := newPlanner().Plan(Request{Current: legacyProfile(), Target: modernProfile(), Modules: modules})
	require.NoError(t, err)

	var ids []string
	for _, m := range plan.Modules {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"search", "admin", "auth", "reports", "billing"}, ids)

	waves := plan.Phases[3].Waves
	require.Len(t, waves, 4)
	assert.Equal(t, Wave{Percentage: 25, ModuleIDs: []string{"search", "admin"}}, waves[0])
	assert.Equal(t, Wave{Percentage: 50, ModuleIDs: []string{"auth"}}, waves[1])
	assert.Equal(t, Wave{Percentage: 75, ModuleIDs: []string{"reports"}}, waves[2])
	assert.Equal(t, Wave{Percentage: 100, ModuleIDs: []string{"billing"}}, waves[3])

	// input order is untouched
	assert.Equal(t, "billing", modules[0].ID)
}

func TestPlanWithoutModules(t *testing.T) {
	plan, err := newPlanner().Plan(Request{Current: legacyProfile(), Target: modernProfile()})
	require.NoError(t, err)

	assert.NotNil(t, plan.Modules)
	for _, w := range plan.Phases[3].Waves {
		assert.Empty(t, w.ModuleIDs)
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "current.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
language: javascript
runtime: node14
framework: express
database: mysql
build_system: npm
architecture: Monolith
`), 0644))

	p, err := LoadProfile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "express", p.Framework)
	assert.Equal(t, ArchMonolith, p.Architecture)
	assert.NoError(t, ValidateProfile("current", p))

	tomlPath := filepath.Join(dir, "target.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
language = "go"
runtime = "go1.22"
framework = "chi"
database = "postgresql"
architecture = "microservices"
`), 0644))

	p, err = LoadProfile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, ArchMicroservices, p.Architecture)

	_, err = LoadProfile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
