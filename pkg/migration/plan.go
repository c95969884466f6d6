// Package migration turns two technology profiles into a phased migration
// plan with risks, rollback procedures, a timeline and a cost estimate.
package migration

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/panbanda/revamp/pkg/config"
)

// Request is the planner input.
type Request struct {
	Current  TechnologyProfile `json:"current"`
	Target   TechnologyProfile `json:"target"`
	Strategy StrategyName      `json:"strategy,omitempty"`
	Modules  []Module          `json:"modules,omitempty"`
	// HealthScore is the overall health of the current system, if known.
	HealthScore *float64 `json:"health_score,omitempty"`
}

// RollbackTrigger is a condition that reverts a migration step.
type RollbackTrigger struct {
	Condition string `json:"condition"`
	Threshold string `json:"threshold,omitempty"`
	Window    string `json:"window,omitempty"`
}

// Rollback describes how to back out of the migration.
type Rollback struct {
	Strategy                string            `json:"strategy"`
	FlagToggleMinutes       int               `json:"flag_toggle_minutes"`
	FullVerificationMinutes int               `json:"full_verification_minutes"`
	Triggers                []RollbackTrigger `json:"triggers"`
	Checklist               []string          `json:"checklist"`
}

// Timeline sums the phase ranges and applies the buffer.
type Timeline struct {
	MinWeeks             int     `json:"min_weeks"`
	MaxWeeks             int     `json:"max_weeks"`
	BufferPercent        float64 `json:"buffer_percent"`
	BufferedMinWeeks     int     `json:"buffered_min_weeks"`
	BufferedMaxWeeks     int     `json:"buffered_max_weeks"`
	ParallelizablePhases []int   `json:"parallelizable_phases"`
}

// Cost is the budget estimate.
type Cost struct {
	EngineeringHours float64 `json:"engineering_hours"`
	HourlyRate       float64 `json:"hourly_rate"`
	EngineeringCost  float64 `json:"engineering_cost"`
	Infrastructure   float64 `json:"infrastructure"`
	Tooling          float64 `json:"tooling"`
	Training         float64 `json:"training"`
	ContingencyHours float64 `json:"contingency_hours"`
	ContingencyCost  float64 `json:"contingency_cost"`
	Total            float64 `json:"total"`
	Currency         string  `json:"currency"`
}

// Plan is a complete migration plan.
type Plan struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Current     TechnologyProfile `json:"current"`
	Target      TechnologyProfile `json:"target"`
	Strategy    Strategy          `json:"strategy"`
	Overridden  bool              `json:"overridden"`
	Phases      []Phase           `json:"phases"`
	Modules     []Module          `json:"modules"`
	Risks       []Risk            `json:"risks"`
	Rollback    Rollback          `json:"rollback"`
	Timeline    Timeline          `json:"timeline"`
	Cost        Cost              `json:"cost"`
}

// Planner builds migration plans.
type Planner struct {
	cfg    config.MigrationConfig
	now    func() time.Time
	logger *slog.Logger
}

// Option is a functional option for configuring Planner.
type Option func(*Planner)

// WithClock sets the time source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = l
	}
}

// New creates a planner with the given cost settings.
func New(cfg config.MigrationConfig, opts ...Option) *Planner {
	p := &Planner{
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan validates the request and builds the plan. Invalid profiles and
// unknown strategy names return a *ProfileError.
func (p *Planner) Plan(req Request) (*Plan, error) {
	if err := ValidateProfile("current", req.Current); err != nil {
		return nil, err
	}
	if err := ValidateProfile("target", req.Target); err != nil {
		return nil, err
	}

	name := SelectStrategy(req.Current, req.Target)
	overridden := false
	if req.Strategy != "" {
		name = req.Strategy
		overridden = true
	}
	strategy, ok := LookupStrategy(name)
	if !ok {
		return nil, unknownStrategy(string(name))
	}

	lowHealth := req.HealthScore != nil && *req.HealthScore < p.cfg.LowHealthThreshold
	phases := buildPhases(strategy, req.Current, req.Target, req.Modules)

	plan := &Plan{
		ID:          uuid.NewString(),
		GeneratedAt: p.now().UTC(),
		Current:     req.Current,
		Target:      req.Target,
		Strategy:    strategy,
		Overridden:  overridden,
		Phases:      phases,
		Modules:     SortModules(req.Modules),
		Risks:       buildRisks(lowHealth),
		Rollback:    buildRollback(strategy),
		Timeline:    p.Timeline(phases),
		Cost:        p.Cost(len(phases)),
	}
	if plan.Modules == nil {
		plan.Modules = []Module{}
	}

	p.logger.Debug("migration planned",
		"strategy", strategy.Name,
		"overridden", overridden,
		"modules", len(plan.Modules),
		"total_cost", plan.Cost.Total)
	return plan, nil
}

// Timeline sums phase durations and applies the configured buffer,
// rounding buffered weeks up.
func (p *Planner) Timeline(phases []Phase) Timeline {
	t := Timeline{BufferPercent: p.cfg.BufferPercent, ParallelizablePhases: []int{}}
	for _, ph := range phases {
		t.MinWeeks += ph.MinWeeks
		t.MaxWeeks += ph.MaxWeeks
		if ph.Parallelizable {
			t.ParallelizablePhases = append(t.ParallelizablePhases, ph.Index)
		}
	}
	t.BufferedMinWeeks = buffered(t.MinWeeks, p.cfg.BufferPercent)
	t.BufferedMaxWeeks = buffered(t.MaxWeeks, p.cfg.BufferPercent)
	return t
}

func buffered(weeks int, percent float64) int {
	return int(math.Ceil(float64(weeks) * (100 + percent) / 100))
}

// Cost estimates the budget for a plan with the given number of phases.
func (p *Planner) Cost(phases int) Cost {
	c := Cost{
		EngineeringHours: float64(phases) * p.cfg.HoursPerPhase,
		HourlyRate:       p.cfg.HourlyRate,
		Infrastructure:   p.cfg.Infrastructure,
		Tooling:          p.cfg.Tooling,
		Training:         p.cfg.Training,
		Currency:         p.cfg.Currency,
	}
	c.EngineeringCost = c.EngineeringHours * c.HourlyRate
	c.ContingencyHours = c.EngineeringHours * p.cfg.ContingencyRate
	c.ContingencyCost = c.ContingencyHours * c.HourlyRate
	c.Total = c.EngineeringCost + c.Infrastructure + c.Tooling + c.Training + c.ContingencyCost
	return c
}

func buildRollback(s Strategy) Rollback {
	return Rollback{
		Strategy:                s.rollback,
		FlagToggleMinutes:       5,
		FullVerificationMinutes: 30,
		Triggers: []RollbackTrigger{
			{Condition: "error rate", Threshold: "> 1%", Window: "5m"},
			{Condition: "P99 latency", Threshold: "> 2x baseline", Window: "10m"},
			{Condition: "data integrity check failure", Threshold: "any"},
			{Condition: "manual decision by the on-call lead"},
		},
		Checklist: []string{
			"Announce the rollback in the incident channel",
			"Flip the migration flag back to legacy",
			"Confirm traffic is served by legacy",
			"Verify error rate and latency return to baseline",
			"Run data integrity checks on records written during the window",
			"Record the trigger and timeline in the incident log",
		},
	}
}
