// Package health combines the analyzer outputs into a weighted score and a
// prioritized action list.
package health

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/analyzer/coverage"
	"github.com/panbanda/revamp/pkg/analyzer/deadcode"
	"github.com/panbanda/revamp/pkg/analyzer/deps"
	"github.com/panbanda/revamp/pkg/analyzer/smells"
	"github.com/panbanda/revamp/pkg/config"
)

// maxTargets bounds the file or package names listed on an action.
const maxTargets = 10

// Aggregator builds health reports.
type Aggregator struct {
	cfg                config.HealthConfig
	criticalComplexity int
	minLinePct         float64
	now                func() time.Time
	logger             *slog.Logger
}

// Option is a functional option for configuring Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// New creates an aggregator from the health, complexity and coverage
// settings of cfg.
func New(cfg *config.Config, opts ...Option) *Aggregator {
	a := &Aggregator{
		cfg:                cfg.Health,
		criticalComplexity: cfg.Complexity.CriticalThreshold,
		minLinePct:         cfg.Coverage.MinLinePct,
		now:                time.Now,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate scores the inputs and derives the action list.
func (a *Aggregator) Aggregate(in Inputs) *Report {
	r := &Report{
		ID:           uuid.NewString(),
		GeneratedAt:  a.now().UTC(),
		Root:         in.Root,
		Files:        in.Files,
		TotalLines:   in.TotalLines,
		Dependencies: in.Dependencies,
		DeadCode:     in.DeadCode,
		Complexity:   in.Complexity,
		Architecture: in.Architecture,
		Coverage:     in.Coverage,
		Warnings:     append([]string{}, in.Warnings...),
	}
	if r.Dependencies == nil {
		r.Dependencies = deps.Empty()
	}
	if r.DeadCode == nil {
		r.DeadCode = &deadcode.Analysis{}
	}
	if r.Complexity == nil {
		r.Complexity = &complexity.Analysis{}
	}
	if r.Architecture == nil {
		r.Architecture = &smells.Analysis{}
	}
	if r.Coverage == nil {
		r.Coverage = &coverage.Summary{}
	}

	r.Scores = a.score(r)
	r.PrioritizedActions = a.actions(r)

	a.logger.Debug("health aggregated", "overall", r.Scores.Overall, "actions", len(r.PrioritizedActions))
	return r
}

func (a *Aggregator) score(r *Report) Scores {
	s := Scores{
		DeadCode:     r.DeadCode.Score(a.cfg.DeadCodePenaltyScale),
		Dependencies: r.Dependencies.Score,
		Complexity:   r.Complexity.Score(),
		Architecture: r.Architecture.Score(),
		Coverage:     r.Coverage.TestQualityScore,
	}
	// An empty project has nothing to cover.
	if r.Files == 0 {
		s.Coverage = 100
	}

	w := a.cfg.Weights
	overall := s.DeadCode*w.DeadCode +
		s.Dependencies*w.Dependencies +
		s.Complexity*w.Complexity +
		s.Architecture*w.Architecture +
		s.Coverage*w.Coverage
	s.Overall = clamp(overall, 0, 100)
	return s
}

// recoverable returns the overall points lost by a sub-score.
func recoverable(subScore, weight float64) float64 {
	return clamp(100-subScore, 0, 100) * weight
}

func (a *Aggregator) actions(r *Report) []Action {
	w := a.cfg.Weights
	s := r.Scores
	actions := []Action{}

	if vulns := r.Dependencies.VulnerableDependencies; len(vulns) > 0 {
		actions = append(actions, Action{
			Category:    CategorySecurity,
			Priority:    PriorityCritical,
			Title:       "Patch vulnerable dependencies",
			Description: fmt.Sprintf("%d dependencies have known vulnerabilities: %s", len(vulns), joinTargets(vulns)),
			Targets:     limit(vulns),
			Impact:      recoverable(s.Dependencies, w.Dependencies),
		})
	}

	if eol := r.Dependencies.EOLDependencies; len(eol) > 0 {
		actions = append(actions, Action{
			Category:    CategoryDependencies,
			Priority:    PriorityHigh,
			Title:       "Replace end-of-life dependencies",
			Description: fmt.Sprintf("%d dependencies are past end of life: %s", len(eol), joinTargets(eol)),
			Targets:     limit(eol),
			Impact:      recoverable(s.Dependencies, w.Dependencies),
		})
	}

	if hot := r.Complexity.Above(a.criticalComplexity); len(hot) > 0 {
		paths := make([]string, len(hot))
		for i, h := range hot {
			paths[i] = h.Path
		}
		actions = append(actions, Action{
			Category: CategoryComplexity,
			Priority: PriorityHigh,
			Title:    "Reduce complexity of critical hotspots",
			Description: fmt.Sprintf("%d files exceed cyclomatic complexity %d: %s",
				len(hot), a.criticalComplexity, joinTargets(paths)),
			Targets: limit(paths),
			Impact:  recoverable(s.Complexity, w.Complexity),
		})
	}

	if cycles := r.Architecture.Cycles(); len(cycles) > 0 {
		var files []string
		seen := make(map[string]struct{})
		for _, c := range cycles {
			for _, f := range c.Files {
				if _, ok := seen[f]; !ok {
					seen[f] = struct{}{}
					files = append(files, f)
				}
			}
		}
		actions = append(actions, Action{
			Category:    CategoryArchitecture,
			Priority:    PriorityHigh,
			Title:       "Break circular dependencies",
			Description: fmt.Sprintf("%d dependency cycles involve %d files", len(cycles), len(files)),
			Targets:     limit(files),
			Impact:      recoverable(s.Architecture, w.Architecture),
		})
	}

	if pct := r.DeadCode.Summary.PercentageOfCodebase; pct > a.cfg.DeadCodeActionPct {
		actions = append(actions, Action{
			Category: CategoryDeadCode,
			Priority: PriorityMedium,
			Title:    "Remove dead code",
			Description: fmt.Sprintf("An estimated %.1f%% of the codebase (%d lines) is unused",
				pct, r.DeadCode.Summary.TotalDeadLines),
			Impact: recoverable(s.DeadCode, w.DeadCode),
		})
	}

	if r.Files > 0 && r.Coverage.LinePct < a.minLinePct {
		desc := fmt.Sprintf("Line coverage is %.1f%%, below the %.0f%% minimum", r.Coverage.LinePct, a.minLinePct)
		if !r.Coverage.Found {
			desc = "No coverage summary was found; the project has no measured test coverage"
		}
		actions = append(actions, Action{
			Category:    CategoryTesting,
			Priority:    PriorityHigh,
			Title:       "Increase test coverage",
			Description: desc,
			Impact:      recoverable(s.Coverage, w.Coverage),
		})
	}

	SortActions(actions)
	return actions
}

// SortActions orders actions by priority tier, then impact descending.
// Exact ties keep their original order.
func SortActions(actions []Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		ri, rj := actions[i].Priority.Rank(), actions[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return actions[i].Impact > actions[j].Impact
	})
}

func limit(items []string) []string {
	if len(items) > maxTargets {
		return items[:maxTargets]
	}
	return items
}

func joinTargets(items []string) string {
	s := strings.Join(limit(items), ", ")
	if len(items) > maxTargets {
		s += fmt.Sprintf(" and %d more", len(items)-maxTargets)
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
