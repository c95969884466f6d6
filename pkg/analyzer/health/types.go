package health

import (
	"time"

	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/analyzer/coverage"
	"github.com/panbanda/revamp/pkg/analyzer/deadcode"
	"github.com/panbanda/revamp/pkg/analyzer/deps"
	"github.com/panbanda/revamp/pkg/analyzer/smells"
)

// Priority is the urgency tier of an action.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities, lower is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Category groups actions by the analyzer that raised them.
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryDependencies Category = "dependencies"
	CategoryComplexity   Category = "complexity"
	CategoryArchitecture Category = "architecture"
	CategoryDeadCode     Category = "dead_code"
	CategoryTesting      Category = "testing"
)

// Action is a recommended remediation step.
type Action struct {
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Targets     []string `json:"targets,omitempty"`
	// Impact is the number of overall score points the fix would recover.
	Impact float64 `json:"impact"`
}

// Scores holds the 0-100 sub-scores and their weighted overall.
type Scores struct {
	DeadCode     float64 `json:"dead_code"`
	Dependencies float64 `json:"dependencies"`
	Complexity   float64 `json:"complexity"`
	Architecture float64 `json:"architecture"`
	Coverage     float64 `json:"coverage"`
	Overall      float64 `json:"overall"`
}

// Inputs are the analyzer outputs the aggregator combines. Nil sections
// count as clean.
type Inputs struct {
	Root         string
	Files        int
	TotalLines   int
	Dependencies *deps.Analysis
	DeadCode     *deadcode.Analysis
	Complexity   *complexity.Analysis
	Architecture *smells.Analysis
	Coverage     *coverage.Summary
	Warnings     []string
}

// Report is the complete health assessment of a project.
type Report struct {
	ID                 string               `json:"id"`
	GeneratedAt        time.Time            `json:"generated_at"`
	Root               string               `json:"root"`
	Files              int                  `json:"files"`
	TotalLines         int                  `json:"total_lines"`
	Scores             Scores               `json:"scores"`
	Dependencies       *deps.Analysis       `json:"dependencies"`
	DeadCode           *deadcode.Analysis   `json:"dead_code"`
	Complexity         *complexity.Analysis `json:"complexity"`
	Architecture       *smells.Analysis     `json:"architecture"`
	Coverage           *coverage.Summary    `json:"coverage"`
	PrioritizedActions []Action             `json:"prioritized_actions"`
	Warnings           []string             `json:"warnings"`
}

// Grade maps the overall score to a letter grade.
func (r *Report) Grade() string {
	switch s := r.Scores.Overall; {
	case s >= 90:
		return "A"
	case s >= 80:
		return "B"
	case s >= 70:
		return "C"
	case s >= 60:
		return "D"
	default:
		return "F"
	}
}
