// Package backfill turns complexity hotspots into a prioritized plan for
// adding tests before legacy code is changed.
package backfill

import (
	"sort"
	"strings"
	"time"

	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/config"
)

// Tier ranks how urgently a file needs tests.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// TestType is a kind of test to write.
type TestType string

const (
	TestUnit             TestType = "unit"
	TestIntegration      TestType = "integration"
	TestCharacterization TestType = "characterization"
	TestRegression       TestType = "regression"
)

// Priority weights.
const (
	riskWeight       = 0.4
	churnWeight      = 0.3
	complexityWeight = 0.3
)

// Item is one file in the plan.
type Item struct {
	Path       string     `json:"path"`
	Language   string     `json:"language"`
	Priority   float64    `json:"priority"`
	Tier       Tier       `json:"tier"`
	RiskScore  float64    `json:"risk_score"`
	Cyclomatic int        `json:"cyclomatic"`
	Churn      int        `json:"churn"`
	Coupling   int        `json:"coupling"`
	TestTypes  []TestType `json:"test_types"`
	Approach   string     `json:"approach"`
}

// Summary counts items per tier.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Plan is a test backfill plan.
type Plan struct {
	GeneratedAt time.Time `json:"generated_at"`
	Items       []Item    `json:"items"`
	Summary     Summary   `json:"summary"`
}

// Prioritize scores every hotspot and returns them highest priority first.
func Prioritize(hotspots []complexity.Hotspot, cfg config.BackfillConfig) *Plan {
	p := &Plan{
		GeneratedAt: time.Now().UTC(),
		Items:       make([]Item, 0, len(hotspots)),
	}
	for _, h := range hotspots {
		item := Item{
			Path:       h.Path,
			Language:   h.Language,
			Priority:   Score(h),
			Tier:       TierFor(h.RiskScore, cfg),
			RiskScore:  h.RiskScore,
			Cyclomatic: h.Cyclomatic,
			Churn:      h.Churn,
			Coupling:   h.Coupling,
			TestTypes:  TestTypes(h, cfg),
		}
		item.Approach = Approach(h, cfg)
		p.Items = append(p.Items, item)
		p.Summary.add(item.Tier)
	}

	sort.SliceStable(p.Items, func(i, j int) bool {
		if p.Items[i].Priority != p.Items[j].Priority {
			return p.Items[i].Priority > p.Items[j].Priority
		}
		return p.Items[i].Path < p.Items[j].Path
	})
	return p
}

func (s *Summary) add(t Tier) {
	s.Total++
	switch t {
	case TierCritical:
		s.Critical++
	case TierHigh:
		s.High++
	case TierMedium:
		s.Medium++
	default:
		s.Low++
	}
}

// Score is the weighted priority of a hotspot.
func Score(h complexity.Hotspot) float64 {
	return riskWeight*h.RiskScore + churnWeight*float64(h.Churn) + complexityWeight*float64(h.Cyclomatic)
}

// TierFor maps a risk score to a tier.
func TierFor(risk float64, cfg config.BackfillConfig) Tier {
	switch {
	case risk > cfg.CriticalRisk:
		return TierCritical
	case risk > cfg.HighRisk:
		return TierHigh
	case risk > cfg.MediumRisk:
		return TierMedium
	default:
		return TierLow
	}
}

// TestTypes lists the kinds of tests a hotspot needs. Unit tests are
// always included.
func TestTypes(h complexity.Hotspot, cfg config.BackfillConfig) []TestType {
	types := []TestType{TestUnit}
	if h.Coupling > cfg.IntegrationCoupling {
		types = append(types, TestIntegration)
	}
	if h.Cyclomatic > cfg.CharacterizationComplexity {
		types = append(types, TestCharacterization)
	}
	if h.Churn > cfg.RegressionChurn {
		types = append(types, TestRegression)
	}
	return types
}

// Approach describes how to write the tests.
func Approach(h complexity.Hotspot, cfg config.BackfillConfig) string {
	var parts []string
	if h.Cyclomatic > cfg.CharacterizationComplexity {
		parts = append(parts, "Pin current behavior with characterization tests before refactoring")
	}
	if h.Coupling > cfg.IntegrationCoupling {
		parts = append(parts, "cover collaborator boundaries with integration tests")
	}
	if h.Churn > cfg.RegressionChurn {
		parts = append(parts, "add regression tests for recently fixed defects")
	}
	if len(parts) == 0 {
		return "Add unit tests for the public surface"
	}
	parts[0] = strings.ToUpper(parts[0][:1]) + parts[0][1:]
	return strings.Join(parts, "; ")
}
