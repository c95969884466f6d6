package migration

import (
	"fmt"
	"strings"
)

// StrategyName identifies a migration pattern in the catalog.
type StrategyName string

const (
	StrategyStranglerFig        StrategyName = "strangler-fig"
	StrategyBranchByAbstraction StrategyName = "branch-by-abstraction"
	StrategyParallelRun         StrategyName = "parallel-run"
	StrategyExpandContract      StrategyName = "expand-contract"
	StrategyFeatureToggle       StrategyName = "feature-toggle"
)

// Strategy is a catalog entry describing a migration pattern.
type Strategy struct {
	Name            StrategyName `json:"name"`
	Title           string       `json:"title"`
	Rationale       string       `json:"rationale"`
	Prerequisites   []string     `json:"prerequisites"`
	Constraints     []string     `json:"constraints"`
	SuccessCriteria []string     `json:"success_criteria"`

	abstraction []string
	cutover     string
	rollback    string
}

var catalog = []Strategy{
	{
		Name:      StrategyStranglerFig,
		Title:     "Strangler Fig",
		Rationale: "Moving from a monolith to a distributed architecture is safest when a routing facade sends traffic to new services one route at a time while the legacy system keeps serving the rest.",
		Prerequisites: []string{
			"HTTP routing layer or API gateway in front of the legacy system",
			"Route inventory with traffic volumes",
			"Feature flag service able to split traffic by percentage",
		},
		Constraints: []string{
			"Shared database tables must stay backward compatible until their last reader moves",
			"Session state must be readable by both stacks",
		},
		SuccessCriteria: []string{
			"All routes served by the modern system at 100% traffic",
			"Legacy system receives no traffic for two release cycles",
			"Error rate and latency at or below legacy baseline",
		},
		abstraction: []string{
			"Deploy a routing facade in front of the legacy application",
			"Proxy every route to legacy with no behavior change",
			"Add per-route traffic split flags defaulting to legacy",
		},
		cutover:  "shift route traffic through the facade",
		rollback: "Flip the route flag back to legacy; the facade keeps serving from the untouched legacy backend.",
	},
	{
		Name:      StrategyBranchByAbstraction,
		Title:     "Branch by Abstraction",
		Rationale: "When the architecture stays the same but a framework or library changes, an interface placed in front of the old implementation lets both versions live in one codebase and ship continuously.",
		Prerequisites: []string{
			"Seams where callers can be pointed at an interface",
			"Unit test coverage around the component being replaced",
			"Dependency injection or a factory to select implementations",
		},
		Constraints: []string{
			"Both implementations must satisfy the same interface contract",
			"Trunk must stay releasable throughout",
		},
		SuccessCriteria: []string{
			"All callers use the abstraction",
			"Legacy implementation deleted with no caller changes",
			"Contract tests pass for the new implementation",
		},
		abstraction: []string{
			"Introduce an interface over the component being replaced",
			"Move all callers to the interface with the legacy implementation behind it",
			"Add contract tests that run against both implementations",
		},
		cutover:  "switch callers to the new implementation behind the abstraction",
		rollback: "Point the abstraction back at the legacy implementation, which remains compiled in until decommission.",
	},
	{
		Name:      StrategyParallelRun,
		Title:     "Parallel Run",
		Rationale: "A database change puts data correctness at risk, so the new path runs alongside the old one and results are compared before any reads move.",
		Prerequisites: []string{
			"Dual-write capability to both data stores",
			"Reconciliation job comparing row counts and checksums",
			"Read path switchable per module",
		},
		Constraints: []string{
			"Writes must be idempotent to tolerate replays",
			"Comparison overhead must fit the latency budget",
		},
		SuccessCriteria: []string{
			"Zero unexplained mismatches for 14 consecutive days",
			"All reads served from the new store",
			"Legacy store archived and decommissioned",
		},
		abstraction: []string{
			"Introduce a repository layer that can dual-write",
			"Deploy a shadow comparison harness logging mismatches",
			"Backfill historical data into the new store",
		},
		cutover:  "move reads to the new store once mismatches reach zero",
		rollback: "Switch reads back to the legacy store; dual writes keep it current.",
	},
	{
		Name:      StrategyExpandContract,
		Title:     "Expand and Contract",
		Rationale: "Schema and API changes ship in three steps: expand to accept both shapes, migrate every consumer, then contract to the new shape.",
		Prerequisites: []string{
			"Versioned schema migrations",
			"Inventory of every consumer of the changed contract",
		},
		Constraints: []string{
			"Old and new shapes coexist for at least one full release",
			"Contract step only after every consumer has migrated",
		},
		SuccessCriteria: []string{
			"No reads or writes against the old shape",
			"Old columns and fields dropped",
		},
		abstraction: []string{
			"Expand schemas and APIs to accept both old and new shapes",
			"Write to both shapes on every change",
		},
		cutover:  "migrate consumers to the new shape",
		rollback: "Consumers fall back to the old shape, which is kept populated until contraction.",
	},
	{
		Name:      StrategyFeatureToggle,
		Title:     "Feature Toggle",
		Rationale: "Small, well-isolated changes can ship dark behind toggles and be enabled per cohort without a routing layer.",
		Prerequisites: []string{
			"Feature flag service with per-cohort targeting",
			"Flag cleanup process",
		},
		Constraints: []string{
			"Toggle count must stay small to keep the test matrix tractable",
		},
		SuccessCriteria: []string{
			"All toggles at 100% and removed from code",
		},
		abstraction: []string{
			"Wrap each changed code path in a toggle defaulting off",
			"Add monitoring dashboards split by toggle state",
		},
		cutover:  "enable toggles cohort by cohort",
		rollback: "Turn the toggle off; the legacy path remains in place.",
	},
}

// Strategies returns the full catalog.
func Strategies() []Strategy {
	out := make([]Strategy, len(catalog))
	copy(out, catalog)
	return out
}

// LookupStrategy finds a catalog entry by name.
func LookupStrategy(name StrategyName) (Strategy, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Strategy{}, false
}

// SelectStrategy picks a pattern from the difference between two profiles.
func SelectStrategy(current, target TechnologyProfile) StrategyName {
	archChanged := current.Architecture != target.Architecture
	switch {
	case archChanged && current.Architecture == ArchMonolith:
		return StrategyStranglerFig
	case !archChanged && !strings.EqualFold(current.Framework, target.Framework):
		return StrategyBranchByAbstraction
	case !strings.EqualFold(current.Database, target.Database):
		return StrategyParallelRun
	default:
		return StrategyBranchByAbstraction
	}
}

func strategyNames() string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = string(s.Name)
	}
	return strings.Join(names, ", ")
}

func unknownStrategy(name string) error {
	return &ProfileError{
		Profile:  "strategy",
		Problems: []string{fmt.Sprintf("unknown strategy %q, want one of: %s", name, strategyNames())},
	}
}
