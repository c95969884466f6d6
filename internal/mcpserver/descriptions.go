package mcpserver

// Tool descriptions carry interpretation guidance for the calling model.

func describeAssessHealth() string {
	return `Runs a full legacy health assessment: dependencies, dead code, complexity, architecture smells and test coverage, combined into a weighted 0-100 score.

USE WHEN:
- Starting work on an unfamiliar legacy codebase
- Deciding whether a system needs modernization at all
- Producing a baseline before a migration starts
- Choosing what to fix first

INTERPRETING RESULTS:
- overall >= 90 is grade A, >= 80 B, >= 70 C, >= 60 D, below that F
- Each sub-score is 0-100; higher is healthier
- prioritized_actions are ordered by priority then impact; impact is the score the action can recover
- warnings list analyzers that degraded (missing tools, unreadable manifests); their sections still score
- A score below 50 marks the system as high risk for any migration

METRICS RETURNED:
- scores: dead_code, dependencies, complexity, architecture, coverage, overall
- dependencies: outdated packages with severity, advisories, license issues, cycles
- dead_code: unused exports, unreachable files, deprecated usages
- complexity: hotspots with cyclomatic, churn and risk score
- architecture: god classes, long functions, feature envy, primitive obsession
- coverage: line, branch and function percentages`
}

func describeComplexity() string {
	return `Finds complexity hotspots: files where high cyclomatic complexity meets frequent change.

USE WHEN:
- Picking refactoring candidates
- Finding the files most likely to break during a migration
- Deciding where characterization tests are needed first

INTERPRETING RESULTS:
- risk_score = 0.4 * cyclomatic + 0.3 * (lines / 100) + 0.3 * churn with the default weights
- Cyclomatic above the high threshold (default 20) counts as a violation
- recommendation is the first matching tier: critical, decompose, split, stabilize or monitor
- churn is the number of commits touching the file in the churn window; 0 outside a git repository
- correlations list files with churn above 5 and cyclomatic above 10, scored churn * cyclomatic / 100

METRICS RETURNED:
- hotspots: path, language, lines, cyclomatic, churn, coupling, risk_score, recommendation
- summary: files analyzed, average, max and p90 cyclomatic, violations, critical files
- hotspots are sorted by risk score, highest first; use top to limit the list`
}

func describePlanMigration() string {
	return `Builds a phased migration plan between two technology profiles: strategy, phases, risks, rollback, timeline and cost.

USE WHEN:
- Scoping a rewrite or platform move
- Comparing the cost of a big-bang cutover with an incremental strangler
- Preparing a risk register and rollback runbook

INTERPRETING RESULTS:
- strategy is chosen from the profiles unless one is forced; overridden is true when forced
- phases list entry and exit criteria; parallelizable phases can overlap
- Pass health_score from assess_health: below 50 raises the probability of regression and schedule risks
- timeline buffered weeks already include the configured buffer
- cost.total includes contingency; hours come from the configured hours per phase

METRICS RETURNED:
- strategy, phases, modules and waves, risks with mitigation
- rollback triggers and checklist
- timeline (min/max weeks, buffered), cost breakdown with currency`
}

func describeBackfill() string {
	return `Ranks source files for test backfill before a migration, with the test types to write for each.

USE WHEN:
- A legacy system has little or no test coverage
- Planning a safety net before refactoring or migrating
- Assigning testing work across a team

INTERPRETING RESULTS:
- priority = 0.4 * risk_score + 0.3 * churn + 0.3 * cyclomatic
- Tiers by risk score: above 8 critical, above 5 high, above 3 medium, else low
- test_types: unit always, integration when coupling > 5, characterization when cyclomatic > 20, regression when churn > 20
- approach is a one-line plan for the file

METRICS RETURNED:
- items: path, priority, tier, risk_score, cyclomatic, churn, coupling, test_types, approach
- summary: counts per tier`
}

func describeStrangler() string {
	return `Generates routing facade configuration for a strangler fig migration: routes, per-route feature flags and backend health checks.

USE WHEN:
- Moving endpoints one at a time from a legacy service to a modern one
- Setting up percentage rollouts for migrated routes
- Writing the initial facade config for a proxy or gateway

INTERPRETING RESULTS:
- Every route gets a feature flag named route_<method>_<path>; percentage is the modern share
- Percentages are clamped to 0-100
- Rules without a method match ANY method
- Unmatched traffic falls back to the legacy backend

METRICS RETURNED:
- routes, feature_flags, health_checks for both backends, fallback_behavior`
}
