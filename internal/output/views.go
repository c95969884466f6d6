package output

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/revamp/pkg/analyzer/health"
	"github.com/panbanda/revamp/pkg/artifact/backfill"
	"github.com/panbanda/revamp/pkg/artifact/compat"
	"github.com/panbanda/revamp/pkg/artifact/datamigration"
	"github.com/panbanda/revamp/pkg/artifact/strangler"
	"github.com/panbanda/revamp/pkg/migration"
)

// maxRows caps list tables in human formats. Document formats are never
// truncated.
const maxRows = 15

var printer = message.NewPrinter(language.English)

func num(n int) string {
	return printer.Sprintf("%d", n)
}

func money(v float64, currency string) string {
	return printer.Sprintf("%.0f %s", v, currency)
}

func score(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// HealthView renders a health report.
func HealthView(r *health.Report) *Document {
	s := r.Scores
	summary := &Section{
		Title: "Summary",
		Lines: []string{
			fmt.Sprintf("Root:     %s", r.Root),
			fmt.Sprintf("Files:    %s (%s lines)", num(r.Files), num(r.TotalLines)),
			fmt.Sprintf("Overall:  %s (%s)", score(s.Overall), r.Grade()),
		},
	}

	scores := &Table{
		Title:   "Scores",
		Headers: []string{"Area", "Score"},
		Rows: [][]string{
			{"Dependencies", score(s.Dependencies)},
			{"Dead code", score(s.DeadCode)},
			{"Complexity", score(s.Complexity)},
			{"Architecture", score(s.Architecture)},
			{"Coverage", score(s.Coverage)},
		},
	}

	actions := &Table{Title: "Prioritized Actions", Headers: []string{"Priority", "Category", "Action", "Impact"}}
	for _, a := range r.PrioritizedActions {
		actions.Rows = append(actions.Rows, []string{string(a.Priority), string(a.Category), a.Title, score(a.Impact)})
	}

	hotspots := &Table{Title: "Complexity Hotspots", Headers: []string{"File", "Cyclomatic", "Churn", "Risk", "Recommendation"}}
	for i, h := range r.Complexity.Hotspots {
		if i == maxRows {
			break
		}
		hotspots.Rows = append(hotspots.Rows, []string{
			h.Path, num(h.Cyclomatic), num(h.Churn), score(h.RiskScore), string(h.Recommendation.Tier),
		})
	}

	smells := &Table{Title: "Architecture Smells", Headers: []string{"Severity", "Type", "Files"}}
	for i, sm := range r.Architecture.Smells {
		if i == maxRows {
			break
		}
		smells.Rows = append(smells.Rows, []string{string(sm.Severity), string(sm.Type), strings.Join(sm.Files, ", ")})
	}

	depTable := &Table{Title: "Dependencies Needing Attention", Headers: []string{"Package", "Version", "Age (days)", "Update", "EOL", "Vulnerable"}}
	for _, d := range r.Dependencies.Dependencies {
		if !d.IsEOL && !d.IsVulnerable() && d.UpdateType != "major" {
			continue
		}
		depTable.Rows = append(depTable.Rows, []string{
			d.Name, d.Version, num(d.AgeDays), string(d.UpdateType), yesNo(d.IsEOL), yesNo(d.IsVulnerable()),
		})
	}

	dc := r.DeadCode.Summary
	cov := r.Coverage
	details := &Section{
		Title: "Details",
		Lines: []string{
			fmt.Sprintf("Dead code: %d unused exports, %d unreachable files, %d deprecated usages (%.1f%% of codebase)",
				dc.UnusedExports, dc.UnreachableFiles, dc.DeprecatedUsages, dc.PercentageOfCodebase),
			fmt.Sprintf("Coverage:  lines %.1f%%, branches %.1f%%, functions %.1f%% (found: %s)",
				cov.LinePct, cov.BranchPct, cov.FunctionPct, yesNo(cov.Found)),
		},
	}

	parts := []Renderable{summary, scores, actions, hotspots, smells, depTable, details}
	if len(r.Warnings) > 0 {
		parts = append(parts, &Section{Title: "Warnings", Lines: r.Warnings})
	}
	return &Document{Title: "Legacy Health Report", Parts: parts, Data: r}
}

// PlanView renders a migration plan.
func PlanView(p *migration.Plan) *Document {
	strategy := p.Strategy.Title
	if p.Overridden {
		strategy += " (override)"
	}
	overview := &Section{
		Title: "Overview",
		Lines: []string{
			fmt.Sprintf("From:     %s", p.Current),
			fmt.Sprintf("To:       %s", p.Target),
			fmt.Sprintf("Strategy: %s", strategy),
			p.Strategy.Rationale,
		},
	}

	phases := &Table{Title: "Phases", Headers: []string{"#", "Phase", "Weeks", "Parallel"}}
	for _, ph := range p.Phases {
		phases.Rows = append(phases.Rows, []string{
			fmt.Sprintf("%d", ph.Index), ph.Name, fmt.Sprintf("%d-%d", ph.MinWeeks, ph.MaxWeeks), yesNo(ph.Parallelizable),
		})
	}

	risks := &Table{Title: "Risks", Headers: []string{"ID", "Risk", "Probability", "Impact"}}
	for _, r := range p.Risks {
		risks.Rows = append(risks.Rows, []string{r.ID, r.Title, string(r.Probability), string(r.Impact)})
	}

	t, c := p.Timeline, p.Cost
	estimate := &Section{
		Title: "Estimate",
		Lines: []string{
			fmt.Sprintf("Timeline: %d-%d weeks, %d-%d with %.0f%% buffer",
				t.MinWeeks, t.MaxWeeks, t.BufferedMinWeeks, t.BufferedMaxWeeks, t.BufferPercent),
			fmt.Sprintf("Engineering: %s hours, %s", printer.Sprintf("%.0f", c.EngineeringHours), money(c.EngineeringCost, c.Currency)),
			fmt.Sprintf("Total cost: %s", money(c.Total, c.Currency)),
		},
	}

	parts := []Renderable{overview, phases}
	if len(p.Modules) > 0 {
		mods := &Table{Title: "Modules", Headers: []string{"Module", "Files", "Risk"}}
		for _, m := range p.Modules {
			mods.Rows = append(mods.Rows, []string{m.Name, num(m.Files), score(m.Risk)})
		}
		parts = append(parts, mods)
	}
	parts = append(parts, risks, estimate)
	return &Document{Title: "Migration Plan", Parts: parts, Data: p}
}

// BackfillView renders a test backfill plan.
func BackfillView(p *backfill.Plan) *Document {
	items := &Table{Title: "Files", Headers: []string{"File", "Tier", "Priority", "Tests"}}
	for i, it := range p.Items {
		if i == maxRows {
			break
		}
		types := make([]string, len(it.TestTypes))
		for j, tt := range it.TestTypes {
			types[j] = string(tt)
		}
		items.Rows = append(items.Rows, []string{it.Path, string(it.Tier), score(it.Priority), strings.Join(types, ", ")})
	}
	s := p.Summary
	summary := &Section{
		Title: "Summary",
		Lines: []string{fmt.Sprintf("%d files: %d critical, %d high, %d medium, %d low",
			s.Total, s.Critical, s.High, s.Medium, s.Low)},
	}
	return &Document{Title: "Test Backfill Plan", Parts: []Renderable{summary, items}, Data: p}
}

// StranglerView renders a routing facade configuration.
func StranglerView(c *strangler.Config) *Document {
	routes := &Table{Title: "Routes", Headers: []string{"Method", "Path", "Target", "Percent", "Flag"}}
	for _, r := range c.Routes {
		routes.Rows = append(routes.Rows, []string{r.Method, r.Path, string(r.Target), score(r.Percentage), r.FeatureFlag})
	}
	backends := &Section{
		Title: "Backends",
		Lines: []string{
			"legacy: " + c.LegacyURL,
			"modern: " + c.ModernURL,
			"fallback: " + string(c.FallbackBehavior),
		},
	}
	return &Document{Title: "Strangler Fig Configuration", Parts: []Renderable{backends, routes}, Data: c}
}

// CompatView renders a compatibility layer.
func CompatView(l *compat.Layer) *Document {
	return &Document{
		Title: "Compatibility Layer: " + l.Name,
		Parts: []Renderable{
			&Section{Title: "Forward", Lines: l.ForwardLines},
			&Section{Title: "Reverse", Lines: l.ReverseLines},
		},
		Data: l,
	}
}

// DataMigrationView renders a data migration script.
func DataMigrationView(s *datamigration.Script) *Document {
	steps := &Table{Title: "Steps", Headers: []string{"#", "Step", "Minutes", "Reversible"}}
	for _, st := range s.Steps {
		steps.Rows = append(steps.Rows, []string{
			fmt.Sprintf("%d", st.Order), st.Name,
			fmt.Sprintf("%d-%d", st.Duration.MinMinutes, st.Duration.MaxMinutes), yesNo(st.Reversible),
		})
	}
	queries := &Table{Title: "Validation Queries", Headers: []string{"Check", "Expect"}}
	for _, q := range s.ValidationQueries {
		queries.Rows = append(queries.Rows, []string{q.Name, q.Expect})
	}
	overview := &Section{
		Title: "Overview",
		Lines: []string{
			fmt.Sprintf("%s -> %s in batches of %s", s.SourceTable, s.TargetTable, num(s.BatchSize)),
		},
	}
	return &Document{Title: "Data Migration: " + s.Name, Parts: []Renderable{overview, steps, queries}, Data: s}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
