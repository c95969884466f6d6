package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/revamp/internal/output"
	"github.com/panbanda/revamp/internal/report"
	"github.com/panbanda/revamp/internal/service/assess"
	"github.com/panbanda/revamp/pkg/analyzer/health"
	"github.com/panbanda/revamp/pkg/migration"
	"github.com/panbanda/revamp/pkg/scanner"
)

func planCmd() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Build a phased migration plan between two technology profiles",
		Description: `Reads the current and target technology profiles (TOML, YAML or JSON),
selects a strategy and produces phases, risks, rollback procedures, a
timeline and a cost estimate.

A saved health report adds the overall score (low scores raise risk
probabilities) and derives migration modules from its hotspots.

Examples:
  revamp plan --current current.yaml --target target.yaml
  revamp plan --current current.yaml --target target.yaml --strategy big-bang
  revamp plan --current c.toml --target t.toml --from-report revamp-reports/health-report-20260314-150926.json`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "current",
				Usage:    "Current technology profile",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "target",
				Usage:    "Target technology profile",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Force a strategy instead of selecting one",
			},
			&cli.StringFlag{
				Name:  "from-report",
				Usage: "Saved health report (json or yaml)",
			},
		}, saveFlags()...),
		Action: runPlanCmd,
	}
}

func runPlanCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}

	current, err := migration.LoadProfile(c.String("current"))
	if err != nil {
		return err
	}
	target, err := migration.LoadProfile(c.String("target"))
	if err != nil {
		return err
	}

	req := migration.Request{
		Current:  current,
		Target:   target,
		Strategy: migration.StrategyName(c.String("strategy")),
	}
	if path := c.String("from-report"); path != "" {
		var rep health.Report
		if err := report.Load(path, &rep); err != nil {
			return err
		}
		overall := rep.Scores.Overall
		req.HealthScore = &overall
		req.Modules = modulesFromReport(&rep)
	}

	plan, err := migration.New(cfg.Migration, migration.WithLogger(newLogger(c))).Plan(req)
	if err != nil {
		return fmt.Errorf("plan migration: %w", err)
	}
	if err := f.Output(output.PlanView(plan)); err != nil {
		return err
	}
	return maybeSave(c, cfg, report.KindMigrationPlan, plan)
}

// modulesFromReport groups the report's hotspots into modules. Files the
// complexity analyzer skipped are not in the report and do not count.
func modulesFromReport(rep *health.Report) []migration.Module {
	if rep.Complexity == nil {
		return nil
	}
	scan := &scanner.Result{Root: rep.Root}
	for _, h := range rep.Complexity.Hotspots {
		scan.Files = append(scan.Files, scanner.FileRecord{Path: h.Path, Language: h.Language, Lines: h.Lines})
	}
	return assess.Modules(scan, rep.Complexity)
}
