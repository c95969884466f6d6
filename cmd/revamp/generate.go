package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/revamp/internal/output"
	"github.com/panbanda/revamp/internal/report"
	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/artifact/backfill"
	"github.com/panbanda/revamp/pkg/artifact/compat"
	"github.com/panbanda/revamp/pkg/artifact/datamigration"
	"github.com/panbanda/revamp/pkg/artifact/strangler"
)

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Generator input (TOML, YAML, or JSON)",
		Required: true,
	}
}

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate migration artifacts",
		Subcommands: []*cli.Command{
			{
				Name:   "strangler",
				Usage:  "Routing facade config with per-route feature flags",
				Flags:  append([]cli.Flag{inputFlag()}, saveFlags()...),
				Action: runStranglerCmd,
			},
			{
				Name:  "adapter",
				Usage: "Compatibility layer between legacy and modern record shapes",
				Flags: append([]cli.Flag{
					inputFlag(),
					&cli.StringFlag{
						Name:  "lang",
						Usage: "Emit adapter source instead of the mapping document: ts or go",
					},
				}, saveFlags()...),
				Action: runAdapterCmd,
			},
			{
				Name:  "data-migration",
				Usage: "Batched, reversible table migration script",
				Flags: append([]cli.Flag{
					inputFlag(),
					&cli.StringFlag{
						Name:  "sql-dir",
						Usage: "Also write numbered up/down SQL files to this directory",
					},
					&cli.IntFlag{
						Name:  "version",
						Value: 1,
						Usage: "Number of the first SQL file written to --sql-dir",
					},
				}, saveFlags()...),
				Action: runDataMigrationCmd,
			},
			{
				Name:      "backfill",
				Usage:     "Prioritized test backfill plan from complexity hotspots",
				ArgsUsage: "[path]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "parquet",
						Usage: "Also write plan items to this parquet file",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Disable the analysis cache",
					},
				}, saveFlags()...),
				Action: runBackfillCmd,
			},
		},
	}
}

func runStranglerCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	in, err := strangler.LoadInput(c.String("input"))
	if err != nil {
		return err
	}
	out, err := strangler.Generate(in)
	if err != nil {
		return err
	}
	if err := f.Output(output.StranglerView(out)); err != nil {
		return err
	}
	return maybeSave(c, cfg, report.KindStranglerConfig, out)
}

func runAdapterCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	in, err := compat.LoadInput(c.String("input"))
	if err != nil {
		return err
	}
	layer, err := compat.Build(in.Name, in.Mappings)
	if err != nil {
		return err
	}
	if err := layer.Check(); err != nil {
		status(c).Warning("%v; the generated adapter declares it for you to implement", err)
	}

	if lang := c.String("lang"); lang != "" {
		src, err := compat.Render(layer, compat.Lang(lang))
		if err != nil {
			return err
		}
		fmt.Fprint(stdout(c), src)
	} else if err := f.Output(output.CompatView(layer)); err != nil {
		return err
	}
	return maybeSave(c, cfg, report.KindCompatibilityLayer, layer)
}

func runDataMigrationCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	in, err := datamigration.LoadInput(c.String("input"))
	if err != nil {
		return err
	}
	script, err := datamigration.New(cfg.Migration).Generate(in)
	if err != nil {
		return err
	}
	if err := f.Output(output.DataMigrationView(script)); err != nil {
		return err
	}

	if dir := c.String("sql-dir"); dir != "" {
		files := script.Files(c.Int("version"))
		if err := writeSQLFiles(dir, files); err != nil {
			return err
		}
		status(c).Success("Wrote %d SQL files to %s", len(files), dir)
	}
	return maybeSave(c, cfg, report.KindDataMigration, script)
}

func writeSQLFiles(dir string, files []datamigration.File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sql dir: %w", err)
	}
	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file.Name), []byte(file.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file.Name, err)
		}
	}
	return nil
}

func runBackfillCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	res, err := runAssessment(c.Context, c, cfg, getPath(c))
	if err != nil {
		return err
	}

	var hotspots []complexity.Hotspot
	if res.Report.Complexity != nil {
		hotspots = res.Report.Complexity.Hotspots
	}
	plan := backfill.Prioritize(hotspots, cfg.Backfill)
	if err := f.Output(output.BackfillView(plan)); err != nil {
		return err
	}
	if path := c.String("parquet"); path != "" {
		if err := report.WriteParquet(report.BackfillRows(plan), path); err != nil {
			return err
		}
		status(c).Success("Wrote %d backfill items to %s", len(plan.Items), path)
	}
	return maybeSave(c, cfg, report.KindTestBackfillPlan, plan)
}
