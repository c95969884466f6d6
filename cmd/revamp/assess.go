package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/revamp/internal/cache"
	"github.com/panbanda/revamp/internal/output"
	"github.com/panbanda/revamp/internal/progress"
	"github.com/panbanda/revamp/internal/report"
	"github.com/panbanda/revamp/internal/service/assess"
	"github.com/panbanda/revamp/pkg/config"
)

func assessCmd() *cli.Command {
	return &cli.Command{
		Name:      "assess",
		Aliases:   []string{"health"},
		Usage:     "Score the health of a legacy codebase",
		ArgsUsage: "[path]",
		Description: `Scans the project, runs the dependency, dead code, complexity,
architecture and coverage analyzers in parallel and combines them into a
weighted 0-100 health score with prioritized actions.

Examples:
  revamp assess
  revamp assess ./legacy-app --coverage coverage/coverage-summary.json
  revamp -f json assess . --save --parquet hotspots.parquet`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Dependency manifest (discovered in the project root if empty)",
			},
			&cli.StringFlag{
				Name:  "coverage",
				Usage: "Coverage summary JSON (default from config)",
			},
			&cli.StringFlag{
				Name:  "parquet",
				Usage: "Also write complexity hotspots to this parquet file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the analysis cache",
			},
		}, saveFlags()...),
		Action: runAssessCmd,
	}
}

func runAssessCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	f, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := runAssessment(ctx, c, cfg, getPath(c))
	if err != nil {
		return err
	}

	if err := f.Output(output.HealthView(res.Report)); err != nil {
		return err
	}
	if path := c.String("parquet"); path != "" && res.Report.Complexity != nil {
		if err := report.WriteParquet(report.HotspotRows(res.Report.Complexity.Hotspots), path); err != nil {
			return err
		}
		status(c).Success("Wrote %d hotspots to %s", len(res.Report.Complexity.Hotspots), path)
	}
	return maybeSave(c, cfg, report.KindHealthReport, res.Report)
}

// runAssessment wires cache, progress and logging around the assess service.
func runAssessment(ctx context.Context, c *cli.Context, cfg *config.Config, root string) (*assess.Result, error) {
	logger := newLogger(c)

	enabled := cfg.Cache.Enabled && !c.Bool("no-cache")
	dir := cfg.Cache.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	store, err := cache.New(dir, cfg.Cache.TTL, enabled)
	if err != nil {
		logger.Warn("cache unavailable", "dir", dir, "error", err)
		store = cache.Disabled()
	}

	tracker := progress.New("Assessing "+root, assess.Stages, stderr(c))
	svc := assess.New(
		assess.WithConfig(cfg),
		assess.WithCache(store),
		assess.WithProgress(tracker),
		assess.WithLogger(logger),
	)
	res, err := svc.Run(ctx, assess.Request{
		Root:     root,
		Manifest: c.String("manifest"),
		Coverage: c.String("coverage"),
	})
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()
	return res, nil
}
