// Package assess runs the scanner and the five analyzers over a project and
// aggregates their output into a health report.
package assess

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/panbanda/revamp/internal/cache"
	"github.com/panbanda/revamp/internal/progress"
	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/analyzer/coverage"
	"github.com/panbanda/revamp/pkg/analyzer/deadcode"
	"github.com/panbanda/revamp/pkg/analyzer/deps"
	"github.com/panbanda/revamp/pkg/analyzer/health"
	"github.com/panbanda/revamp/pkg/analyzer/smells"
	"github.com/panbanda/revamp/pkg/config"
	"github.com/panbanda/revamp/pkg/external"
	"github.com/panbanda/revamp/pkg/migration"
	"github.com/panbanda/revamp/pkg/scanner"
	"github.com/panbanda/revamp/pkg/source"
)

// Stages is the number of progress ticks in one assessment.
const Stages = 6

// Service orchestrates a full assessment.
type Service struct {
	config  *config.Config
	tool    external.Tool
	cache   *cache.Cache
	oracle  deps.AgeOracle
	tracker *progress.Tracker
	logger  *slog.Logger
	health  []health.Option
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithTool replaces the external tool adapter.
func WithTool(t external.Tool) Option {
	return func(s *Service) {
		s.tool = t
	}
}

// WithCache sets the analysis cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithOracle replaces the dependency age oracle.
func WithOracle(o deps.AgeOracle) Option {
	return func(s *Service) {
		s.oracle = o
	}
}

// WithProgress reports stage completion to t.
func WithProgress(t *progress.Tracker) Option {
	return func(s *Service) {
		s.tracker = t
	}
}

// WithHealthOptions passes options to the health aggregator.
func WithHealthOptions(opts ...health.Option) Option {
	return func(s *Service) {
		s.health = append(s.health, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates an assessment service. Without WithTool it shells out using
// the configured external commands.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		cache:  cache.Disabled(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tool == nil {
		s.tool = external.New(s.config.External, external.WithLogger(s.logger))
	}
	return s
}

// Request selects the project and optional input files.
type Request struct {
	Root string
	// Manifest overrides manifest discovery in Root.
	Manifest string
	// Coverage overrides the configured coverage summary path.
	Coverage string
}

// Result holds the scan and the aggregated report.
type Result struct {
	Scan   *scanner.Result
	Report *health.Report
}

// Run scans the project, runs the analyzers concurrently and aggregates
// them. Only an unusable root is an error.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	scan, err := scanner.New(s.config,
		scanner.WithTool(s.tool),
		scanner.WithCache(s.cache),
		scanner.WithLogger(s.logger),
	).Scan(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	s.tracker.Tick()

	src := source.NewCached(source.NewFilesystem(scan.Root))

	var (
		depResult   *deps.Analysis
		deadResult  *deadcode.Analysis
		cxResult    *complexity.Analysis
		smellResult *smells.Analysis
		covResult   *coverage.Summary
	)

	wg := conc.NewWaitGroup()
	wg.Go(func() {
		defer s.tracker.Tick()
		depResult = s.dependencies(scan.Root, req.Manifest)
	})
	wg.Go(func() {
		defer s.tracker.Tick()
		deadResult = deadcode.New(s.config.DeadCode, deadcode.WithLogger(s.logger)).Analyze(scan, src)
	})
	wg.Go(func() {
		defer s.tracker.Tick()
		cxResult = complexity.New(s.config.Complexity,
			complexity.WithCache(s.cache),
			complexity.WithLogger(s.logger),
		).Analyze(scan, src)
	})
	wg.Go(func() {
		defer s.tracker.Tick()
		smellResult = smells.New(s.config.Smells,
			smells.WithTool(s.tool),
			smells.WithLogger(s.logger),
		).Analyze(ctx, scan, src)
	})
	wg.Go(func() {
		defer s.tracker.Tick()
		cfg := s.config.Coverage
		if req.Coverage != "" {
			cfg.Path = req.Coverage
		}
		covResult = coverage.New(cfg, coverage.WithLogger(s.logger)).Read(scan.Root)
	})
	wg.Wait()

	var warnings []string
	warnings = append(warnings, scan.Warnings...)
	warnings = append(warnings, depResult.Warnings...)
	warnings = append(warnings, smellResult.Warnings...)
	warnings = append(warnings, covResult.Warnings...)

	opts := append([]health.Option{health.WithLogger(s.logger)}, s.health...)
	report := health.New(s.config, opts...).Aggregate(health.Inputs{
		Root:         scan.Root,
		Files:        len(scan.Files),
		TotalLines:   scan.TotalLines,
		Dependencies: depResult,
		DeadCode:     deadResult,
		Complexity:   cxResult,
		Architecture: smellResult,
		Coverage:     covResult,
		Warnings:     warnings,
	})

	s.logger.Info("assessment complete",
		"root", scan.Root,
		"files", len(scan.Files),
		"overall", report.Scores.Overall,
		"warnings", len(report.Warnings))
	return &Result{Scan: scan, Report: report}, nil
}

func (s *Service) dependencies(root, manifest string) *deps.Analysis {
	var opts []deps.Option
	opts = append(opts, deps.WithLogger(s.logger))
	if s.oracle != nil {
		opts = append(opts, deps.WithOracle(s.oracle))
	}
	a := deps.New(s.config.Dependencies, opts...)

	if manifest == "" {
		manifest = deps.FindManifest(root)
	}
	if manifest == "" {
		s.logger.Info("no dependency manifest found", "root", root)
		return deps.Empty()
	}
	return a.AnalyzeFile(manifest)
}

// Modules groups scanned files by top-level directory into migration
// modules. Each module's risk is the mean hotspot risk of its files, and
// files at the root form the module "root".
func Modules(scan *scanner.Result, cx *complexity.Analysis) []migration.Module {
	if scan == nil {
		return nil
	}
	risk := make(map[string]float64)
	if cx != nil {
		for _, h := range cx.Hotspots {
			risk[h.Path] = h.RiskScore
		}
	}

	type agg struct {
		files int
		risk  float64
	}
	groups := make(map[string]*agg)
	for _, f := range scan.Files {
		id := topLevel(f.Path)
		g, ok := groups[id]
		if !ok {
			g = &agg{}
			groups[id] = g
		}
		g.files++
		g.risk += risk[f.Path]
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	modules := make([]migration.Module, 0, len(ids))
	for _, id := range ids {
		g := groups[id]
		modules = append(modules, migration.Module{
			ID:    id,
			Name:  id,
			Files: g.files,
			Risk:  g.risk / float64(g.files),
		})
	}
	return modules
}

func topLevel(p string) string {
	p = path.Clean(p)
	if i := strings.IndexByte(p, '/'); i > 0 {
		return p[:i]
	}
	return "root"
}
