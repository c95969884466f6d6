// Package smells detects circular dependencies and god files.
package smells

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/revamp/pkg/analyzer"
	"github.com/panbanda/revamp/pkg/config"
	"github.com/panbanda/revamp/pkg/external"
	"github.com/panbanda/revamp/pkg/parser"
	"github.com/panbanda/revamp/pkg/scanner"
	"github.com/panbanda/revamp/pkg/source"
)

// cycleConfigured is implemented by tools that know whether an external
// cycle detector is set up.
type cycleConfigured interface {
	HasCycleDetector() bool
}

// Detector finds architectural smells.
// This detector is safe for concurrent use.
type Detector struct {
	cfg     config.SmellConfig
	tool    external.Tool
	methods []*regexp.Regexp
	logger  *slog.Logger
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithTool sets the external tool used for cycle detection.
func WithTool(t external.Tool) Option {
	return func(d *Detector) {
		d.tool = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

// New creates a new smell detector.
func New(cfg config.SmellConfig, opts ...Option) *Detector {
	d := &Detector{
		cfg:     cfg,
		tool:    external.Nop{},
		methods: config.CompilePatterns(cfg.MethodPatterns),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Analyze detects cycles and god files. It never fails; tool problems are
// reported as warnings.
func (d *Detector) Analyze(ctx context.Context, scan *scanner.Result, src source.ContentSource) *Analysis {
	a := &Analysis{
		GeneratedAt: time.Now().UTC(),
		Smells:      []Smell{},
	}
	if scan == nil {
		a.Summary.CycleSource = CycleSourceNone
		return a
	}

	for _, c := range d.cycles(ctx, scan, src, a) {
		a.Smells = append(a.Smells, d.cycleSmell(c))
	}
	a.Smells = append(a.Smells, d.godFiles(scan, src, a)...)

	sort.SliceStable(a.Smells, func(i, j int) bool {
		return a.Smells[i].Severity.Weight() > a.Smells[j].Severity.Weight()
	})
	a.CalculateSummary()
	return a
}

func (d *Detector) useExternal() bool {
	if c, ok := d.tool.(cycleConfigured); ok {
		return c.HasCycleDetector()
	}
	_, isNop := d.tool.(external.Nop)
	return !isNop
}

func (d *Detector) cycles(ctx context.Context, scan *scanner.Result, src source.ContentSource, a *Analysis) []external.Cycle {
	if d.useExternal() {
		a.Summary.CycleSource = CycleSourceExternal
		cycles, err := d.tool.RunCycleDetector(ctx, scan.Root)
		if err != nil {
			msg := fmt.Sprintf("cycle detection failed: %v", err)
			if errors.Is(err, external.ErrToolUnavailable) {
				msg = "cycle detector not installed; circular dependencies not checked"
			}
			d.logger.Warn(msg)
			a.Warnings = append(a.Warnings, msg)
			return nil
		}
		return cycles
	}

	a.Summary.CycleSource = CycleSourceInternal
	paths := make([]string, len(scan.Files))
	for i, f := range scan.Files {
		paths[i] = f.Path
	}
	ig := NewImportGraph(paths)

	type imports struct {
		path    string
		content []byte
	}
	contents := analyzer.ForEachFile(scan.Files, func(f scanner.FileRecord) (imports, error) {
		data, err := src.Read(f.Path)
		if err != nil {
			return imports{}, err
		}
		return imports{path: f.Path, content: data}, nil
	}, nil)
	for _, c := range contents {
		ig.AddImports(c.path, c.content)
	}

	a.Summary.GraphNodes = ig.Nodes()
	a.Summary.GraphEdges = ig.Edges()
	return ig.Cycles()
}

// CycleSeverity grades a cycle by its member count.
func (d *Detector) CycleSeverity(members int) Severity {
	switch {
	case members > d.cfg.CriticalCycleSize:
		return SeverityCritical
	case members == d.cfg.CriticalCycleSize:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

func (d *Detector) cycleSmell(c external.Cycle) Smell {
	return Smell{
		Type:        TypeCircularDependency,
		Files:       []string(c),
		Severity:    d.CycleSeverity(len(c)),
		Description: fmt.Sprintf("Circular dependency: %s -> %s", strings.Join(c, " -> "), c[0]),
		Recommendation: "Break the cycle by extracting the shared contract into its own module " +
			"or inverting one dependency behind an interface.",
		Metrics: Metrics{CycleLength: len(c)},
	}
}

type godFileCount struct {
	record  scanner.FileRecord
	methods int
}

func (d *Detector) godFiles(scan *scanner.Result, src source.ContentSource, a *Analysis) []Smell {
	var large []scanner.FileRecord
	for _, f := range scan.Files {
		if f.Lines > d.cfg.GodFileLines {
			large = append(large, f)
		}
	}
	a.Summary.FilesInspected = len(large)

	counts := analyzer.MapFiles(large, func(psr *parser.Parser, f scanner.FileRecord) (godFileCount, error) {
		data, err := src.Read(f.Path)
		if err != nil {
			return godFileCount{}, err
		}
		return godFileCount{record: f, methods: d.CountMethods(psr, f, data)}, nil
	}, nil)

	var smells []Smell
	for _, c := range counts {
		if c.methods <= d.cfg.GodFileMethods {
			continue
		}
		severity := SeverityHigh
		if c.record.Lines > d.cfg.CriticalGodFileLines {
			severity = SeverityCritical
		}
		smells = append(smells, Smell{
			Type:        TypeGodFile,
			Files:       []string{c.record.Path},
			Severity:    severity,
			Description: fmt.Sprintf("God file: %d lines with %d methods", c.record.Lines, c.methods),
			Recommendation: "Split by responsibility: group related methods into cohesive modules " +
				"and move them behind a narrow interface.",
			Metrics: Metrics{Lines: c.record.Lines, Methods: c.methods},
		})
	}
	return smells
}

// CountMethods counts functions with tree-sitter when the grammar is
// known, falling back to the configured line patterns.
func (d *Detector) CountMethods(psr *parser.Parser, f scanner.FileRecord, content []byte) int {
	if lang := parser.ForFile(f.Language, f.Path); lang != parser.LangUnknown && psr != nil {
		if n, err := psr.CountMethods(content, lang, f.Path); err == nil {
			return n
		}
	}
	return d.countMethodLines(content)
}

func (d *Detector) countMethodLines(content []byte) int {
	n := 0
	for _, line := range strings.Split(string(content), "\n") {
		for _, re := range d.methods {
			if re.MatchString(line) {
				n++
				break
			}
		}
	}
	return n
}
