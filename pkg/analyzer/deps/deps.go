// Package deps assesses the age, end-of-life status and known
// vulnerabilities of a project's declared dependencies.
package deps

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/panbanda/revamp/pkg/config"
)

// Analyzer classifies dependencies and scores their health.
type Analyzer struct {
	cfg    config.DependencyConfig
	oracle AgeOracle
	vulns  VulnerabilitySource
	logger *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithOracle replaces the age oracle.
func WithOracle(o AgeOracle) Option {
	return func(a *Analyzer) {
		a.oracle = o
	}
}

// WithVulnerabilitySource replaces the advisory lookup.
func WithVulnerabilitySource(v VulnerabilitySource) Option {
	return func(a *Analyzer) {
		a.vulns = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates a dependency analyzer. By default ages come from the
// configured pins backed by a heuristic oracle for the manifest's
// ecosystem, and advisories from the configured table.
func New(cfg config.DependencyConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:    cfg,
		vulns:  NewAdvisoryTable(cfg.Advisories),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeFile loads a manifest and analyzes it. An unreadable or
// unparsable manifest yields an empty analysis with a warning.
func (a *Analyzer) AnalyzeFile(path string) *Analysis {
	m, err := LoadManifest(path)
	if err != nil {
		msg := fmt.Sprintf("dependency manifest unusable, treating as no dependencies: %v", err)
		a.logger.Warn(msg)
		result := Empty()
		result.Manifest = path
		result.Warnings = append(result.Warnings, msg)
		return result
	}
	return a.Analyze(m)
}

// Analyze assesses every dependency in the manifest.
func (a *Analyzer) Analyze(m *Manifest) *Analysis {
	result := Empty()
	if m == nil {
		return result
	}
	result.Manifest = m.Path
	result.Ecosystem = m.Ecosystem

	oracle := a.oracle
	if oracle == nil {
		oracle = NewStaticOracle(a.cfg.KnownAges, NewHeuristicOracle(a.cfg, m.Ecosystem))
	}

	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry := a.assess(oracle, name, m.Dependencies[name])
		result.Dependencies = append(result.Dependencies, entry)

		if entry.IsEOL {
			result.EOLDependencies = append(result.EOLDependencies, name)
		}
		if entry.IsVulnerable() {
			result.VulnerableDependencies = append(result.VulnerableDependencies, name)
		}
		if entry.UpdateType == UpdateMajor {
			result.MajorUpgradesAvailable = append(result.MajorUpgradesAvailable, name)
		}
		if entry.UpdateType != UpdatePatch {
			result.OutdatedCount++
		}
	}

	result.Score = Score(result.Dependencies, a.cfg.Penalties)
	result.GeneratedAt = time.Now().UTC()
	return result
}

func (a *Analyzer) assess(oracle AgeOracle, name, declared string) Entry {
	version := NormalizeVersion(declared)
	age := max(0, oracle.EstimateAge(name, version))
	isEOL, update := Classify(age, a.cfg)

	vulns := a.vulns.Lookup(name, version)
	if vulns == nil {
		vulns = []Vulnerability{}
	}

	entry := Entry{
		Name:            name,
		DeclaredVersion: declared,
		Version:         version,
		AgeDays:         age,
		IsEOL:           isEOL,
		Vulnerabilities: vulns,
		UpdateType:      update,
	}
	entry.MigrationEffort = effortFor(entry)
	return entry
}

// Classify maps an age to the end-of-life flag and update type. Both are
// monotonic step functions of age.
func Classify(ageDays int, cfg config.DependencyConfig) (bool, UpdateType) {
	isEOL := ageDays > cfg.EOLDays

	switch {
	case ageDays > cfg.MajorDays:
		return isEOL, UpdateMajor
	case ageDays > cfg.MinorDays:
		return isEOL, UpdateMinor
	default:
		return isEOL, UpdatePatch
	}
}

func effortFor(e Entry) Effort {
	switch {
	case e.IsEOL || e.IsVulnerable():
		return EffortHigh
	case e.UpdateType == UpdateMajor:
		return EffortMedium
	default:
		return EffortLow
	}
}

// Score computes the dependency health score. Each penalty weight is
// scaled by the fraction of dependencies in that condition; the result is
// floored at 0. No dependencies scores 100.
func Score(entries []Entry, p config.DependencyPenalties) float64 {
	if len(entries) == 0 {
		return 100
	}

	var eol, vulnerable, outdated, major int
	for _, e := range entries {
		if e.IsEOL {
			eol++
		}
		if e.IsVulnerable() {
			vulnerable++
		}
		if e.UpdateType != UpdatePatch {
			outdated++
		}
		if e.UpdateType == UpdateMajor {
			major++
		}
	}

	n := float64(len(entries))
	score := 100 -
		p.EOL*float64(eol)/n -
		p.Vulnerable*float64(vulnerable)/n -
		p.Age*float64(outdated)/n -
		p.Major*float64(major)/n

	return math.Max(0, score)
}
