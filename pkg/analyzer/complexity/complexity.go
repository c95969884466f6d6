// Package complexity approximates cyclomatic complexity from decision
// tokens and combines it with churn into a risk-ranked hotspot list.
package complexity

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"sort"

	"github.com/panbanda/revamp/internal/cache"
	"github.com/panbanda/revamp/pkg/analyzer"
	"github.com/panbanda/revamp/pkg/config"
	"github.com/panbanda/revamp/pkg/scanner"
	"github.com/panbanda/revamp/pkg/source"
	"github.com/panbanda/revamp/pkg/stats"
)

const cacheNamespace = "complexity"

// Analyzer measures per-file complexity.
type Analyzer struct {
	cfg        config.ComplexityConfig
	decisions  []*regexp.Regexp
	cache      *cache.Cache
	onProgress analyzer.ProgressFunc
	logger     *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithCache memoizes per-file decision counts by content hash.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// WithProgress sets a callback invoked after each file is measured.
func WithProgress(fn analyzer.ProgressFunc) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New creates a new complexity analyzer.
func New(cfg config.ComplexityConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:       cfg,
		decisions: config.CompilePatterns(cfg.DecisionPatterns),
		cache:     cache.Disabled(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze measures every scanned file at or above the minimum size.
func (a *Analyzer) Analyze(scan *scanner.Result, src source.ContentSource) *Analysis {
	result := &Analysis{
		Hotspots:     []Hotspot{},
		Correlations: []Correlation{},
	}
	if scan == nil {
		return result
	}

	var eligible []scanner.FileRecord
	for _, f := range scan.Files {
		if f.Lines >= a.cfg.MinLines {
			eligible = append(eligible, f)
		}
	}

	result.Hotspots = analyzer.ForEachFile(eligible, func(f scanner.FileRecord) (Hotspot, error) {
		data, err := src.Read(f.Path)
		if err != nil {
			a.logger.Debug("skipping unreadable file", "path", f.Path, "error", err)
			return Hotspot{}, err
		}
		return a.Measure(f, a.cyclomatic(f.Path, data)), nil
	}, a.onProgress)
	if result.Hotspots == nil {
		result.Hotspots = []Hotspot{}
	}

	SortHotspots(result.Hotspots)
	result.Correlations = a.correlate(result.Hotspots)
	result.Summary = a.summarize(result.Hotspots)
	return result
}

// Measure builds the hotspot record of a file with a known complexity.
func (a *Analyzer) Measure(f scanner.FileRecord, cyclomatic int) Hotspot {
	h := Hotspot{
		Path:       f.Path,
		Language:   f.Language,
		Cyclomatic: cyclomatic,
		Cognitive:  int(math.Round(a.cfg.CognitiveFactor * float64(cyclomatic))),
		Lines:      f.Lines,
		Coupling:   f.Imports,
		Churn:      f.Churn,
	}
	h.RiskScore = a.RiskScore(cyclomatic, f.Lines, f.Churn)
	h.Recommendation = a.Recommend(cyclomatic, f.Lines, f.Churn)
	return h
}

// Cyclomatic returns 1 plus the number of decision tokens in content.
func (a *Analyzer) Cyclomatic(content []byte) int {
	n := 1
	for _, re := range a.decisions {
		n += len(re.FindAllIndex(content, -1))
	}
	return n
}

func (a *Analyzer) cyclomatic(path string, content []byte) int {
	if !a.cache.Enabled() {
		return a.Cyclomatic(content)
	}
	key := cache.Key(cacheNamespace, path)
	hash := cache.HashBytes(content)
	var n int
	if a.cache.Load(key, hash, &n) {
		return n
	}
	n = a.Cyclomatic(content)
	if err := a.cache.Store(key, hash, n); err != nil {
		a.logger.Debug("cache store failed", "path", path, "error", err)
	}
	return n
}

// RiskScore weighs complexity, size in hundreds of lines, and churn.
func (a *Analyzer) RiskScore(cyclomatic, lines, churn int) float64 {
	w := a.cfg.Weights
	return w.Complexity*float64(cyclomatic) + w.Size*(float64(lines)/100) + w.Churn*float64(churn)
}

// Recommend returns the first catalog entry whose condition holds.
func (a *Analyzer) Recommend(cyclomatic, lines, churn int) Recommendation {
	c := a.cfg
	switch {
	case cyclomatic > c.CriticalThreshold && churn > c.CriticalChurn:
		return Recommendation{TierCritical, fmt.Sprintf(
			"Critical: complexity %d with %d commits. Extract and test before touching.", cyclomatic, churn)}
	case cyclomatic > c.HighThreshold:
		return Recommendation{TierDecompose, fmt.Sprintf(
			"Decompose: complexity %d exceeds %d. Break into smaller functions.", cyclomatic, c.HighThreshold)}
	case lines > c.SplitLines:
		return Recommendation{TierSplit, fmt.Sprintf(
			"Split by responsibility: %d lines exceeds %d.", lines, c.SplitLines)}
	case churn > c.UnstableChurn && cyclomatic > c.UnstableComplexity:
		return Recommendation{TierStabilize, fmt.Sprintf(
			"Unstable: %d commits. Backfill tests and simplify incrementally.", churn)}
	default:
		return Recommendation{TierMonitor, "Monitor: no immediate action needed."}
	}
}

// SortHotspots orders hotspots by risk score descending, then path.
func SortHotspots(hotspots []Hotspot) {
	sort.SliceStable(hotspots, func(i, j int) bool {
		if hotspots[i].RiskScore != hotspots[j].RiskScore {
			return hotspots[i].RiskScore > hotspots[j].RiskScore
		}
		return hotspots[i].Path < hotspots[j].Path
	})
}

func (a *Analyzer) correlate(hotspots []Hotspot) []Correlation {
	out := []Correlation{}
	for _, h := range hotspots {
		if h.Churn > a.cfg.CorrelationMinChurn && h.Cyclomatic > a.cfg.CorrelationMinComplexity {
			out = append(out, Correlation{
				Path:       h.Path,
				Churn:      h.Churn,
				Cyclomatic: h.Cyclomatic,
				Score:      float64(h.Churn*h.Cyclomatic) / 100,
			})
		}
	}
	slices.SortStableFunc(out, func(x, y Correlation) int {
		if c := cmp.Compare(y.Score, x.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.Path, y.Path)
	})
	if limit := a.cfg.CorrelationLimit; limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (a *Analyzer) summarize(hotspots []Hotspot) Summary {
	s := Summary{FilesAnalyzed: len(hotspots)}
	if len(hotspots) == 0 {
		return s
	}

	values := make([]int, len(hotspots))
	for i, h := range hotspots {
		values[i] = h.Cyclomatic
		if h.Cyclomatic > a.cfg.HighThreshold {
			s.Violations++
		}
		if h.Cyclomatic > a.cfg.CriticalThreshold {
			s.CriticalFiles++
		}
	}

	s.MaxCyclomatic = stats.Max(values)
	s.AvgCyclomatic = stats.Mean(values)
	s.P90Cyclomatic = stats.Percentile(values, 90)
	return s
}
