package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for revamp.
// Every heuristic table and threshold used by the analyzers lives here so
// it can be tuned per project.
type Config struct {
	Scan         ScanConfig       `koanf:"scan" toml:"scan"`
	External     ExternalConfig   `koanf:"external" toml:"external"`
	Dependencies DependencyConfig `koanf:"dependencies" toml:"dependencies"`
	DeadCode     DeadCodeConfig   `koanf:"dead_code" toml:"dead_code"`
	Complexity   ComplexityConfig `koanf:"complexity" toml:"complexity"`
	Smells       SmellConfig      `koanf:"smells" toml:"smells"`
	Coverage     CoverageConfig   `koanf:"coverage" toml:"coverage"`
	Health       HealthConfig     `koanf:"health" toml:"health"`
	Migration    MigrationConfig  `koanf:"migration" toml:"migration"`
	Backfill     BackfillConfig   `koanf:"backfill" toml:"backfill"`
	Cache        CacheConfig      `koanf:"cache" toml:"cache"`
	Output       OutputConfig     `koanf:"output" toml:"output"`
}

// LanguageConfig maps a language name to the file extensions it owns.
type LanguageConfig struct {
	Name       string   `koanf:"name" toml:"name"`
	Extensions []string `koanf:"extensions" toml:"extensions"`
}

// ScanConfig controls the source scanner.
type ScanConfig struct {
	Languages         []LanguageConfig `koanf:"languages" toml:"languages"`
	ExcludeDirs       []string         `koanf:"exclude_dirs" toml:"exclude_dirs"`
	Gitignore         bool             `koanf:"gitignore" toml:"gitignore"`
	MaxFiles          int              `koanf:"max_files" toml:"max_files"`
	DeepAnalysisLimit int              `koanf:"deep_analysis_limit" toml:"deep_analysis_limit"`
	MaxFileSize       int64            `koanf:"max_file_size" toml:"max_file_size"`
	ImportPatterns    []string         `koanf:"import_patterns" toml:"import_patterns"`
}

// ExternalConfig controls external tool invocation.
// Commands are argv lists; "{root}" and "{path}" are substituted per call.
type ExternalConfig struct {
	Timeout        time.Duration `koanf:"timeout" toml:"timeout"`
	CycleDetector  []string      `koanf:"cycle_detector" toml:"cycle_detector"`
	HistoryCommand []string      `koanf:"history_command" toml:"history_command"`
}

// KnownAge pins the age of a dependency, bypassing the heuristic oracle.
// An empty Version matches every version of the package.
type KnownAge struct {
	Package string `koanf:"package" toml:"package"`
	Version string `koanf:"version" toml:"version"`
	Days    int    `koanf:"days" toml:"days"`
}

// Advisory describes a known vulnerability fixed in a given version.
type Advisory struct {
	Package  string `koanf:"package" toml:"package"`
	FixedIn  string `koanf:"fixed_in" toml:"fixed_in"`
	ID       string `koanf:"id" toml:"id"`
	Severity string `koanf:"severity" toml:"severity"`
	Summary  string `koanf:"summary" toml:"summary"`
}

// DependencyPenalties are the score weights applied to each dependency condition.
type DependencyPenalties struct {
	EOL        float64 `koanf:"eol" toml:"eol"`
	Vulnerable float64 `koanf:"vulnerable" toml:"vulnerable"`
	Age        float64 `koanf:"age" toml:"age"`
	Major      float64 `koanf:"major" toml:"major"`
}

// DependencyConfig controls the dependency age analyzer.
type DependencyConfig struct {
	Manifest        string              `koanf:"manifest" toml:"manifest"`
	EOLDays         int                 `koanf:"eol_days" toml:"eol_days"`
	MajorDays       int                 `koanf:"major_days" toml:"major_days"`
	MinorDays       int                 `koanf:"minor_days" toml:"minor_days"`
	ReferenceMajor  int                 `koanf:"reference_major" toml:"reference_major"`
	ReferenceMajors map[string]int      `koanf:"reference_majors" toml:"reference_majors"`
	DaysPerMajor    int                 `koanf:"days_per_major" toml:"days_per_major"`
	MaxJitterDays   int                 `koanf:"max_jitter_days" toml:"max_jitter_days"`
	KnownAges       []KnownAge          `koanf:"known_ages" toml:"known_ages"`
	Advisories      []Advisory          `koanf:"advisories" toml:"advisories"`
	Penalties       DependencyPenalties `koanf:"penalties" toml:"penalties"`
}

// ReferenceMajorFor returns the current major version assumed for an
// ecosystem, falling back to ReferenceMajor.
func (d DependencyConfig) ReferenceMajorFor(ecosystem string) int {
	if n, ok := d.ReferenceMajors[ecosystem]; ok {
		return n
	}
	return d.ReferenceMajor
}

// PatternConfig is a named regular expression tagged with a symbol kind.
// An empty Languages list applies the pattern to every language.
type PatternConfig struct {
	Name      string   `koanf:"name" toml:"name"`
	Languages []string `koanf:"languages" toml:"languages"`
	Pattern   string   `koanf:"pattern" toml:"pattern"`
	Kind      string   `koanf:"kind" toml:"kind"`
}

// AppliesTo reports whether the pattern is enabled for a language.
func (p PatternConfig) AppliesTo(language string) bool {
	if len(p.Languages) == 0 {
		return true
	}
	for _, l := range p.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// DeadCodeConfig controls the dead code detector.
type DeadCodeConfig struct {
	UnusedExportMaxRefs    int             `koanf:"unused_export_max_refs" toml:"unused_export_max_refs"`
	UnreachableFileMaxRefs int             `koanf:"unreachable_file_max_refs" toml:"unreachable_file_max_refs"`
	LinesPerExport         int             `koanf:"lines_per_export" toml:"lines_per_export"`
	LinesPerFile           int             `koanf:"lines_per_file" toml:"lines_per_file"`
	EntryFiles             []string        `koanf:"entry_files" toml:"entry_files"`
	FileReferenceLanguages []string        `koanf:"file_reference_languages" toml:"file_reference_languages"`
	TestFileMarkers        []string        `koanf:"test_file_markers" toml:"test_file_markers"`
	ExportPatterns         []PatternConfig `koanf:"export_patterns" toml:"export_patterns"`
	DeprecatedPatterns     []PatternConfig `koanf:"deprecated_patterns" toml:"deprecated_patterns"`
}

// RiskWeights weight the inputs of a hotspot risk score.
type RiskWeights struct {
	Complexity float64 `koanf:"complexity" toml:"complexity"`
	Size       float64 `koanf:"size" toml:"size"`
	Churn      float64 `koanf:"churn" toml:"churn"`
}

// ComplexityConfig controls the complexity and churn analyzer.
type ComplexityConfig struct {
	MinLines                 int         `koanf:"min_lines" toml:"min_lines"`
	DecisionPatterns         []string    `koanf:"decision_patterns" toml:"decision_patterns"`
	CognitiveFactor          float64     `koanf:"cognitive_factor" toml:"cognitive_factor"`
	HighThreshold            int         `koanf:"high_threshold" toml:"high_threshold"`
	CriticalThreshold        int         `koanf:"critical_threshold" toml:"critical_threshold"`
	CriticalChurn            int         `koanf:"critical_churn" toml:"critical_churn"`
	SplitLines               int         `koanf:"split_lines" toml:"split_lines"`
	UnstableChurn            int         `koanf:"unstable_churn" toml:"unstable_churn"`
	UnstableComplexity       int         `koanf:"unstable_complexity" toml:"unstable_complexity"`
	CorrelationMinChurn      int         `koanf:"correlation_min_churn" toml:"correlation_min_churn"`
	CorrelationMinComplexity int         `koanf:"correlation_min_complexity" toml:"correlation_min_complexity"`
	CorrelationLimit         int         `koanf:"correlation_limit" toml:"correlation_limit"`
	Weights                  RiskWeights `koanf:"weights" toml:"weights"`
}

// SmellConfig controls the architecture smell detector.
type SmellConfig struct {
	GodFileLines         int      `koanf:"god_file_lines" toml:"god_file_lines"`
	GodFileMethods       int      `koanf:"god_file_methods" toml:"god_file_methods"`
	CriticalGodFileLines int      `koanf:"critical_god_file_lines" toml:"critical_god_file_lines"`
	CriticalCycleSize    int      `koanf:"critical_cycle_size" toml:"critical_cycle_size"`
	MethodPatterns       []string `koanf:"method_patterns" toml:"method_patterns"`
}

// CoverageConfig controls the coverage reader.
type CoverageConfig struct {
	Path       string  `koanf:"path" toml:"path"`
	MinLinePct float64 `koanf:"min_line_pct" toml:"min_line_pct"`
}

// HealthWeights are the contribution of each sub-score to the overall score.
type HealthWeights struct {
	DeadCode     float64 `koanf:"dead_code" toml:"dead_code"`
	Dependencies float64 `koanf:"dependencies" toml:"dependencies"`
	Complexity   float64 `koanf:"complexity" toml:"complexity"`
	Architecture float64 `koanf:"architecture" toml:"architecture"`
	Coverage     float64 `koanf:"coverage" toml:"coverage"`
}

// Sum returns the total of all weights.
func (w HealthWeights) Sum() float64 {
	return w.DeadCode + w.Dependencies + w.Complexity + w.Architecture + w.Coverage
}

// HealthConfig controls the health aggregator.
type HealthConfig struct {
	Weights              HealthWeights `koanf:"weights" toml:"weights"`
	DeadCodeActionPct    float64       `koanf:"dead_code_action_pct" toml:"dead_code_action_pct"`
	DeadCodePenaltyScale float64       `koanf:"dead_code_penalty_scale" toml:"dead_code_penalty_scale"`
}

// MigrationConfig holds the migration planner's cost constants.
type MigrationConfig struct {
	HoursPerPhase      float64 `koanf:"hours_per_phase" toml:"hours_per_phase"`
	ContingencyRate    float64 `koanf:"contingency_rate" toml:"contingency_rate"`
	HourlyRate         float64 `koanf:"hourly_rate" toml:"hourly_rate"`
	Infrastructure     float64 `koanf:"infrastructure" toml:"infrastructure"`
	Tooling            float64 `koanf:"tooling" toml:"tooling"`
	Training           float64 `koanf:"training" toml:"training"`
	Currency           string  `koanf:"currency" toml:"currency"`
	BufferPercent      float64 `koanf:"buffer_percent" toml:"buffer_percent"`
	LowHealthThreshold float64 `koanf:"low_health_threshold" toml:"low_health_threshold"`
	BatchSize          int     `koanf:"batch_size" toml:"batch_size"`
}

// BackfillConfig holds the test backfill tier thresholds.
type BackfillConfig struct {
	CriticalRisk               float64 `koanf:"critical_risk" toml:"critical_risk"`
	HighRisk                   float64 `koanf:"high_risk" toml:"high_risk"`
	MediumRisk                 float64 `koanf:"medium_risk" toml:"medium_risk"`
	IntegrationCoupling        int     `koanf:"integration_coupling" toml:"integration_coupling"`
	CharacterizationComplexity int     `koanf:"characterization_complexity" toml:"characterization_complexity"`
	RegressionChurn            int     `koanf:"regression_churn" toml:"regression_churn"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting and report persistence.
type OutputConfig struct {
	Dir          string `koanf:"dir" toml:"dir"`
	Format       string `koanf:"format" toml:"format"`               // text, json, markdown, yaml, toon
	ReportFormat string `koanf:"report_format" toml:"report_format"` // json, yaml, toon
	Color        bool   `koanf:"color" toml:"color"`
}

var jsLike = []string{"javascript", "typescript"}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Languages: []LanguageConfig{
				{Name: "javascript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}},
				{Name: "typescript", Extensions: []string{".ts", ".tsx", ".mts", ".cts"}},
				{Name: "python", Extensions: []string{".py"}},
				{Name: "go", Extensions: []string{".go"}},
				{Name: "java", Extensions: []string{".java"}},
				{Name: "kotlin", Extensions: []string{".kt", ".kts"}},
				{Name: "csharp", Extensions: []string{".cs"}},
				{Name: "ruby", Extensions: []string{".rb"}},
				{Name: "php", Extensions: []string{".php"}},
				{Name: "rust", Extensions: []string{".rs"}},
				{Name: "c", Extensions: []string{".c", ".h"}},
				{Name: "cpp", Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh"}},
				{Name: "swift", Extensions: []string{".swift"}},
				{Name: "scala", Extensions: []string{".scala"}},
			},
			ExcludeDirs: []string{
				".git",
				".revamp",
				"node_modules",
				"vendor",
				"dist",
				"build",
				"coverage",
				"target",
				"__pycache__",
				".next",
				".venv",
			},
			Gitignore:         true,
			MaxFiles:          5000,
			DeepAnalysisLimit: 200,
			MaxFileSize:       1 << 20,
			ImportPatterns: []string{
				`^\s*import\s`,
				`^\s*(export\s+.*\s+from\s|from\s+\S+\s+import\s)`,
				`\brequire\(\s*['"]`,
				`^\s*#\s*include\s`,
				`^\s*using\s+[\w.]+\s*;`,
				`^\s*use\s+[\w:\\]+`,
			},
		},
		External: ExternalConfig{
			Timeout: 30 * time.Second,
		},
		Dependencies: DependencyConfig{
			EOLDays:        1095,
			MajorDays:      365,
			MinorDays:      90,
			ReferenceMajor: 5,
			// Go and Cargo modules rarely leave v0/v1; PyPI majors move slowly.
			ReferenceMajors: map[string]int{"go": 1, "cargo": 1, "pypi": 3},
			DaysPerMajor:    365,
			MaxJitterDays:   180,
			Penalties: DependencyPenalties{
				EOL:        30,
				Vulnerable: 40,
				Age:        20,
				Major:      10,
			},
		},
		DeadCode: DeadCodeConfig{
			UnusedExportMaxRefs:    1,
			UnreachableFileMaxRefs: 1,
			LinesPerExport:         5,
			LinesPerFile:           50,
			EntryFiles:             []string{"index", "main", "app", "server", "setup", "manage", "__init__", "__main__"},
			FileReferenceLanguages: []string{"javascript", "typescript", "python", "ruby", "php"},
			TestFileMarkers:        []string{".test.", ".spec.", "_test.", "test_", "__tests__/", "tests/", "__mocks__/"},
			ExportPatterns: []PatternConfig{
				{Name: "es-function", Languages: jsLike, Kind: "function",
					Pattern: `^\s*export\s+(?:default\s+)?(?:async\s+)?function\*?\s+([A-Za-z_$][\w$]*)`},
				{Name: "es-class", Languages: jsLike, Kind: "class",
					Pattern: `^\s*export\s+(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`},
				{Name: "es-binding", Languages: jsLike, Kind: "variable",
					Pattern: `^\s*export\s+(?:const|let|var)\s+([A-Za-z_$][\w$]*)`},
				{Name: "ts-type", Languages: []string{"typescript"}, Kind: "export",
					Pattern: `^\s*export\s+(?:declare\s+)?(?:interface|type|enum)\s+([A-Za-z_$][\w$]*)`},
				{Name: "go-func", Languages: []string{"go"}, Kind: "function",
					Pattern: `^func\s+(?:\([^)]*\)\s*)?([A-Z]\w*)`},
				{Name: "go-type", Languages: []string{"go"}, Kind: "class",
					Pattern: `^type\s+([A-Z]\w*)`},
				{Name: "go-binding", Languages: []string{"go"}, Kind: "variable",
					Pattern: `^(?:var|const)\s+([A-Z]\w*)`},
				{Name: "py-def", Languages: []string{"python"}, Kind: "function",
					Pattern: `^(?:async\s+)?def\s+([A-Za-z]\w*)`},
				{Name: "py-class", Languages: []string{"python"}, Kind: "class",
					Pattern: `^class\s+([A-Za-z]\w*)`},
				{Name: "jvm-type", Languages: []string{"java", "csharp", "kotlin"}, Kind: "class",
					Pattern: `^\s*public\s+(?:(?:static|final|abstract|sealed|partial)\s+)*(?:class|interface|enum|record)\s+(\w+)`},
				{Name: "rust-fn", Languages: []string{"rust"}, Kind: "function",
					Pattern: `^\s*pub\s+(?:async\s+)?fn\s+(\w+)`},
				{Name: "rust-type", Languages: []string{"rust"}, Kind: "class",
					Pattern: `^\s*pub\s+(?:struct|enum|trait)\s+(\w+)`},
			},
			DeprecatedPatterns: []PatternConfig{
				{Name: "jsdoc-deprecated", Pattern: `@deprecated\b`, Kind: "function"},
				{Name: "go-deprecated", Pattern: `//\s*Deprecated:`, Kind: "function"},
				{Name: "react-will-mount", Pattern: `\bcomponentWillMount\b`, Kind: "function"},
				{Name: "react-will-receive-props", Pattern: `\bcomponentWillReceiveProps\b`, Kind: "function"},
				{Name: "node-buffer-constructor", Pattern: `\bnew Buffer\(`, Kind: "function"},
				{Name: "string-substr", Pattern: `\.substr\(`, Kind: "function"},
				{Name: "node-url-parse", Pattern: `\burl\.parse\(`, Kind: "function"},
				{Name: "go-ioutil", Pattern: `\bioutil\.`, Kind: "import"},
				{Name: "global-escape", Pattern: `(^|[^.\w])escape\(`, Kind: "function"},
			},
		},
		Complexity: ComplexityConfig{
			MinLines: 10,
			DecisionPatterns: []string{
				`\bif\b`,
				`\belif\b`,
				`\bfor\b`,
				`\bwhile\b`,
				`\bcase\b`,
				`\bcatch\b`,
				`\bexcept\b`,
				`&&`,
				`\|\|`,
				`\?\?`,
				`\s\?\s`,
			},
			CognitiveFactor:          1.3,
			HighThreshold:            20,
			CriticalThreshold:        30,
			CriticalChurn:            20,
			SplitLines:               500,
			UnstableChurn:            30,
			UnstableComplexity:       10,
			CorrelationMinChurn:      5,
			CorrelationMinComplexity: 10,
			CorrelationLimit:         20,
			Weights: RiskWeights{
				Complexity: 0.4,
				Size:       0.3,
				Churn:      0.3,
			},
		},
		Smells: SmellConfig{
			GodFileLines:         500,
			GodFileMethods:       15,
			CriticalGodFileLines: 1000,
			CriticalCycleSize:    3,
			MethodPatterns: []string{
				`^\s*(export\s+)?(async\s+)?function\s+\w+`,
				`^\s*(public|private|protected|static|async|\s)*\s*\w+\s*\([^)]*\)\s*\{`,
				`^\s*def\s+\w+`,
				`^func\s`,
				`^\s*(pub\s+)?fn\s+\w+`,
			},
		},
		Coverage: CoverageConfig{
			Path:       filepath.Join("coverage", "coverage-summary.json"),
			MinLinePct: 60,
		},
		Health: HealthConfig{
			Weights: HealthWeights{
				DeadCode:     0.10,
				Dependencies: 0.20,
				Complexity:   0.25,
				Architecture: 0.25,
				Coverage:     0.20,
			},
			DeadCodeActionPct:    5,
			DeadCodePenaltyScale: 2,
		},
		Migration: MigrationConfig{
			HoursPerPhase:      200,
			ContingencyRate:    0.25,
			HourlyRate:         150,
			Infrastructure:     15000,
			Tooling:            5000,
			Training:           10000,
			Currency:           "USD",
			BufferPercent:      30,
			LowHealthThreshold: 50,
			BatchSize:          1000,
		},
		Backfill: BackfillConfig{
			CriticalRisk:               8,
			HighRisk:                   5,
			MediumRisk:                 3,
			IntegrationCoupling:        5,
			CharacterizationComplexity: 20,
			RegressionChurn:            20,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join(".revamp", "cache"),
			TTL:     24,
		},
		Output: OutputConfig{
			Dir:          "revamp-reports",
			Format:       "text",
			ReportFormat: "json",
			Color:        true,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), ParserFor(path)); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	return cfg, nil
}

// ParserFor returns the koanf parser matching the file extension.
// Unknown extensions are treated as TOML.
func ParserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
// The returned path is empty when no file was found. A file that exists but
// fails to load yields the defaults, its path and the load error.
func LoadOrDefault() (*Config, string, error) {
	configNames := []string{
		"revamp.toml",
		"revamp.yaml",
		"revamp.yml",
		"revamp.json",
	}
	searchDirs := []string{".", ".revamp"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return DefaultConfig(), path, fmt.Errorf("load %s: %w", path, err)
			}
			return cfg, path, nil
		}
	}

	return DefaultConfig(), "", nil
}

// ExtensionMap returns the lowercase extension to language lookup table.
func (c *Config) ExtensionMap() map[string]string {
	m := make(map[string]string)
	for _, lang := range c.Scan.Languages {
		for _, ext := range lang.Extensions {
			m[strings.ToLower(ext)] = lang.Name
		}
	}
	return m
}

// IsExcludedDir reports whether a directory name is in the exclusion list.
func (c *Config) IsExcludedDir(name string) bool {
	for _, dir := range c.Scan.ExcludeDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// Validate checks that thresholds are sane and every pattern compiles.
func (c *Config) Validate() error {
	var errs []error

	if c.Scan.MaxFiles <= 0 {
		errs = append(errs, errors.New("scan.max_files must be positive"))
	}
	if c.Scan.DeepAnalysisLimit <= 0 {
		errs = append(errs, errors.New("scan.deep_analysis_limit must be positive"))
	}
	if c.External.Timeout <= 0 {
		errs = append(errs, errors.New("external.timeout must be positive"))
	}
	d := c.Dependencies
	if !(d.MinorDays < d.MajorDays && d.MajorDays <= d.EOLDays) {
		errs = append(errs, fmt.Errorf("dependencies: want minor_days < major_days <= eol_days, got %d/%d/%d",
			d.MinorDays, d.MajorDays, d.EOLDays))
	}
	if d.MaxJitterDays < 0 {
		errs = append(errs, errors.New("dependencies.max_jitter_days must not be negative"))
	}
	if sum := c.Health.Weights.Sum(); math.Abs(sum-1) > 1e-6 {
		errs = append(errs, fmt.Errorf("health.weights must sum to 1, got %.3f", sum))
	}
	b := c.Backfill
	if !(b.MediumRisk < b.HighRisk && b.HighRisk < b.CriticalRisk) {
		errs = append(errs, errors.New("backfill: want medium_risk < high_risk < critical_risk"))
	}
	if c.Migration.HoursPerPhase <= 0 || c.Migration.HourlyRate < 0 {
		errs = append(errs, errors.New("migration: hours_per_phase must be positive and hourly_rate not negative"))
	}

	for _, p := range c.Scan.ImportPatterns {
		errs = appendRegexErr(errs, "scan.import_patterns", p)
	}
	for _, p := range c.Complexity.DecisionPatterns {
		errs = appendRegexErr(errs, "complexity.decision_patterns", p)
	}
	for _, p := range c.Smells.MethodPatterns {
		errs = appendRegexErr(errs, "smells.method_patterns", p)
	}
	for _, p := range c.DeadCode.DeprecatedPatterns {
		errs = appendRegexErr(errs, "dead_code.deprecated_patterns."+p.Name, p.Pattern)
	}
	for _, p := range c.DeadCode.ExportPatterns {
		errs = appendRegexErr(errs, "dead_code.export_patterns."+p.Name, p.Pattern)
		if re, err := regexp.Compile(p.Pattern); err == nil && re.NumSubexp() < 1 {
			errs = append(errs, fmt.Errorf("dead_code.export_patterns.%s: needs a capture group for the symbol name", p.Name))
		}
	}

	return errors.Join(errs...)
}

func appendRegexErr(errs []error, field, pattern string) []error {
	if _, err := regexp.Compile(pattern); err != nil {
		return append(errs, fmt.Errorf("%s: %w", field, err))
	}
	return errs
}

// CompilePatterns compiles a list of regular expressions, skipping invalid ones.
func CompilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			out = append(out, re)
		}
	}
	return out
}
