// Package coverage reads an externally produced coverage summary.
// A missing summary is a finding, not an error.
package coverage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/revamp/pkg/config"
)

const schemaURL = "revamp://coverage-summary.schema.json"

// summarySchema requires the istanbul json-summary totals.
const summarySchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["total"],
  "properties": {
    "total": {
      "type": "object",
      "required": ["lines", "branches", "functions"],
      "properties": {
        "lines":      {"$ref": "#/$defs/metric"},
        "branches":   {"$ref": "#/$defs/metric"},
        "functions":  {"$ref": "#/$defs/metric"},
        "statements": {"$ref": "#/$defs/metric"}
      }
    }
  },
  "$defs": {
    "metric": {
      "type": "object",
      "required": ["pct"],
      "properties": {
        "pct": {"type": "number", "minimum": 0, "maximum": 100}
      }
    }
  }
}`

// Summary is the normalized coverage of a project.
type Summary struct {
	Found            bool     `json:"found"`
	Source           string   `json:"source,omitempty"`
	LinePct          float64  `json:"line_pct"`
	BranchPct        float64  `json:"branch_pct"`
	FunctionPct      float64  `json:"function_pct"`
	TestQualityScore float64  `json:"test_quality_score"`
	Warnings         []string `json:"warnings,omitempty"`
}

// QualityScore weighs line, branch and function coverage.
func QualityScore(line, branch, function float64) float64 {
	return 0.4*line + 0.35*branch + 0.25*function
}

// Reader loads coverage summaries.
type Reader struct {
	cfg    config.CoverageConfig
	schema *jsonschema.Schema
	logger *slog.Logger
}

// Option is a functional option for configuring Reader.
type Option func(*Reader)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

// New creates a coverage reader.
func New(cfg config.CoverageConfig, opts ...Option) *Reader {
	r := &Reader{
		cfg:    cfg,
		schema: mustCompileSchema(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func mustCompileSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(summarySchema))
	if err != nil {
		panic(fmt.Sprintf("coverage: invalid schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		panic(fmt.Sprintf("coverage: add schema: %v", err))
	}
	return c.MustCompile(schemaURL)
}

// Path resolves the configured summary path against root.
func (r *Reader) Path(root string) string {
	if filepath.IsAbs(r.cfg.Path) {
		return r.cfg.Path
	}
	return filepath.Join(root, r.cfg.Path)
}

// Read loads the summary under root. It never fails: a missing file yields
// zeros with Found unset, and an invalid one yields zeros plus a warning.
func (r *Reader) Read(root string) *Summary {
	path := r.Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		s := &Summary{Source: path}
		if !errors.Is(err, fs.ErrNotExist) {
			s.warn(r.logger, fmt.Sprintf("coverage summary unreadable: %v", err))
		}
		return s
	}

	s, err := r.Parse(data)
	if err != nil {
		s = &Summary{}
		s.warn(r.logger, fmt.Sprintf("coverage summary %s ignored: %v", path, err))
	}
	s.Source = path
	return s
}

// Parse validates and normalizes an istanbul-style json-summary document.
func (r *Reader) Parse(data []byte) (*Summary, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := r.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	total := inst.(map[string]any)["total"].(map[string]any)
	s := &Summary{
		Found:       true,
		LinePct:     pct(total, "lines"),
		BranchPct:   pct(total, "branches"),
		FunctionPct: pct(total, "functions"),
	}
	s.TestQualityScore = QualityScore(s.LinePct, s.BranchPct, s.FunctionPct)
	return s, nil
}

// pct extracts a validated percentage. jsonschema decodes numbers as
// json.Number.
func pct(total map[string]any, metric string) float64 {
	v := total[metric].(map[string]any)["pct"]
	switch n := v.(type) {
	case float64:
		return n
	case interface{ Float64() (float64, error) }:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func (s *Summary) warn(logger *slog.Logger, msg string) {
	logger.Warn(msg)
	s.Warnings = append(s.Warnings, msg)
}
