package deadcode

import "time"

// Category is the detection pass that produced an entry.
type Category string

const (
	CategoryUnusedExport    Category = "unused_export"
	CategoryUnreachableFile Category = "unreachable_file"
	CategoryDeprecatedUsage Category = "deprecated_usage"
)

// Kind is the type of code element an entry refers to.
type Kind string

const (
	KindExport   Kind = "export"
	KindFile     Kind = "file"
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindVariable Kind = "variable"
	KindImport   Kind = "import"
)

// ParseKind maps a configured kind name to a Kind, defaulting to export.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindFile, KindFunction, KindClass, KindVariable, KindImport:
		return Kind(s)
	default:
		return KindExport
	}
}

// Confidence is how sure the detector is that an entry is real.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// RemovalRisk is how careful a human should be acting on an entry.
type RemovalRisk string

const (
	RiskSafe   RemovalRisk = "safe"
	RiskVerify RemovalRisk = "verify"
	RiskRisky  RemovalRisk = "risky"
)

// Entry is a single dead code candidate.
type Entry struct {
	File        string      `json:"file"`
	Symbol      string      `json:"symbol,omitempty"`
	Line        int         `json:"line,omitempty"`
	Kind        Kind        `json:"kind"`
	Category    Category    `json:"category"`
	Confidence  Confidence  `json:"confidence"`
	RemovalRisk RemovalRisk `json:"removal_risk"`
	References  int         `json:"references"`
	Reason      string      `json:"reason"`
}

// newEntry builds an entry with the confidence and risk tier of its
// category. Only deprecation-marker matches are ever high confidence.
func newEntry(category Category, kind Kind, file, symbol string, line, refs int, reason string) Entry {
	e := Entry{
		File:       file,
		Symbol:     symbol,
		Line:       line,
		Kind:       kind,
		Category:   category,
		References: refs,
		Reason:     reason,
	}
	switch category {
	case CategoryDeprecatedUsage:
		e.Confidence = ConfidenceHigh
		e.RemovalRisk = RiskVerify
	case CategoryUnusedExport:
		e.Confidence = ConfidenceMedium
		e.RemovalRisk = RiskVerify
	default:
		e.Confidence = ConfidenceLow
		e.RemovalRisk = RiskRisky
	}
	return e
}

// Summary aggregates the size of the dead code estimate.
type Summary struct {
	FilesAnalyzed        int     `json:"files_analyzed"`
	SymbolsSampled       int     `json:"symbols_sampled"`
	UnusedExports        int     `json:"unused_exports"`
	UnreachableFiles     int     `json:"unreachable_files"`
	DeprecatedUsages     int     `json:"deprecated_usages"`
	TotalDeadLines       int     `json:"total_dead_lines"`
	PercentageOfCodebase float64 `json:"percentage_of_codebase"`
}

// Analysis is the result of all three dead code passes.
type Analysis struct {
	GeneratedAt      time.Time `json:"generated_at"`
	UnusedExports    []Entry   `json:"unused_exports"`
	UnreachableFiles []Entry   `json:"unreachable_files"`
	DeprecatedUsages []Entry   `json:"deprecated_usages"`
	Summary          Summary   `json:"summary"`
}

// Score converts the dead code percentage to a 0-100 health score.
// scale is the number of points lost per percent of dead code.
func (a *Analysis) Score(scale float64) float64 {
	return max(0, 100-scale*a.Summary.PercentageOfCodebase)
}
