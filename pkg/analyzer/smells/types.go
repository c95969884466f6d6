package smells

import "time"

// Type represents the type of architectural smell.
type Type string

const (
	TypeCircularDependency Type = "circular_dependency"
	TypeGodFile            Type = "god_file"
)

// Severity represents the severity level of an architectural smell.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Weight returns a numeric weight for sorting (higher = more severe).
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Smell represents a detected architectural smell.
type Smell struct {
	Type           Type     `json:"type"`
	Files          []string `json:"files"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Metrics        Metrics  `json:"metrics"`
}

// Metrics provides quantitative data about the smell.
type Metrics struct {
	CycleLength int `json:"cycle_length,omitempty"`
	Lines       int `json:"lines,omitempty"`
	Methods     int `json:"methods,omitempty"`
}

// CycleSource records where cycle data came from.
type CycleSource string

const (
	CycleSourceExternal CycleSource = "external"
	CycleSourceInternal CycleSource = "import_graph"
	CycleSourceNone     CycleSource = "none"
)

// Summary provides aggregate statistics.
type Summary struct {
	TotalSmells    int         `json:"total_smells"`
	CycleCount     int         `json:"cycle_count"`
	GodFileCount   int         `json:"god_file_count"`
	CriticalCount  int         `json:"critical_count"`
	HighCount      int         `json:"high_count"`
	MediumCount    int         `json:"medium_count"`
	CycleSource    CycleSource `json:"cycle_source"`
	GraphNodes     int         `json:"graph_nodes,omitempty"`
	GraphEdges     int         `json:"graph_edges,omitempty"`
	FilesInspected int         `json:"files_inspected"`
}

// Analysis represents the full architectural smell analysis result.
type Analysis struct {
	GeneratedAt time.Time `json:"generated_at"`
	Smells      []Smell   `json:"smells"`
	Summary     Summary   `json:"summary"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// Score penalizes every smell by 3 points and critical ones by 10 more.
func (a *Analysis) Score() float64 {
	return max(0, 100-3*float64(a.Summary.TotalSmells)-10*float64(a.Summary.CriticalCount))
}

// Cycles returns the circular dependency smells.
func (a *Analysis) Cycles() []Smell {
	return a.ofType(TypeCircularDependency)
}

// GodFiles returns the god file smells.
func (a *Analysis) GodFiles() []Smell {
	return a.ofType(TypeGodFile)
}

func (a *Analysis) ofType(t Type) []Smell {
	var out []Smell
	for _, s := range a.Smells {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// CalculateSummary computes summary statistics from the smells.
func (a *Analysis) CalculateSummary() {
	a.Summary.TotalSmells = len(a.Smells)
	a.Summary.CycleCount = 0
	a.Summary.GodFileCount = 0
	a.Summary.CriticalCount = 0
	a.Summary.HighCount = 0
	a.Summary.MediumCount = 0
	for _, s := range a.Smells {
		switch s.Type {
		case TypeCircularDependency:
			a.Summary.CycleCount++
		case TypeGodFile:
			a.Summary.GodFileCount++
		}
		switch s.Severity {
		case SeverityCritical:
			a.Summary.CriticalCount++
		case SeverityHigh:
			a.Summary.HighCount++
		case SeverityMedium:
			a.Summary.MediumCount++
		}
	}
}
