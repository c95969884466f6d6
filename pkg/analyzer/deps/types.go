package deps

import "time"

// UpdateType classifies how far behind a dependency is.
type UpdateType string

const (
	UpdatePatch UpdateType = "patch"
	UpdateMinor UpdateType = "minor"
	UpdateMajor UpdateType = "major"
)

// Effort is the estimated migration effort tier for upgrading a dependency.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Ecosystem identifies the package manager a manifest belongs to.
type Ecosystem string

const (
	EcosystemNPM   Ecosystem = "npm"
	EcosystemGo    Ecosystem = "go"
	EcosystemCargo Ecosystem = "cargo"
	EcosystemPyPI  Ecosystem = "pypi"
)

// Vulnerability is a known advisory affecting a dependency version.
type Vulnerability struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Summary  string `json:"summary,omitempty"`
	FixedIn  string `json:"fixed_in"`
}

// Entry is the assessment of a single declared dependency.
type Entry struct {
	Name            string          `json:"name"`
	DeclaredVersion string          `json:"declared_version"`
	Version         string          `json:"version"`
	AgeDays         int             `json:"age_days"`
	IsEOL           bool            `json:"is_eol"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	UpdateType      UpdateType      `json:"update_type"`
	MigrationEffort Effort          `json:"migration_effort"`
}

// IsVulnerable reports whether any advisory affects the entry.
func (e Entry) IsVulnerable() bool {
	return len(e.Vulnerabilities) > 0
}

// Analysis is the dependency health of one manifest.
type Analysis struct {
	GeneratedAt            time.Time `json:"generated_at"`
	Manifest               string    `json:"manifest,omitempty"`
	Ecosystem              Ecosystem `json:"ecosystem,omitempty"`
	Dependencies           []Entry   `json:"dependencies"`
	EOLDependencies        []string  `json:"eol_dependencies"`
	VulnerableDependencies []string  `json:"vulnerable_dependencies"`
	MajorUpgradesAvailable []string  `json:"major_upgrades_available"`
	OutdatedCount          int       `json:"outdated_count"`
	Score                  float64   `json:"score"`
	Warnings               []string  `json:"warnings,omitempty"`
}

// Empty returns the analysis of a project without dependencies.
func Empty() *Analysis {
	return &Analysis{
		GeneratedAt:            time.Now().UTC(),
		Dependencies:           []Entry{},
		EOLDependencies:        []string{},
		VulnerableDependencies: []string{},
		MajorUpgradesAvailable: []string{},
		Score:                  100,
	}
}
