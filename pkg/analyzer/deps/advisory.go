package deps

import (
	"github.com/panbanda/revamp/pkg/config"
)

// VulnerabilitySource looks up advisories for a dependency version.
type VulnerabilitySource interface {
	Lookup(name, version string) []Vulnerability
}

// AdvisoryTable is a VulnerabilitySource backed by configured advisories.
// A version is affected when it is older than the advisory's fixed version.
type AdvisoryTable struct {
	byPackage map[string][]config.Advisory
}

// NewAdvisoryTable indexes advisories by package name.
func NewAdvisoryTable(advisories []config.Advisory) *AdvisoryTable {
	t := &AdvisoryTable{byPackage: make(map[string][]config.Advisory)}
	for _, a := range advisories {
		t.byPackage[a.Package] = append(t.byPackage[a.Package], a)
	}
	return t
}

// Lookup implements VulnerabilitySource.
func (t *AdvisoryTable) Lookup(name, version string) []Vulnerability {
	var out []Vulnerability
	for _, a := range t.byPackage[name] {
		if !Less(version, NormalizeVersion(a.FixedIn)) {
			continue
		}
		out = append(out, Vulnerability{
			ID:       a.ID,
			Severity: a.Severity,
			Summary:  a.Summary,
			FixedIn:  a.FixedIn,
		})
	}
	return out
}
