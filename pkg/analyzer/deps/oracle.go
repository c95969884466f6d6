package deps

import (
	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/revamp/pkg/config"
)

// AgeOracle estimates how many days old a dependency version is.
// Implementations must be deterministic for a given input.
type AgeOracle interface {
	EstimateAge(name, version string) int
}

// OracleFunc adapts a function to AgeOracle.
type OracleFunc func(name, version string) int

// EstimateAge implements AgeOracle.
func (f OracleFunc) EstimateAge(name, version string) int {
	return f(name, version)
}

// HeuristicOracle approximates age from the major version: each major
// behind ReferenceMajor adds DaysPerMajor, plus a bounded jitter derived
// from a hash of the package so the same input always yields the same age.
// Unpinned versions resolve to the newest release and are 0 days old.
type HeuristicOracle struct {
	ReferenceMajor int
	DaysPerMajor   int
	MaxJitterDays  int
}

// NewHeuristicOracle creates the default oracle for an ecosystem.
func NewHeuristicOracle(cfg config.DependencyConfig, ecosystem Ecosystem) *HeuristicOracle {
	return &HeuristicOracle{
		ReferenceMajor: cfg.ReferenceMajorFor(string(ecosystem)),
		DaysPerMajor:   cfg.DaysPerMajor,
		MaxJitterDays:  cfg.MaxJitterDays,
	}
}

// EstimateAge implements AgeOracle.
func (o *HeuristicOracle) EstimateAge(name, version string) int {
	if version == "" {
		return 0
	}
	behind := max(0, o.ReferenceMajor-MajorVersion(version))
	age := behind * o.DaysPerMajor
	if o.MaxJitterDays > 0 {
		age += int(xxhash.Sum64String(name+"@"+version) % uint64(o.MaxJitterDays))
	}
	return age
}

// StaticOracle answers from a pinned table and defers to a fallback for
// everything else.
type StaticOracle struct {
	ages     map[string]int
	fallback AgeOracle
}

// NewStaticOracle builds an oracle from pinned ages. A KnownAge without a
// version applies to every version of the package.
func NewStaticOracle(known []config.KnownAge, fallback AgeOracle) *StaticOracle {
	ages := make(map[string]int, len(known))
	for _, k := range known {
		key := k.Package
		if k.Version != "" {
			key += "@" + NormalizeVersion(k.Version)
		}
		ages[key] = k.Days
	}
	return &StaticOracle{ages: ages, fallback: fallback}
}

// EstimateAge implements AgeOracle.
func (o *StaticOracle) EstimateAge(name, version string) int {
	if days, ok := o.ages[name+"@"+version]; ok {
		return days
	}
	if days, ok := o.ages[name]; ok {
		return days
	}
	if o.fallback == nil {
		return 0
	}
	return o.fallback.EstimateAge(name, version)
}
