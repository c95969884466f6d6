// Package strangler generates routing facade configuration for a strangler
// fig migration.
package strangler

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/panbanda/revamp/pkg/artifact"
)

// Backend names a side of the facade.
type Backend string

const (
	BackendLegacy Backend = "legacy"
	BackendModern Backend = "modern"
)

// Rule routes a path and method to a backend.
type Rule struct {
	Path       string  `json:"path" validate:"required,startswith=/"`
	Method     string  `json:"method"`
	Target     Backend `json:"target" validate:"required,oneof=legacy modern"`
	Percentage float64 `json:"percentage"`
}

// Input is the generator input.
type Input struct {
	LegacyURL string `json:"legacy_url" validate:"required,url"`
	ModernURL string `json:"modern_url" validate:"required,url"`
	Rules     []Rule `json:"rules" validate:"dive"`
}

// Route is a generated routing entry.
type Route struct {
	Path        string  `json:"path"`
	Method      string  `json:"method"`
	Target      Backend `json:"target"`
	Percentage  float64 `json:"percentage"`
	FeatureFlag string  `json:"feature_flag"`
}

// FeatureFlag controls the traffic share of one route.
type FeatureFlag struct {
	Name        string  `json:"name"`
	Enabled     bool    `json:"enabled"`
	Percentage  float64 `json:"percentage"`
	Description string  `json:"description"`
}

// HealthCheck probes a backend.
type HealthCheck struct {
	Name               string  `json:"name"`
	Backend            Backend `json:"backend"`
	URL                string  `json:"url"`
	IntervalSeconds    int     `json:"interval_seconds"`
	TimeoutSeconds     int     `json:"timeout_seconds"`
	UnhealthyThreshold int     `json:"unhealthy_threshold"`
}

// Config is the generated facade configuration.
type Config struct {
	GeneratedAt      time.Time     `json:"generated_at"`
	LegacyURL        string        `json:"legacy_url"`
	ModernURL        string        `json:"modern_url"`
	Routes           []Route       `json:"routes"`
	FeatureFlags     []FeatureFlag `json:"feature_flags"`
	HealthChecks     []HealthCheck `json:"health_checks"`
	FallbackBehavior Backend       `json:"fallback_behavior"`
}

// anyMethod is used for rules without a method.
const anyMethod = "ANY"

// Generate validates the input and builds the facade configuration.
func Generate(in Input) (*Config, error) {
	if err := artifact.Validate("strangler", in); err != nil {
		return nil, err
	}

	cfg := &Config{
		GeneratedAt:      time.Now().UTC(),
		LegacyURL:        in.LegacyURL,
		ModernURL:        in.ModernURL,
		Routes:           make([]Route, 0, len(in.Rules)),
		FeatureFlags:     make([]FeatureFlag, 0, len(in.Rules)),
		FallbackBehavior: BackendLegacy,
		HealthChecks: []HealthCheck{
			healthCheck(BackendLegacy, in.LegacyURL),
			healthCheck(BackendModern, in.ModernURL),
		},
	}

	for _, r := range in.Rules {
		method := strings.ToUpper(strings.TrimSpace(r.Method))
		if method == "" || method == "*" {
			method = anyMethod
		}
		pct := Clamp(r.Percentage)
		flag := FlagName(method, r.Path)

		cfg.Routes = append(cfg.Routes, Route{
			Path:        r.Path,
			Method:      method,
			Target:      r.Target,
			Percentage:  pct,
			FeatureFlag: flag,
		})
		cfg.FeatureFlags = append(cfg.FeatureFlags, FeatureFlag{
			Name:        flag,
			Enabled:     pct > 0,
			Percentage:  pct,
			Description: fmt.Sprintf("Send %g%% of %s %s traffic to %s", pct, method, r.Path, r.Target),
		})
	}
	return cfg, nil
}

// LoadInput reads generator input from a toml, yaml or json file.
func LoadInput(path string) (Input, error) {
	var in Input
	err := artifact.LoadInput(path, &in)
	return in, err
}

// Clamp bounds a traffic percentage to [0, 100].
func Clamp(pct float64) float64 {
	return max(0, min(100, pct))
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// FlagName builds "route_<method>_<path slug>".
func FlagName(method, path string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(path), "_"), "_")
	if slug == "" {
		slug = "root"
	}
	return fmt.Sprintf("route_%s_%s", strings.ToLower(method), slug)
}

func healthCheck(b Backend, base string) HealthCheck {
	return HealthCheck{
		Name:               string(b) + "_health",
		Backend:            b,
		URL:                strings.TrimRight(base, "/") + "/health",
		IntervalSeconds:    10,
		TimeoutSeconds:     2,
		UnhealthyThreshold: 3,
	}
}
