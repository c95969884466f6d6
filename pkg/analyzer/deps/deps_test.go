package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/revamp/pkg/config"
)

func fixedAge(days int) AgeOracle {
	return OracleFunc(func(string, string) int { return days })
}

func TestAnalyze_SingleEOLDependency(t *testing.T) {
	cfg := config.DefaultConfig().Dependencies
	a := New(cfg, WithOracle(fixedAge(1200)))

	result := a.Analyze(&Manifest{
		Ecosystem:    EcosystemNPM,
		Dependencies: map[string]string{"left-pad": "^1.0.0"},
	})

	require.Len(t, result.Dependencies, 1)
	entry := result.Dependencies[0]
	assert.True(t, entry.IsEOL)
	assert.Equal(t, UpdateMajor, entry.UpdateType)
	assert.Equal(t, 1200, entry.AgeDays)
	assert.Equal(t, "1.0.0", entry.Version)
	assert.Equal(t, "^1.0.0", entry.DeclaredVersion)
	assert.Equal(t, EffortHigh, entry.MigrationEffort)

	assert.Equal(t, []string{"left-pad"}, result.EOLDependencies)
	assert.Equal(t, []string{"left-pad"}, result.MajorUpgradesAvailable)
	assert.Empty(t, result.VulnerableDependencies)

	// 100 - 30 (eol) - 20 (outdated) - 10 (major)
	assert.InDelta(t, 40.0, result.Score, 1e-9)
}

func TestAnalyze_NoDependencies(t *testing.T) {
	a := New(config.DefaultConfig().Dependencies)

	result := a.Analyze(&Manifest{Dependencies: map[string]string{}})
	assert.InDelta(t, 100.0, result.Score, 1e-9)
	assert.Empty(t, result.Dependencies)

	assert.InDelta(t, 100.0, a.Analyze(nil).Score, 1e-9)
}

func TestAnalyze_Vulnerable(t *testing.T) {
	cfg := config.DefaultConfig().Dependencies
	cfg.Advisories = []config.Advisory{
		{Package: "lodash", FixedIn: "4.17.21", ID: "CVE-2021-23337", Severity: "high"},
	}
	a := New(cfg, WithOracle(fixedAge(10)))

	result := a.Analyze(&Manifest{Dependencies: map[string]string{
		"lodash":  "^4.17.15",
		"express": "4.18.2",
	}})

	assert.Equal(t, []string{"lodash"}, result.VulnerableDependencies)
	require.Len(t, result.Dependencies, 2)
	// sorted by name
	assert.Equal(t, "express", result.Dependencies[0].Name)
	lodash := result.Dependencies[1]
	require.Len(t, lodash.Vulnerabilities, 1)
	assert.Equal(t, "CVE-2021-23337", lodash.Vulnerabilities[0].ID)
	assert.Equal(t, EffortHigh, lodash.MigrationEffort)

	// 100 - 40 * 1/2
	assert.InDelta(t, 80.0, result.Score, 1e-9)
}

func TestAnalyze_ScoreFloor(t *testing.T) {
	cfg := config.DefaultConfig().Dependencies
	cfg.Advisories = []config.Advisory{{Package: "a", FixedIn: "9.0.0", ID: "X"}}
	a := New(cfg, WithOracle(fixedAge(5000)))

	result := a.Analyze(&Manifest{Dependencies: map[string]string{"a": "1.0.0"}})
	// 100 - 30 - 40 - 20 - 10 = 0
	assert.InDelta(t, 0.0, result.Score, 1e-9)

	cfg.Penalties.Vulnerable = 90
	result = New(cfg, WithOracle(fixedAge(5000))).Analyze(&Manifest{Dependencies: map[string]string{"a": "1.0.0"}})
	assert.InDelta(t, 0.0, result.Score, 1e-9)
}

func TestAnalyzeFile_Unparsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	result := New(config.DefaultConfig().Dependencies).AnalyzeFile(path)
	assert.Empty(t, result.Dependencies)
	assert.InDelta(t, 100.0, result.Score, 1e-9)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "package.json")
}

func TestAnalyzeFile_Missing(t *testing.T) {
	result := New(config.DefaultConfig().Dependencies).AnalyzeFile(filepath.Join(t.TempDir(), "go.mod"))
	assert.Empty(t, result.Dependencies)
	assert.Len(t, result.Warnings, 1)
}

func TestClassify_Monotonic(t *testing.T) {
	cfg := config.DefaultConfig().Dependencies

	tests := []struct {
		age     int
		wantEOL bool
		want    UpdateType
	}{
		{0, false, UpdatePatch},
		{90, false, UpdatePatch},
		{91, false, UpdateMinor},
		{365, false, UpdateMinor},
		{366, false, UpdateMajor},
		{1095, false, UpdateMajor},
		{1096, true, UpdateMajor},
	}
	for _, tt := range tests {
		isEOL, update := Classify(tt.age, cfg)
		if isEOL != tt.wantEOL || update != tt.want {
			t.Errorf("Classify(%d) = (%v, %s), want (%v, %s)", tt.age, isEOL, update, tt.wantEOL, tt.want)
		}
	}

	rank := map[UpdateType]int{UpdatePatch: 0, UpdateMinor: 1, UpdateMajor: 2}
	prevRank := 0
	prevEOL := false
	for age := 0; age <= 2000; age++ {
		isEOL, update := Classify(age, cfg)
		if rank[update] < prevRank {
			t.Fatalf("update type decreased at age %d", age)
		}
		if prevEOL && !isEOL {
			t.Fatalf("EOL flag reverted at age %d", age)
		}
		if isEOL && age <= cfg.EOLDays {
			t.Fatalf("EOL at age %d <= %d", age, cfg.EOLDays)
		}
		prevRank, prevEOL = rank[update], isEOL
	}
}

func TestHeuristicOracle_Deterministic(t *testing.T) {
	o := NewHeuristicOracle(config.DefaultConfig().Dependencies, EcosystemNPM)

	first := o.EstimateAge("react", "16.8.0")
	for range 10 {
		assert.Equal(t, first, o.EstimateAge("react", "16.8.0"))
	}
}

func TestHeuristicOracle_LowerMajorIsOlder(t *testing.T) {
	o := &HeuristicOracle{ReferenceMajor: 5, DaysPerMajor: 365, MaxJitterDays: 180}

	for major := 0; major < 5; major++ {
		age := o.EstimateAge("pkg", versionWithMajor(major))
		lo := (5 - major) * 365
		if age < lo || age >= lo+180 {
			t.Errorf("EstimateAge(major %d) = %d, want in [%d, %d)", major, age, lo, lo+180)
		}
	}

	noJitter := &HeuristicOracle{ReferenceMajor: 5, DaysPerMajor: 365}
	assert.Equal(t, 0, noJitter.EstimateAge("pkg", "7.0.0"))
	assert.Equal(t, 1825, noJitter.EstimateAge("pkg", "0.1.0"))
}

func TestHeuristicOracle_UnpinnedIsCurrent(t *testing.T) {
	o := &HeuristicOracle{ReferenceMajor: 5, DaysPerMajor: 365, MaxJitterDays: 180}
	assert.Equal(t, 0, o.EstimateAge("react", ""))
}

func TestHeuristicOracle_EcosystemReference(t *testing.T) {
	cfg := config.DefaultConfig().Dependencies

	assert.Equal(t, 1, NewHeuristicOracle(cfg, EcosystemGo).ReferenceMajor)
	assert.Equal(t, 1, NewHeuristicOracle(cfg, EcosystemCargo).ReferenceMajor)
	assert.Equal(t, cfg.ReferenceMajor, NewHeuristicOracle(cfg, EcosystemNPM).ReferenceMajor)
	assert.Equal(t, cfg.ReferenceMajor, NewHeuristicOracle(cfg, "").ReferenceMajor)
}

func TestAnalyze_UnpinnedDependenciesAreCurrent(t *testing.T) {
	a := New(config.DefaultConfig().Dependencies)

	result := a.Analyze(&Manifest{
		Ecosystem: EcosystemNPM,
		Dependencies: map[string]string{
			"react":  "latest",
			"lodash": "*",
			"shared": "workspace:*",
		},
	})

	require.Len(t, result.Dependencies, 3)
	for _, e := range result.Dependencies {
		assert.Equal(t, "", e.Version, e.Name)
		assert.Equal(t, 0, e.AgeDays, e.Name)
		assert.False(t, e.IsEOL, e.Name)
		assert.Equal(t, UpdatePatch, e.UpdateType, e.Name)
		assert.Equal(t, EffortLow, e.MigrationEffort, e.Name)
	}
	assert.Empty(t, result.EOLDependencies)
	assert.InDelta(t, 100.0, result.Score, 1e-9)

	bare := a.Analyze(&Manifest{
		Ecosystem:    EcosystemPyPI,
		Dependencies: map[string]string{"flask": ""},
	})
	assert.Empty(t, bare.EOLDependencies)
	assert.InDelta(t, 100.0, bare.Score, 1e-9)
}

func TestAnalyze_GoModulesAreNotEOL(t *testing.T) {
	a := New(config.DefaultConfig().Dependencies)

	result := a.Analyze(&Manifest{
		Ecosystem: EcosystemGo,
		Dependencies: map[string]string{
			"golang.org/x/mod":         "v0.31.0",
			"github.com/spf13/cobra":   "v1.8.0",
			"github.com/urfave/cli/v2": "v2.27.7",
		},
	})

	require.Len(t, result.Dependencies, 3)
	assert.Empty(t, result.EOLDependencies)
	for _, e := range result.Dependencies {
		assert.Less(t, e.AgeDays, 365+180, e.Name)
	}
}

func versionWithMajor(major int) string {
	return string(rune('0'+major)) + ".0.0"
}

func TestStaticOracle(t *testing.T) {
	o := NewStaticOracle([]config.KnownAge{
		{Package: "moment", Days: 2000},
		{Package: "react", Version: "^17.0.2", Days: 800},
	}, fixedAge(5))

	assert.Equal(t, 2000, o.EstimateAge("moment", "2.29.4"))
	assert.Equal(t, 800, o.EstimateAge("react", "17.0.2"))
	assert.Equal(t, 5, o.EstimateAge("react", "18.2.0"))
	assert.Equal(t, 5, o.EstimateAge("vue", "3.0.0"))

	assert.Equal(t, 0, NewStaticOracle(nil, nil).EstimateAge("x", "1"))
}

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"^1.2.3":                         "1.2.3",
		"~0.4.0":                         "0.4.0",
		">=2.0.0 <3.0.0":                 "2.0.0",
		">= 1.5":                         "1.5",
		"1.x || 2.x":                     "1.x",
		"==2.28.0":                       "2.28.0",
		"~=1.4":                          "1.4",
		">=1.0,<2":                       "1.0",
		"v1.9.5":                         "1.9.5",
		"*":                              "",
		"x":                              "",
		"latest":                         "",
		"":                               "",
		"workspace:*":                    "",
		"git+https://github.com/a/b.git": "",
		"4.17.21":                        "4.17.21",
	}
	for in, want := range tests {
		if got := NormalizeVersion(in); got != want {
			t.Errorf("NormalizeVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMajorVersion(t *testing.T) {
	tests := map[string]int{
		"1.2.3":                             1,
		"16.8":                              16,
		"0.4.0":                             0,
		"1.x":                               1,
		"0.0.0-20240101000000-abcdef123456": 0,
		"3rc1":                              3,
		"garbage":                           0,
	}
	for in, want := range tests {
		if got := MajorVersion(in); got != want {
			t.Errorf("MajorVersion(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLess(t *testing.T) {
	assert.True(t, Less("4.17.15", "4.17.21"))
	assert.False(t, Less("4.17.21", "4.17.21"))
	assert.False(t, Less("5.0.0", "4.17.21"))
	assert.True(t, Less("1.2", "1.10"))
	assert.False(t, Less("garbage", "1.0.0"))
}

func TestAdvisoryTable(t *testing.T) {
	table := NewAdvisoryTable([]config.Advisory{
		{Package: "minimist", FixedIn: "1.2.6", ID: "CVE-2021-44906", Severity: "critical"},
		{Package: "minimist", FixedIn: "0.2.1", ID: "CVE-2020-7598", Severity: "medium"},
	})

	assert.Len(t, table.Lookup("minimist", "0.0.8"), 2)
	assert.Len(t, table.Lookup("minimist", "1.2.5"), 1)
	assert.Empty(t, table.Lookup("minimist", "1.2.6"))
	assert.Empty(t, table.Lookup("other", "0.0.1"))
}
