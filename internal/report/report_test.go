package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/revamp/internal/output"
	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/artifact/backfill"
	"github.com/panbanda/revamp/pkg/config"
)

var fixedTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func TestFileName(t *testing.T) {
	assert.Equal(t, "health-report-20260314-150926.json", FileName(KindHealthReport, fixedTime, output.FormatJSON))
	assert.Equal(t, "migration-plan-20260314-150926.yaml", FileName(KindMigrationPlan, fixedTime, output.FormatYAML))
	assert.Equal(t, "test-backfill-plan-20260314-150926.toon", FileName(KindTestBackfillPlan, fixedTime, output.FormatTOON))
}

type sample struct {
	Name string `json:"name" yaml:"name"`
}

func TestSaveJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	s := NewStore(dir, output.FormatJSON, WithClock(func() time.Time { return fixedTime }))

	path, err := s.Save(KindStranglerConfig, sample{Name: "facade"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "strangler-config-20260314-150926.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back sample
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "facade", back.Name)
}

func TestSaveYAML(t *testing.T) {
	s := NewStore(t.TempDir(), output.FormatYAML, WithClock(func() time.Time { return fixedTime }))
	path, err := s.Save(KindDataMigration, sample{Name: "orders"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back sample
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, "orders", back.Name)
}

func TestHumanFormatStoredAsJSON(t *testing.T) {
	s := NewStore(t.TempDir(), output.FormatMarkdown, WithClock(func() time.Time { return fixedTime }))
	path, err := s.Save(KindHealthReport, sample{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, ".json", filepath.Ext(path))
}

func TestSaveUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := NewStore(filepath.Join(file, "sub"), output.FormatJSON).Save(KindHealthReport, sample{})
	assert.Error(t, err)
}

func readRows[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader := parquet.NewGenericReader[T](f)
	defer reader.Close()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestWriteHotspotsParquet(t *testing.T) {
	hotspots := []complexity.Hotspot{
		{Path: "a.ts", Language: "typescript", Cyclomatic: 35, Churn: 25, RiskScore: 9.1,
			Recommendation: complexity.Recommendation{Tier: complexity.TierCritical}},
		{Path: "b.go", Language: "go", Cyclomatic: 4, RiskScore: 1.2},
	}
	path := filepath.Join(t.TempDir(), "hotspots.parquet")
	require.NoError(t, WriteParquet(HotspotRows(hotspots), path))

	rows := readRows[HotspotRow](t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "a.ts", rows[0].Path)
	assert.Equal(t, int32(35), rows[0].Cyclomatic)
	assert.Equal(t, "critical", rows[0].Tier)
	assert.InDelta(t, 1.2, rows[1].RiskScore, 1e-9)
}

func TestWriteBackfillParquet(t *testing.T) {
	plan := backfill.Prioritize([]complexity.Hotspot{
		{Path: "hot.ts", RiskScore: 9, Churn: 30, Cyclomatic: 40, Coupling: 8},
	}, config.DefaultConfig().Backfill)

	path := filepath.Join(t.TempDir(), "backfill.parquet")
	require.NoError(t, WriteParquet(BackfillRows(plan), path))

	rows := readRows[BackfillRow](t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "critical", rows[0].Tier)
	assert.Equal(t, "unit,integration,characterization,regression", rows[0].TestTypes)
}

func TestWriteParquetBadPath(t *testing.T) {
	err := WriteParquet([]HotspotRow{}, filepath.Join(t.TempDir(), "missing", "x.parquet"))
	assert.Error(t, err)
}

type scored struct {
	RiskScore float64  `json:"risk_score"`
	Tags      []string `json:"tags"`
}

func TestLoadRoundTrip(t *testing.T) {
	for _, format := range []output.Format{output.FormatJSON, output.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			s := NewStore(t.TempDir(), format, WithClock(func() time.Time { return fixedTime }))
			path, err := s.Save(KindHealthReport, scored{RiskScore: 4.5, Tags: []string{"a"}})
			require.NoError(t, err)

			var back scored
			require.NoError(t, Load(path, &back))
			assert.InDelta(t, 4.5, back.RiskScore, 1e-9)
			assert.Equal(t, []string{"a"}, back.Tags)
		})
	}
}

func TestLoadRejectsTOON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.toon")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))
	var v map[string]any
	assert.Error(t, Load(path, &v))
}
