package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the CLI with captured stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"revamp", "--no-color"}, args...))
	return out.String(), errOut.String(), err
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func legacyProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"package.json":  `{"name":"legacy","dependencies":{"jquery":"1.12.4"}}`,
		"src/app.js":    "var engine = require('./engine')\n" + strings.Repeat("if (a) { engine.run() }\n", 30),
		"src/engine.js": "module.exports.run = function () {\n  return 1\n}\n",
		"lib/util.js":   strings.Repeat("function f() { return 1 }\n", 12),
	})
	return dir
}

func TestGetPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args defaults to current dir", nil, "."},
		{"single path", []string{"/srv/app"}, "/srv/app"},
		{"first path wins", []string{"/a", "/b"}, "/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			app := &cli.App{
				Action: func(c *cli.Context) error {
					got = getPath(c)
					return nil
				},
			}
			require.NoError(t, app.Run(append([]string{"test"}, tt.args...)))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssessJSON(t *testing.T) {
	dir := legacyProject(t)
	out, _, err := run(t, "-f", "json", "assess", "--no-cache", dir)
	require.NoError(t, err)

	var rep struct {
		Files  int `json:"files"`
		Scores struct {
			Overall float64 `json:"overall"`
		} `json:"scores"`
		PrioritizedActions []json.RawMessage `json:"prioritized_actions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 3, rep.Files)
	assert.GreaterOrEqual(t, rep.Scores.Overall, 0.0)
	assert.LessOrEqual(t, rep.Scores.Overall, 100.0)
}

func TestAssessText(t *testing.T) {
	out, _, err := run(t, "assess", "--no-cache", legacyProject(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Health")
}

func TestAssessSaveAndParquet(t *testing.T) {
	dir := legacyProject(t)
	reports := filepath.Join(t.TempDir(), "reports")
	pq := filepath.Join(t.TempDir(), "hotspots.parquet")

	_, errOut, err := run(t, "-f", "json", "assess", "--no-cache", "--save", "--output-dir", reports, "--parquet", pq, dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Saved health-report")

	saved, err := filepath.Glob(filepath.Join(reports, "health-report-*.json"))
	require.NoError(t, err)
	assert.Len(t, saved, 1)
	assert.FileExists(t, pq)
}

func TestAssessMissingPath(t *testing.T) {
	_, _, err := run(t, "assess", "--no-cache", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestAssessBadFormat(t *testing.T) {
	_, _, err := run(t, "-f", "pdf", "assess", legacyProject(t))
	assert.Error(t, err)
}

func writeProfiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"current.yaml": "language: javascript\nruntime: node\nframework: jquery\ndatabase: mysql\narchitecture: monolith\n",
		"target.toml":  "language = \"typescript\"\nruntime = \"node\"\nframework = \"react\"\ndatabase = \"postgres\"\narchitecture = \"microservices\"\n",
	})
	return filepath.Join(dir, "current.yaml"), filepath.Join(dir, "target.toml")
}

type planDoc struct {
	Strategy struct {
		Name string `json:"name"`
	} `json:"strategy"`
	Overridden bool              `json:"overridden"`
	Phases     []json.RawMessage `json:"phases"`
	Modules    []struct {
		ID string `json:"id"`
	} `json:"modules"`
}

func TestPlanJSON(t *testing.T) {
	current, target := writeProfiles(t)
	out, _, err := run(t, "-f", "json", "plan", "--current", current, "--target", target)
	require.NoError(t, err)

	var plan planDoc
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.NotEmpty(t, plan.Strategy.Name)
	assert.False(t, plan.Overridden)
	assert.NotEmpty(t, plan.Phases)
	assert.Empty(t, plan.Modules)
}

func TestPlanFromReport(t *testing.T) {
	dir := legacyProject(t)
	reports := t.TempDir()
	_, _, err := run(t, "-f", "json", "assess", "--no-cache", "--save", "--output-dir", reports, dir)
	require.NoError(t, err)
	saved, err := filepath.Glob(filepath.Join(reports, "health-report-*.json"))
	require.NoError(t, err)
	require.Len(t, saved, 1)

	current, target := writeProfiles(t)
	out, _, err := run(t, "-f", "json", "plan", "--current", current, "--target", target, "--from-report", saved[0])
	require.NoError(t, err)

	var plan planDoc
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.NotEmpty(t, plan.Modules)
	ids := make([]string, len(plan.Modules))
	for i, m := range plan.Modules {
		ids[i] = m.ID
	}
	assert.Contains(t, ids, "src")
}

func TestPlanUnknownStrategy(t *testing.T) {
	current, target := writeProfiles(t)
	_, _, err := run(t, "plan", "--current", current, "--target", target, "--strategy", "hope")
	assert.Error(t, err)
}

func TestPlanRequiresProfiles(t *testing.T) {
	_, _, err := run(t, "plan")
	assert.Error(t, err)
}

func TestGenerateStrangler(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"facade.yaml": `legacy_url: http://legacy:8080
modern_url: http://modern:3000
rules:
  - path: /api/orders
    method: POST
    target: modern
    percentage: 25
`,
	})
	out, _, err := run(t, "-f", "json", "generate", "strangler", "--input", filepath.Join(dir, "facade.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "route_post_api_orders")
	assert.Contains(t, out, "http://legacy:8080/health")
}

func TestGenerateStranglerInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"facade.json": `{"legacy_url": "nope"}`})
	_, _, err := run(t, "generate", "strangler", "--input", filepath.Join(dir, "facade.json"))
	assert.Error(t, err)
}

func adapterInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"adapter.yaml": `name: order
mappings:
  - source: total_cents
    target: total
    transform: cents_to_decimal
  - source: customer
    target: customer_name
`,
	})
	return filepath.Join(dir, "adapter.yaml")
}

func TestGenerateAdapterDocument(t *testing.T) {
	out, _, err := run(t, "-f", "json", "generate", "adapter", "--input", adapterInput(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"total_cents"`)
}

func TestGenerateAdapterSource(t *testing.T) {
	out, _, err := run(t, "generate", "adapter", "--lang", "ts", "--input", adapterInput(t))
	require.NoError(t, err)
	assert.Contains(t, out, "toModernOrder")

	_, _, err = run(t, "generate", "adapter", "--lang", "cobol", "--input", adapterInput(t))
	assert.Error(t, err)
}

func TestGenerateDataMigration(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"orders.yaml": `name: orders v2
source_table: orders
target_table: orders_v2
columns:
  - source: id
    target: id
    type: bigint
  - source: total
    target: total_amount
    type: numeric(12,2)
`,
	})
	sqlDir := filepath.Join(t.TempDir(), "sql")
	out, errOut, err := run(t, "-f", "json", "generate", "data-migration", "--input", filepath.Join(dir, "orders.yaml"), "--sql-dir", sqlDir, "--version", "7")
	require.NoError(t, err)
	assert.Contains(t, out, `"orders_v2"`)
	assert.Contains(t, errOut, "Wrote 16 SQL files")

	files, err := os.ReadDir(sqlDir)
	require.NoError(t, err)
	require.Len(t, files, 16)
	assert.Equal(t, "0007_orders_v2_backup.down.sql", files[0].Name())
}

func TestGenerateBackfill(t *testing.T) {
	pq := filepath.Join(t.TempDir(), "backfill.parquet")
	out, _, err := run(t, "-f", "json", "generate", "backfill", "--no-cache", "--parquet", pq, legacyProject(t))
	require.NoError(t, err)

	var plan struct {
		Items []struct {
			Path string `json:"path"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.NotEmpty(t, plan.Items)
	assert.Equal(t, "src/app.js", plan.Items[0].Path)
	assert.FileExists(t, pq)
}

func TestConfigShow(t *testing.T) {
	out, _, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_files = 5000")
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"good.toml": "[scan]\nmax_files = 10\n",
		"bad.toml":  "[scan]\nmax_files = 0\n",
	})

	out, _, err := run(t, "-c", filepath.Join(dir, "good.toml"), "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")

	out, _, err = run(t, "-c", filepath.Join(dir, "bad.toml"), "config", "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "validation failed")
}

func TestInvalidConfigStopsCommands(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"bad.toml": "[scan]\nmax_files = 0\n"})
	_, _, err := run(t, "-c", filepath.Join(dir, "bad.toml"), "assess", legacyProject(t))
	assert.Error(t, err)
}

func TestMCPManifest(t *testing.T) {
	out, _, err := run(t, "mcp", "manifest")
	require.NoError(t, err)
	assert.Contains(t, out, "io.github.panbanda/revamp")
}

func TestBrokenDiscoveredConfigWarns(t *testing.T) {
	project := legacyProject(t)
	work := t.TempDir()
	writeFiles(t, work, map[string]string{"revamp.toml": "[scan\nmax_files = = 7\n"})
	t.Chdir(work)

	_, errOut, err := run(t, "-f", "json", "assess", "--no-cache", project)
	require.NoError(t, err)
	assert.Contains(t, errOut, "revamp.toml")
	assert.Contains(t, errOut, "using default configuration")

	out, _, err := run(t, "config", "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "revamp.toml")
}
