package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/revamp/pkg/analyzer/health"
	"github.com/panbanda/revamp/pkg/artifact/backfill"
	"github.com/panbanda/revamp/pkg/artifact/compat"
	"github.com/panbanda/revamp/pkg/config"
	"github.com/panbanda/revamp/pkg/migration"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatText,
		"text":     FormatText,
		"JSON":     FormatJSON,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"yml":      FormatYAML,
		"toon":     FormatTOON,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFormatExt(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.Ext())
	assert.Equal(t, "yaml", FormatYAML.Ext())
	assert.Equal(t, "toon", FormatTOON.Ext())
	assert.True(t, FormatTOON.IsDocument())
	assert.False(t, FormatMarkdown.IsDocument())
}

type doc struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestMarshal(t *testing.T) {
	out, err := Marshal(FormatJSON, doc{Name: "a", Count: 2})
	require.NoError(t, err)
	var back doc
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, doc{Name: "a", Count: 2}, back)

	out, err = Marshal(FormatYAML, doc{Name: "a", Count: 2})
	require.NoError(t, err)
	back = doc{}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, 2, back.Count)

	out, err = Marshal(FormatTOON, map[string]any{"name": "a"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "name")
}

func sampleTable() *Table {
	return &Table{
		Title:   "Hotspots",
		Headers: []string{"File", "Risk"},
		Rows:    [][]string{{"a.go", "9.0"}, {"b|c.go", "2.0"}},
	}
}

func TestTableText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf, false).Output(sampleTable()))
	out := buf.String()
	assert.Contains(t, out, "Hotspots\n--------")
	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "9.0")
}

func TestTableMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatMarkdown, &buf, false).Output(sampleTable()))
	out := buf.String()
	assert.Contains(t, out, "## Hotspots")
	assert.Contains(t, out, "| File | Risk |")
	assert.Contains(t, out, `| b\|c.go | 2.0 |`)
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Table{Title: "Smells", Headers: []string{"x"}}).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "(none)")
}

func TestTableDataFallback(t *testing.T) {
	data := sampleTable().RenderData().([]map[string]string)
	require.Len(t, data, 2)
	assert.Equal(t, "a.go", data[0]["File"])
}

func TestFormatterRawDataAsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf, false).Output(doc{Name: "x"}))
	assert.Contains(t, buf.String(), `"name": "x"`)

	buf.Reset()
	require.NoError(t, NewFormatter(FormatMarkdown, &buf, false).Output(doc{Name: "x"}))
	assert.True(t, strings.HasPrefix(buf.String(), "```json\n"))
}

func TestWarningUncolored(t *testing.T) {
	var buf bytes.Buffer
	NewFormatter(FormatText, &buf, false).Warning("cache %s", "disabled")
	assert.Equal(t, "WARNING: cache disabled\n", buf.String())
}

func TestHealthView(t *testing.T) {
	r := health.New(config.DefaultConfig()).Aggregate(health.Inputs{Root: "/proj", Files: 1200, TotalLines: 45000})
	r.Warnings = []string{"cycle detector not installed"}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf, false).Output(HealthView(r)))
	out := buf.String()
	assert.Contains(t, out, "Legacy Health Report")
	assert.Contains(t, out, "1,200 (45,000 lines)")
	assert.Contains(t, out, "cycle detector not installed")

	buf.Reset()
	require.NoError(t, NewFormatter(FormatJSON, &buf, false).Output(HealthView(r)))
	var back map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "/proj", back["root"])
}

func TestPlanView(t *testing.T) {
	p, err := migration.New(config.DefaultConfig().Migration).Plan(migration.Request{
		Current: migration.TechnologyProfile{Language: "java", Runtime: "jvm8", Framework: "struts", Database: "oracle", Architecture: "monolith"},
		Target:  migration.TechnologyProfile{Language: "go", Runtime: "go1.25", Framework: "chi", Database: "postgres", Architecture: "microservices"},
		Modules: []migration.Module{{ID: "billing", Name: "billing", Files: 3, Risk: 2}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatMarkdown, &buf, false).Output(PlanView(p)))
	out := buf.String()
	assert.Contains(t, out, "# Migration Plan")
	assert.Contains(t, out, "## Phases")
	assert.Contains(t, out, "billing")
	assert.Contains(t, out, "217,500 USD")
}

func TestBackfillAndCompatViews(t *testing.T) {
	p := backfill.Prioritize(nil, config.DefaultConfig().Backfill)
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatText, &buf, false).Output(BackfillView(p)))
	assert.Contains(t, buf.String(), "0 files: 0 critical")

	l, err := compat.Build("users", []compat.Mapping{{Source: "a", Target: "b"}})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, NewFormatter(FormatText, &buf, false).Output(CompatView(l)))
	assert.Contains(t, buf.String(), "target.b = source.a")
}

func TestMarshalYAMLUsesJSONNames(t *testing.T) {
	type row struct {
		RiskScore float64 `json:"risk_score"`
	}
	out, err := Marshal(FormatYAML, []row{{RiskScore: 3.5}})
	require.NoError(t, err)
	assert.Equal(t, "- risk_score: 3.5\n", string(out))
}
