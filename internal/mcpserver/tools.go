package mcpserver

import (
	"bytes"
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/revamp/internal/output"
	"github.com/panbanda/revamp/internal/service/assess"
	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/artifact/backfill"
	"github.com/panbanda/revamp/pkg/artifact/strangler"
	"github.com/panbanda/revamp/pkg/migration"
)

// ProjectInput selects the project to inspect.
type ProjectInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Project root. Defaults to the current directory."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml or markdown."`
}

// AssessInput adds optional input files to an assessment.
type AssessInput struct {
	ProjectInput
	Manifest string `json:"manifest,omitempty" jsonschema:"Dependency manifest path. Discovered in the project root if empty."`
	Coverage string `json:"coverage,omitempty" jsonschema:"Coverage summary path. Defaults to coverage/coverage-summary.json."`
}

// ComplexityInput limits the hotspot list.
type ComplexityInput struct {
	ProjectInput
	Top int `json:"top,omitempty" jsonschema:"Return the top N hotspots by risk. Default 20."`
}

// PlanInput is a pair of technology profiles.
type PlanInput struct {
	Current     migration.TechnologyProfile `json:"current" jsonschema:"The system as it runs today."`
	Target      migration.TechnologyProfile `json:"target" jsonschema:"The system after migration."`
	Strategy    string                      `json:"strategy,omitempty" jsonschema:"Force a strategy instead of selecting one."`
	HealthScore *float64                    `json:"health_score,omitempty" jsonschema:"Overall health from assess_health. Low scores raise risk probabilities."`
	Format      string                      `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml or markdown."`
}

// StranglerInput is the routing facade definition.
type StranglerInput struct {
	strangler.Input
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml or markdown."`
}

func projectPath(in ProjectInput) string {
	if in.Path == "" {
		return "."
	}
	return in.Path
}

func formatFor(s string) output.Format {
	f, err := output.ParseFormat(s)
	if err != nil || f == output.FormatText {
		return output.FormatTOON
	}
	return f
}

// render produces the tool text. Markdown uses the human view when one is
// given; document formats serialize data.
func render(data any, view output.Renderable, format output.Format) (string, error) {
	if format == output.FormatMarkdown && view != nil {
		var buf bytes.Buffer
		if err := view.RenderMarkdown(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	if !format.IsDocument() {
		format = output.FormatTOON
	}
	out, err := output.Marshal(format, data)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func toolResult(data any, view output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := render(data, view, format)
	if err != nil {
		return toolError(err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + msg}},
		IsError: true,
	}, nil, nil
}

func (s *Server) assess(ctx context.Context, in AssessInput) (*assess.Result, error) {
	svc := assess.New(
		assess.WithConfig(s.config),
		assess.WithTool(s.tool),
		assess.WithLogger(s.logger),
	)
	return svc.Run(ctx, assess.Request{
		Root:     projectPath(in.ProjectInput),
		Manifest: in.Manifest,
		Coverage: in.Coverage,
	})
}

func (s *Server) handleAssessHealth(ctx context.Context, _ *mcp.CallToolRequest, in AssessInput) (*mcp.CallToolResult, any, error) {
	res, err := s.assess(ctx, in)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(res.Report, output.HealthView(res.Report), formatFor(in.Format))
}

func (s *Server) handleAnalyzeComplexity(ctx context.Context, _ *mcp.CallToolRequest, in ComplexityInput) (*mcp.CallToolResult, any, error) {
	res, err := s.assess(ctx, AssessInput{ProjectInput: in.ProjectInput})
	if err != nil {
		return toolError(err.Error())
	}
	if res.Report.Complexity == nil {
		return toolError("complexity analysis produced no result")
	}
	cx := *res.Report.Complexity
	top := in.Top
	if top <= 0 {
		top = 20
	}
	if len(cx.Hotspots) > top {
		cx.Hotspots = cx.Hotspots[:top]
	}
	return toolResult(&cx, nil, formatFor(in.Format))
}

func (s *Server) handlePlanMigration(_ context.Context, _ *mcp.CallToolRequest, in PlanInput) (*mcp.CallToolResult, any, error) {
	plan, err := migration.New(s.config.Migration, migration.WithLogger(s.logger)).Plan(migration.Request{
		Current:     in.Current,
		Target:      in.Target,
		Strategy:    migration.StrategyName(in.Strategy),
		HealthScore: in.HealthScore,
	})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(plan, output.PlanView(plan), formatFor(in.Format))
}

func (s *Server) handleBackfillPlan(ctx context.Context, _ *mcp.CallToolRequest, in ProjectInput) (*mcp.CallToolResult, any, error) {
	res, err := s.assess(ctx, AssessInput{ProjectInput: in})
	if err != nil {
		return toolError(err.Error())
	}
	var hotspots []complexity.Hotspot
	if res.Report.Complexity != nil {
		hotspots = res.Report.Complexity.Hotspots
	}
	plan := backfill.Prioritize(hotspots, s.config.Backfill)
	return toolResult(plan, output.BackfillView(plan), formatFor(in.Format))
}

func (s *Server) handleStranglerConfig(_ context.Context, _ *mcp.CallToolRequest, in StranglerInput) (*mcp.CallToolResult, any, error) {
	cfg, err := strangler.Generate(in.Input)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(cfg, output.StranglerView(cfg), formatFor(in.Format))
}
