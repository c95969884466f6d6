// Package mcpserver exposes assessments, migration planning and artifact
// generation as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"io"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/revamp/pkg/config"
	"github.com/panbanda/revamp/pkg/external"
)

// Server wraps the MCP server and the dependencies its tools share.
type Server struct {
	server *mcp.Server
	config *config.Config
	tool   external.Tool
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration used by every tool.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithTool replaces the external tool adapter.
func WithTool(t external.Tool) Option {
	return func(s *Server) {
		s.tool = t
	}
}

// WithLogger sets the logger. Stdout carries the protocol, so the default
// logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates an MCP server with every tool and prompt registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		config: config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tool == nil {
		s.tool = external.New(s.config.External, external.WithLogger(s.logger))
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "assess_health",
		Description: describeAssessHealth(),
	}, s.handleAssessHealth)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_complexity",
		Description: describeComplexity(),
	}, s.handleAnalyzeComplexity)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "plan_migration",
		Description: describePlanMigration(),
	}, s.handlePlanMigration)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_backfill_plan",
		Description: describeBackfill(),
	}, s.handleBackfillPlan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_strangler_config",
		Description: describeStrangler(),
	}, s.handleStranglerConfig)
}
