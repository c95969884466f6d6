package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/revamp/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start the MCP (Model Context Protocol) server over stdio",
		Description: `Exposes revamp's assessments, planner and generators as tools an LLM
client can call.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "revamp": {
        "command": "revamp",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - assess_health               Weighted health score with prioritized actions
  - analyze_complexity          Complexity and churn hotspots
  - plan_migration              Phased migration plan, risks, timeline and cost
  - generate_backfill_plan      Prioritized test backfill plan
  - generate_strangler_config   Routing facade with per-route feature flags`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the server.json registry manifest",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(cfg),
		mcpserver.WithLogger(newLogger(c)),
	)
	return server.Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout(c), string(data))
	return nil
}
