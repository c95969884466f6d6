package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/revamp/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration as TOML",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  revamp config show
  revamp -c revamp.toml config show`,
				Action: runConfigShow,
			},
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Checks a revamp configuration file for syntax errors and invalid values.

Examples:
  revamp config validate
  revamp -c .revamp/revamp.toml config validate`,
				Action: runConfigValidate,
			},
		},
	}
}

// resolveConfig loads without validating so that show and validate can
// report problems themselves.
func resolveConfig(c *cli.Context) (*config.Config, string, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	return config.LoadOrDefault()
}

func runConfigValidate(c *cli.Context) error {
	cfg, source, err := resolveConfig(c)
	if err == nil {
		err = cfg.Validate()
	}
	w := stdout(c)
	if err != nil {
		fmt.Fprintln(w, color.RedString("Configuration validation failed:"))
		fmt.Fprintf(w, "  - %s\n", err)
		return err
	}

	if source != "" {
		fmt.Fprintln(w, color.GreenString("Configuration valid: %s", source))
	} else {
		fmt.Fprintln(w, color.YellowString("No config file found. Default configuration is valid."))
	}
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, source, err := resolveConfig(c)
	if err != nil {
		return err
	}

	w := stdout(c)
	if source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(*cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(w, string(content))
	return nil
}
