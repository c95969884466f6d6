package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/revamp/internal/output"
	"github.com/panbanda/revamp/internal/report"
	"github.com/panbanda/revamp/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "revamp",
		Usage:   "Assess legacy codebases and plan their modernization",
		Version: version,
		Description: `revamp scores the health of a legacy codebase (dependencies, dead code,
complexity, architecture and test coverage), plans migrations between
technology stacks and generates the artifacts a migration needs: strangler
facade config, compatibility layers, data migration scripts and test
backfill plans.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"REVAMP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, yaml, toon",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging on stderr",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			assessCmd(),
			planCmd(),
			generateCmd(),
			configCmd(),
			mcpCmd(),
		},
	}
}

// loadConfig reads --config or the default locations, then validates.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		loaded, _, err := config.LoadOrDefault()
		if err != nil {
			status(c).Warning("%v; using default configuration", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}
	return cfg, nil
}

// newLogger writes to stderr at info level, or debug with --verbose.
func newLogger(c *cli.Context) *slog.Logger {
	return loggerTo(stderr(c), c.Bool("verbose"))
}

func loggerTo(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func stderr(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// status prints progress and save notices on stderr so stdout stays
// parseable.
func status(c *cli.Context) *output.Formatter {
	return output.NewFormatter(output.FormatText, stderr(c), !color.NoColor)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// newFormatter honors --format, falling back to the configured format.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	name := c.String("format")
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, stdout(c), !color.NoColor), nil
}

// getPath returns the first positional argument, defaulting to ".".
func getPath(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// saveFlags are shared by every command that can persist its document.
func saveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Persist the document to the output directory",
		},
		&cli.StringFlag{
			Name:  "output-dir",
			Usage: "Directory for saved documents (default from config)",
		},
	}
}

// maybeSave persists doc when --save is set and reports where it went.
func maybeSave(c *cli.Context, cfg *config.Config, kind report.Kind, doc any) error {
	if !c.Bool("save") {
		return nil
	}
	dir := c.String("output-dir")
	if dir == "" {
		dir = cfg.Output.Dir
	}
	format, err := output.ParseFormat(cfg.Output.ReportFormat)
	if err != nil {
		return err
	}
	path, err := report.NewStore(dir, format).Save(kind, doc)
	if err != nil {
		return err
	}
	status(c).Success("Saved %s to %s", kind, filepath.ToSlash(path))
	return nil
}
