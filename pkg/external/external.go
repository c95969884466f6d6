// Package external wraps the third-party tools the engine consumes: a
// circular-dependency detector and a version-history commit counter.
//
// Commands are configured as argv lists and never passed through a shell.
// Every invocation runs under a bounded timeout.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/panbanda/revamp/internal/vcs"
	"github.com/panbanda/revamp/pkg/config"
)

// DefaultTimeout bounds a single external invocation.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotConfigured is returned when no command is configured for a capability.
	ErrNotConfigured = errors.New("external tool not configured")
	// ErrToolUnavailable is returned when the tool binary cannot be found.
	ErrToolUnavailable = errors.New("external tool unavailable")
)

// Cycle is a list of file paths forming a circular dependency.
type Cycle []string

// Tool is the capability the analyzers depend on.
type Tool interface {
	// RunCycleDetector returns the circular dependencies found under root.
	RunCycleDetector(ctx context.Context, root string) ([]Cycle, error)
	// CountCommits returns the number of changesets touching path.
	CountCommits(ctx context.Context, root, path string) (int, error)
}

// BatchCounter is implemented by tools that can count commits for every
// path in a single pass.
type BatchCounter interface {
	CommitCounts(ctx context.Context, root string) (map[string]int, error)
}

// HeadResolver is implemented by tools that can identify the current revision.
type HeadResolver interface {
	Head(root string) (string, error)
}

// ToolError records a failed external invocation.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Runner executes a command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, dir string, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, ErrNotConfigured
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolUnavailable, argv[0])
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%w: %s", err, msg)
		}
		return stdout.Bytes(), err
	}
	return stdout.Bytes(), nil
}

// Adapter implements Tool by shelling out to configured commands, with git
// as the default history source.
type Adapter struct {
	cycleCmd   []string
	historyCmd []string
	timeout    time.Duration
	runner     Runner
	opener     vcs.Opener
	logger     *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithRunner sets the command runner.
func WithRunner(r Runner) Option {
	return func(a *Adapter) {
		a.runner = r
	}
}

// WithOpener sets the git repository opener used for the history fallback.
func WithOpener(o vcs.Opener) Option {
	return func(a *Adapter) {
		a.opener = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// New creates an Adapter from the external tool configuration.
func New(cfg config.ExternalConfig, opts ...Option) *Adapter {
	a := &Adapter{
		cycleCmd:   cfg.CycleDetector,
		historyCmd: cfg.HistoryCommand,
		timeout:    cfg.Timeout,
		runner:     ExecRunner{},
		opener:     vcs.DefaultOpener(),
		logger:     slog.Default(),
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HasCycleDetector reports whether a cycle detector command is configured.
func (a *Adapter) HasCycleDetector() bool {
	return len(a.cycleCmd) > 0
}

// RunCycleDetector runs the configured detector and parses its JSON stdout,
// which must be an array of path arrays.
func (a *Adapter) RunCycleDetector(ctx context.Context, root string) ([]Cycle, error) {
	if !a.HasCycleDetector() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	argv := expand(a.cycleCmd, root, "")
	out, err := a.runner.Run(ctx, root, argv)
	if err != nil && len(bytes.TrimSpace(out)) == 0 {
		return nil, &ToolError{Tool: argv[0], Err: err}
	}
	// madge exits non-zero when it finds cycles; trust stdout when it parses.
	cycles, perr := ParseCycles(out)
	if perr == nil {
		return cycles, nil
	}
	if err != nil {
		return nil, &ToolError{Tool: argv[0], Err: err}
	}
	return nil, &ToolError{Tool: argv[0], Err: perr}
}

// ParseCycles decodes detector output. Empty output means no cycles.
func ParseCycles(out []byte) ([]Cycle, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return []Cycle{}, nil
	}
	var raw [][]string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode cycles: %w", err)
	}
	cycles := make([]Cycle, 0, len(raw))
	for _, c := range raw {
		if len(c) == 0 {
			continue
		}
		paths := make(Cycle, len(c))
		for i, p := range c {
			paths[i] = filepath.ToSlash(p)
		}
		cycles = append(cycles, paths)
	}
	return cycles, nil
}

// CountCommits returns the number of commits touching path.
func (a *Adapter) CountCommits(ctx context.Context, root, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if len(a.historyCmd) > 0 {
		argv := expand(a.historyCmd, root, path)
		out, err := a.runner.Run(ctx, root, argv)
		if err != nil {
			return 0, &ToolError{Tool: argv[0], Err: err}
		}
		n, err := strconv.Atoi(strings.TrimSpace(string(out)))
		if err != nil {
			return 0, &ToolError{Tool: argv[0], Err: fmt.Errorf("parse commit count: %w", err)}
		}
		return n, nil
	}

	n, err := vcs.NativeFileCommitCount(ctx, root, path)
	if err != nil {
		return 0, &ToolError{Tool: "git", Err: err}
	}
	return n, nil
}

// CommitCounts counts commits for every path under root in one pass. A
// custom history command only supports per-path queries, so it reports
// ErrNotConfigured and callers fall back to CountCommits.
func (a *Adapter) CommitCounts(ctx context.Context, root string) (map[string]int, error) {
	if len(a.historyCmd) > 0 {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if _, err := exec.LookPath("git"); err == nil {
		counts, err := vcs.NativeCommitCounts(ctx, root)
		if err == nil {
			return counts, nil
		}
		a.logger.Debug("native git history failed, falling back to go-git", "error", err)
	}

	repo, err := a.opener.PlainOpenWithDetect(root)
	if err != nil {
		return nil, &ToolError{Tool: "go-git", Err: err}
	}
	counts, err := repo.CommitCounts(ctx)
	if err != nil {
		return nil, &ToolError{Tool: "go-git", Err: err}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return vcs.RebaseCounts(counts, repo.RepoPath(), abs), nil
}

// Head returns the HEAD commit hash of the repository containing root.
func (a *Adapter) Head(root string) (string, error) {
	repo, err := a.opener.PlainOpenWithDetect(root)
	if err != nil {
		return "", err
	}
	return repo.HeadHash()
}

func expand(argv []string, root, path string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		arg = strings.ReplaceAll(arg, "{root}", root)
		arg = strings.ReplaceAll(arg, "{path}", path)
		out[i] = arg
	}
	return out
}

// Nop is a Tool with no external capabilities. Every call fails with
// ErrNotConfigured.
type Nop struct{}

// RunCycleDetector implements Tool.
func (Nop) RunCycleDetector(context.Context, string) ([]Cycle, error) {
	return nil, ErrNotConfigured
}

// CountCommits implements Tool.
func (Nop) CountCommits(context.Context, string, string) (int, error) {
	return 0, ErrNotConfigured
}
