// Package scanner walks a project tree and produces one FileRecord per
// recognized source file. It is the only stage that touches the filesystem
// and version history; every analyzer consumes its Result.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/revamp/internal/cache"
	"github.com/panbanda/revamp/pkg/analyzer"
	"github.com/panbanda/revamp/pkg/config"
	"github.com/panbanda/revamp/pkg/external"
)

// FileRecord describes one scanned source file.
type FileRecord struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Lines    int    `json:"lines"`
	Churn    int    `json:"churn"`
	Imports  int    `json:"imports"`
}

// Result is the immutable output of a scan.
type Result struct {
	Root              string       `json:"root"`
	Files             []FileRecord `json:"files"`
	TotalLines        int          `json:"total_lines"`
	Truncated         int          `json:"truncated"`
	SkippedLarge      int          `json:"skipped_large"`
	DeepAnalysisLimit int          `json:"deep_analysis_limit"`
	Warnings          []string     `json:"warnings,omitempty"`
}

// DeepSample returns the files eligible for per-symbol analysis.
func (r *Result) DeepSample() []FileRecord {
	if r.DeepAnalysisLimit <= 0 || len(r.Files) <= r.DeepAnalysisLimit {
		return r.Files
	}
	return r.Files[:r.DeepAnalysisLimit]
}

// Lookup returns the record for a relative path.
func (r *Result) Lookup(path string) (FileRecord, bool) {
	for _, f := range r.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileRecord{}, false
}

// PathError indicates an unusable scan root.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid scan root %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Scanner finds source files and measures them.
type Scanner struct {
	config   *config.Config
	tool     external.Tool
	cache    *cache.Cache
	logger   *slog.Logger
	extMap   map[string]string
	imports  []*regexp.Regexp
	matchers []gitignore.Matcher
	gitRoot  string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithTool sets the external tool used for churn.
func WithTool(t external.Tool) Option {
	return func(s *Scanner) {
		s.tool = t
	}
}

// WithCache enables caching of commit counts by HEAD revision.
func WithCache(c *cache.Cache) Option {
	return func(s *Scanner) {
		s.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// New creates a scanner. A nil config uses the defaults.
func New(cfg *config.Config, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{
		config:  cfg,
		tool:    external.Nop{},
		cache:   cache.Disabled(),
		logger:  slog.Default(),
		extMap:  cfg.ExtensionMap(),
		imports: config.CompilePatterns(cfg.Scan.ImportPatterns),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks root and returns the records of every recognized source file.
// Only an unusable root is an error; everything else degrades with a warning.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &PathError{Path: root, Err: errors.New("not a directory")}
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	res := &Result{
		Root:              absRoot,
		DeepAnalysisLimit: s.config.Scan.DeepAnalysisLimit,
	}

	s.loadIgnorePatterns(absRoot)

	paths, err := s.walk(ctx, absRoot)
	if err != nil {
		return nil, err
	}

	paths, res.SkippedLarge = FilterBySize(paths, s.config.Scan.MaxFileSize)
	if res.SkippedLarge > 0 {
		s.logger.Debug("skipped oversized files", "count", res.SkippedLarge)
	}

	if limit := s.config.Scan.MaxFiles; limit > 0 && len(paths) > limit {
		res.Truncated = len(paths) - limit
		paths = paths[:limit]
		res.warn(s.logger, fmt.Sprintf("file cap reached: %d files excluded beyond %d", res.Truncated, limit))
	}

	records := analyzer.ForEachFile(paths, func(path string) (FileRecord, error) {
		return s.measure(absRoot, path)
	}, nil)

	counts := s.commitCounts(ctx, absRoot, records, res)
	for i := range records {
		records[i].Churn = counts[records[i].Path]
		res.TotalLines += records[i].Lines
	}
	res.Files = records

	return res, nil
}

func (r *Result) warn(logger *slog.Logger, msg string) {
	logger.Warn(msg)
	r.Warnings = append(r.Warnings, msg)
}

func (s *Scanner) walk(ctx context.Context, absRoot string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == absRoot {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			target, err := os.Stat(resolved)
			if err != nil || target.IsDir() {
				return nil
			}
		}

		if d.IsDir() {
			if s.config.IsExcludedDir(d.Name()) || s.isIgnored(path, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := s.extMap[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if s.isIgnored(path, false) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})

	return paths, err
}

func (s *Scanner) measure(absRoot, path string) (FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Debug("skipping unreadable file", "path", path, "error", err)
		return FileRecord{}, err
	}

	rel, err := filepath.Rel(absRoot, path)
	if err != nil {
		return FileRecord{}, err
	}

	return FileRecord{
		Path:     filepath.ToSlash(rel),
		Language: s.extMap[strings.ToLower(filepath.Ext(path))],
		Lines:    CountLines(data),
		Imports:  CountImports(data, s.imports),
	}, nil
}

// commitCounts gathers churn for every record. Failures produce zero churn
// and a single warning.
func (s *Scanner) commitCounts(ctx context.Context, absRoot string, records []FileRecord, res *Result) map[string]int {
	if len(records) == 0 {
		return nil
	}

	if batch, ok := s.tool.(external.BatchCounter); ok {
		head := ""
		if hr, ok := s.tool.(external.HeadResolver); ok {
			head, _ = hr.Head(absRoot)
		}
		key := cache.Key("churn", absRoot)

		var counts map[string]int
		if head != "" && s.cache.Load(key, head, &counts) {
			s.logger.Debug("churn loaded from cache", "head", head)
			return counts
		}

		counts, err := batch.CommitCounts(ctx, absRoot)
		switch {
		case err == nil:
			if head != "" {
				if err := s.cache.Store(key, head, counts); err != nil {
					s.logger.Debug("failed to cache churn", "error", err)
				}
			}
			return counts
		case !errors.Is(err, external.ErrNotConfigured):
			res.warn(s.logger, fmt.Sprintf("version history unavailable, churn set to 0: %v", err))
			return nil
		}
	}

	counts := make(map[string]int, len(records))
	failed := 0
	var firstErr error
	for _, rec := range records {
		n, err := s.tool.CountCommits(ctx, absRoot, rec.Path)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			if errors.Is(err, external.ErrNotConfigured) || errors.Is(err, external.ErrToolUnavailable) {
				failed = len(records)
				break
			}
			continue
		}
		counts[rec.Path] = n
	}
	if failed > 0 {
		res.warn(s.logger, fmt.Sprintf("version history unavailable for %d files, churn set to 0: %v", failed, firstErr))
	}
	return counts
}

// loadIgnorePatterns reads every .gitignore in the enclosing repository.
func (s *Scanner) loadIgnorePatterns(absRoot string) {
	s.matchers = nil
	s.gitRoot = ""
	if !s.config.Scan.Gitignore {
		return
	}

	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.gitRoot = gitRoot
	s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
}

func (s *Scanner) isIgnored(path string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.gitRoot, path)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// findGitRoot finds the root of the git repository by looking for .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FilterBySize drops files larger than maxSize bytes, typically generated or
// minified sources. Returns the kept list and the number skipped.
// If maxSize is 0, returns the original list unchanged.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered, skipped
}

// CountLines counts newline-terminated lines plus a trailing partial line.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// CountImports counts lines matching any import-like pattern.
func CountImports(data []byte, patterns []*regexp.Regexp) int {
	count := 0
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		for _, re := range patterns {
			if re.Match(line) {
				count++
				break
			}
		}
	}
	return count
}
