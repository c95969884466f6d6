package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoHead is returned when a repository has no commits.
var ErrNoHead = errors.New("repository has no HEAD commit")

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &gitRepository{repo: repo, root: root}, nil
}

// gitRepository wraps go-git Repository.
type gitRepository struct {
	repo *git.Repository
	root string
}

func (r *gitRepository) RepoPath() string {
	return r.root
}

func (r *gitRepository) HeadHash() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHead, err)
	}
	return ref.Hash().String(), nil
}

// CommitCounts walks the full log from HEAD. It is the slow path used when
// the git binary is unavailable.
func (r *gitRepository) CommitCounts(ctx context.Context) (map[string]int, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHead, err)
	}

	iter, err := r.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	defer iter.Close()

	counts := make(map[string]int)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats, err := c.Stats()
		if err != nil {
			return nil
		}
		for _, s := range stats {
			counts[filepath.ToSlash(s.Name)]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// nameOnlyLogArgs lists every path touched per commit. quotePath is off so
// non-ASCII names come out verbatim.
var nameOnlyLogArgs = []string{"-c", "core.quotePath=false", "log", "--format=", "--name-only", "--relative"}

// NativeCommitCounts counts commits per path with the git binary in a single
// pass. Paths are relative to dir and restricted to it.
func NativeCommitCounts(ctx context.Context, dir string) (map[string]int, error) {
	cmd := exec.CommandContext(ctx, "git", nameOnlyLogArgs...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("git log: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("git log: %w", err)
	}

	return ParseNameOnlyLog(stdout.String()), nil
}

// NativeFileCommitCount counts the commits touching a single path.
func NativeFileCommitCount(ctx context.Context, dir, path string) (int, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-list", "--count", "HEAD", "--", path)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("git rev-list: %w", err)
	}

	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(stdout.String()), "%d", &n); err != nil {
		return 0, fmt.Errorf("parse commit count: %w", err)
	}
	return n, nil
}

// ParseNameOnlyLog tallies the file names printed by `git log --name-only`.
func ParseNameOnlyLog(out string) map[string]int {
	counts := make(map[string]int)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		counts[line]++
	}
	return counts
}

// RebaseCounts re-keys repository-relative counts to paths relative to sub,
// dropping entries outside it. sub is a directory inside the repository.
func RebaseCounts(counts map[string]int, repoRoot, sub string) map[string]int {
	rel, err := filepath.Rel(repoRoot, sub)
	if err != nil || rel == "." {
		return counts
	}
	prefix := filepath.ToSlash(rel) + "/"

	out := make(map[string]int)
	for path, n := range counts {
		if strings.HasPrefix(path, prefix) {
			out[strings.TrimPrefix(path, prefix)] = n
		}
	}
	return out
}

var defaultOpener Opener = NewGitOpener()

// DefaultOpener returns the default git opener.
func DefaultOpener() Opener {
	return defaultOpener
}

// SetDefaultOpener sets the default git opener (useful for testing).
func SetDefaultOpener(opener Opener) {
	defaultOpener = opener
}
