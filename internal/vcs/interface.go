// Package vcs provides version control system abstractions.
package vcs

import "context"

// Repository provides the subset of history access the engine needs.
type Repository interface {
	// HeadHash returns the hex hash of the HEAD commit.
	HeadHash() (string, error)
	// RepoPath returns the root path of the working tree.
	RepoPath() string
	// CommitCounts returns the number of commits touching each path,
	// keyed by slash-separated paths relative to the working tree root.
	CommitCounts(ctx context.Context) (map[string]int, error)
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
