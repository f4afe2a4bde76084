package git

import (
	"fmt"
	"strings"
)

// Repo reads version-control state of a local repository.
type Repo struct {
	dir      string
	executor commandExecutor
}

// NewRepo creates a Repo for the repository at dir.
func NewRepo(dir string) *Repo {
	return &Repo{
		dir:      dir,
		executor: newRealExecutor(dir),
	}
}

// TrackedFiles returns the repo-relative paths of all git-tracked files.
func (r *Repo) TrackedFiles() ([]string, error) {
	output, err := r.executor.execute("git", "ls-files")
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked files in %s: %w", r.dir, err)
	}
	files := make([]string, 0)
	for _, line := range strings.Split(string(output), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// RepoRoot returns the absolute path of the repository containing dir.
func RepoRoot(dir string) (string, error) {
	output, err := newRealExecutor(dir).execute("git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to find repository root of %s: %w", dir, err)
	}
	return strings.TrimSpace(string(output)), nil
}
