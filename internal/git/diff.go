package git

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// DiffContext describes which revisions of which repository to diff.
type DiffContext struct {
	Base       string
	Head       string
	Dir        string
	IgnoreDirs []string
}

// ChangedFiles returns the repo-relative names of the files changed between
// Base and Head, with files under the ignored directories filtered out.
func ChangedFiles(context DiffContext) ([]string, error) {
	return changedFiles(context, newRealExecutor(context.Dir))
}

func changedFiles(context DiffContext, executor commandExecutor) ([]string, error) {
	output, err := executor.execute("git", "diff", "-U0", fmt.Sprintf("%s...%s", context.Base, context.Head))
	if err != nil {
		return nil, fmt.Errorf("Diff Error: %w", err)
	}
	fileDiffs, err := diff.ParseMultiFileDiff(output)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(fileDiffs))
	for _, d := range fileDiffs {
		// strip the "b/" prefix git puts on the new name
		name := d.NewName[2:]
		ignored := slices.ContainsFunc(context.IgnoreDirs, func(dir string) bool {
			return strings.HasPrefix(name, dir)
		})
		if !ignored {
			files = append(files, name)
		}
	}
	return files, nil
}
