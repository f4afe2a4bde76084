package git

import (
	"fmt"
	"os/exec"
)

// commandExecutor is the seam between the git helpers and the git binary, so
// tests can substitute canned output.
type commandExecutor interface {
	execute(name string, args ...string) ([]byte, error)
}

type realExecutor struct {
	dir string
}

func newRealExecutor(dir string) *realExecutor {
	return &realExecutor{dir: dir}
}

func (e *realExecutor) execute(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = e.dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %s\n%s", name, err, output)
	}
	return output, nil
}
