package git

import (
	"errors"
	"reflect"
	"testing"
)

type fakeExecutor struct {
	output []byte
	err    error
	calls  [][]string
}

func (e *fakeExecutor) execute(name string, args ...string) ([]byte, error) {
	e.calls = append(e.calls, append([]string{name}, args...))
	return e.output, e.err
}

func TestTrackedFiles(t *testing.T) {
	executor := &fakeExecutor{output: []byte("a.py\nsrc/b.py\n\n")}
	repo := &Repo{dir: ".", executor: executor}

	files, err := repo.TrackedFiles()
	if err != nil {
		t.Fatalf("TrackedFiles() error: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"a.py", "src/b.py"}) {
		t.Errorf("Expected [a.py src/b.py], got %v", files)
	}
	if len(executor.calls) != 1 || executor.calls[0][1] != "ls-files" {
		t.Errorf("Expected one git ls-files call, got %v", executor.calls)
	}
}

func TestTrackedFilesError(t *testing.T) {
	executor := &fakeExecutor{err: errors.New("not a git repository")}
	repo := &Repo{dir: ".", executor: executor}

	if _, err := repo.TrackedFiles(); err == nil {
		t.Error("Expected error from failing git command")
	}
}

const testDiff = `diff --git a/src/a.py b/src/a.py
index 0000000..1111111 100644
--- a/src/a.py
+++ b/src/a.py
@@ -1,0 +2,1 @@
+new line
diff --git a/vendor/lib.py b/vendor/lib.py
index 0000000..1111111 100644
--- a/vendor/lib.py
+++ b/vendor/lib.py
@@ -1,0 +2,1 @@
+vendored line
`

func TestChangedFiles(t *testing.T) {
	executor := &fakeExecutor{output: []byte(testDiff)}
	context := DiffContext{Base: "main", Head: "HEAD", Dir: "."}

	files, err := changedFiles(context, executor)
	if err != nil {
		t.Fatalf("changedFiles() error: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"src/a.py", "vendor/lib.py"}) {
		t.Errorf("Expected both changed files, got %v", files)
	}
}

func TestChangedFilesIgnoresDirs(t *testing.T) {
	executor := &fakeExecutor{output: []byte(testDiff)}
	context := DiffContext{Base: "main", Head: "HEAD", Dir: ".", IgnoreDirs: []string{"vendor"}}

	files, err := changedFiles(context, executor)
	if err != nil {
		t.Fatalf("changedFiles() error: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"src/a.py"}) {
		t.Errorf("Expected ignored dir to be filtered, got %v", files)
	}
}

func TestChangedFilesDiffError(t *testing.T) {
	executor := &fakeExecutor{err: errors.New("bad revision")}
	if _, err := changedFiles(DiffContext{Base: "main", Head: "HEAD"}, executor); err == nil {
		t.Error("Expected error from failing git diff")
	}
}
