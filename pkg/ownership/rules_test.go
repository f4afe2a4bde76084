package ownership

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseRules(t *testing.T) {
	content := `/src/ devs

# comment ignore
/docs/ devs management
orphaned-pattern
`
	rules := ParseRules(strings.NewReader(content))

	expected := []Rule{
		{Pattern: "/src/", Owners: []string{"devs"}, LineNumber: 1},
		{Pattern: "/docs/", Owners: []string{"devs", "management"}, LineNumber: 4},
		{Pattern: "orphaned-pattern", Owners: []string{}, LineNumber: 5},
	}

	if len(rules) != len(expected) {
		t.Fatalf("Expected %d rules, got %d", len(expected), len(rules))
	}
	for i, rule := range rules {
		if !reflect.DeepEqual(rule, expected[i]) {
			t.Errorf("Expected rule %+v, got %+v", expected[i], rule)
		}
	}
}

func TestGetOwners(t *testing.T) {
	ownersIndex := FromReader(strings.NewReader(`/foo.txt devs
/docs/ devs management`))

	tt := []struct {
		path string
		want []string
	}{
		{"foo.txt", []string{"devs"}},
		{"docs", []string{"devs", "management"}},
		{"docs/guide.md", []string{"devs", "management"}},
		{"scripts", nil},
	}

	for _, tc := range tt {
		got := ownersIndex.GetOwners(tc.path)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("GetOwners(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestGetOwnersLastMatchWins(t *testing.T) {
	ownersIndex := FromReader(strings.NewReader(`/foo/bar bar-owner
/foo/bar/package package-owner`))

	tt := []struct {
		path string
		want string
	}{
		{"foo/bar", "bar-owner"},
		{"foo/bar/package", "package-owner"},
		{"foo/bar/something_else", "bar-owner"},
	}

	for _, tc := range tt {
		got := ownersIndex.GetOwners(tc.path)
		if len(got) != 1 || got[0] != tc.want {
			t.Errorf("GetOwners(%q) = %v, want [%s]", tc.path, got, tc.want)
		}
	}
}

func TestGetFirstOwner(t *testing.T) {
	ownersIndex := FromReader(strings.NewReader(`/src/ devs
/docs/ devs management`))

	owner, found := ownersIndex.GetFirstOwner("docs")
	if !found || owner != "devs" {
		t.Errorf("GetFirstOwner(\"docs\") = %q, %v, want \"devs\", true", owner, found)
	}
	if _, found := ownersIndex.GetFirstOwner("scripts"); found {
		t.Errorf("GetFirstOwner(\"scripts\") found an owner, want none")
	}
}

func TestIsOwnedBy(t *testing.T) {
	ownersIndex := FromReader(strings.NewReader(`/foo.txt devs
/docs/ devs management`))

	tt := []struct {
		path  string
		owner string
		want  bool
	}{
		{"foo.txt", "devs", true},
		{"foo.txt", "management", false},
		{"docs", "devs", true},
		{"docs", "management", true},
	}

	for _, tc := range tt {
		if got := ownersIndex.IsOwnedBy(tc.path, tc.owner); got != tc.want {
			t.Errorf("IsOwnedBy(%q, %q) = %v, want %v", tc.path, tc.owner, got, tc.want)
		}
	}
}

func TestParseIsIdempotent(t *testing.T) {
	content := `/src/ devs
test_* qa devs
/docs/ devs management`
	first := FromReader(strings.NewReader(content))
	second := FromReader(strings.NewReader(content))

	for _, path := range []string{"src/a.py", "test_b.py", "docs/guide.md", "scripts/run.sh"} {
		if !reflect.DeepEqual(first.GetOwners(path), second.GetOwners(path)) {
			t.Errorf("Two parses of the same content disagree on %q", path)
		}
	}
}

func TestNewReadsDefaultLocation(t *testing.T) {
	repoDir := t.TempDir()
	writeCodeowners(t, repoDir, "/src/ devs\n")

	ownersIndex, err := New(repoDir, "")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if len(ownersIndex.Rules()) != 1 {
		t.Errorf("Expected 1 rule, got %d", len(ownersIndex.Rules()))
	}
}

func TestNewMissingFile(t *testing.T) {
	repoDir := t.TempDir()

	_, err := New(repoDir, "")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestNewAbsolutePathOutsideRepo(t *testing.T) {
	repoDir := t.TempDir()
	otherDir := t.TempDir()
	writeCodeowners(t, otherDir, "/src/ devs\n")

	_, err := New(repoDir, filepath.Join(otherDir, DefaultCodeownersPath))
	if !errors.Is(err, ErrNotInRepo) {
		t.Errorf("Expected ErrNotInRepo, got %v", err)
	}
}

func TestNewAbsolutePathInsideRepo(t *testing.T) {
	repoDir := t.TempDir()
	writeCodeowners(t, repoDir, "/src/ devs\n")

	ownersIndex, err := New(repoDir, filepath.Join(repoDir, DefaultCodeownersPath))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if len(ownersIndex.Rules()) != 1 {
		t.Errorf("Expected 1 rule, got %d", len(ownersIndex.Rules()))
	}
}

func writeCodeowners(t *testing.T, repoDir string, content string) {
	t.Helper()
	path := filepath.Join(repoDir, DefaultCodeownersPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
