package hooks

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	f "github.com/luminartech/dev-tools/pkg/functional"
)

// ConfigFileName is the pre-commit config at the repository root.
const ConfigFileName = ".pre-commit-config.yaml"

type preCommitConfig struct {
	Repos []struct {
		Hooks []hookConfig `yaml:"hooks"`
	} `yaml:"repos"`
}

type hookConfig struct {
	ID      string `yaml:"id"`
	Exclude string `yaml:"exclude"`
}

// Hook is one pre-commit hook together with the literal (non-regex) paths
// its exclude expression names.
type Hook struct {
	ID           string
	ExcludePaths []string
}

// LoadHooks parses the pre-commit config and returns every hook with a
// non-trivial exclude expression.
func LoadHooks(configFile string) ([]Hook, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	var config preCommitConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configFile, err)
	}

	hooks := make([]Hook, 0)
	for _, repo := range config.Repos {
		for _, hook := range repo.Hooks {
			if hook.Exclude == "" || hook.Exclude == "^$" {
				continue
			}
			hooks = append(hooks, Hook{ID: hook.ID, ExcludePaths: excludePaths(hook.Exclude)})
		}
	}
	return hooks, nil
}

// excludePaths explodes a '(?x)^(a|b|c)$'-style exclude expression into its
// literal path alternatives, dropping entries that are regex patterns rather
// than plain paths.
func excludePaths(exclude string) []string {
	replacer := strings.NewReplacer("\n", "", " ", "", "(?x)^(", "", "^", "", ")", "")
	paths := make([]string, 0)
	for _, entry := range strings.Split(replacer.Replace(exclude), "|") {
		if entry == "" || isRegexPattern(entry) {
			continue
		}
		paths = append(paths, entry)
	}
	return paths
}

func isRegexPattern(exclude string) bool {
	return strings.ContainsAny(exclude, "*$^")
}

// FindDuplicates returns the exclude paths listed more than once.
func (h Hook) FindDuplicates() []string {
	counts := make(map[string]int, len(h.ExcludePaths))
	for _, path := range h.ExcludePaths {
		counts[path]++
	}
	return f.Filtered(f.RemoveDuplicates(slices.Clone(h.ExcludePaths)), func(path string) bool {
		return counts[path] > 1
	})
}

// FindMissingPaths returns the exclude paths that do not exist under root.
func (h Hook) FindMissingPaths(root string) []string {
	return f.Filtered(h.ExcludePaths, func(path string) bool {
		_, err := os.Stat(filepath.Join(root, path))
		return err != nil
	})
}

// CheckExcludes audits every hook's exclude paths and prints one line per
// finding. It returns true when at least one finding was reported.
func CheckExcludes(root string, hooksList []Hook, out io.Writer) bool {
	type finding struct {
		hookID string
		path   string
	}
	missing := make([]finding, 0)
	duplicates := make([]finding, 0)
	for _, hook := range hooksList {
		for _, path := range hook.FindMissingPaths(root) {
			missing = append(missing, finding{hook.ID, path})
		}
		for _, path := range hook.FindDuplicates() {
			duplicates = append(duplicates, finding{hook.ID, path})
		}
	}

	if len(missing) > 0 {
		fmt.Fprintf(out, "Remove the following non-existing exclusions in %s:\n", ConfigFileName)
		for _, found := range missing {
			fmt.Fprintf(out, "In hook %s: %s\n", found.hookID, found.path)
		}
	}
	if len(duplicates) > 0 {
		fmt.Fprintf(out, "Remove the following duplicates from the exclusions in %s:\n", ConfigFileName)
		for _, found := range duplicates {
			fmt.Fprintf(out, "In hook %s: %s\n", found.hookID, found.path)
		}
	}
	return len(missing) > 0 || len(duplicates) > 0
}
