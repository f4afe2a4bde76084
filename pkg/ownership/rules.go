package ownership

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultCodeownersPath is where GitHub expects the CODEOWNERS file,
// relative to the repository root.
const DefaultCodeownersPath = ".github/CODEOWNERS"

// ErrNotInRepo is returned when an absolute CODEOWNERS path points outside
// the repository root.
var ErrNotInRepo = errors.New("codeowners file is not inside the repository")

// Rule is a single CODEOWNERS declaration: a pattern, the owners declared
// for it (order preserved), and its 1-based line number in the source file.
type Rule struct {
	Pattern    string
	Owners     []string
	LineNumber int
}

// ParseRules reads CODEOWNERS rules in file declaration order. Blank lines
// and '#' comments are skipped; everything else is tokenized on whitespace
// with the first token as the pattern and the rest as owners. Unparseable
// content never fails - a line with no tokens simply yields no rule.
func ParseRules(r io.Reader) []Rule {
	rules := make([]Rule, 0)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		rules = append(rules, Rule{
			Pattern:    parts[0],
			Owners:     parts[1:],
			LineNumber: lineNumber,
		})
	}
	return rules
}

// Ownership answers which owners govern a path, per a parsed CODEOWNERS
// file. It keeps the canonical rule list in file order for auditing and a
// reversed copy for lookups, so the first structural match during a scan is
// the last-declared (highest precedence) rule.
type Ownership struct {
	rules    []Rule
	reversed []Rule
	matcher  *Matcher
}

// New reads the CODEOWNERS file of the repository at repoDir and builds an
// Ownership from it. codeownersPath may be empty (the default GitHub
// location is used), relative to repoDir, or absolute; an absolute path
// outside repoDir fails with ErrNotInRepo and a missing file fails with an
// error wrapping fs.ErrNotExist.
func New(repoDir string, codeownersPath string) (*Ownership, error) {
	if codeownersPath == "" {
		codeownersPath = DefaultCodeownersPath
	}
	resolved := codeownersPath
	if filepath.IsAbs(codeownersPath) {
		rel, err := filepath.Rel(repoDir, codeownersPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s (repository root %s)", ErrNotInRepo, codeownersPath, repoDir)
		}
	} else {
		resolved = filepath.Join(repoDir, codeownersPath)
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("codeowners file not found at %s: %w", resolved, err)
		}
		return nil, err
	}
	defer file.Close()
	return FromReader(file), nil
}

// FromReader builds an Ownership from raw CODEOWNERS content.
func FromReader(r io.Reader) *Ownership {
	rules := ParseRules(r)
	reversed := slices.Clone(rules)
	slices.Reverse(reversed)
	return &Ownership{
		rules:    rules,
		reversed: reversed,
		matcher:  NewMatcher(),
	}
}

// Rules returns the rules in file declaration order.
func (o *Ownership) Rules() []Rule {
	return o.rules
}

// GetOwners returns the owners of the highest-precedence rule covering
// relPath, or an empty slice when no rule matches. The last matching rule in
// the file wins.
func (o *Ownership) GetOwners(relPath string) []string {
	for _, rule := range o.reversed {
		if o.matcher.Covers(relPath, rule.Pattern) {
			return rule.Owners
		}
	}
	return nil
}

// GetFirstOwner returns the first owner of the rule covering relPath, and
// false when the path is unowned.
func (o *Ownership) GetFirstOwner(relPath string) (string, bool) {
	owners := o.GetOwners(relPath)
	if len(owners) == 0 {
		return "", false
	}
	return owners[0], true
}

// IsOwnedBy reports whether owner is among the owners of relPath.
func (o *Ownership) IsOwnedBy(relPath string, owner string) bool {
	return slices.Contains(o.GetOwners(relPath), owner)
}
