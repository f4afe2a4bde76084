package ownership

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// CheckResult is a union of the violation categories found during a check
// run. The zero value means success; categories combine with '|' so one run
// can surface every problem at once.
type CheckResult uint

const (
	FolderNotExists CheckResult = 1 << iota
	DuplicateLines
	MultipleFolderOwners
	RuleIneffective
	FileWithoutTeamOwnership
)

// Success is the CheckResult with no violation categories set.
const Success CheckResult = 0

func (cr CheckResult) Ok() bool {
	return cr == Success
}

// Has reports whether the given category is part of the result.
func (cr CheckResult) Has(category CheckResult) bool {
	return cr&category != 0
}

type auditNode struct {
	children map[string]*auditNode
	owners   []string // normalized owner set of the last rule ending here
	line     int
}

func newAuditNode() *auditNode {
	return &auditNode{children: make(map[string]*auditNode)}
}

func (n *auditNode) childOrNew(name string) *auditNode {
	child, found := n.children[name]
	if !found {
		child = newAuditNode()
		n.children[name] = child
	}
	return child
}

// Auditor detects contradictory and ineffective CODEOWNERS rules: exact
// duplicates, same-pattern rules with different owners, and rules shadowed
// by an ancestor with the same owner set. Violations are printed to out, one
// line each, and accumulated into a CheckResult.
type Auditor struct {
	out io.Writer
}

func NewAuditor(out io.Writer) *Auditor {
	return &Auditor{out: out}
}

// Audit builds a path-segment tree from the rules and reports every
// duplicate, conflicting, and redundant rule found. Rules must be given in
// file declaration order - which rule came later in the file decides who
// repeats whom.
func (a *Auditor) Audit(rules []Rule) CheckResult {
	root := newAuditNode()
	result := Success
	for _, rule := range rules {
		result |= a.insert(root, rule)
	}
	return result | a.findIneffectiveRules(root, nil, "")
}

func (a *Auditor) insert(root *auditNode, rule Rule) CheckResult {
	node := root
	for _, segment := range patternSegments(rule.Pattern) {
		node = node.childOrNew(segment)
	}

	result := Success
	if len(node.owners) > 0 {
		if slices.Equal(node.owners, ownerSet(rule.Owners)) {
			fmt.Fprintf(a.out,
				"ERROR: Ownership entry with pattern '%s' from line %d repeats in line %d. Remove the repetitions from CODEOWNERS.\n",
				rule.Pattern, node.line, rule.LineNumber)
			result |= DuplicateLines
		} else {
			fmt.Fprintf(a.out,
				"ERROR: Ownership entry with pattern '%s' from line %d repeats in line %d with different owners. Remove the repetitions from CODEOWNERS.\n",
				rule.Pattern, node.line, rule.LineNumber)
			result |= MultipleFolderOwners
		}
	}
	// the later declaration always wins in the tree's working state
	node.owners = ownerSet(rule.Owners)
	node.line = rule.LineNumber
	return result
}

// findIneffectiveRules walks the tree depth-first, tracking the nearest
// ancestor that carries owners. A node whose owner set equals that
// ancestor's is redundant.
func (a *Auditor) findIneffectiveRules(node *auditNode, firstAncestor *auditNode, currentPath string) CheckResult {
	if firstAncestor != nil && slices.Equal(node.owners, firstAncestor.owners) {
		fmt.Fprintf(a.out,
			"ERROR: Ownership entry with pattern '%s' from line %d is redundant. A more generic pattern is in line %d. Remove the redundant ones from CODEOWNERS.\n",
			currentPath, node.line, firstAncestor.line)
		return RuleIneffective
	}

	if len(node.owners) > 0 {
		firstAncestor = node
	}

	result := Success
	for name, child := range node.children {
		result |= a.findIneffectiveRules(child, firstAncestor, path.Join(currentPath, name))
	}
	return result
}

// patternSegments splits a pattern into the segments the audit tree is keyed
// by. A leading '/' is its own segment, so anchored and unanchored variants
// of the same pattern land on different nodes.
func patternSegments(pattern string) []string {
	segments := make([]string, 0)
	if strings.HasPrefix(pattern, "/") {
		segments = append(segments, "/")
	}
	for _, segment := range strings.Split(pattern, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// ownerSet normalizes owners for comparison: sorted with duplicates removed.
func ownerSet(owners []string) []string {
	set := slices.Clone(owners)
	slices.Sort(set)
	return slices.Compact(set)
}

// CheckPatternsExist verifies that every rule's pattern still matches at
// least one entry in the working tree. Patterns without wildcards must exist
// as a literal path; wildcard patterns are globbed relative to the root,
// prefixed with '**/' when unanchored. Failures accumulate as
// FolderNotExists, one message per unmatched rule.
func CheckPatternsExist(root fs.FS, rules []Rule, out io.Writer) CheckResult {
	result := Success
	for _, rule := range rules {
		target := rule.Pattern
		if strings.HasPrefix(target, "/") {
			target = target[1:]
		} else {
			target = path.Join("**", target)
		}

		if strings.Contains(target, "*") {
			matches, err := doublestar.Glob(root, target)
			if err != nil || len(matches) == 0 {
				fmt.Fprintf(out,
					"ERROR: No file/folder matches the ownership pattern '%s' in CODEOWNERS. Remove the pattern if no longer needed.\n",
					target)
				result |= FolderNotExists
			}
		} else {
			name := path.Clean(strings.TrimSuffix(target, "/"))
			if _, err := fs.Stat(root, name); err != nil {
				fmt.Fprintf(out,
					"ERROR: No file/folder matches the ownership entry '%s' in CODEOWNERS. Remove the entry if no longer needed.\n",
					target)
				result |= FolderNotExists
			}
		}
	}
	return result
}
