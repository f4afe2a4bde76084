package ownership

import (
	"path"
	"regexp"
	"strings"
)

// Matcher decides whether a single CODEOWNERS pattern covers a
// repository-relative path, implementing the feature set demonstrated at
// https://docs.github.com/en/repositories/managing-your-repositorys-settings-and-features/customizing-your-repository/about-code-owners#example-of-a-codeowners-file
//
// Compiled wildcard patterns are cached for the lifetime of the Matcher. The
// cache is unbounded and not synchronized; a Matcher is meant for
// single-threaded, process-lifetime CLI use.
type Matcher struct {
	cache map[string]*regexp.Regexp
}

func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]*regexp.Regexp)}
}

// Covers reports whether pattern applies to relPath. relPath must be
// repository-relative and forward-slash separated.
//
// Patterns without wildcards and without a leading '/' match as plain
// substrings of the path string, mid-segment matches included. This is looser
// than upstream GitHub semantics (which only match whole path segments) but
// is the behavior the rest of the tooling relies on.
func (m *Matcher) Covers(relPath string, pattern string) bool {
	if strings.Contains(pattern, "*") {
		return m.wildcardCovers(relPath, pattern)
	}
	if strings.HasPrefix(pattern, "/") {
		prefix := strings.TrimRight(pattern[1:], "/")
		// segment-wise comparison: 'foo/bar' must not cover 'foo/barbaz'
		return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
	}
	return strings.Contains(relPath, strings.TrimRight(pattern, "/"))
}

func (m *Matcher) wildcardCovers(relPath string, pattern string) bool {
	expr := strings.ReplaceAll(pattern, "*", "(.*)")
	if strings.HasPrefix(pattern, "/") {
		expr = "^" + expr[1:]
	} else {
		expr = "^.*?" + expr
	}

	re := m.compile(expr)
	if re == nil {
		return false
	}
	groups := re.FindStringSubmatch(relPath)
	if groups == nil {
		return false
	}

	if strings.HasSuffix(pattern, "/*") {
		// single-level match: the trailing wildcard must capture exactly the
		// file name, so deeper nesting does not match
		return groups[len(groups)-1] == path.Base(relPath)
	}
	return true
}

// compile returns the cached regexp for expr, or nil if expr does not
// compile. The nil result is cached too so a bad pattern is only compiled
// once.
func (m *Matcher) compile(expr string) *regexp.Regexp {
	re, found := m.cache[expr]
	if !found {
		re, _ = regexp.Compile(expr)
		m.cache[expr] = re
	}
	return re
}
