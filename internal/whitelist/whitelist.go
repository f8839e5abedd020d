// Package whitelist implements the access policy restricting which vault
// paths may be surfaced to the agent.
package whitelist

import (
	"regexp"
	"strings"
)

// patternKind discriminates the three pattern forms a whitelist entry
// can take. Classification happens once, at construction.
type patternKind int

const (
	kindExact patternKind = iota
	kindPrefix
	kindGlob
)

// pattern is a single compiled whitelist entry.
type pattern struct {
	kind patternKind
	raw  string
	// re is set only for kindGlob.
	re *regexp.Regexp
}

// Whitelist is an immutable set of path patterns. An empty set is
// "unrestricted" and permits every path. A non-empty set permits exactly
// the union of paths matched by its patterns.
type Whitelist struct {
	patterns []pattern
}

// Parse builds a Whitelist from the comma-separated configuration form.
// Blank entries are dropped; an empty or all-blank value yields an
// unrestricted whitelist.
func Parse(value string) *Whitelist {
	var raws []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			raws = append(raws, p)
		}
	}
	return New(raws)
}

// New builds a Whitelist from raw pattern strings, classifying each as
// exact, directory-prefix (trailing slash), or glob (contains a wildcard).
func New(raws []string) *Whitelist {
	wl := &Whitelist{}
	for _, raw := range raws {
		raw = strings.ReplaceAll(raw, "\\", "/")
		p := pattern{raw: raw}
		switch {
		case strings.ContainsAny(raw, "*?"):
			p.kind = kindGlob
			p.re = compileGlob(raw)
		case strings.HasSuffix(raw, "/"):
			p.kind = kindPrefix
		default:
			p.kind = kindExact
		}
		wl.patterns = append(wl.patterns, p)
	}
	return wl
}

// compileGlob converts a glob pattern to an anchored regexp where `**`
// crosses path separators and `*`/`?` stay within one segment.
func compileGlob(glob string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(glob)
	quoted = strings.ReplaceAll(quoted, `\*\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\*`, "[^/]*")
	quoted = strings.ReplaceAll(quoted, `\?`, "[^/]")

	re, err := regexp.Compile("^" + quoted + "$")
	if err != nil {
		// QuoteMeta output always compiles; guard anyway so a bad
		// pattern denies rather than panics.
		return nil
	}
	return re
}

// Unrestricted reports whether the whitelist has no patterns and
// therefore permits every path.
func (wl *Whitelist) Unrestricted() bool {
	return len(wl.patterns) == 0
}

// Allows reports whether path is permitted. Matching is case-sensitive,
// uses forward slashes, and requires a full match against at least one
// pattern (OR semantics). An empty path never matches a non-empty
// pattern.
func (wl *Whitelist) Allows(path string) bool {
	if wl.Unrestricted() {
		return true
	}
	path = strings.ReplaceAll(path, "\\", "/")
	if path == "" {
		return false
	}
	for _, p := range wl.patterns {
		switch p.kind {
		case kindExact:
			if path == p.raw {
				return true
			}
		case kindPrefix:
			if strings.HasPrefix(path, p.raw) {
				return true
			}
		case kindGlob:
			if p.re != nil && p.re.MatchString(path) {
				return true
			}
		}
	}
	return false
}

// AllowsDir reports whether a directory argument is permitted. Directory
// arguments may arrive with or without a trailing slash, so both the
// bare form (for exact patterns) and the slashed form (for prefix
// patterns) are tried.
func (wl *Whitelist) AllowsDir(dir string) bool {
	if wl.Unrestricted() {
		return true
	}
	bare := strings.TrimSuffix(dir, "/")
	return wl.Allows(bare) || wl.Allows(bare+"/")
}

// Filter returns the subset of paths permitted by the whitelist,
// preserving order.
func (wl *Whitelist) Filter(paths []string) []string {
	if wl.Unrestricted() {
		return paths
	}
	allowed := make([]string, 0, len(paths))
	for _, p := range paths {
		if wl.Allows(p) {
			allowed = append(allowed, p)
		}
	}
	return allowed
}

// Patterns returns the raw pattern strings, for logging.
func (wl *Whitelist) Patterns() []string {
	raws := make([]string, len(wl.patterns))
	for i, p := range wl.patterns {
		raws[i] = p.raw
	}
	return raws
}
