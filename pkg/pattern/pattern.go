// Package pattern implements the filename pattern matcher used by the tree
// walker to decide inclusion and exclusion of entries. It supports two
// distinct scoping rules — anchored (matched from the tree root) and
// unanchored (matched against the trailing path components) — layered on
// top of shell-glob matching.
package pattern

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is a normalized exclude or include pattern.
type Pattern struct {
	// raw is the glob expression with any leading "/" stripped.
	raw string
	// anchored indicates the pattern must match starting from the tree root.
	anchored bool
	// depth is the number of "/" separators in raw, used for unanchored
	// trailing-component matching and for partial include matching.
	depth int
}

// Parse normalizes a single pattern string as described in the data model:
// a leading "/" marks it anchored, trailing slashes are stripped, and an
// empty result after normalization is reported via ok=false so callers can
// discard it.
func Parse(raw string) (p Pattern, ok bool) {
	anchored := strings.HasPrefix(raw, "/")
	if anchored {
		raw = raw[1:]
	}
	raw = strings.TrimRight(raw, "/")
	raw = path.Clean(raw)
	if raw == "" || raw == "." {
		return Pattern{}, false
	}
	return Pattern{
		raw:      raw,
		anchored: anchored,
		depth:    strings.Count(raw, "/"),
	}, true
}

// ParseAll normalizes a slice of raw pattern strings, discarding any that
// normalize to empty.
func ParseAll(raw []string) []Pattern {
	patterns := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		if p, ok := Parse(r); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// HasWildcard reports whether the pattern contains glob metacharacters,
// which makes it untranslatable across the encryption boundary (see Split).
func (p Pattern) HasWildcard() bool {
	return strings.ContainsAny(p.raw, "*?[")
}

// String returns the pattern in its original (anchored-prefixed) form.
func (p Pattern) String() string {
	if p.anchored {
		return "/" + p.raw
	}
	return p.raw
}

// Matches reports whether the pattern matches the given forward-slash
// relative path, using full matching (not the partial/prefix matching used
// for include-pattern directory descent; see MatchesPartial).
func (p Pattern) Matches(relativePath string) bool {
	relativePath = path.Clean(relativePath)
	if p.anchored {
		ok, _ := doublestar.Match(p.raw, relativePath)
		return ok
	}

	components := strings.Split(relativePath, "/")
	n := p.depth + 1
	if n > len(components) {
		return false
	}
	trailing := strings.Join(components[len(components)-n:], "/")
	ok, _ := doublestar.Match(p.raw, trailing)
	return ok
}

// MatchesPartial implements the walker's include-pattern descent rule: when
// an include pattern is deeper than the path currently being visited, match
// only the pattern's leading pathDepth+1 components (anchored, since partial
// matching is only meaningful for admission-by-prefix during descent).
func (p Pattern) MatchesPartial(relativePath string, pathDepth int) bool {
	segments := strings.Split(p.raw, "/")
	patternDepth := p.depth
	partial := p.raw
	if patternDepth > pathDepth {
		partial = strings.Join(segments[:pathDepth+1], "/")
	}
	ok, _ := doublestar.Match(partial, path.Clean(relativePath))
	return ok
}

// AnyMatches reports whether any pattern in the set matches the path.
func AnyMatches(patterns []Pattern, relativePath string) bool {
	for _, p := range patterns {
		if p.Matches(relativePath) {
			return true
		}
	}
	return false
}

// Split partitions a pattern set into those without wildcard metacharacters
// (translatable across the encryption boundary) and those with wildcards.
func Split(patterns []Pattern) (fixed, wildcard []Pattern) {
	for _, p := range patterns {
		if p.HasWildcard() {
			wildcard = append(wildcard, p)
		} else {
			fixed = append(fixed, p)
		}
	}
	return fixed, wildcard
}
