// Package entry defines the data model shared by the tree walker and the
// reconciliation engine: the per-path metadata record (Entry), the map of
// such records produced by a single walk (Map), and the classified
// difference between two maps (Item/List).
package entry

import (
	"sort"
)

// Kind identifies the type of filesystem object a path refers to.
type Kind uint8

const (
	// KindDirectory indicates a directory.
	KindDirectory Kind = iota
	// KindFile indicates a regular file.
	KindFile
	// KindSymlink indicates a symbolic link that was not followed.
	KindSymlink
)

// String renders a Kind as the single-character code used in human-readable
// diagnostics ("d", "f", or "l"), mirroring the original tool's stat tuples.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "d"
	case KindFile:
		return "f"
	case KindSymlink:
		return "l"
	default:
		return "?"
	}
}

// Root is the key used for the entry representing the base of a walk.
const Root = "."

// Entry is a single path's metadata as observed by a walk. Mtime is truncated
// to whole seconds, matching the comparison semantics of the reconciliation
// engine.
type Entry struct {
	Kind  Kind
	Size  int64
	Mtime int64
}

// Map is an unordered relative-path-to-Entry mapping produced by a single
// walk of one side of a synchronization pair.
type Map map[string]Entry

// Paths returns the map's keys in sorted lexicographic order.
func (m Map) Paths() []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Operation identifies the reconciliation action assigned to a DiffItem.
type Operation uint8

const (
	// OpPush indicates the local entry should be copied to the remote side.
	OpPush Operation = iota
	// OpPull indicates the remote entry should be copied to the local side.
	OpPull
	// OpContent indicates the entries differ only in content (equal type and
	// size, with no time verdict).
	OpContent
	// OpType indicates the entries differ in kind.
	OpType
	// OpSize indicates the entries differ in size.
	OpSize
)

// String renders an Operation using the vocabulary shown in the CLI's
// verbose diff output.
func (o Operation) String() string {
	switch o {
	case OpPush:
		return "push"
	case OpPull:
		return "pull"
	case OpContent:
		return "content"
	case OpType:
		return "type"
	case OpSize:
		return "size"
	default:
		return "unknown"
	}
}

// Item is a single classified difference between the local and remote entry
// maps for one relative path. For an OpPush or OpPull caused by a missing
// side, Local or Remote (the side that doesn't exist) is the zero Entry; an
// OpPush or OpPull from a time verdict, like the symmetric operations,
// carries both entries. Callers should consult Operation and Rationale
// before reading either field.
type Item struct {
	Path      string
	Local     Entry
	Remote    Entry
	Operation Operation
	Rationale string
}

// List is a sorted sequence of Items, one per differing path.
type List []Item

// ByPath sorts a List in place by relative path.
func ByPath(items List) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Path < items[j].Path
	})
}
