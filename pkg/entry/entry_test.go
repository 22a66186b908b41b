package entry

import (
	"strings"
	"testing"
)

// TestMapParentChainInvariant checks invariant 1: every non-root key has a
// parent that is either "." or itself a key of the map.
func TestMapParentChainInvariant(t *testing.T) {
	m := Map{
		Root:       {Kind: KindDirectory},
		"a":        {Kind: KindDirectory},
		"a/b":      {Kind: KindDirectory},
		"a/b/c":    {Kind: KindFile, Size: 3},
		"file":     {Kind: KindFile, Size: 1},
	}

	for key := range m {
		if key == Root {
			continue
		}
		if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
			t.Errorf("key %q is not a forward-slash relative path", key)
		}
		idx := strings.LastIndex(key, "/")
		parent := Root
		if idx >= 0 {
			parent = key[:idx]
		}
		if parent != Root {
			if _, ok := m[parent]; !ok {
				t.Errorf("key %q has parent %q, which is not itself a key of the map", key, parent)
			}
		}
	}
}

func TestPathsIsSorted(t *testing.T) {
	m := Map{
		"z": {Kind: KindFile},
		"a": {Kind: KindFile},
		"m": {Kind: KindFile},
	}

	paths := m.Paths()
	for i := 1; i < len(paths); i++ {
		if paths[i-1] > paths[i] {
			t.Fatalf("paths not sorted: %v", paths)
		}
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindDirectory: "d",
		KindFile:      "f",
		KindSymlink:   "l",
	}
	for kind, expected := range cases {
		if kind.String() != expected {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, kind.String(), expected)
		}
	}
}

func TestOperationString(t *testing.T) {
	cases := map[Operation]string{
		OpPush:    "push",
		OpPull:    "pull",
		OpContent: "content",
		OpType:    "type",
		OpSize:    "size",
	}
	for op, expected := range cases {
		if op.String() != expected {
			t.Errorf("Operation(%d).String() = %q, want %q", op, op.String(), expected)
		}
	}
}

func TestByPathSortsInPlace(t *testing.T) {
	list := List{
		{Path: "z"},
		{Path: "a"},
		{Path: "m"},
	}
	ByPath(list)
	for i := 1; i < len(list); i++ {
		if list[i-1].Path > list[i].Path {
			t.Fatalf("list not sorted after ByPath: %+v", list)
		}
	}
}
