package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/synkrotron/synkrotron/pkg/entry"
	"github.com/synkrotron/synkrotron/pkg/logging"
	"github.com/synkrotron/synkrotron/pkg/pattern"
)

// buildTree creates each path in paths as a regular file (creating parent
// directories as needed), relative to root.
func buildTree(t *testing.T, root string, paths []string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("data"), 0600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWalkBaselineEnumeration(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, []string{"dir/file", "file"})

	result, err := Walk(root, "", Options{}, nil)
	if err != nil {
		t.Fatal("Walk failed:", err)
	}

	for _, expected := range []string{entry.Root, "dir", "dir/file", "file"} {
		if _, ok := result[expected]; !ok {
			t.Errorf("expected key %q in result, got %+v", expected, result.Paths())
		}
	}
	if len(result) != 4 {
		t.Errorf("expected 4 entries, got %d: %+v", len(result), result.Paths())
	}
}

func TestWalkAnchoredVsUnanchoredExclude(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, []string{"dir/file", "file"})

	anchored := pattern.ParseAll([]string{"/file"})
	result, err := Walk(root, "", Options{Excludes: anchored}, &logging.Logger{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result["file"]; ok {
		t.Error("expected anchored exclude to suppress top-level file")
	}
	if _, ok := result["dir/file"]; !ok {
		t.Error("expected anchored exclude to spare dir/file")
	}

	unanchored := pattern.ParseAll([]string{"file"})
	result, err = Walk(root, "", Options{Excludes: unanchored}, &logging.Logger{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result["file"]; ok {
		t.Error("expected unanchored exclude to suppress top-level file")
	}
	if _, ok := result["dir/file"]; ok {
		t.Error("expected unanchored exclude to suppress dir/file too")
	}
}

func TestWalkIncludeWithDirectoryWhitelisting(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, []string{"a/b/c", "x/y"})

	includes := pattern.ParseAll([]string{"a"})
	result, err := Walk(root, "", Options{Includes: includes}, &logging.Logger{})
	if err != nil {
		t.Fatal(err)
	}

	for _, expected := range []string{"a", "a/b", "a/b/c"} {
		if _, ok := result[expected]; !ok {
			t.Errorf("expected %q to be admitted, got %+v", expected, result.Paths())
		}
	}
	for _, excluded := range []string{"x", "x/y"} {
		if _, ok := result[excluded]; ok {
			t.Errorf("expected %q to be excluded, got %+v", excluded, result.Paths())
		}
	}
}

func TestWalkNonExistentPathReturnsEmptyMap(t *testing.T) {
	root := t.TempDir()
	result, err := Walk(root, "does/not/exist", Options{}, nil)
	if err != nil {
		t.Fatal("expected no error for a non-existent path:", err)
	}
	if len(result) != 0 {
		t.Errorf("expected an empty map, got %+v", result)
	}
}

func TestWalkPreservesSymlinksWhenNotFollowing(t *testing.T) {
	root := t.TempDir()
	buildTree(t, root, []string{"file"})
	if err := os.Symlink(filepath.Join(root, "file"), filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	result, err := Walk(root, "", Options{FollowSymlinks: false}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result["link"].Kind != entry.KindSymlink {
		t.Errorf("expected link to be recorded as a symlink, got %+v", result["link"])
	}
}
