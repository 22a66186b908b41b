package copyplan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/synkrotron/synkrotron/pkg/entry"
)

func TestBuildFileListExcludesOppositeDirection(t *testing.T) {
	diffList := entry.List{
		{Path: "a", Operation: entry.OpPush},
		{Path: "b", Operation: entry.OpPull},
		{Path: "c", Operation: entry.OpContent},
	}

	list := buildFileList(diffList, Push)
	if list != "a\nc\n" {
		t.Errorf("unexpected push file list: %q", list)
	}

	list = buildFileList(diffList, Pull)
	if list != "b\nc\n" {
		t.Errorf("unexpected pull file list: %q", list)
	}
}

func TestApplyDeletesReverseOrderRemovesChildrenFirst(t *testing.T) {
	dst := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dst, "dir"), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dst, "dir", "file"), nil, 0600); err != nil {
		t.Fatal(err)
	}

	diffList := entry.List{
		{Path: "dir", Operation: entry.OpPull, Remote: entry.Entry{Kind: entry.KindDirectory}},
		{Path: "dir/file", Operation: entry.OpPull, Remote: entry.Entry{Kind: entry.KindFile}},
	}

	if err := applyDeletes(dst, diffList, Push); err != nil {
		t.Fatal("applyDeletes failed:", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "dir")); !os.IsNotExist(err) {
		t.Error("expected dir to be removed")
	}
}

func TestApplyDeletesIgnoresMatchingDirection(t *testing.T) {
	dst := t.TempDir()
	path := filepath.Join(dst, "file")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}

	diffList := entry.List{{Path: "file", Operation: entry.OpPush}}
	if err := applyDeletes(dst, diffList, Push); err != nil {
		t.Fatal("applyDeletes failed:", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Error("expected file to survive a delete pass in its own direction")
	}
}

func TestRemoveStaleContentTargets(t *testing.T) {
	dst := t.TempDir()
	path := filepath.Join(dst, "file")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	diffList := entry.List{{Path: "file", Operation: entry.OpContent}}
	if err := removeStaleContentTargets(dst, diffList); err != nil {
		t.Fatal("removeStaleContentTargets failed:", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected stale content target to be removed")
	}
}

func TestApplyReturnsEarlyOnEmptyFileList(t *testing.T) {
	localRoot, remoteRoot := t.TempDir(), t.TempDir()
	diffList := entry.List{{Path: "file", Operation: entry.OpPull}}

	if err := Apply(localRoot, remoteRoot, diffList, Options{Direction: Push}); err != nil {
		t.Fatal("expected Apply to return early without invoking rsync:", err)
	}
}

func TestApplySimulateSkipsDeletes(t *testing.T) {
	localRoot, remoteRoot := t.TempDir(), t.TempDir()

	deletedPath := filepath.Join(remoteRoot, "gone")
	if err := os.WriteFile(deletedPath, nil, 0600); err != nil {
		t.Fatal(err)
	}

	// A push's only item is the opposite direction, so buildFileList yields
	// nothing and Apply returns before ever invoking rsync — letting this
	// test exercise the delete guard in isolation.
	diffList := entry.List{{Path: "gone", Operation: entry.OpPull}}

	err := Apply(localRoot, remoteRoot, diffList, Options{
		Direction: Push,
		Simulate:  true,
		Delete:    true,
	})
	if err != nil {
		t.Fatal("Apply failed:", err)
	}

	if _, err := os.Stat(deletedPath); err != nil {
		t.Error("expected --simulate to leave the opposite-direction file in place:", err)
	}
}

func TestApplySimulateSkipsStaleContentRemoval(t *testing.T) {
	localRoot, remoteRoot := t.TempDir(), t.TempDir()

	stalePath := filepath.Join(remoteRoot, "stale")
	if err := os.WriteFile(stalePath, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	// A content-mismatch item always survives into the file list (it is
	// never the opposite direction), so Apply proceeds on to invoke rsync
	// and may return an error here if rsync isn't installed in the test
	// environment. That's irrelevant to what this test checks: the stale
	// target removal guarded by Simulate runs before that invocation, so
	// the file's survival is independent of whether rsync itself runs.
	diffList := entry.List{{Path: "stale", Operation: entry.OpContent}}

	_ = Apply(localRoot, remoteRoot, diffList, Options{
		Direction: Push,
		Simulate:  true,
	})

	if _, err := os.Stat(stalePath); err != nil {
		t.Error("expected --simulate to leave the stale content target in place:", err)
	}
}
