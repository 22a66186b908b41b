// Package copyplan materializes a reconciliation DiffList by invoking rsync,
// after first applying any deletions the diff implies.
package copyplan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/synkrotron/synkrotron/pkg/entry"
	"github.com/synkrotron/synkrotron/pkg/transport"
)

// Direction is the side a copy is materializing into.
type Direction uint8

const (
	// Push copies from the local tree to the remote (or delta) tree.
	Push Direction = iota
	// Pull copies from the remote tree to the local tree.
	Pull
)

// opposite returns the operation that runs against this direction, i.e. the
// operation a copy in this direction should never touch when building its
// file list, and should clean up at dst when deleting.
func (d Direction) opposite() entry.Operation {
	if d == Push {
		return entry.OpPull
	}
	return entry.OpPush
}

// Options configures a single Apply invocation.
type Options struct {
	// Direction selects which side is materialized.
	Direction Direction
	// Simulate runs rsync with --dry-run, performing no filesystem changes.
	Simulate bool
	// Delete removes destination paths whose operation is the opposite
	// direction before copying.
	Delete bool
	// FollowSymlinks passes --copy-links to rsync instead of preserving
	// symlinks as-is.
	FollowSymlinks bool
	// DeltaDir, if non-empty, overrides the normal destination with a
	// local directory (the delta-push case).
	DeltaDir string
}

// Apply materializes diffList between src and dst according to options.
// src and dst are resolved from options.Direction against the local and
// remote root paths supplied by the caller.
func Apply(localRoot, remoteRoot string, diffList entry.List, options Options) error {
	src, dst := localRoot, remoteRoot
	if options.Direction == Pull {
		src, dst = remoteRoot, localRoot
	}
	if options.DeltaDir != "" {
		dst = options.DeltaDir
	}

	if options.Delete && !options.Simulate {
		if err := applyDeletes(dst, diffList, options.Direction); err != nil {
			return err
		}
	}

	if !options.Simulate {
		if err := removeStaleContentTargets(dst, diffList); err != nil {
			return err
		}
	}

	fileList := buildFileList(diffList, options.Direction)
	if fileList == "" {
		return nil
	}

	args := []string{"-ahuR", "--progress", "--partial-dir", ".rsync-partial", "--files-from=-"}
	if options.Simulate {
		args = append(args, "--dry-run")
	}
	if options.FollowSymlinks {
		args = append(args, "--copy-links")
	}
	args = append(args, ".", dst)

	if err := transport.RunInDir("rsync", args, src, fileList, true); err != nil {
		return errors.Wrap(err, "rsync invocation failed")
	}
	return nil
}

// applyDeletes removes destination-side paths whose operation is the
// opposite of the copy direction, processing the list in reverse sorted
// order so that a directory's children are removed before the directory
// itself.
func applyDeletes(dst string, diffList entry.List, direction Direction) error {
	reverseOp := direction.opposite()

	reversed := make(entry.List, len(diffList))
	copy(reversed, diffList)
	sort.Slice(reversed, func(i, j int) bool {
		return reversed[i].Path > reversed[j].Path
	})

	for _, item := range reversed {
		if item.Operation != reverseOp {
			continue
		}
		target := filepath.Join(dst, item.Path)
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "unable to remove %s", target)
		}
	}
	return nil
}

// removeStaleContentTargets removes the destination-side file for every
// content-mismatch item, forcing rsync to recreate it from scratch rather
// than perform a partial in-place update that would preserve the wrong
// mtime on the untouched portion.
func removeStaleContentTargets(dst string, diffList entry.List) error {
	for _, item := range diffList {
		if item.Operation != entry.OpContent {
			continue
		}
		target := filepath.Join(dst, item.Path)
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "unable to remove stale copy of %s", target)
		}
	}
	return nil
}

// buildFileList builds the newline-separated relative path list fed to
// rsync's --files-from=-, excluding every item whose operation is the
// opposite of the copy direction.
func buildFileList(diffList entry.List, direction Direction) string {
	reverseOp := direction.opposite()

	var builder strings.Builder
	for _, item := range diffList {
		if item.Operation == reverseOp {
			continue
		}
		builder.WriteString(item.Path)
		builder.WriteByte('\n')
	}
	return builder.String()
}
