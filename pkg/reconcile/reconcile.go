// Package reconcile implements the comparison step between two entry maps
// produced by the tree walker, classifying each path as a push, a pull, or
// one of the "both sides present but differ" operations.
package reconcile

import (
	"crypto/md5"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/synkrotron/synkrotron/pkg/entry"
)

// Options controls how two entry maps are compared.
type Options struct {
	// IgnoreTime disables mtime-based classification, falling through
	// directly to type/size/content comparison.
	IgnoreTime bool
	// Content enables a content hash comparison as the final tiebreaker
	// when type and size agree.
	Content bool
	// ModifyWindow is the number of seconds of mtime slack to tolerate
	// before treating two mtimes as unequal.
	ModifyWindow int64
	// LocalContentPath and RemoteContentPath resolve a relative path to the
	// filesystem path to hash for content comparison. Plain local-walk
	// comparisons can just join against a root; when the remote is
	// encrypted, LocalContentPath must instead resolve through a reverse
	// mount under the path's EncFS-encrypted name (see the Reconciliation
	// Engine's content-hashing-under-encryption note), since the remote's bytes are
	// stored under that name, not the plaintext one.
	LocalContentPath  func(relativePath string) (string, error)
	RemoteContentPath func(relativePath string) (string, error)
}

// Diff compares the local and remote entry maps and returns the sorted list
// of paths that differ.
func Diff(local, remote entry.Map, options Options) (entry.List, error) {
	paths := unionPaths(local, remote)

	list := make(entry.List, 0, len(paths))
	for _, path := range paths {
		localEntry, hasLocal := local[path]
		remoteEntry, hasRemote := remote[path]

		switch {
		case hasLocal && !hasRemote:
			list = append(list, entry.Item{
				Path:      path,
				Local:     localEntry,
				Operation: entry.OpPush,
				Rationale: "remote missing",
			})
			continue
		case hasRemote && !hasLocal:
			list = append(list, entry.Item{
				Path:      path,
				Remote:    remoteEntry,
				Operation: entry.OpPull,
				Rationale: "local missing",
			})
			continue
		}

		if localEntry.Kind == entry.KindDirectory && remoteEntry.Kind == entry.KindDirectory {
			continue
		}

		item, emit, err := compare(path, localEntry, remoteEntry, options)
		if err != nil {
			return nil, err
		}
		if emit {
			list = append(list, item)
		}
	}

	entry.ByPath(list)
	return list, nil
}

// unionPaths returns the sorted set of paths present in either map.
func unionPaths(local, remote entry.Map) []string {
	seen := make(map[string]bool, len(local)+len(remote))
	paths := make([]string, 0, len(local)+len(remote))
	for _, m := range []entry.Map{local, remote} {
		for _, path := range m.Paths() {
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}
	return paths
}

// compare classifies a single path present on both sides.
func compare(path string, localEntry, remoteEntry entry.Entry, options Options) (entry.Item, bool, error) {
	item := entry.Item{Path: path, Local: localEntry, Remote: remoteEntry}

	deltaTime := localEntry.Mtime - remoteEntry.Mtime
	absDeltaTime := deltaTime
	if absDeltaTime < 0 {
		absDeltaTime = -absDeltaTime
	}
	if absDeltaTime <= options.ModifyWindow {
		deltaTime = 0
	}

	if !options.IgnoreTime && deltaTime != 0 {
		if deltaTime > 0 {
			item.Operation = entry.OpPush
			item.Rationale = "newer locally"
		} else {
			item.Operation = entry.OpPull
			item.Rationale = "newer remotely"
		}
		return item, true, nil
	}

	if localEntry.Kind != remoteEntry.Kind {
		item.Operation = entry.OpType
		item.Rationale = "type mismatch"
		return item, true, nil
	}

	if localEntry.Size != remoteEntry.Size {
		item.Operation = entry.OpSize
		item.Rationale = "size mismatch"
		return item, true, nil
	}

	if !options.Content || localEntry.Kind != entry.KindFile {
		return item, false, nil
	}

	localPath, err := options.LocalContentPath(path)
	if err != nil {
		return item, false, errors.Wrap(err, "unable to resolve local content path")
	}
	remotePath, err := options.RemoteContentPath(path)
	if err != nil {
		return item, false, errors.Wrap(err, "unable to resolve remote content path")
	}

	differs, err := contentDiffers(localPath, remotePath)
	if err != nil {
		return item, false, err
	}
	if !differs {
		return item, false, nil
	}

	item.Operation = entry.OpContent
	item.Rationale = "content mismatch"
	return item, true, nil
}

// contentDiffers hashes the two files concurrently and reports whether
// their MD5 sums differ.
func contentDiffers(localPath, remotePath string) (bool, error) {
	type result struct {
		sum [md5.Size]byte
		err error
	}

	localResult := make(chan result, 1)
	remoteResult := make(chan result, 1)

	go func() {
		sum, err := hashFile(localPath)
		localResult <- result{sum, err}
	}()
	go func() {
		sum, err := hashFile(remotePath)
		remoteResult <- result{sum, err}
	}()

	local := <-localResult
	remote := <-remoteResult

	if local.err != nil {
		return false, errors.Wrap(local.err, "unable to hash local file")
	}
	if remote.err != nil {
		return false, errors.Wrap(remote.err, "unable to hash remote file")
	}

	return local.sum != remote.sum, nil
}

// hashFile computes the MD5 sum of a file's contents.
func hashFile(path string) ([md5.Size]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [md5.Size]byte{}, err
	}
	defer file.Close()

	hasher := md5.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [md5.Size]byte{}, err
	}

	var sum [md5.Size]byte
	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}
