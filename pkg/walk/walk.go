// Package walk implements the Tree Walker: it enumerates a directory (a
// real local root, or a locally-mounted view of a remote root — see the
// design notes on the remote-invocation simplification) into an entry.Map,
// applying the pattern matcher's inclusion/exclusion rules and a
// follow/preserve symlink policy.
package walk

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/synkrotron/synkrotron/pkg/entry"
	"github.com/synkrotron/synkrotron/pkg/logging"
	"github.com/synkrotron/synkrotron/pkg/pattern"
)

// Options configures a single walk.
type Options struct {
	// FollowSymlinks determines whether symbolic links are followed (and
	// thus descended into) or preserved as symlink entries.
	FollowSymlinks bool
	// Excludes are patterns that unconditionally reject a path (and, for
	// directories, everything beneath it).
	Excludes []pattern.Pattern
	// Includes, if non-empty, restrict admission to paths that match one
	// of them (subject to Excludes, which always take precedence).
	Includes []pattern.Pattern
}

// inode identifies a directory for symlink-cycle detection.
type inode struct {
	device uint64
	file   uint64
}

// scanner holds the state threaded through a single recursive walk.
type scanner struct {
	root    string
	options Options
	logger  *logging.Logger
	visited map[inode]bool
	result  entry.Map
}

// Walk enumerates root/relPath into an entry.Map keyed by paths relative to
// root. It returns an empty map (not an error) if the subpath does not
// exist, matching the contract in the component design.
func Walk(root, relPath string, options Options, logger *logging.Logger) (entry.Map, error) {
	relPath = normalizeRelPath(relPath)
	base := filepath.Join(root, filepath.FromSlash(relPath))

	info, err := lstatOrStat(base, options.FollowSymlinks)
	if err != nil {
		if os.IsNotExist(err) {
			return entry.Map{}, nil
		}
		return nil, err
	}

	if pattern.AnyMatches(options.Excludes, relPath) {
		return entry.Map{}, nil
	}

	s := &scanner{
		root:    root,
		options: options,
		logger:  logger,
		visited: make(map[inode]bool),
		result:  make(entry.Map),
	}

	rootKey := relPath
	if rootKey == "" {
		rootKey = entry.Root
	}

	if info.IsDir() {
		s.result[rootKey] = entryFromInfo(info)
		whitelist := make(map[string]bool)
		if err := s.directory(base, relPath, whitelist); err != nil {
			return nil, err
		}
	} else {
		s.result[rootKey] = entryFromInfo(info)
	}

	return s.result, nil
}

// normalizeRelPath maps an empty or "." relative path to "" (Walk then keys
// the root entry as entry.Root) and otherwise cleans the path, stripping any
// trailing slash.
func normalizeRelPath(relPath string) string {
	if relPath == "" || relPath == "." {
		return ""
	}
	return path.Clean(relPath)
}

// lstatOrStat stats (following a top-level symlink if FollowSymlinks is set)
// or lstats (leaving it as a symlink) the given path.
func lstatOrStat(target string, follow bool) (os.FileInfo, error) {
	if follow {
		return os.Stat(target)
	}
	return os.Lstat(target)
}

// directory recursively visits dirPath (whose relative path is relPath),
// admitting children per the exclude/include rules and descending into
// admitted sub-directories.
func (s *scanner) directory(dirPath, relPath string, inheritedWhitelist map[string]bool) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		s.logger.Warn(err)
		return nil
	}

	names := make([]string, 0, len(entries))
	infoByName := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		infoByName[e.Name()] = e
	}
	sort.Strings(names)

	pathDepth := 0
	if relPath != "" {
		pathDepth = len(splitPath(relPath))
	}

	for _, name := range names {
		childRel := name
		if relPath != "" {
			childRel = relPath + "/" + name
		}

		whitelisted := inheritedWhitelist[relPath]
		admit, directoryWhitelisted := s.admit(childRel, pathDepth, whitelisted)
		if !admit {
			continue
		}

		childPath := filepath.Join(dirPath, name)
		info, statErr := lstatOrStat(childPath, s.options.FollowSymlinks)
		if statErr != nil {
			s.logger.Warn(statErr)
			continue
		}

		s.result[childRel] = entryFromInfo(info)

		if info.IsDir() {
			childWhitelist := inheritedWhitelist
			if directoryWhitelisted {
				childWhitelist = cloneWhitelistWith(inheritedWhitelist, childRel)
			}
			if s.options.FollowSymlinks && isSymlinkDirEntry(infoByName[name]) {
				key, ok := inodeKey(info)
				if ok {
					if s.visited[key] {
						continue
					}
					s.visited[key] = true
				}
			}
			if err := s.directory(childPath, childRel, childWhitelist); err != nil {
				return err
			}
		}
	}
	return nil
}

// admit decides whether a child path is admitted into the result, and
// whether it should be whitelisted so its descendants are admitted
// unconditionally — either because it is itself a directory matched fully
// by an include pattern, or because it descends from an already-whitelisted
// ancestor (whitelisting, once granted, must propagate to every depth, not
// just the next level).
func (s *scanner) admit(childRel string, pathDepth int, inheritedWhitelisted bool) (admit, whitelisted bool) {
	if pattern.AnyMatches(s.options.Excludes, childRel) {
		return false, false
	}
	if inheritedWhitelisted {
		return true, true
	}
	if len(s.options.Includes) == 0 {
		return true, false
	}
	for _, p := range s.options.Includes {
		if p.MatchesPartial(childRel, pathDepth) {
			fullMatch := p.Matches(childRel)
			return true, fullMatch
		}
	}
	return false, false
}

func cloneWhitelistWith(base map[string]bool, path string) map[string]bool {
	next := make(map[string]bool, len(base)+1)
	for k, v := range base {
		next[k] = v
	}
	next[path] = true
	return next
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	var parts []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			parts = append(parts, p[start:i])
			start = i + 1
		}
	}
	parts = append(parts, p[start:])
	return parts
}

func entryFromInfo(info os.FileInfo) entry.Entry {
	kind := entry.KindFile
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		kind = entry.KindSymlink
	case info.IsDir():
		kind = entry.KindDirectory
	}
	return entry.Entry{
		Kind:  kind,
		Size:  info.Size(),
		Mtime: info.ModTime().Unix(),
	}
}

func isSymlinkDirEntry(e os.DirEntry) bool {
	return e != nil && e.Type()&os.ModeSymlink != 0
}
