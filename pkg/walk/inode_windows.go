package walk

import (
	"os"
)

// inodeKey is not implemented on Windows; symlink-following directory
// descent instead relies on the operating system's own link-depth limits to
// bound cycles.
func inodeKey(info os.FileInfo) (inode, bool) {
	return inode{}, false
}
