// +build !windows

package walk

import (
	"os"
	"syscall"
)

// inodeKey extracts a (device, inode) pair for cycle detection when
// following symbolic links into directories.
func inodeKey(info os.FileInfo) (inode, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return inode{}, false
	}
	return inode{device: uint64(stat.Dev), file: stat.Ino}, true
}
