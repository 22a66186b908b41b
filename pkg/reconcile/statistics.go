package reconcile

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/synkrotron/synkrotron/pkg/entry"
)

// Statistics accumulates counts and byte totals across one or more DiffLists,
// for the diff command's summary line.
type Statistics struct {
	PullCount int
	PullSize  int64

	PushCount int
	PushSize  int64

	// RestCount and the two RestSize fields tally operations that are
	// neither a pure push nor a pure pull (type, size, and content
	// mismatches), where the two sides may have different sizes.
	RestCount      int
	RestSizeLocal  int64
	RestSizeRemote int64
}

// Add folds a DiffList's totals into the accumulator.
func (s *Statistics) Add(items entry.List) {
	for _, item := range items {
		switch item.Operation {
		case entry.OpPush:
			s.PushCount++
			s.PushSize += item.Local.Size
		case entry.OpPull:
			s.PullCount++
			s.PullSize += item.Remote.Size
		default:
			s.RestCount++
			s.RestSizeLocal += item.Local.Size
			s.RestSizeRemote += item.Remote.Size
		}
	}
}

// Combine returns a new Statistics holding the sum of s and other.
func (s Statistics) Combine(other Statistics) Statistics {
	return Statistics{
		PullCount:      s.PullCount + other.PullCount,
		PullSize:       s.PullSize + other.PullSize,
		PushCount:      s.PushCount + other.PushCount,
		PushSize:       s.PushSize + other.PushSize,
		RestCount:      s.RestCount + other.RestCount,
		RestSizeLocal:  s.RestSizeLocal + other.RestSizeLocal,
		RestSizeRemote: s.RestSizeRemote + other.RestSizeRemote,
	}
}

// Show renders the accumulated totals in the three-line summary format used
// by the diff command.
func (s Statistics) Show() string {
	return fmt.Sprintf(
		"pull: %d files (%s)\npush: %d files (%s)\nrest: %d files (local: %s, remote: %s)",
		s.PullCount, humanize.Bytes(uint64(s.PullSize)),
		s.PushCount, humanize.Bytes(uint64(s.PushSize)),
		s.RestCount, humanize.Bytes(uint64(s.RestSizeLocal)), humanize.Bytes(uint64(s.RestSizeRemote)),
	)
}
