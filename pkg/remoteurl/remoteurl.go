// Package remoteurl parses and formats the "location" configuration value: a
// bare local path, or an SCP-style "[user@]host:path" remote specification.
package remoteurl

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Location identifies where a synchronization root lives.
type Location struct {
	// Remote indicates whether this location refers to a host reachable over
	// SSH (true) or a local path (false).
	Remote bool
	// User is the optional SSH username.
	User string
	// Host is the SSH hostname. Only meaningful when Remote is true.
	Host string
	// Port is the optional SSH port (0 means "use the default").
	Port uint16
	// Path is the filesystem path, relative to the SSH login directory for
	// remote locations, or an absolute/relative local path otherwise.
	Path string
}

// IsLocal reports whether the location refers to a path on the local
// filesystem, mirroring the original tool's own is_local check.
func (l Location) IsLocal() bool {
	return !l.Remote
}

// Parse parses a raw "location" value. A location containing a colon before
// any forward slash is treated as an SCP-style remote specification; anything
// else is treated as a local path, matching the original tool's
// `':' in location` heuristic.
func Parse(raw string) (Location, error) {
	if raw == "" {
		return Location{}, errors.New("empty location")
	}
	if !looksRemote(raw) {
		return Location{Path: raw}, nil
	}
	return parseRemote(raw)
}

// looksRemote reports whether a colon appears before any forward slash in the
// raw string, the same heuristic the original tool and the SCP URL syntax
// both rely on.
func looksRemote(raw string) bool {
	for _, r := range raw {
		if r == ':' {
			return true
		} else if r == '/' {
			return false
		}
	}
	return false
}

// parseRemote parses an SCP-style "[user@]host[:port]:path" location by
// scanning character-by-character for the delimiters, rather than using a
// regular expression, since hostnames and usernames don't have a single
// well-defined grammar that a regular expression could cleanly encode.
func parseRemote(raw string) (Location, error) {
	var user string
	for i, r := range raw {
		if r == ':' {
			break
		} else if r == '@' {
			if i == 0 {
				return Location{}, errors.New("empty username specified")
			}
			user = raw[:i]
			raw = raw[i+1:]
			break
		}
	}

	var host string
	for i, r := range raw {
		if r == ':' {
			if i == 0 {
				return Location{}, errors.New("empty hostname")
			}
			host = raw[:i]
			raw = raw[i+1:]
			break
		}
	}
	if host == "" {
		return Location{}, errors.New("no hostname present")
	}

	var port uint16
	for i, r := range raw {
		if '0' <= r && r <= '9' {
			continue
		}
		if r == ':' {
			value, err := strconv.ParseUint(raw[:i], 10, 16)
			if err != nil {
				return Location{}, errors.New("invalid port value specified")
			}
			port = uint16(value)
			raw = raw[i+1:]
		}
		break
	}

	if raw == "" {
		return Location{}, errors.New("empty path")
	}

	return Location{
		Remote: true,
		User:   user,
		Host:   host,
		Port:   port,
		Path:   raw,
	}, nil
}

// String formats a Location back into its "[user@]host[:port]:path" or bare
// path form.
func (l Location) String() string {
	if !l.Remote {
		return l.Path
	}
	result := l.Host
	if l.User != "" {
		result = fmt.Sprintf("%s@%s", l.User, result)
	}
	if l.Port != 0 {
		result = fmt.Sprintf("%s:%d", result, l.Port)
	}
	return fmt.Sprintf("%s:%s", result, l.Path)
}
