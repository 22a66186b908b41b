package environment

import (
	"strings"

	"github.com/pkg/errors"
)

// Parse converts an environment variable specification from a slice of
// "KEY=value" strings to a map with equivalent contents, the inverse of
// Format. Unlike ToMap, it rejects malformed entries instead of silently
// skipping them, since callers that reach for Parse (e.g. round-tripping a
// Format'd map) want to know if something's wrong rather than lose data.
//
// Entries with an empty variable name (specifications starting with '=') are
// still ignored: on Windows these are vestigial per-drive working-directory
// variables that never carry meaning for this tool.
func Parse(environment []string) (map[string]string, error) {
	result := make(map[string]string, len(environment))

	for _, e := range environment {
		if len(e) > 0 && e[0] == '=' {
			continue
		}

		components := strings.SplitN(e, "=", 2)
		if len(components) != 2 {
			return nil, errors.Errorf("invalid variable specification: %s", e)
		}

		result[components[0]] = components[1]
	}

	return result, nil
}
