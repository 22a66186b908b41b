// Package codec implements the Name Codec: bidirectional translation between
// cleartext and EncFS-encrypted path components, backed by a persistent,
// per-component cache. Uncached components are translated in bulk by
// shelling out to encfsctl.
package codec

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/synkrotron/synkrotron/pkg/transport"
)

// ProtocolError indicates that the encryption helper's response could not be
// reconciled with the request: a different number of lines than components
// requested, which would otherwise silently desynchronize the cache.
type ProtocolError struct {
	Requested int
	Received  int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("encryption helper returned %d components for %d requested", e.Received, e.Requested)
}

// direction selects which side of the cache a translation operates on.
type direction int

const (
	directionEncode direction = iota
	directionDecode
)

// Codec performs batched, cached translation of path components across an
// EncFS encryption boundary for a single remote/key pair.
type Codec struct {
	// encfsSource is the mounted (pre-decryption) EncFS source directory,
	// passed to encfsctl so it can find the volume's configuration.
	encfsSource string
	// key is the passphrase supplied to encfsctl via --extpass.
	key string
	cache *Cache
}

// New creates a Codec bound to a specific mounted EncFS source directory and
// backed by the given cache.
func New(encfsSource, key string, cache *Cache) *Codec {
	return &Codec{encfsSource: encfsSource, key: key, cache: cache}
}

// Encrypt translates a batch of cleartext slash-separated relative paths
// into their encrypted form, in the same order.
func (c *Codec) Encrypt(paths []string) ([]string, error) {
	return c.translate(directionEncode, paths)
}

// Decrypt translates a batch of encrypted slash-separated relative paths
// into their cleartext form, in the same order.
func (c *Codec) Decrypt(paths []string) ([]string, error) {
	return c.translate(directionDecode, paths)
}

// translate implements the component-level batching algorithm: paths are
// split into components, every component not already present in the
// relevant cache direction is collected (in first-seen order) and sent to
// encfsctl in a single call, and the cache is extended atomically with the
// response before paths are reassembled.
func (c *Codec) translate(dir direction, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	split := make([][]string, len(paths))
	var uncached []string
	seen := make(map[string]bool)
	for i, p := range paths {
		components := strings.Split(p, "/")
		split[i] = components
		for _, comp := range components {
			if seen[comp] {
				continue
			}
			if _, ok := c.cache.lookup(dir, comp); !ok {
				uncached = append(uncached, comp)
				seen[comp] = true
			}
		}
	}

	if len(uncached) > 0 {
		translated, err := c.callHelper(dir, uncached)
		if err != nil {
			return nil, err
		}
		if len(translated) != len(uncached) {
			return nil, &ProtocolError{Requested: len(uncached), Received: len(translated)}
		}
		c.cache.insertAll(dir, uncached, translated)
	}

	result := make([]string, len(paths))
	for i, components := range split {
		mapped := make([]string, len(components))
		for j, comp := range components {
			value, ok := c.cache.lookup(dir, comp)
			if !ok {
				return nil, errors.Errorf("component %q missing from cache after translation", comp)
			}
			mapped[j] = value
		}
		result[i] = strings.Join(mapped, "/")
	}
	return result, nil
}

// callHelper invokes encfsctl in batch mode: the component list is fed as a
// newline-separated list on standard input, and the translated components
// are read back as a newline-separated list on standard output.
func (c *Codec) callHelper(dir direction, components []string) ([]string, error) {
	subcommand := "encode"
	if dir == directionDecode {
		subcommand = "decode"
	}

	args := []string{subcommand, "--extpass=echo " + c.key, c.encfsSource}
	input := strings.Join(components, "\n")

	output, err := transport.Output("encfsctl", args, input)
	if err != nil {
		return nil, errors.Wrap(err, "encryption helper invocation failed")
	}

	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	return lines, nil
}
