package codec

import (
	"os"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/synkrotron/synkrotron/pkg/encoding"
)

// cacheFormatVersion is bumped whenever the persisted layout changes, so a
// stale or foreign file is treated as corruption (and discarded with a
// warning) rather than causing a decode panic.
const cacheFormatVersion = 1

// Cache is the persistent, bidirectional, per-component translation cache
// backing a Codec. It is its own inverse: every recorded pair is present in
// both the encode and decode directions.
type Cache struct {
	// Version is serialized so that future format changes can be detected.
	Version int
	// Encode maps cleartext components to their encrypted form.
	Encode map[string]string
	// Decode maps encrypted components to their cleartext form.
	Decode map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		Version: cacheFormatVersion,
		Encode:  make(map[string]string),
		Decode:  make(map[string]string),
	}
}

func (c *Cache) lookup(dir direction, component string) (string, bool) {
	if dir == directionEncode {
		value, ok := c.Encode[component]
		return value, ok
	}
	value, ok := c.Decode[component]
	return value, ok
}

// insertAll records a batch of (clear, encrypted) or (encrypted, clear)
// translations atomically in both cache directions.
func (c *Cache) insertAll(dir direction, requested, translated []string) {
	for i, comp := range requested {
		mapped := translated[i]
		if dir == directionEncode {
			c.Encode[comp] = mapped
			c.Decode[mapped] = comp
		} else {
			c.Decode[comp] = mapped
			c.Encode[mapped] = comp
		}
	}
}

// LoadCache reads a persisted cache from disk. Absence or corruption is not
// fatal: an empty cache is returned along with a boolean indicating whether
// an existing (but unusable) file was found, so the caller can log a
// warning rather than silently discarding data, per the recommendation in
// the design notes about cache corruption.
func LoadCache(path string) (cache *Cache, corrupted bool) {
	var loaded Cache
	err := encoding.LoadAndUnmarshal(path, func(data []byte) error {
		return msgpack.Unmarshal(data, &loaded)
	})
	if err != nil {
		return NewCache(), !os.IsNotExist(err)
	}
	if loaded.Version != cacheFormatVersion {
		return NewCache(), true
	}
	if loaded.Encode == nil {
		loaded.Encode = make(map[string]string)
	}
	if loaded.Decode == nil {
		loaded.Decode = make(map[string]string)
	}
	return &loaded, false
}

// Save writes the cache to disk atomically, so a crash or concurrent reader
// never observes a partially-written cache file.
func (c *Cache) Save(path string) error {
	err := encoding.MarshalAndSave(path, func() ([]byte, error) {
		return msgpack.Marshal(c)
	})
	return errors.Wrap(err, "unable to save name cache")
}
