package codec

import (
	"os"
	"testing"
)

func TestCacheIsOwnInverse(t *testing.T) {
	cache := NewCache()
	cache.insertAll(directionEncode, []string{"hello"}, []string{"xQ2f"})

	clear, ok := cache.lookup(directionDecode, "xQ2f")
	if !ok || clear != "hello" {
		t.Fatalf("decode lookup = %q, %v; want hello, true", clear, ok)
	}
	encrypted, ok := cache.lookup(directionEncode, "hello")
	if !ok || encrypted != "xQ2f" {
		t.Fatalf("encode lookup = %q, %v; want xQ2f, true", encrypted, ok)
	}
}

func TestLoadCacheMissingFile(t *testing.T) {
	cache, corrupted := LoadCache("/nonexistent/path/to/cache")
	if corrupted {
		t.Error("missing file should not be reported as corrupted")
	}
	if len(cache.Encode) != 0 || len(cache.Decode) != 0 {
		t.Error("expected empty cache for missing file")
	}
}

func TestSaveAndLoadCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cache"

	cache := NewCache()
	cache.insertAll(directionEncode, []string{"a", "b"}, []string{"A", "B"})
	if err := cache.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, corrupted := LoadCache(path)
	if corrupted {
		t.Fatal("freshly saved cache reported as corrupted")
	}
	if loaded.Encode["a"] != "A" || loaded.Decode["B"] != "b" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadCacheCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/cache"
	if err := os.WriteFile(path, []byte("not msgpack data at all"), 0600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	_, corrupted := LoadCache(path)
	if !corrupted {
		t.Error("expected corrupted cache to be reported")
	}
}
