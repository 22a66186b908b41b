package remote

import (
	"path/filepath"
	"testing"

	"github.com/synkrotron/synkrotron/pkg/remoteurl"
)

func TestSyncPathNamespacesByRemoteName(t *testing.T) {
	r := New("origin", remoteurl.Location{Path: "/srv/data"}, "", "/home/user/.synkrotron", "")

	if got, want := r.syncPath("sshfs"), filepath.Join("/home/user/.synkrotron", "origin-sshfs"); got != want {
		t.Errorf("syncPath mismatch: %s != %s", got, want)
	}
	if got, want := r.syncPath("encfs-reverse"), filepath.Join("/home/user/.synkrotron", "origin-encfs-reverse"); got != want {
		t.Errorf("syncPath mismatch: %s != %s", got, want)
	}
}

func TestEncryptedReflectsKeyPresence(t *testing.T) {
	plain := New("origin", remoteurl.Location{Path: "/srv/data"}, "", "/sync", "")
	if plain.Encrypted() {
		t.Error("expected a keyless remote to report unencrypted")
	}

	encrypted := New("origin", remoteurl.Location{Path: "/srv/data"}, "secret", "/sync", "")
	if !encrypted.Encrypted() {
		t.Error("expected a keyed remote to report encrypted")
	}
}

func TestMountedStartsFalse(t *testing.T) {
	r := New("origin", remoteurl.Location{Path: "/srv/data"}, "", "/sync", "")
	if r.Mounted() {
		t.Error("expected a fresh Remote to report unmounted")
	}
}

func TestCacheFileNameIsStableAndKeySpecific(t *testing.T) {
	a := New("origin", remoteurl.Location{Path: "/srv/data"}, "secret", "/sync", "")
	b := New("origin", remoteurl.Location{Path: "/srv/data"}, "other", "/sync", "")

	if a.CacheFileName() != a.CacheFileName() {
		t.Error("expected CacheFileName to be stable across calls")
	}
	if a.CacheFileName() == b.CacheFileName() {
		t.Error("expected distinct keys to produce distinct cache file names")
	}
	if a.CacheFileName()[:len("origin-cache-")] != "origin-cache-" {
		t.Errorf("unexpected cache file name prefix: %s", a.CacheFileName())
	}
}
