// Package remote orchestrates mounting a remote (or local) synchronization
// root: an optional sshfs hop to reach a remote host, followed by an
// optional EncFS forward mount to decrypt it, and, separately, an EncFS
// reverse mount used to view the local tree through the same encryption for
// content-hash comparison.
package remote

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/synkrotron/synkrotron/pkg/codec"
	"github.com/synkrotron/synkrotron/pkg/remoteurl"
	"github.com/synkrotron/synkrotron/pkg/transport"
)

// MountError indicates that mounting or unmounting a remote failed: the
// underlying sshfs/encfs/fusermount subprocess exited non-zero, the local
// location doesn't exist, or the supplied key was rejected.
type MountError struct {
	// Stage names which mount step failed ("sshfs", "encfs", "reverse").
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *MountError) Error() string {
	return fmt.Sprintf("unable to mount %s: %v", e.Stage, e.Err)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *MountError) Unwrap() error {
	return e.Err
}

// manualConfigPrelude is prepended to the passphrase on encfs's stdin the
// first time a volume is created (no .encfs6.xml present yet), selecting
// EncFS's "x" (expert/manual) configuration mode with a 192-bit key, no
// filename initialization vector chaining, and no per-file MAC headers, to
// keep encrypted names stable across independent encode/decode calls.
const manualConfigPrelude = "x\n1\n192\n\n1\nno\nno\n\n0\n\n"

// Remote represents one configured synchronization endpoint: a location
// (local path or SSH host:path), its optional encryption key, and the
// mount points this process creates to reach its decrypted contents.
type Remote struct {
	Name     string
	Location remoteurl.Location
	Key      string
	// SyncDir is the local ".synkrotron" directory under which mount point
	// directories for this remote are created.
	SyncDir string
	// MountPoint, if non-empty, receives a symlink to the fully mounted
	// (decrypted, if applicable) root once mounting succeeds.
	MountPoint string

	sshfsPath        string
	encfsPath        string
	encfsReversePath string
	mounted          bool
	reverseMounted   bool

	// preDecryptRoot is the path Mount decrypted from: the sshfs mount (or
	// the local Location.Path directly) before any EncFS forward
	// decryption. It holds the same raw ciphertext bytes the remote itself
	// stores, and is where content hashing under encryption reads the
	// remote side from (see ReverseMount and NewCodec).
	preDecryptRoot string
}

// New creates a Remote for the given configured name, location, and key. The
// mount-point paths it will use are deterministic functions of name and
// syncDir, so a freshly constructed Remote can be unmounted (Umount) without
// having mounted it in the same process first.
func New(name string, location remoteurl.Location, key, syncDir, mountPoint string) *Remote {
	r := &Remote{
		Name:       name,
		Location:   location,
		Key:        key,
		SyncDir:    syncDir,
		MountPoint: mountPoint,
	}
	r.sshfsPath = r.syncPath("sshfs")
	r.encfsPath = r.syncPath("encfs")
	r.encfsReversePath = r.syncPath("encfs-reverse")
	return r
}

// Encrypted reports whether this remote has an encryption key configured.
func (r *Remote) Encrypted() bool {
	return r.Key != ""
}

// Mounted reports whether a prior call to Mount succeeded without a
// matching Umount.
func (r *Remote) Mounted() bool {
	return r.mounted
}

// syncPath returns the local mount-point directory this remote uses for a
// given purpose ("sshfs", "encfs", or "encfs-reverse").
func (r *Remote) syncPath(purpose string) string {
	return filepath.Join(r.SyncDir, r.Name+"-"+purpose)
}

// Mount brings the remote's root fully online: an sshfs hop if the location
// is remote, then an EncFS forward mount if a key is configured, then an
// optional symlink at MountPoint. It returns the local filesystem path at
// which the (decrypted, if applicable) tree can now be walked.
func (r *Remote) Mount() (string, error) {
	root := r.Location.Path

	if r.Location.Remote {
		if err := os.MkdirAll(r.sshfsPath, 0700); err != nil {
			return "", &MountError{Stage: "sshfs", Err: err}
		}

		host := r.Location.Host
		if r.Location.User != "" {
			host = r.Location.User + "@" + host
		}
		args := []string{fmt.Sprintf("%s:%s", host, r.Location.Path), r.sshfsPath}
		if r.Location.Port != 0 {
			args = append(args, "-p", fmt.Sprintf("%d", r.Location.Port))
		}
		if err := transport.Run("sshfs", args, ""); err != nil {
			return "", &MountError{Stage: "sshfs", Err: err}
		}
		root = r.sshfsPath
	}

	r.preDecryptRoot = root

	if r.Encrypted() {
		if err := os.MkdirAll(r.encfsPath, 0700); err != nil {
			return "", &MountError{Stage: "encfs", Err: err}
		}

		input := r.Key
		if _, err := os.Stat(filepath.Join(root, ".encfs6.xml")); os.IsNotExist(err) {
			input = manualConfigPrelude + r.Key
		}

		if err := transport.Run("encfs", []string{"--stdinpass", root, r.encfsPath}, input); err != nil {
			return "", &MountError{Stage: "encfs", Err: err}
		}
		root = r.encfsPath
	}

	r.mounted = true

	if r.MountPoint != "" {
		if err := os.Symlink(root, r.MountPoint); err != nil && !os.IsExist(err) {
			return "", &MountError{Stage: "mount_point", Err: err}
		}
	}

	return root, nil
}

// Umount tears down whatever Mount brought up, in reverse order: the
// MountPoint symlink, then the EncFS forward mount, then the sshfs hop.
func (r *Remote) Umount() error {
	if r.MountPoint != "" {
		if err := os.Remove(r.MountPoint); err != nil && !os.IsNotExist(err) {
			return &MountError{Stage: "mount_point", Err: err}
		}
	}

	if r.Encrypted() {
		if err := transport.Run("fusermount", []string{"-u", r.encfsPath}, ""); err != nil {
			return &MountError{Stage: "encfs", Err: err}
		}
		if err := os.Remove(r.encfsPath); err != nil && !os.IsNotExist(err) {
			return &MountError{Stage: "encfs", Err: err}
		}
	}

	if r.Location.Remote {
		if err := transport.Run("fusermount", []string{"-u", r.sshfsPath}, ""); err != nil {
			return &MountError{Stage: "sshfs", Err: err}
		}
		if err := os.Remove(r.sshfsPath); err != nil && !os.IsNotExist(err) {
			return &MountError{Stage: "sshfs", Err: err}
		}
	}

	r.mounted = false
	return nil
}

// ReverseMount mounts localRoot in EncFS reverse mode using this remote's
// encryption key and configuration header, so that content hashing can read
// the local tree's plaintext as the same encrypted bytes the remote stores.
// Mount must have already succeeded on this (encrypted) Remote, since the
// reverse mount reuses its forward mount's ".encfs6.xml" key-derivation
// parameters.
func (r *Remote) ReverseMount(localRoot string) (string, error) {
	if err := os.MkdirAll(r.encfsReversePath, 0700); err != nil {
		return "", &MountError{Stage: "reverse", Err: err}
	}

	env := map[string]string{
		"ENCFS6_CONFIG": filepath.Join(r.preDecryptRoot, ".encfs6.xml"),
	}
	args := []string{"--reverse", "--stdinpass", localRoot, r.encfsReversePath}
	if err := transport.RunWithEnv("encfs", args, r.Key, env); err != nil {
		return "", &MountError{Stage: "reverse", Err: err}
	}

	r.reverseMounted = true
	return r.encfsReversePath, nil
}

// ReverseUmount tears down the mount created by ReverseMount.
func (r *Remote) ReverseUmount() error {
	if !r.reverseMounted {
		return nil
	}
	if err := transport.Run("fusermount", []string{"-u", r.encfsReversePath}, ""); err != nil {
		return &MountError{Stage: "reverse", Err: err}
	}
	if err := os.Remove(r.encfsReversePath); err != nil && !os.IsNotExist(err) {
		return &MountError{Stage: "reverse", Err: err}
	}
	r.reverseMounted = false
	return nil
}

// NewCodec constructs a Codec bound to this remote's EncFS source directory
// (the forward mount's pre-decryption side, populated by Mount) and the
// given cache.
func (r *Remote) NewCodec(cache *codec.Cache) *codec.Codec {
	return codec.New(r.preDecryptRoot, r.Key, cache)
}

// PreDecryptRoot returns the raw (still-encrypted) directory Mount decrypted
// from, valid once Mount has succeeded on an encrypted remote. Content
// hashing under encryption reads the remote side from here, using the
// path's Name-Codec-encrypted form, rather than through the decrypted
// forward mount, so the comparison never has to decrypt remote content it
// isn't otherwise copying.
func (r *Remote) PreDecryptRoot() string {
	return r.preDecryptRoot
}

// CacheFileName returns the name of this remote's persisted NameCache file,
// keyed by a hash of the encryption key so that distinct keys (e.g. across
// a delta push) never share a cache.
func (r *Remote) CacheFileName() string {
	sum := md5.Sum([]byte(r.Key))
	return fmt.Sprintf("%s-cache-%s", r.Name, hex.EncodeToString(sum[:]))
}
