package main

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/codec"
	"github.com/synkrotron/synkrotron/pkg/config"
	"github.com/synkrotron/synkrotron/pkg/copyplan"
	"github.com/synkrotron/synkrotron/pkg/entry"
	"github.com/synkrotron/synkrotron/pkg/logging"
	"github.com/synkrotron/synkrotron/pkg/pattern"
	"github.com/synkrotron/synkrotron/pkg/reconcile"
	"github.com/synkrotron/synkrotron/pkg/remote"
	"github.com/synkrotron/synkrotron/pkg/remoteurl"
	"github.com/synkrotron/synkrotron/pkg/transport"
	"github.com/synkrotron/synkrotron/pkg/version"
	"github.com/synkrotron/synkrotron/pkg/walk"
)

// syncFlags holds the options shared by diff, pull, and push, overriding the
// remote's configured defaults when set.
type syncFlags struct {
	path       string
	umount     bool
	simulate   bool
	delete     bool
	ignoreTime bool
	content    bool
	verbose    bool
	delta      string
}

// registerDiffFlags wires the flags relevant to a read-only diff onto a
// command's flag set.
func registerDiffFlags(flags *pflag.FlagSet, f *syncFlags) {
	flags.StringVarP(&f.path, "path", "p", "", "Directory to treat as the current location (defaults to the working directory)")
	flags.BoolVarP(&f.umount, "umount", "u", false, "Unmount the remote after the operation completes")
	flags.BoolVarP(&f.ignoreTime, "ignore-time", "i", false, "Ignore modification time when comparing files")
	flags.BoolVarP(&f.content, "content", "c", false, "Compare file content via hash in addition to size and time")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Show debug-level logging")
}

// registerCopyFlags wires the flags relevant to pull/push, a superset of
// registerDiffFlags adding the options that affect materialization.
func registerCopyFlags(flags *pflag.FlagSet, f *syncFlags) {
	registerDiffFlags(flags, f)
	flags.BoolVarP(&f.simulate, "simulate", "s", false, "Perform a dry run, reporting what would be copied without copying it")
	flags.BoolVarP(&f.delete, "delete", "d", false, "Remove destination-only files that would otherwise be left behind")
	flags.StringVar(&f.delta, "delta", "", "Materialize a push into a local delta directory instead of the remote")
}

// syncContext bundles everything an operation needs once a remote has been
// resolved, mounted, and (if encrypted) made available for content hashing.
type syncContext struct {
	cfg       *config.Config
	remoteCfg config.Remote
	rem       *remote.Remote
	logger    *logging.Logger

	localRoot  string
	remoteRoot string

	cache      *codec.Cache
	cachePath  string
	reverseDir string
}

// workingDirectory returns path if non-empty, otherwise the process' current
// working directory.
func workingDirectory(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "unable to determine working directory")
	}
	return cwd, nil
}

// openSync loads the configuration, resolves the named remote, and mounts
// it, returning a syncContext ready for walking and diffing. The caller must
// call close when finished.
func openSync(remoteName string, f syncFlags) (*syncContext, error) {
	version.DebugEnabled = f.verbose
	if f.verbose {
		logging.CurrentLevel = logging.LevelDebug
	}

	logger := logging.RootLogger.Sublogger(remoteName)

	cwd, err := workingDirectory(f.path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}

	remoteCfg, err := cfg.Remote(remoteName)
	if err != nil {
		return nil, err
	}

	location, err := remoteurl.Parse(remoteCfg.Location)
	if err != nil {
		return nil, errors.Wrap(err, "invalid location")
	}

	rem := remote.New(remoteName, location, remoteCfg.Key, cfg.SyncDir, remoteCfg.MountPoint)

	remoteRoot, err := rem.Mount()
	if err != nil {
		return nil, err
	}

	sc := &syncContext{
		cfg:        cfg,
		remoteCfg:  remoteCfg,
		rem:        rem,
		logger:     logger,
		localRoot:  cfg.Root,
		remoteRoot: remoteRoot,
	}

	if rem.Encrypted() {
		sc.cachePath = filepath.Join(cfg.SyncDir, rem.CacheFileName())
		cache, corrupted := codec.LoadCache(sc.cachePath)
		if corrupted {
			logger.Warn(errors.Errorf("discarding unreadable name cache %s", sc.cachePath))
		}
		sc.cache = cache

		reverseDir, err := rem.ReverseMount(cfg.Root)
		if err != nil {
			rem.Umount()
			return nil, err
		}
		sc.reverseDir = reverseDir
	}

	return sc, nil
}

// close tears down whatever openSync brought up: the reverse mount always,
// and the main remote mount when requested via --umount.
func (sc *syncContext) close(f syncFlags) error {
	if sc.cache != nil {
		if err := sc.cache.Save(sc.cachePath); err != nil {
			cmd.Warning(err.Error())
		}
	}

	if sc.rem.Encrypted() {
		if err := sc.rem.ReverseUmount(); err != nil {
			cmd.Warning(err.Error())
		}
	}

	if f.umount {
		return sc.rem.Umount()
	}
	return nil
}

// diffResult is what computeDiff returns. items holds the main-tree diff,
// materialized against the ordinary local/remote roots; clearItems holds the
// subset contributed by the clear-paths pass (nil when the remote declares
// none), materialized instead against the "clear" sibling subtree. reported
// is the two concatenated and re-sorted, for display and statistics.
type diffResult struct {
	items      entry.List
	clearItems entry.List
	reported   entry.List
	stats      reconcile.Statistics
}

// computeDiff walks both sides of a remote and reconciles them according to
// f and the remote's own configured defaults (a flag can switch on an option
// the remote leaves off, but cannot switch off one the remote enables). When
// the remote declares clear paths, a
// second pass is run over the unencrypted "clear" sibling subtree and its
// items are concatenated onto the main pass's, per the clear-paths exception.
func (sc *syncContext) computeDiff(f syncFlags) (*diffResult, error) {
	excludes := pattern.ParseAll(sc.remoteCfg.Exclude)
	includes := pattern.ParseAll(sc.remoteCfg.Include)

	// The tool's own state directory lives inside the local root and must
	// never be treated as synchronizable content.
	syncDir, _ := pattern.Parse("/.synkrotron")
	excludes = append(excludes, syncDir)

	if sc.rem.Encrypted() {
		forced, _ := pattern.Parse("/.encfs6.xml")
		clearDir, _ := pattern.Parse("/clear")
		excludes = append(excludes, forced, clearDir)
	}

	diffOptions := reconcile.Options{
		IgnoreTime:   f.ignoreTime || sc.remoteCfg.IgnoreTime,
		Content:      f.content || sc.remoteCfg.Content,
		ModifyWindow: int64(sc.remoteCfg.ModifyWindow),
	}
	diffOptions.LocalContentPath, diffOptions.RemoteContentPath = sc.contentPathResolvers()

	items, err := sc.diffPass(sc.localRoot, sc.remoteRoot, excludes, includes, diffOptions)
	if err != nil {
		return nil, err
	}

	var clearItems entry.List
	if len(sc.remoteCfg.Clear) > 0 {
		clearIncludes := pattern.ParseAll(sc.remoteCfg.Clear)
		clearRemoteRoot := filepath.Join(sc.remoteRoot, "clear")
		clearOptions := diffOptions
		clearOptions.LocalContentPath = func(p string) (string, error) {
			return filepath.Join(sc.localRoot, p), nil
		}
		clearOptions.RemoteContentPath = func(p string) (string, error) {
			return filepath.Join(clearRemoteRoot, p), nil
		}

		var clearErr error
		clearItems, clearErr = sc.diffPass(sc.localRoot, clearRemoteRoot, []pattern.Pattern{syncDir}, clearIncludes, clearOptions)
		if clearErr != nil {
			return nil, errors.Wrap(clearErr, "unable to diff clear paths")
		}
	}

	reported := make(entry.List, 0, len(items)+len(clearItems))
	reported = append(reported, items...)
	reported = append(reported, clearItems...)
	entry.ByPath(reported)

	var stats reconcile.Statistics
	stats.Add(reported)

	return &diffResult{items: items, clearItems: clearItems, reported: reported, stats: stats}, nil
}

// diffPass walks localRoot and remoteRoot with a shared filter set and
// reconciles the results. Both sides use the same (cleartext) patterns: the
// forward EncFS mount already presents decrypted names, so the Name Codec is
// never needed for walking, only for resolving content-hash paths.
func (sc *syncContext) diffPass(localRoot, remoteRoot string, excludes, includes []pattern.Pattern, options reconcile.Options) (entry.List, error) {
	walkOptions := walk.Options{
		FollowSymlinks: !sc.remoteCfg.PreserveLinks,
		Excludes:       excludes,
		Includes:       includes,
	}

	var localMap, remoteMap entry.Map
	var localErr, remoteErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		localMap, localErr = walk.Walk(localRoot, sc.cfg.RelCwd, walkOptions, sc.logger.Sublogger("local"))
	}()
	go func() {
		defer wg.Done()
		remoteMap, remoteErr = walk.Walk(remoteRoot, sc.cfg.RelCwd, walkOptions, sc.logger.Sublogger("remote"))
	}()
	wg.Wait()
	if localErr != nil {
		return nil, errors.Wrap(localErr, "unable to walk local tree")
	}
	if remoteErr != nil {
		return nil, errors.Wrap(remoteErr, "unable to walk remote tree")
	}

	return reconcile.Diff(localMap, remoteMap, options)
}

// contentPathResolvers builds the closures that resolve a relative path to
// the file to hash on each side. For an unencrypted remote this is a plain
// join against the mounted roots; for an encrypted remote, the remote side
// is read as raw ciphertext from the pre-decryption mount (never decrypting
// content it isn't otherwise copying) and the local side is read through the
// reverse mount under the same encrypted name, via the Name Codec.
func (sc *syncContext) contentPathResolvers() (local, remoteFn func(string) (string, error)) {
	if !sc.rem.Encrypted() {
		return func(p string) (string, error) {
				return filepath.Join(sc.localRoot, p), nil
			}, func(p string) (string, error) {
				return filepath.Join(sc.remoteRoot, p), nil
			}
	}

	cdc := sc.rem.NewCodec(sc.cache)
	encrypt := func(p string) (string, error) {
		encrypted, err := cdc.Encrypt([]string{p})
		if err != nil {
			return "", errors.Wrapf(err, "unable to encrypt name for %s", p)
		}
		return encrypted[0], nil
	}

	return func(p string) (string, error) {
			encrypted, err := encrypt(p)
			if err != nil {
				return "", err
			}
			return filepath.Join(sc.reverseDir, encrypted), nil
		}, func(p string) (string, error) {
			encrypted, err := encrypt(p)
			if err != nil {
				return "", err
			}
			return filepath.Join(sc.rem.PreDecryptRoot(), encrypted), nil
		}
}

// materialize applies a diff result in the given direction, honoring
// --simulate, --delete, and --delta.
func (sc *syncContext) materialize(direction copyplan.Direction, result *diffResult, f syncFlags) error {
	options := copyplan.Options{
		Direction:      direction,
		Simulate:       f.simulate,
		Delete:         f.delete || sc.remoteCfg.Delete,
		FollowSymlinks: !sc.remoteCfg.PreserveLinks,
	}

	if f.delta != "" {
		if direction != copyplan.Push {
			return errors.New("--delta is only valid for push")
		}
		if err := sc.prepareDelta(f.delta); err != nil {
			return err
		}
		options.DeltaDir = f.delta
		if sc.rem.Encrypted() {
			deltaSource, err := filepath.Abs(f.delta)
			if err != nil {
				return errors.Wrap(err, "unable to resolve delta directory")
			}
			deltaRem := remote.New(sc.rem.Name+"-delta", remoteurl.Location{Path: deltaSource}, sc.rem.Key, sc.cfg.SyncDir, "")
			deltaRoot, err := deltaRem.Mount()
			if err != nil {
				return errors.Wrap(err, "unable to mount delta directory")
			}
			defer deltaRem.Umount()
			options.DeltaDir = deltaRoot
		}
	}

	if err := copyplan.Apply(sc.localRoot, sc.remoteRoot, result.items, options); err != nil {
		return err
	}

	if len(result.clearItems) == 0 {
		return nil
	}

	// Clear paths are never encrypted, so a delta push has nowhere sensible
	// to stage them: the delta directory only carries the encrypted volume's
	// header, not a "clear" sibling. Materialize them directly against the
	// remote's clear subtree instead.
	clearOptions := options
	clearOptions.DeltaDir = ""
	clearRemoteRoot := filepath.Join(sc.remoteRoot, "clear")
	return copyplan.Apply(sc.localRoot, clearRemoteRoot, result.clearItems, clearOptions)
}

// prepareDelta sets up a delta directory as a push target: when the remote
// is encrypted, the delta is itself EncFS-encrypted under the same key (so
// it can later be pushed onward to the real remote), which requires copying
// the volume's configuration header before mounting.
func (sc *syncContext) prepareDelta(deltaRoot string) error {
	if !sc.rem.Encrypted() {
		return config.WriteDeltaConfig(deltaRoot, sc.remoteCfg.Name, sc.remoteCfg)
	}

	if err := os.MkdirAll(deltaRoot, 0700); err != nil {
		return errors.Wrap(err, "unable to create delta directory")
	}

	header, err := os.ReadFile(filepath.Join(sc.rem.PreDecryptRoot(), ".encfs6.xml"))
	if err != nil {
		return errors.Wrap(err, "unable to read remote encryption header")
	}
	if err := os.WriteFile(filepath.Join(deltaRoot, ".encfs6.xml"), header, 0600); err != nil {
		return errors.Wrap(err, "unable to write delta encryption header")
	}

	return config.WriteDeltaConfig(deltaRoot, sc.remoteCfg.Name, sc.remoteCfg)
}

// ensureHelpersAvailable is a light sanity check invoked before a mount
// attempt, giving a clearer error than the raw ExternalHelperError when an
// obviously-missing external dependency (sshfs/encfs) is the actual cause.
func ensureHelpersAvailable(names ...string) error {
	for _, name := range names {
		if _, err := transport.Command(name); err != nil {
			return err
		}
	}
	return nil
}
