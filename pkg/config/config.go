// Package config loads and writes the ".synkrotron/config" INI file that
// records each known remote and its synchronization options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// ConfigError indicates a problem with the configuration file itself: it is
// missing, a section names an unrecognized option, or a requested remote
// doesn't exist.
type ConfigError struct {
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return e.Message
}

// Remote holds one section's worth of synchronization options.
type Remote struct {
	Name string

	Location      string
	Key           string
	MountPoint    string
	Exclude       []string
	Include       []string
	Clear         []string
	IgnoreTime    bool
	ModifyWindow  int
	Content       bool
	PreserveLinks bool
	Delete        bool
}

// Encrypted reports whether this remote has an encryption key configured.
func (r Remote) Encrypted() bool {
	return r.Key != ""
}

// recognizedOptions lists every key a remote section may set; any other key
// is a configuration error, matching the original tool's strict validation.
var recognizedOptions = map[string]bool{
	"location":       true,
	"key":            true,
	"mount_point":    true,
	"exclude":        true,
	"include":        true,
	"clear":          true,
	"ignore_time":    true,
	"modify_window":  true,
	"content":        true,
	"preserve_links": true,
	"delete":         true,
}

// Config is a loaded ".synkrotron" configuration rooted at a particular
// directory.
type Config struct {
	// Root is the directory containing the ".synkrotron" directory.
	Root string
	// SyncDir is Root/.synkrotron.
	SyncDir string
	// ConfigFile is SyncDir/config.
	ConfigFile string
	// RelCwd is the path from Root to the directory Load was called from.
	RelCwd string

	Remotes map[string]Remote
}

// Load walks upward from cwd looking for a ".synkrotron" directory, then
// parses its "config" file.
func Load(cwd string) (*Config, error) {
	root, relCwd, err := findRoot(cwd)
	if err != nil {
		return nil, err
	}

	syncDir := filepath.Join(root, ".synkrotron")
	configFile := filepath.Join(syncDir, "config")

	remotes, err := readRemotes(configFile)
	if err != nil {
		return nil, err
	}

	return &Config{
		Root:       root,
		SyncDir:    syncDir,
		ConfigFile: configFile,
		RelCwd:     relCwd,
		Remotes:    remotes,
	}, nil
}

// findRoot walks upward from cwd until it finds a directory containing
// ".synkrotron", returning that directory and cwd's path relative to it.
func findRoot(cwd string) (root, relCwd string, err error) {
	cwd, err = filepath.Abs(cwd)
	if err != nil {
		return "", "", errors.Wrap(err, "unable to resolve absolute path")
	}

	current := cwd
	for {
		if _, statErr := os.Stat(filepath.Join(current, ".synkrotron")); statErr == nil {
			rel, relErr := filepath.Rel(current, cwd)
			if relErr != nil {
				return "", "", errors.Wrap(relErr, "unable to compute relative working directory")
			}
			return current, rel, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", "", &ConfigError{Message: "no .synkrotron directory found in any parent of " + cwd}
		}
		current = parent
	}
}

// readRemotes parses the "config" INI file into a Remote per section.
func readRemotes(path string) (map[string]Remote, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("unable to read configuration file %s: %v", path, err)}
	}

	remotes := make(map[string]Remote)
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}

		for _, key := range section.Keys() {
			if !recognizedOptions[key.Name()] {
				return nil, &ConfigError{Message: fmt.Sprintf("unknown option %q in section [%s]", key.Name(), section.Name())}
			}
		}

		location := section.Key("location").String()
		if location == "" {
			return nil, &ConfigError{Message: fmt.Sprintf("section [%s] is missing a location", section.Name())}
		}

		remotes[section.Name()] = Remote{
			Name:          section.Name(),
			Location:      location,
			Key:           section.Key("key").String(),
			MountPoint:    section.Key("mount_point").String(),
			Exclude:       splitColonList(section.Key("exclude").String()),
			Include:       splitColonList(section.Key("include").String()),
			Clear:         splitColonList(section.Key("clear").String()),
			IgnoreTime:    section.Key("ignore_time").MustBool(false),
			ModifyWindow:  section.Key("modify_window").MustInt(0),
			Content:       section.Key("content").MustBool(false),
			PreserveLinks: section.Key("preserve_links").MustBool(false),
			Delete:        section.Key("delete").MustBool(false),
		}
	}

	return remotes, nil
}

// splitColonList splits a ":"-separated option value into its components,
// discarding empty entries.
func splitColonList(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ":") {
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// Remote looks up a configured remote by name.
func (c *Config) Remote(name string) (Remote, error) {
	remote, ok := c.Remotes[name]
	if !ok {
		return Remote{}, &ConfigError{Message: fmt.Sprintf("no remote named %q configured", name)}
	}
	return remote, nil
}

// configTemplate is appended to a fresh ".synkrotron/config" the first time
// a remote is initialized, documenting every recognized option inline.
const configTemplate = `# synkrotron configuration.
#
# Each section names a remote. Recognized options:
#   location       = [user@]host:path, or a local path (required)
#   key            = passphrase enabling EncFS-style encryption (optional)
#   mount_point    = local symlink to the mounted root (optional)
#   exclude        = ":"-separated glob patterns to skip
#   include        = ":"-separated glob patterns to force-admit
#   clear          = ":"-separated paths kept unencrypted alongside an
#                    encrypted remote (encrypted mode only)
#   ignore_time    = 0 or 1, skip mtime comparison entirely
#   modify_window  = integer seconds of mtime slack to tolerate
#   content        = 0 or 1, compare file content via hash
#   preserve_links = 0 or 1, do not follow symlinks while walking
#   delete         = 0 or 1, remove destination-only paths on copy

`

// InitRemote creates the ".synkrotron" directory and configuration file
// (with its commented template) if they don't yet exist, then appends a
// section for the given remote name and location.
func InitRemote(root, name, location string) error {
	syncDir := filepath.Join(root, ".synkrotron")
	if err := os.MkdirAll(syncDir, 0700); err != nil {
		return errors.Wrap(err, "unable to create .synkrotron directory")
	}

	configFile := filepath.Join(syncDir, "config")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := os.WriteFile(configFile, []byte(configTemplate), 0600); err != nil {
			return errors.Wrap(err, "unable to write configuration template")
		}
	} else if err != nil {
		return errors.Wrap(err, "unable to stat configuration file")
	}

	file, err := os.OpenFile(configFile, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrap(err, "unable to open configuration file for appending")
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "[%s]\nlocation: %s\n", name, location); err != nil {
		return errors.Wrap(err, "unable to append remote section")
	}
	return nil
}

// SetEncryptionKey records the given passphrase as the "key" option of an
// already-initialized remote section, enabling EncFS-style encryption for it.
func SetEncryptionKey(root, name, key string) error {
	configFile := filepath.Join(root, ".synkrotron", "config")

	file, err := ini.Load(configFile)
	if err != nil {
		return errors.Wrap(err, "unable to read configuration file")
	}

	section, err := file.GetSection(name)
	if err != nil {
		return errors.Wrapf(err, "no section named %q in configuration file", name)
	}
	section.Key("key").SetValue(key)

	if err := file.SaveTo(configFile); err != nil {
		return errors.Wrap(err, "unable to save configuration file")
	}
	return nil
}

// WriteDeltaConfig writes a minimal remote section into a delta directory's
// own ".synkrotron/config" so the delta can later be pushed onward as an
// ordinary remote.
func WriteDeltaConfig(deltaRoot, remoteName string, remote Remote) error {
	syncDir := filepath.Join(deltaRoot, ".synkrotron")
	if err := os.MkdirAll(syncDir, 0700); err != nil {
		return errors.Wrap(err, "unable to create delta .synkrotron directory")
	}

	file := ini.Empty()
	section, err := file.NewSection(remoteName)
	if err != nil {
		return errors.Wrap(err, "unable to create delta remote section")
	}
	section.NewKey("location", remote.Location)
	section.NewKey("ignore_time", boolString(remote.IgnoreTime))
	section.NewKey("preserve_links", boolString(remote.PreserveLinks))
	section.NewKey("modify_window", fmt.Sprintf("%d", remote.ModifyWindow))
	section.NewKey("content", boolString(remote.Content))

	return file.SaveTo(filepath.Join(syncDir, "config"))
}

func boolString(value bool) string {
	if value {
		return "1"
	}
	return "0"
}
