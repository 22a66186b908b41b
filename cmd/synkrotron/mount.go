package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/config"
	"github.com/synkrotron/synkrotron/pkg/remote"
	"github.com/synkrotron/synkrotron/pkg/remoteurl"
)

var mountConfiguration struct {
	path string
}

func mountMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one argument required: remote name")
	}
	name := arguments[0]

	cwd, err := workingDirectory(mountConfiguration.path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	remoteCfg, err := cfg.Remote(name)
	if err != nil {
		return err
	}

	location, err := remoteurl.Parse(remoteCfg.Location)
	if err != nil {
		return errors.Wrap(err, "invalid location")
	}

	if err := ensureHelpersAvailable(mountHelpers(location, remoteCfg)...); err != nil {
		return err
	}

	rem := remote.New(name, location, remoteCfg.Key, cfg.SyncDir, remoteCfg.MountPoint)
	root, err := rem.Mount()
	if err != nil {
		return err
	}

	fmt.Println(root)
	return nil
}

// mountHelpers lists the external helpers a mount of this remote will need,
// so a missing one can be reported clearly before any mount attempt begins.
func mountHelpers(location remoteurl.Location, remoteCfg config.Remote) []string {
	var helpers []string
	if location.Remote {
		helpers = append(helpers, "sshfs")
	}
	if remoteCfg.Encrypted() {
		helpers = append(helpers, "encfs")
	}
	return helpers
}

var mountCommand = &cobra.Command{
	Use:   "mount <name>",
	Short: "Mount a remote's (decrypted, if applicable) root without synchronizing",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(mountMain),
}

func init() {
	flags := mountCommand.Flags()
	flags.StringVarP(&mountConfiguration.path, "path", "p", "", "Directory to treat as the current location (defaults to the working directory)")
}
