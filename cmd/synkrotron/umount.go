package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/config"
	"github.com/synkrotron/synkrotron/pkg/remote"
	"github.com/synkrotron/synkrotron/pkg/remoteurl"
)

var umountConfiguration struct {
	path string
}

func umountMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one argument required: remote name")
	}
	name := arguments[0]

	cwd, err := workingDirectory(umountConfiguration.path)
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

	// A Remote constructed fresh in this process computes the same
	// deterministic mount-point paths a prior "mount" or sync invocation
	// used, so it can unmount correctly without having mounted here itself.
	rem := remote.New(name, location, remoteCfg.Key, cfg.SyncDir, remoteCfg.MountPoint)
	return rem.Umount()
}

var umountCommand = &cobra.Command{
	Use:   "umount <name>",
	Short: "Unmount a previously mounted remote",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(umountMain),
}

func init() {
	flags := umountCommand.Flags()
	flags.StringVarP(&umountConfiguration.path, "path", "p", "", "Directory to treat as the current location (defaults to the working directory)")
}
