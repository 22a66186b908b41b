package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/copyplan"
)

var pullConfiguration syncFlags

func pullMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one argument required: remote name")
	}
	name := arguments[0]

	if pullConfiguration.delta != "" {
		return errors.New("--delta is only valid for push")
	}

	sc, err := openSync(name, pullConfiguration)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sc.close(pullConfiguration); closeErr != nil {
			cmd.Warning(closeErr.Error())
		}
	}()

	result, err := sc.computeDiff(pullConfiguration)
	if err != nil {
		return err
	}

	if err := sc.materialize(copyplan.Pull, result, pullConfiguration); err != nil {
		return err
	}

	fmt.Println(result.stats.Show())
	return nil
}

var pullCommand = &cobra.Command{
	Use:   "pull <name>",
	Short: "Copy remote-only and newer-remote changes down to the local tree",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(pullMain),
}

func init() {
	flags := pullCommand.Flags()
	flags.StringVarP(&pullConfiguration.path, "path", "p", "", "Directory to treat as the current location (defaults to the working directory)")
	flags.BoolVarP(&pullConfiguration.umount, "umount", "u", false, "Unmount the remote after the operation completes")
	flags.BoolVarP(&pullConfiguration.simulate, "simulate", "s", false, "Perform a dry run, reporting what would be copied without copying it")
	flags.BoolVarP(&pullConfiguration.delete, "delete", "d", false, "Remove local files that the remote no longer has")
	flags.BoolVarP(&pullConfiguration.ignoreTime, "ignore-time", "i", false, "Ignore modification time when comparing files")
	flags.BoolVarP(&pullConfiguration.content, "content", "c", false, "Compare file content via hash in addition to size and time")
	flags.BoolVarP(&pullConfiguration.verbose, "verbose", "v", false, "Show debug-level logging")
}
