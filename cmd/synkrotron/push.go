package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/copyplan"
)

var pushConfiguration syncFlags

func pushMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one argument required: remote name")
	}
	name := arguments[0]

	sc, err := openSync(name, pushConfiguration)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sc.close(pushConfiguration); closeErr != nil {
			cmd.Warning(closeErr.Error())
		}
	}()

	result, err := sc.computeDiff(pushConfiguration)
	if err != nil {
		return err
	}

	if err := sc.materialize(copyplan.Push, result, pushConfiguration); err != nil {
		return err
	}

	fmt.Println(result.stats.Show())
	return nil
}

var pushCommand = &cobra.Command{
	Use:   "push <name>",
	Short: "Copy local-only and newer-local changes up to the remote tree",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(pushMain),
}

func init() {
	registerCopyFlags(pushCommand.Flags(), &pushConfiguration)
}
