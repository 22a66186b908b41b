package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/entry"
)

var diffConfiguration syncFlags

func diffMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("exactly one argument required: remote name")
	}
	name := arguments[0]

	sc, err := openSync(name, diffConfiguration)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sc.close(diffConfiguration); closeErr != nil {
			cmd.Warning(closeErr.Error())
		}
	}()

	result, err := sc.computeDiff(diffConfiguration)
	if err != nil {
		return err
	}

	printDiff(result.reported)
	fmt.Println()
	fmt.Println(result.stats.Show())

	return nil
}

// printDiff renders one line per differing path, in the verbose vocabulary
// used throughout the engine's diagnostics.
func printDiff(items entry.List) {
	for _, item := range items {
		fmt.Printf("%-8s %s (%s)\n", item.Operation, item.Path, item.Rationale)
	}
}

var diffCommand = &cobra.Command{
	Use:   "diff <name>",
	Short: "Show the differences between the local tree and a remote without copying anything",
	Args:  cobra.ExactArgs(1),
	Run:   cmd.Mainify(diffMain),
}

func init() {
	registerDiffFlags(diffCommand.Flags(), &diffConfiguration)
}
