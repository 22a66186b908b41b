package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/version"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(version.String)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "synkrotron",
	Short: "synkrotron synchronizes a local directory with a local or SSH-reachable remote directory, optionally through EncFS-style encryption",
	Args:  cmd.DisallowArguments,
	Run:   rootMain,
}

var rootConfiguration struct {
	help    bool
	version bool
}

func init() {
	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	rootCommand.AddCommand(
		initCommand,
		mountCommand,
		umountCommand,
		diffCommand,
		pullCommand,
		pushCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
