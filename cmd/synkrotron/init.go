package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/synkrotron/synkrotron/cmd"
	"github.com/synkrotron/synkrotron/pkg/config"
	"github.com/synkrotron/synkrotron/pkg/prompt"
	"github.com/synkrotron/synkrotron/pkg/remoteurl"
)

var initConfiguration struct {
	// path is the local directory to initialize (defaults to the working
	// directory).
	path string
	// encrypted requests an encryption passphrase prompt, configuring the
	// remote for EncFS-style name and content encryption.
	encrypted bool
}

func initMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errors.New("exactly two arguments required: name and location")
	}
	name, location := arguments[0], arguments[1]

	if _, err := remoteurl.Parse(location); err != nil {
		return errors.Wrap(err, "invalid location")
	}

	root := initConfiguration.path
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return errors.Wrap(err, "unable to determine working directory")
		}
	}

	if err := config.InitRemote(root, name, location); err != nil {
		return err
	}

	if initConfiguration.encrypted {
		passphrase, err := prompt.Passphrase(fmt.Sprintf("Encryption passphrase for %s: ", name))
		if err != nil {
			return err
		}
		confirmation, err := prompt.Passphrase(fmt.Sprintf("Confirm passphrase for %s: ", name))
		if err != nil {
			return err
		}
		if passphrase != confirmation {
			return errors.New("passphrases do not match")
		}
		if err := config.SetEncryptionKey(root, name, passphrase); err != nil {
			return err
		}
	}

	return nil
}

var initCommand = &cobra.Command{
	Use:   "init <name> <location>",
	Short: "Add a new remote to the current .synkrotron configuration",
	Args:  cobra.ExactArgs(2),
	Run:   cmd.Mainify(initMain),
}

func init() {
	flags := initCommand.Flags()
	flags.StringVarP(&initConfiguration.path, "path", "p", "", "Directory to initialize (defaults to the working directory)")
	flags.BoolVarP(&initConfiguration.encrypted, "encrypted", "e", false, "Prompt for a passphrase and enable EncFS-style encryption for this remote")
}
