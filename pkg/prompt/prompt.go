// Package prompt performs interactive command line prompting, such as for
// the encryption passphrase that init records for an encrypted remote.
package prompt

import (
	"fmt"

	"github.com/mutagen-io/gopass"
	"github.com/pkg/errors"
)

// Passphrase prompts on the controlling terminal for a secret value, with
// input echoing disabled, and returns the response.
func Passphrase(prompt string) (string, error) {
	fmt.Print(prompt)

	result, err := gopass.GetPasswd()
	if err != nil {
		return "", errors.Wrap(err, "unable to read response")
	}

	return string(result), nil
}

// Confirm prompts for a yes/no answer, echoing the response, and reports
// whether the answer was affirmative.
func Confirm(prompt string) (bool, error) {
	fmt.Print(prompt)

	response, err := gopass.GetPasswdEchoed()
	if err != nil {
		return false, errors.Wrap(err, "unable to read response")
	}

	return isAffirmative(string(response)), nil
}

// isAffirmative reports whether a raw confirmation response should be
// treated as "yes".
func isAffirmative(response string) bool {
	switch response {
	case "y", "Y", "yes", "Yes":
		return true
	}
	return false
}
