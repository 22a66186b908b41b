// Package transport invokes the external programs the engine depends on
// (ssh, sshfs, encfs, fusermount, encfsctl, rsync), applying the locale and
// detachment conventions those tools expect when driven non-interactively.
package transport

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/synkrotron/synkrotron/pkg/environment"
	"github.com/synkrotron/synkrotron/pkg/process"
)

// ExternalHelperError indicates that an external helper process (the
// encryption name-translation helper or the copy tool) exited with a
// non-zero status.
type ExternalHelperError struct {
	// Program is the name of the external program that failed.
	Program string
	// ExitCode is the process' exit code, if it could be determined.
	ExitCode int
	// Stderr is any captured standard error output.
	Stderr string
}

// Error implements the error interface.
func (e *ExternalHelperError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed (exit code %d): %s", e.Program, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed (exit code %d)", e.Program, e.ExitCode)
}

// HelperSearchPaths lists extra directories to search for external helper
// programs before falling back to the shell's PATH, letting a deployment
// bundle its own sshfs/encfs/rsync binaries alongside the synkrotron
// executable rather than requiring them to be installed system-wide.
var HelperSearchPaths []string

// Command builds an *exec.Cmd for the named external program, configured to
// run detached from the controlling terminal and with a locale environment
// suitable for tools (like encfsctl) that need consistent UTF-8 handling
// regardless of the invoking user's shell configuration.
func Command(name string, args ...string) (*exec.Cmd, error) {
	path, err := locate(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to locate %s executable", name)
	}

	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = process.DetachedProcessAttributes()
	cmd.Env = withLocale(os.Environ())
	return cmd, nil
}

// locate resolves name to an executable path, preferring HelperSearchPaths
// (checked with the platform-appropriate executable suffix) before falling
// back to the shell's PATH.
func locate(name string) (string, error) {
	if len(HelperSearchPaths) > 0 {
		if path, err := process.FindCommand(name, HelperSearchPaths); err == nil {
			return path, nil
		}
	}
	return exec.LookPath(process.ExecutableName(name, runtime.GOOS))
}

// withLocale ensures the environment carries a UTF-8 locale, since several of
// the external helpers (most notably encfsctl) silently mis-handle
// non-ASCII filenames without one.
func withLocale(env []string) []string {
	variables := environment.ToMap(env)
	delete(variables, "LC_CTYPE")
	delete(variables, "LC_ALL")
	variables["LC_CTYPE"] = "en_US.utf-8"
	return environment.Format(variables)
}

// Run invokes the named external program with the given arguments, feeding
// input to its standard input (if non-empty) and discarding its standard
// output. It returns an *ExternalHelperError if the process exits non-zero.
func Run(name string, args []string, input string) error {
	cmd, err := Command(name, args...)
	if err != nil {
		return err
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapExitError(name, err, stderr.String())
	}
	return nil
}

// Output invokes the named external program with the given arguments, feeding
// input to its standard input (if non-empty) and returning its captured
// standard output. It returns an *ExternalHelperError if the process exits
// non-zero.
func Output(name string, args []string, input string) ([]byte, error) {
	cmd, err := Command(name, args...)
	if err != nil {
		return nil, err
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, wrapExitError(name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// RunWithEnv behaves like Run but augments the subprocess environment with
// the given extra variables (used for, e.g., ENCFS6_CONFIG when driving a
// reverse mount).
func RunWithEnv(name string, args []string, input string, extraEnv map[string]string) error {
	cmd, err := Command(name, args...)
	if err != nil {
		return err
	}
	for key, value := range extraEnv {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapExitError(name, err, stderr.String())
	}
	return nil
}

// RunInDir behaves like Run but runs the process with the given working
// directory and, when inheritStdout is set, passes the process' standard
// output through to this process' own (used for rsync's --progress
// output rather than swallowing it).
func RunInDir(name string, args []string, dir string, input string, inheritStdout bool) error {
	cmd, err := Command(name, args...)
	if err != nil {
		return err
	}
	cmd.Dir = dir
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	if inheritStdout {
		cmd.Stdout = os.Stdout
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return wrapExitError(name, err, stderr.String())
	}
	return nil
}

func wrapExitError(program string, err error, stderr string) error {
	code, _ := process.ExitCodeForError(err)
	return &ExternalHelperError{
		Program:  program,
		ExitCode: code,
		Stderr:   strings.TrimSpace(stderr),
	}
}
