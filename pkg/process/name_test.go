package process

import (
	"testing"
)

// TestExecutableNameWindows tests that ExecutableName works correctly for a
// Windows target.
func TestExecutableNameWindows(t *testing.T) {
	if name := ExecutableName("synkrotron-helper", "windows"); name != "synkrotron-helper.exe" {
		t.Error("executable name incorrect for Windows")
	}
}

// TestExecutableNameLinux tests that ExecutableName works correctly for a Linux
// target.
func TestExecutableNameLinux(t *testing.T) {
	if name := ExecutableName("synkrotron-helper", "linux"); name != "synkrotron-helper" {
		t.Error("executable name incorrect for Linux")
	}
}
