package transport

import (
	"strings"
	"testing"
)

func TestWithLocaleStripsExistingAndAppends(t *testing.T) {
	input := []string{"PATH=/usr/bin", "LC_CTYPE=C", "LC_ALL=C", "HOME=/root"}
	result := withLocale(input)

	for _, e := range result {
		if strings.HasPrefix(e, "LC_CTYPE=") && e != "LC_CTYPE=en_US.utf-8" {
			t.Errorf("expected existing LC_CTYPE to be replaced, found %q", e)
		}
		if strings.HasPrefix(e, "LC_ALL=") {
			t.Errorf("expected LC_ALL to be stripped entirely, found %q", e)
		}
	}

	var foundLocale bool
	for _, e := range result {
		if e == "LC_CTYPE=en_US.utf-8" {
			foundLocale = true
		}
	}
	if !foundLocale {
		t.Error("expected LC_CTYPE=en_US.utf-8 to be present")
	}

	if len(result) != 3 {
		t.Errorf("expected PATH, HOME, and the new LC_CTYPE to survive, got %v", result)
	}
}

func TestExternalHelperErrorMessage(t *testing.T) {
	err := &ExternalHelperError{Program: "rsync", ExitCode: 23, Stderr: "some files vanished"}
	if got, want := err.Error(), "rsync failed (exit code 23): some files vanished"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = &ExternalHelperError{Program: "rsync", ExitCode: 1}
	if got, want := err.Error(), "rsync failed (exit code 1)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCommandRejectsUnknownProgram(t *testing.T) {
	if _, err := Command("synkrotron-test-does-not-exist"); err == nil {
		t.Error("expected Command to fail for a nonexistent executable")
	}
}

func TestRunAndOutputAgainstRealBinaries(t *testing.T) {
	if err := Run("true", nil, ""); err != nil {
		t.Errorf("expected Run(\"true\") to succeed, got %v", err)
	}

	if err := Run("false", nil, ""); err == nil {
		t.Error("expected Run(\"false\") to fail")
	}

	output, err := Output("echo", []string{"hello"}, "")
	if err != nil {
		t.Fatal("Output failed:", err)
	}
	if strings.TrimSpace(string(output)) != "hello" {
		t.Errorf("unexpected echo output: %q", output)
	}
}
