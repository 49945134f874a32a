package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	got := out.String()
	for _, want := range []string{"Lectern", "Build Time:", "Git Commit:", "Go Version:"} {
		if !strings.Contains(got, want) {
			t.Errorf("version output missing %q:\n%s", want, got)
		}
	}
}

func TestServerURL(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		chatServerURL = "http://flag:9000"
		defer func() { chatServerURL = "" }()
		t.Setenv("LECTERN_SERVER_URL", "http://env:9000")

		if got := serverURL(); got != "http://flag:9000" {
			t.Errorf("serverURL() = %q", got)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		chatServerURL = ""
		t.Setenv("LECTERN_SERVER_URL", "http://env:9000")

		if got := serverURL(); got != "http://env:9000" {
			t.Errorf("serverURL() = %q", got)
		}
	})

	t.Run("default", func(t *testing.T) {
		chatServerURL = ""
		t.Setenv("LECTERN_SERVER_URL", "")

		if got := serverURL(); got != defaultServerURL {
			t.Errorf("serverURL() = %q", got)
		}
	})
}

func TestRootCommandRegistration(t *testing.T) {
	want := map[string]bool{
		"serve":   false,
		"chat":    false,
		"ask":     false,
		"index":   false,
		"version": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
