package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestHelpWorksWithBrokenEnvironment(t *testing.T) {
	t.Setenv("MCLC_CONCURRENCY", "not-a-number")

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(--help) = %v", err)
	}
	if !strings.Contains(out.String(), "mclc") {
		t.Errorf("help output does not mention the binary:\n%s", out.String())
	}
}

func TestBrokenEnvironmentSurfacesError(t *testing.T) {
	t.Setenv("MCLC_CONCURRENCY", "not-a-number")

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs([]string{"list"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("Execute(list) = nil, want the config error")
	}
}
