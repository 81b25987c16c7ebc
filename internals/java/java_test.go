package java

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFindOverride(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "custom-java")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := Find(bin)
	if err != nil {
		t.Fatal(err)
	}
	if got != bin {
		t.Errorf("Find() = %q, want %q", got, bin)
	}

	if _, err := Find(filepath.Join(dir, "does-not-exist")); err == nil {
		t.Error("Find() with a bad override should error")
	}
}

func TestFindJavaHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix style fixture")
	}

	home := t.TempDir()
	bin := filepath.Join(home, "bin", "java")
	if err := os.MkdirAll(filepath.Dir(bin), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JAVA_HOME", home)
	got, err := Find("")
	if err != nil {
		t.Fatal(err)
	}
	if got != bin {
		t.Errorf("Find() = %q, want %q", got, bin)
	}
}

func TestFindNothing(t *testing.T) {
	t.Setenv("JAVA_HOME", "")
	t.Setenv("PATH", t.TempDir())

	_, err := Find("")
	if !errors.Is(err, ErrNoJava) {
		t.Errorf("Find() = %v, want ErrNoJava", err)
	}
}
