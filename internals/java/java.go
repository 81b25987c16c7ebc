package java

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNoJava is returned when no java runtime could be located
var ErrNoJava = errors.New("no java runtime found. set JAVA_HOME or pass an explicit path")

func binName() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

// Find locates a java binary. An explicit override wins, then
// $JAVA_HOME/bin/java, then whatever java is on the PATH.
func Find(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", err
		}
		return override, nil
	}

	if home := os.Getenv("JAVA_HOME"); home != "" {
		bin := filepath.Join(home, "bin", binName())
		if _, err := os.Stat(bin); err == nil {
			return bin, nil
		}
	}

	if bin, err := exec.LookPath(binName()); err == nil {
		return bin, nil
	}

	return "", ErrNoJava
}
