package instances

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	// archiver reads zip entries with klauspost's zip fork, so its
	// File.Header holds that package's FileHeader, not archive/zip's.
	zip "github.com/klauspost/compress/zip"
	archiver "github.com/mholt/archiver/v3"

	"github.com/mclc/mclc/internals/minecraft"
)

// ErrUnsafeArchiveEntry is returned when an archive entry would end up
// outside the extraction directory. The whole archive is rejected.
type ErrUnsafeArchiveEntry struct {
	Archive string
	Entry   string
}

func (e *ErrUnsafeArchiveEntry) Error() string {
	return fmt.Sprintf("archive %s contains unsafe entry %q", e.Archive, e.Entry)
}

// extractNatives unpacks a natives jar into target, applying the
// manifest's include/exclude filters. Entry paths are untrusted input:
// anything resolving outside target aborts the extraction.
// Re-extracting overwrites existing files and never deletes anything.
func extractNatives(archive string, target string, rules minecraft.ExtractRules) error {
	if err := os.MkdirAll(target, os.ModePerm); err != nil {
		return err
	}

	z := archiver.NewZip()
	// archiver wraps walk errors with %v, which hides the error type
	// from errors.As; keep the typed error and return it ourselves.
	var unsafe *ErrUnsafeArchiveEntry
	err := z.Walk(archive, func(f archiver.File) error {
		if f.IsDir() {
			return nil
		}

		name := entryName(f)
		if name == "" {
			return nil
		}

		if !entryWanted(name, rules) {
			return nil
		}

		dest, err := safeJoin(target, name)
		if err != nil {
			unsafe = &ErrUnsafeArchiveEntry{Archive: archive, Entry: name}
			return unsafe
		}

		if err := os.MkdirAll(filepath.Dir(dest), os.ModePerm); err != nil {
			return err
		}
		out, err := os.Create(dest)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, f); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	})
	if unsafe != nil {
		return unsafe
	}
	return err
}

// entryName returns the full slash separated path of a zip entry
func entryName(f archiver.File) string {
	switch header := f.Header.(type) {
	case zip.FileHeader:
		return header.Name
	case *zip.FileHeader:
		return header.Name
	default:
		return f.Name()
	}
}

// entryWanted applies the extraction filters. Without declared filters
// the jar's META-INF bookkeeping is still left out.
func entryWanted(name string, rules minecraft.ExtractRules) bool {
	if len(rules.Exclude) == 0 && len(rules.Include) == 0 {
		return !strings.HasPrefix(name, "META-INF")
	}
	return rules.Match(name)
}

// safeJoin joins target and name, erroring when the normalized result
// escapes target
func safeJoin(target string, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("absolute entry path")
	}

	dest := filepath.Join(target, filepath.FromSlash(name))
	rel, err := filepath.Rel(target, dest)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry escapes extraction directory")
	}
	return dest, nil
}
