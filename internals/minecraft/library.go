package minecraft

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultLibrariesURL is the maven repo used for libraries that come
// without any download url
const DefaultLibrariesURL = "https://libraries.minecraft.net/"

// Libraries is a collection of minecraft libraries
type Libraries []Library

// Required returns only the libraries that are active for the given
// context (matching rules & natives available for the platform)
func (l Libraries) Required(ctx RuleContext) Libraries {
	required := make(Libraries, 0, len(l))

	for _, lib := range l {
		if !lib.Rules.Allowed(ctx) {
			continue
		}

		// old style natives declaration. skip natives-only libraries
		// that have no variant for this platform
		if len(lib.Natives) != 0 {
			if _, ok := lib.Natives[ctx.Name]; !ok {
				continue
			}
		}

		required = append(required, lib)
	}

	return required
}

// Library is one dependency of a minecraft version
type Library struct {
	// Name is the maven style "group:artifact:version" coordinate
	Name      string `json:"name"`
	Downloads struct {
		Artifact Artifact `json:"artifact"`
		// Classifiers contains additional artifacts, most importantly
		// the platform specific native libraries
		Classifiers map[string]Artifact `json:"classifiers"`
	} `json:"downloads,omitempty"`
	URL string `json:"url"`
	// Rules determine whether this library is active.
	// No rules means the library is always included.
	Rules Rules `json:"rules"`
	// Natives maps an os name to the classifier holding its native jar.
	// Newer versions ship natives as plain libraries with os/arch rules
	// instead.
	Natives map[string]string `json:"natives"`
	// Extract filters applied when unpacking the natives jar
	Extract ExtractRules `json:"extract"`
}

// ExtractRules are include/exclude path filters for native extraction.
// Patterns are matched as path prefixes or as path globs.
type ExtractRules struct {
	Exclude []string `json:"exclude"`
	Include []string `json:"include"`
}

// Match reports whether the archive entry name passes the filters.
// Excludes are applied before includes; without includes everything
// not excluded passes.
func (e ExtractRules) Match(name string) bool {
	for _, pattern := range e.Exclude {
		if matchEntry(pattern, name) {
			return false
		}
	}
	if len(e.Include) == 0 {
		return true
	}
	for _, pattern := range e.Include {
		if matchEntry(pattern, name) {
			return true
		}
	}
	return false
}

func matchEntry(pattern string, name string) bool {
	if strings.HasPrefix(name, pattern) {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// Filepath returns the jar path of the plain artifact relative to the
// libraries folder. It is derived from the maven coordinate when the
// metadata does not include one.
func (l *Library) Filepath() string {
	libPath := l.Downloads.Artifact.Path
	if libPath == "" {
		grouped := strings.Split(l.Name, ":")
		if len(grouped) < 3 {
			return ""
		}
		basePath := filepath.Join(strings.Split(grouped[0], ".")...)
		name := grouped[1]
		version := grouped[2]

		libPath = filepath.Join(basePath, name, version, name+"-"+version+".jar")
	}
	return libPath
}

// DownloadURL returns the download URL for the plain artifact of this
// library, falling back to the default maven repo
func (l *Library) DownloadURL() string {
	switch {
	case l.Downloads.Artifact.URL != "":
		return l.Downloads.Artifact.URL
	case l.URL != "":
		return l.URL + filepath.ToSlash(l.Filepath())
	case l.Filepath() != "":
		return DefaultLibrariesURL + filepath.ToSlash(l.Filepath())
	default:
		return ""
	}
}

// NativeArtifact returns the natives jar variant for the given context.
// The "natives-<os>-<arch>" classifier wins over the plain
// "natives-<os>" one. The second return value is false when this
// library has no natives for the platform.
func (l *Library) NativeArtifact(ctx RuleContext) (Artifact, bool) {
	if classifier, ok := l.Natives[ctx.Name]; ok {
		if a, ok := l.Downloads.Classifiers[classifier]; ok {
			return a, true
		}
	}

	if a, ok := l.Downloads.Classifiers["natives-"+ctx.Name+"-"+ctx.Arch]; ok {
		return a, true
	}
	if a, ok := l.Downloads.Classifiers["natives-"+ctx.Name]; ok {
		return a, true
	}

	return Artifact{}, false
}
