package minecraft

// LaunchManifest is a version.json manifest that is used to install and
// launch one minecraft version
type LaunchManifest struct {
	ID string `json:"id"`
	// InheritsFrom points to a parent manifest this one has to be
	// merged with before use
	InheritsFrom string `json:"inheritsFrom"`
	// MinecraftArguments are used before 1.13
	MinecraftArguments string `json:"minecraftArguments"`
	// Arguments is the new rule gated system
	Arguments Arguments `json:"arguments"`
	Downloads struct {
		Client JarDownload `json:"client"`
		Server JarDownload `json:"server"`
	} `json:"downloads"`
	Libraries  Libraries `json:"libraries"`
	Type       string    `json:"type"`
	MainClass  string    `json:"mainClass"`
	Jar        string    `json:"jar"`
	Assets     string    `json:"assets"`
	AssetIndex struct {
		ID        string `json:"id"`
		Sha1      string `json:"sha1"`
		Size      int    `json:"size"`
		TotalSize int    `json:"totalSize"`
		URL       string `json:"url"`
	} `json:"assetIndex"`
	JavaVersion struct {
		Component    string `json:"component"`
		MajorVersion int    `json:"majorVersion"`
	} `json:"javaVersion"`
}

// MergeManifests merges the parent manifest into the child one.
// Scalar fields keep the child's value when it is set. List fields
// (libraries, argument fragments) become the parent's entries followed
// by the child's, so child entries win for classpath ordering.
// The child's InheritsFrom reference is cleared.
func MergeManifests(child *LaunchManifest, parent *LaunchManifest) {
	child.Libraries = append(append(Libraries{}, parent.Libraries...), child.Libraries...)
	child.Arguments.Game = append(append([]Argument{}, parent.Arguments.Game...), child.Arguments.Game...)
	child.Arguments.JVM = append(append([]Argument{}, parent.Arguments.JVM...), child.Arguments.JVM...)

	if child.MainClass == "" {
		child.MainClass = parent.MainClass
	}
	if child.Assets == "" {
		child.Assets = parent.Assets
	}
	if child.Type == "" {
		child.Type = parent.Type
	}
	if child.AssetIndex.ID == "" {
		child.AssetIndex = parent.AssetIndex
	}
	if child.Downloads.Client.URL == "" {
		child.Downloads = parent.Downloads
	}
	if child.MinecraftArguments == "" {
		child.MinecraftArguments = parent.MinecraftArguments
	}
	if child.JavaVersion.MajorVersion == 0 {
		child.JavaVersion = parent.JavaVersion
	}

	child.InheritsFrom = ""
}

// MinecraftVersion returns the underlying minecraft version
func (l *LaunchManifest) MinecraftVersion() string {
	if l.Jar != "" {
		return l.Jar
	}
	if l.InheritsFrom != "" {
		return l.InheritsFrom
	}
	return l.ID
}

// JarName returns the name of the client jar file
func (l *LaunchManifest) JarName() string {
	return l.MinecraftVersion() + ".jar"
}
