package instances

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pbnjay/memory"

	"github.com/mclc/mclc/internals/minecraft"
)

// LaunchPlan is everything needed to start the game process. It is
// immutable once built; the process launcher consumes it as is.
type LaunchPlan struct {
	MainClass  string
	Classpath  []string
	NativesDir string
	JVMArgs    []string
	GameArgs   []string
	WorkingDir string
}

// Args returns the full ordered argument vector for the java binary
func (p *LaunchPlan) Args() []string {
	args := make([]string, 0, len(p.JVMArgs)+1+len(p.GameArgs))
	args = append(args, p.JVMArgs...)
	args = append(args, p.MainClass)
	args = append(args, p.GameArgs...)
	return args
}

// ErrIncompleteLaunchPlan is returned when a required piece of the
// launch plan is missing
type ErrIncompleteLaunchPlan struct {
	Missing string
}

func (e *ErrIncompleteLaunchPlan) Error() string {
	return "incomplete launch plan: missing " + e.Missing
}

// LaunchOptions are the caller supplied parts of a launch
type LaunchOptions struct {
	// Demo starts the game without an identity
	Demo bool
	// CustomJVMArgs are appended after the manifest's jvm arguments, so
	// they win on order sensitive flags like -Xmx
	CustomJVMArgs []string
	// RamMiB overrides the computed default max heap (0 = auto)
	RamMiB int
}

// BuildLaunchPlan assembles classpath, natives path and the full
// argument vector for one version. The same inputs always produce the
// same plan.
func (i *Instance) BuildLaunchPlan(man *minecraft.LaunchManifest, rctx minecraft.RuleContext, opts *LaunchOptions) (*LaunchPlan, error) {
	if opts == nil {
		opts = &LaunchOptions{}
	}

	if man.MainClass == "" {
		return nil, &ErrIncompleteLaunchPlan{Missing: "main class"}
	}

	version := man.MinecraftVersion()
	mcJar := filepath.Join(i.VersionsDir(), version, man.JarName())
	if _, err := os.Stat(mcJar); err != nil {
		return nil, &ErrIncompleteLaunchPlan{Missing: "client jar " + mcJar}
	}

	var creds minecraft.LaunchAuthData
	if opts.Demo {
		// demo mode is a metadata feature, gated fragments like
		// --demo only activate when the context carries it
		features := make(map[string]bool, len(rctx.Features)+1)
		for k, v := range rctx.Features {
			features[k] = v
		}
		features["is_demo_user"] = true
		rctx.Features = features
	} else {
		var err error
		creds, err = i.getLaunchCredentials()
		if err != nil {
			return nil, &ErrIncompleteLaunchPlan{Missing: "identity (" + err.Error() + ")"}
		}
	}

	nativesDir := i.NativesDir(version)
	classpath := i.buildClasspath(mcJar, man, rctx)

	replacer := i.argReplacer(man, version, nativesDir, classpath, creds)

	jvmArgs := minecraft.ActiveArguments(man.Arguments.JVM, rctx)
	if len(jvmArgs) == 0 {
		jvmArgs = defaultJVMArgs()
	}
	jvmArgs = replaceAll(jvmArgs, replacer)

	// a max heap flag is only added when neither the manifest nor the
	// caller brought their own
	if opts.RamMiB != 0 {
		jvmArgs = append(jvmArgs, fmt.Sprintf("-Xmx%dM", opts.RamMiB))
	} else if !hasMaxHeapArg(jvmArgs) && !hasMaxHeapArg(opts.CustomJVMArgs) {
		jvmArgs = append(jvmArgs, fmt.Sprintf("-Xmx%dM", defaultMaxHeapMiB()))
	}

	// user overrides always come last
	jvmArgs = append(jvmArgs, opts.CustomJVMArgs...)

	var gameArgs []string
	if man.MinecraftArguments != "" {
		// easy minecraft versions before 1.13
		gameArgs = strings.Fields(man.MinecraftArguments)
	} else {
		gameArgs = minecraft.ActiveArguments(man.Arguments.Game, rctx)
	}
	gameArgs = replaceAll(gameArgs, replacer)

	return &LaunchPlan{
		MainClass:  man.MainClass,
		Classpath:  classpath,
		NativesDir: nativesDir,
		JVMArgs:    jvmArgs,
		GameArgs:   gameArgs,
		WorkingDir: i.McDir(),
	}, nil
}

// BuildLaunchCmd turns a plan into a ready to run command. Spawning and
// supervising the process is the caller's job.
func (i *Instance) BuildLaunchCmd(plan *LaunchPlan, javaBin string) *exec.Cmd {
	if javaBin == "" {
		javaBin = "java"
	}

	cmd := exec.Command(javaBin, plan.Args()...)
	cmd.Dir = plan.WorkingDir
	cmd.Env = append(os.Environ(), "PWD="+plan.WorkingDir)
	return cmd
}

// buildClasspath collects the client jar plus every active library in
// declaration order, dropping later duplicates of the same path
func (i *Instance) buildClasspath(mcJar string, man *minecraft.LaunchManifest, rctx minecraft.RuleContext) []string {
	libs := man.Libraries.Required(rctx)

	classpath := make([]string, 0, len(libs)+1)
	seen := make(map[string]bool, len(libs)+1)

	classpath = append(classpath, mcJar)
	seen[mcJar] = true

	for _, lib := range libs {
		libPath := lib.Filepath()
		if libPath == "" {
			continue
		}
		p := filepath.Join(i.LibrariesDir(), libPath)
		if seen[p] {
			continue
		}
		seen[p] = true
		classpath = append(classpath, p)
	}

	return classpath
}

// argReplacer builds the fixed placeholder table. Placeholders outside
// the table stay untouched so newer metadata keeps working.
func (i *Instance) argReplacer(
	man *minecraft.LaunchManifest,
	version string,
	nativesDir string,
	classpath []string,
	creds minecraft.LaunchAuthData,
) *strings.Replacer {
	vars := map[string]string{
		"version_name":        version,
		"version_type":        man.Type,
		"game_directory":      i.McDir(),
		"assets_root":         i.AssetsDir(),
		"assets_index_name":   man.Assets,
		"game_assets":         filepath.Join(i.AssetsDir(), "virtual", "legacy"),
		"launcher_name":       "mclc",
		"launcher_version":    "0.1.0",
		"classpath":           strings.Join(classpath, cpSeparator()),
		"classpath_separator": cpSeparator(),
		"natives_directory":   nativesDir,
		"library_directory":   i.LibrariesDir(),
		"user_properties":     "{}",
	}

	if creds != nil {
		vars["auth_player_name"] = creds.GetPlayerName()
		vars["auth_uuid"] = creds.GetUUID()
		vars["auth_access_token"] = creds.GetAccessToken()
		vars["auth_session"] = creds.GetAccessToken()
		vars["user_type"] = creds.GetUserType()
		vars["auth_xuid"] = creds.GetXUID()
		vars["clientid"] = "mclc"
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "${"+k+"}", v)
	}
	return strings.NewReplacer(pairs...)
}

func replaceAll(args []string, replacer *strings.Replacer) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = replacer.Replace(arg)
	}
	return out
}

// defaultJVMArgs is the baseline for manifests without a jvm argument
// list (everything before 1.13)
func defaultJVMArgs() []string {
	args := []string{
		"-XX:+UnlockExperimentalVMOptions",
		"-XX:+UseG1GC",
		"-XX:G1NewSizePercent=20",
		"-XX:G1ReservePercent=20",
		"-XX:MaxGCPauseMillis=50",
		"-XX:G1HeapRegionSize=32M",
		"-Djava.library.path=${natives_directory}",
		"-cp",
		"${classpath}",
	}

	// lwjgl needs to run on the first thread on macos
	if runtime.GOOS == "darwin" {
		args = append([]string{"-XstartOnFirstThread"}, args...)
	}
	return args
}

func hasMaxHeapArg(args []string) bool {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-Xmx") {
			return true
		}
	}
	return false
}

// defaultMaxHeapMiB sizes the heap off the machine: a quarter of the
// system memory, at least 1 GiB, at most 85% of what is there
func defaultMaxHeapMiB() int {
	sysMemMiB := float64(memory.TotalMemory()) / 1024 / 1024
	if sysMemMiB == 0 {
		return 2048
	}

	maxRamMiB := math.Max(1024, sysMemMiB/4)
	maxRamMiB = math.Min(maxRamMiB, sysMemMiB*0.85)
	return int(maxRamMiB)
}

func cpSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}
