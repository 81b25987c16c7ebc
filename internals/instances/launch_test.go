package instances

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mclc/mclc/internals/minecraft"
)

// fakePlayer is a LaunchAuthData stub for assembling launch plans
type fakePlayer struct {
	name string
	uuid string
}

func (f *fakePlayer) GetAccessToken() string { return "token-123" }
func (f *fakePlayer) GetUUID() string        { return f.uuid }
func (f *fakePlayer) GetPlayerName() string  { return f.name }
func (f *fakePlayer) GetUserType() string    { return "msa" }
func (f *fakePlayer) GetXUID() string        { return "253975" }

// launchInstance is a testInstance with the client jar already in place
func launchInstance(t *testing.T, version string) *Instance {
	t.Helper()
	instance := testInstance(t)
	instance.SetLaunchCredentials(&fakePlayer{name: "Notch", uuid: "069a79f4-44e9-4726-a5be-fca90e38aaf5"})

	jar := filepath.Join(instance.VersionsDir(), version, version+".jar")
	if err := os.MkdirAll(filepath.Dir(jar), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jar, []byte("client"), 0644); err != nil {
		t.Fatal(err)
	}
	return instance
}

func TestBuildLaunchPlanClasspath(t *testing.T) {
	instance := launchInstance(t, "1.19.2")
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}
	man.Libraries = minecraft.Libraries{
		{Name: "org.lwjgl:lwjgl:3.3.1"},
		{
			Name:  "ca.weblite:java-objc-bridge:1.1",
			Rules: minecraft.Rules{{Action: "allow", OS: minecraft.OS{Name: "osx"}}},
		},
		{Name: "com.mojang:brigadier:1.0.18"},
	}

	plan, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(instance.VersionsDir(), "1.19.2", "1.19.2.jar"),
		filepath.Join(instance.LibrariesDir(), "org", "lwjgl", "lwjgl", "3.3.1", "lwjgl-3.3.1.jar"),
		filepath.Join(instance.LibrariesDir(), "com", "mojang", "brigadier", "1.0.18", "brigadier-1.0.18.jar"),
	}
	if !reflect.DeepEqual(plan.Classpath, want) {
		t.Errorf("classpath = %v\nwant %v", plan.Classpath, want)
	}
}

func TestBuildLaunchPlanDeduplicatesClasspath(t *testing.T) {
	instance := launchInstance(t, "1.19.2")
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}
	man.Libraries = minecraft.Libraries{
		{Name: "org.lwjgl:lwjgl:3.3.1"},
		{Name: "org.lwjgl:lwjgl:3.3.1"},
	}

	plan, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}
	// client jar + the library once
	if len(plan.Classpath) != 2 {
		t.Errorf("classpath = %v, duplicates should be dropped", plan.Classpath)
	}
}

func TestBuildLaunchPlanPlaceholders(t *testing.T) {
	instance := launchInstance(t, "1.19.2")
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main", Type: "release", Assets: "1.19"}
	man.Arguments.Game = []minecraft.Argument{
		{Value: []string{"--username"}},
		{Value: []string{"${auth_player_name}"}},
		{Value: []string{"--uuid"}},
		{Value: []string{"${auth_uuid}"}},
		{Value: []string{"--assetIndex"}},
		{Value: []string{"${assets_index_name}"}},
		{Value: []string{"--mystery"}},
		{Value: []string{"${not_a_known_placeholder}"}},
	}
	man.Arguments.JVM = []minecraft.Argument{
		{Value: []string{"-Djava.library.path=${natives_directory}"}},
		{Value: []string{"-cp"}},
		{Value: []string{"${classpath}"}},
	}

	plan, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}

	wantGame := []string{
		"--username", "Notch",
		"--uuid", "069a79f4-44e9-4726-a5be-fca90e38aaf5",
		"--assetIndex", "1.19",
		"--mystery", "${not_a_known_placeholder}",
	}
	if !reflect.DeepEqual(plan.GameArgs, wantGame) {
		t.Errorf("game args = %v\nwant %v", plan.GameArgs, wantGame)
	}

	if plan.JVMArgs[0] != "-Djava.library.path="+plan.NativesDir {
		t.Errorf("jvm arg = %q", plan.JVMArgs[0])
	}
	wantCp := strings.Join(plan.Classpath, string(os.PathListSeparator))
	if plan.JVMArgs[2] != wantCp {
		t.Errorf("classpath arg = %q, want %q", plan.JVMArgs[2], wantCp)
	}
}

func TestBuildLaunchPlanDeterministic(t *testing.T) {
	instance := launchInstance(t, "1.19.2")
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}
	man.Libraries = minecraft.Libraries{
		{Name: "org.lwjgl:lwjgl:3.3.1"},
		{Name: "com.mojang:brigadier:1.0.18"},
	}
	man.Arguments.Game = []minecraft.Argument{
		{Value: []string{"--username"}},
		{Value: []string{"${auth_player_name}"}},
	}

	first, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("plans differ:\n%+v\n%+v", first, second)
	}
}

func TestBuildLaunchPlanHeapFlags(t *testing.T) {
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}
	man.Arguments.JVM = []minecraft.Argument{
		{Value: []string{"-Xmx2G"}},
		{Value: []string{"-cp"}},
		{Value: []string{"${classpath}"}},
	}

	// the manifest brought its own -Xmx, the custom flag still wins by
	// coming last
	instance := launchInstance(t, "1.19.2")
	plan, err := instance.BuildLaunchPlan(man, linux, &LaunchOptions{
		CustomJVMArgs: []string{"-Xmx4G"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if plan.JVMArgs[0] != "-Xmx2G" {
		t.Errorf("first jvm arg = %q, want the manifest's -Xmx2G", plan.JVMArgs[0])
	}
	if last := plan.JVMArgs[len(plan.JVMArgs)-1]; last != "-Xmx4G" {
		t.Errorf("last jvm arg = %q, custom args must come last", last)
	}
	if count := heapFlagCount(plan.JVMArgs); count != 2 {
		t.Errorf("%d -Xmx flags, want 2 (no auto default on top)", count)
	}

	// without any -Xmx a computed default is added
	plan, err = instance.BuildLaunchPlan(man, linux, &LaunchOptions{RamMiB: 4096})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, arg := range plan.JVMArgs {
		if arg == "-Xmx4096M" {
			found = true
		}
	}
	if !found {
		t.Errorf("jvm args %v missing -Xmx4096M", plan.JVMArgs)
	}
}

func heapFlagCount(args []string) int {
	count := 0
	for _, arg := range args {
		if strings.HasPrefix(arg, "-Xmx") {
			count++
		}
	}
	return count
}

func TestBuildLaunchPlanDefaultJVMArgs(t *testing.T) {
	instance := launchInstance(t, "1.8.9")
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{
		ID:                 "1.8.9",
		MainClass:          "net.minecraft.client.main.Main",
		MinecraftArguments: "--username ${auth_player_name} --version ${version_name}",
	}

	plan, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}

	joined := strings.Join(plan.JVMArgs, " ")
	if !strings.Contains(joined, "-XX:+UseG1GC") {
		t.Errorf("jvm args %v missing G1 defaults", plan.JVMArgs)
	}
	if !strings.Contains(joined, "-Djava.library.path="+plan.NativesDir) {
		t.Errorf("jvm args %v missing natives path", plan.JVMArgs)
	}
	if heapFlagCount(plan.JVMArgs) != 1 {
		t.Errorf("jvm args %v should carry exactly one computed -Xmx", plan.JVMArgs)
	}

	wantGame := []string{"--username", "Notch", "--version", "1.8.9"}
	if !reflect.DeepEqual(plan.GameArgs, wantGame) {
		t.Errorf("game args = %v, want %v", plan.GameArgs, wantGame)
	}
}

func TestBuildLaunchPlanMissingPieces(t *testing.T) {
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	t.Run("main class", func(t *testing.T) {
		instance := launchInstance(t, "1.19.2")
		_, err := instance.BuildLaunchPlan(&minecraft.LaunchManifest{ID: "1.19.2"}, linux, nil)
		var incomplete *ErrIncompleteLaunchPlan
		if !errors.As(err, &incomplete) {
			t.Fatalf("BuildLaunchPlan() = %v, want ErrIncompleteLaunchPlan", err)
		}
	})

	t.Run("client jar", func(t *testing.T) {
		instance := testInstance(t)
		instance.SetLaunchCredentials(&fakePlayer{name: "Notch", uuid: "some-uuid"})
		man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}
		_, err := instance.BuildLaunchPlan(man, linux, nil)
		var incomplete *ErrIncompleteLaunchPlan
		if !errors.As(err, &incomplete) {
			t.Fatalf("BuildLaunchPlan() = %v, want ErrIncompleteLaunchPlan", err)
		}
	})

	t.Run("credentials", func(t *testing.T) {
		instance := launchInstance(t, "1.19.2")
		instance.AuthCredentials = nil
		man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}

		_, err := instance.BuildLaunchPlan(man, linux, nil)
		var incomplete *ErrIncompleteLaunchPlan
		if !errors.As(err, &incomplete) {
			t.Fatalf("BuildLaunchPlan() = %v, want ErrIncompleteLaunchPlan", err)
		}

		// demo mode launches without an identity
		if _, err := instance.BuildLaunchPlan(man, linux, &LaunchOptions{Demo: true}); err != nil {
			t.Errorf("BuildLaunchPlan(demo) = %v", err)
		}
	})

	t.Run("no game profile", func(t *testing.T) {
		instance := launchInstance(t, "1.19.2")
		instance.SetLaunchCredentials(&fakePlayer{name: "Someone", uuid: ""})
		man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}

		_, err := instance.BuildLaunchPlan(man, linux, nil)
		var incomplete *ErrIncompleteLaunchPlan
		if !errors.As(err, &incomplete) {
			t.Fatalf("BuildLaunchPlan() = %v, want ErrIncompleteLaunchPlan", err)
		}
		if !strings.Contains(incomplete.Missing, ErrNoPaidAccount.Error()) {
			t.Errorf("Missing = %q, should name the account problem", incomplete.Missing)
		}
	})
}

func TestBuildLaunchPlanDemoFeature(t *testing.T) {
	instance := launchInstance(t, "1.19.2")
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}
	man.Arguments.Game = []minecraft.Argument{
		{Value: []string{"--username", "${auth_player_name}"}},
		{
			Value: []string{"--demo"},
			Rules: minecraft.Rules{{Action: "allow", Features: map[string]bool{"is_demo_user": true}}},
		},
	}

	plan, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}
	if contains(plan.GameArgs, "--demo") {
		t.Errorf("game args = %v, --demo should stay inactive", plan.GameArgs)
	}

	demoPlan, err := instance.BuildLaunchPlan(man, linux, &LaunchOptions{Demo: true})
	if err != nil {
		t.Fatal(err)
	}
	if !contains(demoPlan.GameArgs, "--demo") {
		t.Errorf("game args = %v, want the gated --demo fragment active", demoPlan.GameArgs)
	}

	// the caller's context is not modified
	if len(linux.Features) != 0 {
		t.Errorf("caller context features = %v, want none", linux.Features)
	}
}

func contains(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func TestBuildLaunchCmd(t *testing.T) {
	instance := launchInstance(t, "1.19.2")
	linux := minecraft.NewRuleContext("linux", "amd64", nil)

	man := &minecraft.LaunchManifest{ID: "1.19.2", MainClass: "net.minecraft.client.main.Main"}
	plan, err := instance.BuildLaunchPlan(man, linux, nil)
	if err != nil {
		t.Fatal(err)
	}

	cmd := instance.BuildLaunchCmd(plan, "/usr/bin/java")
	if cmd.Path != "/usr/bin/java" {
		t.Errorf("cmd path = %q", cmd.Path)
	}
	if cmd.Dir != instance.McDir() {
		t.Errorf("cmd dir = %q, want the game directory", cmd.Dir)
	}

	// argument vector: java binary, jvm args, main class, game args
	args := cmd.Args[1:]
	mainAt := -1
	for i, arg := range args {
		if arg == "net.minecraft.client.main.Main" {
			mainAt = i
		}
	}
	if mainAt == -1 {
		t.Fatalf("main class missing from %v", args)
	}
	if !reflect.DeepEqual(args[:mainAt], plan.JVMArgs) {
		t.Errorf("jvm args = %v, want %v", args[:mainAt], plan.JVMArgs)
	}
	if !reflect.DeepEqual(args[mainAt+1:], plan.GameArgs) {
		t.Errorf("game args = %v, want %v", args[mainAt+1:], plan.GameArgs)
	}
}
