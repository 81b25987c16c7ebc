package instances

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/mclc/mclc/internals/minecraft"
	"github.com/mclc/mclc/internals/ownhttp"
	"github.com/mclc/mclc/internals/resolver"
)

var (
	// ErrNoCredentials is returned when an authenticated launch is
	// requested without any identity attached
	ErrNoCredentials = errors.New("can not launch without credentials")
	// ErrNoPaidAccount is returned when the identity has no game profile
	ErrNoPaidAccount = errors.New("this account does not own the game")
)

// Instance is one on-disk installation tree plus everything needed to
// install and launch versions into it. It is the surface the CLI layer
// talks to.
type Instance struct {
	// GlobalDir is the directory containing everything required to run
	// minecraft: the libraries, assets & versions folders
	GlobalDir string
	// GameDir is the directory the game process runs in
	GameDir string
	// Concurrency caps parallel downloads during install
	Concurrency int
	// AuthCredentials is the identity used for authenticated launches
	AuthCredentials minecraft.LaunchAuthData

	HTTP     *http.Client
	resolver *resolver.Resolver
}

// New creates an Instance from the given config
func New(cfg *Config) *Instance {
	client := ownhttp.New()
	if cfg.MaxRPS > 0 {
		client = ownhttp.NewThrottled(cfg.MaxRPS)
	}

	i := &Instance{
		GlobalDir:   cfg.Dir,
		GameDir:     cfg.GameDir,
		Concurrency: cfg.Concurrency,
		HTTP:        client,
	}
	i.resolver = resolver.New(i.HTTP, i.VersionsDir())
	return i
}

// VersionsDir returns the path to the versions directory
func (i *Instance) VersionsDir() string {
	return filepath.Join(i.GlobalDir, "versions")
}

// AssetsDir returns the path to the assets directory
func (i *Instance) AssetsDir() string {
	return filepath.Join(i.GlobalDir, "assets")
}

// LibrariesDir returns the path to the shared libraries directory
func (i *Instance) LibrariesDir() string {
	return filepath.Join(i.GlobalDir, "libraries")
}

// NativesDir returns the natives directory of one version
func (i *Instance) NativesDir(version string) string {
	return filepath.Join(i.VersionsDir(), version, "natives")
}

// McDir returns the game working directory
func (i *Instance) McDir() string {
	return i.GameDir
}

// SetLaunchCredentials attaches an identity for authenticated launches
func (i *Instance) SetLaunchCredentials(creds minecraft.LaunchAuthData) {
	i.AuthCredentials = creds
}

// ResolveVersion returns the fully merged manifest for a version id,
// following the inheritance chain
func (i *Instance) ResolveVersion(ctx context.Context, id string) (*minecraft.LaunchManifest, error) {
	return i.resolver.Resolve(ctx, id)
}

// ListReleases fetches the list of all known versions
func (i *Instance) ListReleases(ctx context.Context) (*minecraft.ReleaseList, error) {
	return minecraft.GetReleases(ctx, i.HTTP)
}

func (i *Instance) getLaunchCredentials() (minecraft.LaunchAuthData, error) {
	creds := i.AuthCredentials
	if creds == nil {
		return nil, ErrNoCredentials
	}

	// accounts without a profile have no UUID and can not start the game
	if creds.GetUUID() == "" {
		return nil, ErrNoPaidAccount
	}

	return creds, nil
}
