package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mclc/mclc/internals/minecraft"
)

// Resolver resolves a version id into one fully merged launch manifest.
// Raw per version documents are persisted below versionsDir, merged
// manifests are only memoized for the lifetime of the resolver.
type Resolver struct {
	client      *http.Client
	versionsDir string

	releases *minecraft.ReleaseList
	resolved map[string]*minecraft.LaunchManifest
}

// New creates a Resolver storing version documents below versionsDir
func New(client *http.Client, versionsDir string) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{
		client:      client,
		versionsDir: versionsDir,
		resolved:    make(map[string]*minecraft.LaunchManifest),
	}
}

// ErrVersionNotFound is returned when a version id is neither in the
// remote manifest nor cached locally
type ErrVersionNotFound struct {
	ID string
}

func (e *ErrVersionNotFound) Error() string {
	return fmt.Sprintf("version %s not found", e.ID)
}

// ErrCyclicInheritance is returned when following inheritsFrom revisits
// a version already on the resolution stack
type ErrCyclicInheritance struct {
	Chain []string
}

func (e *ErrCyclicInheritance) Error() string {
	return fmt.Sprintf("cyclic version inheritance: %s", strings.Join(e.Chain, " -> "))
}

// Resolve returns the fully merged manifest for the given version id,
// following the inheritance chain parent first
func (r *Resolver) Resolve(ctx context.Context, id string) (*minecraft.LaunchManifest, error) {
	return r.resolve(ctx, id, nil)
}

func (r *Resolver) resolve(ctx context.Context, id string, stack []string) (*minecraft.LaunchManifest, error) {
	if man, ok := r.resolved[id]; ok {
		return man, nil
	}

	for _, seen := range stack {
		if seen == id {
			return nil, &ErrCyclicInheritance{Chain: append(stack, id)}
		}
	}

	man, err := r.loadManifest(ctx, id)
	if err != nil {
		return nil, err
	}

	if man.InheritsFrom != "" {
		parent, err := r.resolve(ctx, man.InheritsFrom, append(stack, id))
		if err != nil {
			return nil, errors.Wrapf(err, "resolving parent of %s", id)
		}
		minecraft.MergeManifests(man, parent)
	}

	r.resolved[id] = man
	return man, nil
}

// loadManifest reads the raw version document from disk, fetching and
// persisting it first when it is not cached yet
func (r *Resolver) loadManifest(ctx context.Context, id string) (*minecraft.LaunchManifest, error) {
	file := filepath.Join(r.versionsDir, id, id+".json")

	raw, err := os.ReadFile(file)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		raw, err = r.fetchManifest(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	man := minecraft.LaunchManifest{}
	if err := json.Unmarshal(raw, &man); err != nil {
		return nil, errors.Wrapf(err, "parsing version document %s", id)
	}
	if man.ID == "" {
		man.ID = id
	}
	return &man, nil
}

func (r *Resolver) fetchManifest(ctx context.Context, id string) ([]byte, error) {
	if r.releases == nil {
		releases, err := minecraft.GetReleases(ctx, r.client)
		if err != nil {
			return nil, errors.Wrap(err, "fetching version manifest")
		}
		r.releases = releases
	}

	release := r.releases.Find(id)
	if release == nil {
		return nil, &ErrVersionNotFound{ID: id}
	}

	log.Println("Fetching version document for " + id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, release.URL, nil)
	if err != nil {
		return nil, err
	}
	res, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("version document request for %s failed with status %s", id, res.Status)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(r.versionsDir, id)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), raw, 0666); err != nil {
		return nil, err
	}

	return raw, nil
}

// SetReleases injects an already fetched release list (mostly for tests)
func (r *Resolver) SetReleases(releases *minecraft.ReleaseList) {
	r.releases = releases
}
