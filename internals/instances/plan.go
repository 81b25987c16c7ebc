package instances

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mclc/mclc/internals/downloadmgr"
	"github.com/mclc/mclc/internals/minecraft"
)

// NativeJob is a natives archive that has to be unpacked into the
// version's natives directory once its download is verified
type NativeJob struct {
	Archive string
	Extract minecraft.ExtractRules
}

// InstallPlan is the concrete list of downloads (and follow-up native
// extractions) needed to fully install one version
type InstallPlan struct {
	Version string
	Items   []*downloadmgr.HTTPItem
	Natives []NativeJob
	// Skipped counts files that were already present and verified
	Skipped int
}

// ErrUnresolvableLibrary is returned when a library has neither a
// download url nor a maven coordinate to derive one from
type ErrUnresolvableLibrary struct {
	Name string
}

func (e *ErrUnresolvableLibrary) Error() string {
	return fmt.Sprintf("library %q has no download url and no usable coordinate", e.Name)
}

// PlanInstall turns a resolved manifest into download tasks. Files that
// are already on disk with a matching checksum are skipped, which makes
// installs idempotent and resumable.
func (i *Instance) PlanInstall(ctx context.Context, man *minecraft.LaunchManifest, rctx minecraft.RuleContext) (*InstallPlan, error) {
	version := man.MinecraftVersion()
	plan := &InstallPlan{Version: version}

	// client jar
	if man.Downloads.Client.URL != "" {
		jar := filepath.Join(i.VersionsDir(), version, man.JarName())
		plan.add(man.Downloads.Client.URL, jar, man.Downloads.Client.Sha1, man.Downloads.Client.Size)
	}

	// libraries (plain artifacts + native variants)
	for _, lib := range man.Libraries.Required(rctx) {
		lib := lib

		if native, ok := lib.NativeArtifact(rctx); ok {
			if native.Path == "" {
				return nil, &ErrUnresolvableLibrary{Name: lib.Name}
			}
			url := native.URL
			if url == "" {
				// same fallback the plain artifacts use
				url = minecraft.DefaultLibrariesURL + native.Path
			}
			target := filepath.Join(i.LibrariesDir(), filepath.FromSlash(native.Path))
			size, _ := native.Size.Int64()
			plan.add(url, target, native.Sha1, int(size))
			plan.Natives = append(plan.Natives, NativeJob{Archive: target, Extract: lib.Extract})

			// natives-only declaration, no plain artifact to fetch
			if lib.Downloads.Artifact.URL == "" && lib.Downloads.Artifact.Path == "" {
				continue
			}
		}

		url := lib.DownloadURL()
		if url == "" {
			return nil, &ErrUnresolvableLibrary{Name: lib.Name}
		}
		target := filepath.Join(i.LibrariesDir(), lib.Filepath())
		size, _ := lib.Downloads.Artifact.Size.Int64()
		plan.add(url, target, lib.Downloads.Artifact.Sha1, int(size))
	}

	// assets
	if man.AssetIndex.URL != "" {
		index, err := i.fetchAssetIndex(ctx, man)
		if err != nil {
			return nil, errors.Wrap(err, "fetching asset index")
		}
		for _, object := range index.Objects {
			object := object
			target := filepath.Join(i.AssetsDir(), "objects", filepath.FromSlash(object.UnixPath()))
			plan.add(object.DownloadURL(), target, object.Hash, object.Size)
		}
	}

	return plan, nil
}

// add queues one download unless a verified copy is already on disk
func (p *InstallPlan) add(url string, target string, sha string, size int) {
	if sha != "" && downloadmgr.VerifyFile(target, sha) {
		p.Skipped++
		return
	}

	item := downloadmgr.NewHTTPItem(url, target)
	item.Sha1 = sha
	item.Size = size
	p.Items = append(p.Items, item)
}

// fetchAssetIndex returns the asset index of the manifest, downloading
// and persisting it below assets/indexes first if needed
func (i *Instance) fetchAssetIndex(ctx context.Context, man *minecraft.LaunchManifest) (*minecraft.AssetIndex, error) {
	file := filepath.Join(i.AssetsDir(), "indexes", man.AssetIndex.ID+".json")

	if man.AssetIndex.Sha1 == "" || !downloadmgr.VerifyFile(file, man.AssetIndex.Sha1) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, man.AssetIndex.URL, nil)
		if err != nil {
			return nil, err
		}
		res, err := i.HTTP.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("asset index request failed with status %s", res.Status)
		}

		raw, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(file), os.ModePerm); err != nil {
			return nil, err
		}
		if err := os.WriteFile(file, raw, 0666); err != nil {
			return nil, err
		}
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	index := minecraft.AssetIndex{}
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, err
	}
	return &index, nil
}
