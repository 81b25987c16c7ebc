package minecraft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// VersionManifestURL lists all known minecraft versions
const VersionManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

var (
	// TypeSnapshot is a snapshot release
	TypeSnapshot = "snapshot"
	// TypeRelease is a full "normal" release
	TypeRelease = "release"
	// TypeOldBeta is a "old_beta" release
	TypeOldBeta = "old_beta"
	// TypeOldAlpha is a "old_alpha" release
	TypeOldAlpha = "old_alpha"
)

// Release is a released minecraft version
type Release struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Time        string `json:"time"`
	ReleaseTime string `json:"releaseTime"`
}

// ReleaseList is the response from the "launchermeta" version manifest
type ReleaseList struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []Release `json:"versions"`
}

// Find returns the release with the given id or nil
func (r *ReleaseList) Find(id string) *Release {
	for i := range r.Versions {
		if r.Versions[i].ID == id {
			return &r.Versions[i]
		}
	}
	return nil
}

// SortedReleases returns all full releases sorted highest version first.
// Snapshots and other non semver ids are left out.
func (r *ReleaseList) SortedReleases() []Release {
	parsed := make(semver.Collection, 0, len(r.Versions))
	byVersion := make(map[string]Release, len(r.Versions))

	for _, release := range r.Versions {
		if release.Type != TypeRelease {
			continue
		}
		v, err := semver.NewVersion(release.ID)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
		byVersion[v.Original()] = release
	}

	sort.Sort(sort.Reverse(parsed))

	sorted := make([]Release, len(parsed))
	for i, v := range parsed {
		sorted[i] = byVersion[v.Original()]
	}
	return sorted
}

// GetReleases fetches the list of all available Minecraft releases
func GetReleases(ctx context.Context, client *http.Client) (*ReleaseList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, VersionManifestURL, nil)
	if err != nil {
		return nil, err
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("version manifest request failed with status %s", res.Status)
	}

	list := ReleaseList{}
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		return nil, err
	}

	return &list, nil
}
