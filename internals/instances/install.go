package instances

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	humanize "github.com/dustin/go-humanize"

	"github.com/mclc/mclc/internals/downloadmgr"
	"github.com/mclc/mclc/internals/minecraft"
)

// InstallStats summarizes one install run
type InstallStats struct {
	Downloaded int
	Skipped    int
	Extracted  int
	// Bytes transferred over the wire during this run. Retried
	// attempts count too, so this can exceed what ended up on disk.
	Bytes int64
}

func (s *InstallStats) String() string {
	return fmt.Sprintf(
		"%d file(s) downloaded (%s), %d already present, %d natives extracted",
		s.Downloaded,
		humanize.Bytes(uint64(s.Bytes)),
		s.Skipped,
		s.Extracted,
	)
}

// Install downloads everything the version needs and unpacks its native
// libraries. It is safe to re-run: verified files are skipped and a
// failed run can be resumed. onProgress (optional) receives transfer
// events and never influences the outcome.
func (i *Instance) Install(
	ctx context.Context,
	man *minecraft.LaunchManifest,
	rctx minecraft.RuleContext,
	onProgress func(downloadmgr.ProgressEvent),
) (*InstallStats, error) {
	plan, err := i.PlanInstall(ctx, man, rctx)
	if err != nil {
		return nil, err
	}

	stats := &InstallStats{Skipped: plan.Skipped}

	var bytes int64
	var completed int64
	mgr := downloadmgr.New(i.HTTP)
	mgr.Concurrency = i.Concurrency
	mgr.OnProgress = func(e downloadmgr.ProgressEvent) {
		atomic.AddInt64(&bytes, e.Bytes)
		if e.Done {
			atomic.AddInt64(&completed, 1)
		}
		if onProgress != nil {
			onProgress(e)
		}
	}

	for _, item := range plan.Items {
		mgr.Add(item)
	}

	log.Printf("Installing %s: %d file(s) to fetch, %d already present", plan.Version, len(plan.Items), plan.Skipped)
	if err := mgr.Start(ctx); err != nil {
		stats.Bytes = atomic.LoadInt64(&bytes)
		return stats, err
	}

	stats.Bytes = atomic.LoadInt64(&bytes)
	stats.Downloaded = len(plan.Items)

	// natives only get unpacked after their archive is verified
	nativesDir := i.NativesDir(plan.Version)
	for _, job := range plan.Natives {
		if err := extractNatives(job.Archive, nativesDir, job.Extract); err != nil {
			return stats, err
		}
		stats.Extracted++
	}

	return stats, nil
}
