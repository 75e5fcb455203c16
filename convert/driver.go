package convert

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/webpify/config"
	"github.com/teranos/webpify/errors"
	"github.com/teranos/webpify/progress"
)

// Driver walks the full object set once, converting each object under
// per-object fault isolation and committing accumulated work in bounded
// segments. Strictly sequential: one object is fetched, converted, and
// tallied at a time.
type Driver struct {
	store    Store
	cfg      *config.Config
	log      *zap.SugaredLogger
	reporter *progress.Reporter
}

// NewDriver creates a batch driver. reporter may be nil to run silently.
func NewDriver(st Store, cfg *config.Config, log *zap.SugaredLogger, reporter *progress.Reporter) *Driver {
	return &Driver{store: st, cfg: cfg, log: log, reporter: reporter}
}

// Run executes the full conversion batch and returns the final counters.
//
// Failures never escape the per-object boundary: a conflict aborts the
// in-flight transaction segment and skips the object for this run (a
// re-run is the retry mechanism, made safe by the idempotence guard);
// any other per-object error is counted and the batch continues. Only a
// failed catalog search aborts the run itself.
func (d *Driver) Run(ctx context.Context) (*RunStats, error) {
	handles, err := d.store.Find(d.cfg.Convert.SiteID, PortalTypes)
	if err != nil {
		return nil, errors.Wrap(err, "catalog search")
	}

	stats := NewRunStats(len(handles))
	if len(handles) == 0 {
		d.log.Info("No image-bearing content found.")
		return stats, nil
	}

	d.log.Info("--------------------------------------------------")
	d.log.Infow("Starting image conversion",
		"quality", d.cfg.Convert.Quality,
		"dry_run", d.cfg.Convert.DryRun,
		"commit_every", d.cfg.Convert.CommitEvery,
		"site_id", d.cfg.Convert.SiteID,
		"total_objects", stats.Total,
	)
	d.log.Info("--------------------------------------------------")

	for _, h := range handles {
		if ctx.Err() != nil {
			d.log.Warnw("Interrupted", "visited", stats.Visited(), "total", stats.Total)
			break
		}

		stats.Index++
		if d.reporter != nil {
			d.reporter.Step(stats.Index, stats.Total)
		}

		obj, err := d.store.Dereference(h)
		if err != nil {
			d.recordFailure(stats, h.Path, "loading", err)
			continue
		}

		changed, err := ConvertFields(d.store, obj, d.cfg, d.log)
		if err != nil {
			d.recordFailure(stats, h.Path, "processing", err)
			continue
		}

		if changed {
			stats.Processed++
		} else {
			stats.Skipped++
		}

		// Commit regularly to keep transactions small and memory bounded
		if stats.Index%d.cfg.Convert.CommitEvery == 0 && !d.cfg.Convert.DryRun {
			d.checkpoint(stats)
		}
	}

	if d.reporter != nil {
		d.reporter.Finish(stats.Total)
	}

	// Final drain: flush any partial segment smaller than the interval
	if !d.cfg.Convert.DryRun {
		if err := d.store.Commit(); err != nil {
			d.log.Errorw("Final commit failed", "error", err)
			d.store.Abort()
		}
		d.store.ReleaseCache()
	}

	d.log.Info("--------------------------------------------------")
	d.log.Infow("DONE",
		"converted", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	d.log.Info("--------------------------------------------------")

	if !d.cfg.Convert.DryRun && d.cfg.Convert.PackAfter {
		d.log.Info("Packing content store...")
		if err := d.store.Compact(); err != nil {
			// Best-effort housekeeping, not part of the conversion contract
			d.log.Errorw("Compaction failed", "error", err)
		} else {
			d.log.Info("Content store packed.")
		}
	}

	return stats, nil
}

// recordFailure tallies a per-object failure. A conflict means another
// writer mutated concurrently: the segment is aborted and the object is
// skipped for this run, never retried in place.
func (d *Driver) recordFailure(stats *RunStats, path, stage string, err error) {
	stats.Failed++
	if errors.IsConflictError(err) {
		d.log.Errorw("Conflict "+stage, "path", path, "error", err)
		if abortErr := d.store.Abort(); abortErr != nil {
			d.log.Errorw("Abort failed", "path", path, "error", abortErr)
		}
		return
	}
	d.log.Errorw("Error "+stage, "path", path, "error", err)
}

// checkpoint commits the current segment and releases cached object
// state. Called every CommitEvery objects.
func (d *Driver) checkpoint(stats *RunStats) {
	if err := d.store.Commit(); err != nil {
		d.log.Errorw("Checkpoint commit failed", "index", stats.Index, "error", err)
		if errors.IsConflictError(err) {
			d.store.Abort()
		}
		return
	}
	d.store.ReleaseCache()
	d.log.Infow("Committed", "index", stats.Index, "total", stats.Total)
}
