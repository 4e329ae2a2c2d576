package catalog

import (
	"context"
	"fmt"
	"time"

	"musicapp/logger"
	"musicapp/storage"
)

// DefaultSweepMinAge comfortably exceeds the longest upload a live server
// can still be processing.
const DefaultSweepMinAge = time.Hour

// ReconcileOptions controls a sweep.
type ReconcileOptions struct {
	// DryRun reports without removing anything.
	DryRun bool
	// MinAge protects files stored more recently than this. A create or
	// update in flight holds staged files no song references yet.
	MinAge time.Duration
}

// ReconcileReport describes what a sweep found and, unless DryRun, removed.
type ReconcileReport struct {
	DryRun            bool     `json:"dryRun"`
	OrphanedFiles     []string `json:"orphanedFiles"`
	RemovedFiles      int      `json:"removedFiles"`
	SkippedRecent     int      `json:"skippedRecent"`
	DanglingFavorites int64    `json:"danglingFavorites"`
}

// Reconcile removes stored files no song references and favorites that
// point at songs which no longer exist. These are left behind only when a
// process dies part way through a lifecycle operation. It is safe to run
// next to a live server as long as MinAge covers uploads in progress.
func (s *Service) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	dryRun := opts.DryRun
	cutoff := time.Now().Add(-opts.MinAge)

	paths, err := s.songs.FilePaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load referenced files: %w", err)
	}
	referenced := make(map[string]struct{}, len(paths)+1)
	for _, p := range paths {
		referenced[p] = struct{}{}
	}
	referenced[storage.DefaultCoverPath] = struct{}{}

	report := &ReconcileReport{DryRun: dryRun, OrphanedFiles: make([]string, 0)}
	backend := s.stage.Backend()
	for _, bucket := range storage.Buckets {
		objects, err := backend.List(ctx, bucket.Dir+"/")
		if err != nil {
			return nil, fmt.Errorf("failed to list %s files: %w", bucket.Name, err)
		}
		for _, obj := range objects {
			p := storage.PathForKey(obj.Key)
			if _, ok := referenced[p]; ok {
				continue
			}
			if opts.MinAge > 0 && obj.LastModified.After(cutoff) {
				report.SkippedRecent++
				continue
			}
			report.OrphanedFiles = append(report.OrphanedFiles, p)
			if dryRun {
				continue
			}
			if err := backend.Remove(ctx, obj.Key); err != nil {
				logger.Warn("Failed to remove orphaned file", logger.String("path", p), logger.ErrorField(err))
				continue
			}
			report.RemovedFiles++
		}
	}

	if dryRun {
		report.DanglingFavorites, err = s.favorites.CountDangling(ctx)
	} else {
		report.DanglingFavorites, err = s.favorites.RemoveDangling(ctx)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Reconciliation finished",
		logger.Bool("dryRun", dryRun),
		logger.Int("orphanedFiles", len(report.OrphanedFiles)),
		logger.Int("removedFiles", report.RemovedFiles),
		logger.Int("skippedRecent", report.SkippedRecent),
		logger.Duration("minAge", opts.MinAge),
		logger.Int64("danglingFavorites", report.DanglingFavorites))
	return report, nil
}
