// Package indexer reconciles the catalog with the media directory tree.
package indexer

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/vidindex/internal/database"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/mantonx/vidindex/internal/scanner"
	"github.com/mantonx/vidindex/internal/types"
)

// ErrSyncInProgress is returned when a run is requested while another one
// is still active in this process.
var ErrSyncInProgress = errors.New("sync already in progress")

// Catalog is the part of the catalog store a sync needs.
type Catalog interface {
	AllPaths(ctx context.Context) (types.PathSet, error)
	InsertMany(ctx context.Context, videos []database.Video) error
	DeleteByPaths(ctx context.Context, paths types.PathSet) (int64, error)
	Apply(ctx context.Context, add []database.Video, remove types.PathSet) (int64, error)
}

// DiskScanner produces the disk set for a media root.
type DiskScanner interface {
	Scan(ctx context.Context, root string) (*scanner.Result, error)
}

// Options tunes a run.
type Options struct {
	// SingleTransaction applies additions and removals in one transaction
	// instead of two independent ones.
	SingleTransaction bool
	// DryRun computes and reports the delta without writing.
	DryRun bool
}

// Orchestrator drives load, scan, diff and apply for one media root.
type Orchestrator struct {
	catalog Catalog
	scanner DiskScanner
	root    string
	opts    Options
	log     hclog.Logger

	running sync.Mutex
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(catalog Catalog, scanner DiskScanner, root string, opts Options) *Orchestrator {
	return &Orchestrator{
		catalog: catalog,
		scanner: scanner,
		root:    root,
		opts:    opts,
		log:     logger.Named("sync"),
	}
}

// Root returns the media root this orchestrator reconciles.
func (o *Orchestrator) Root() string {
	return o.root
}

// Run performs one synchronization with the configured options.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	return o.RunWith(ctx, o.opts)
}

// RunWith performs one synchronization with explicit options. Runs within a
// process never overlap; a concurrent call fails with ErrSyncInProgress.
func (o *Orchestrator) RunWith(ctx context.Context, opts Options) (*Report, error) {
	if !o.running.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer o.running.Unlock()

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
	}
	log := o.log.With("run_id", report.RunID)

	log.Info("Fetching existing video paths from database")
	catalogPaths, err := o.catalog.AllPaths(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded catalog", "videos", catalogPaths.Len())

	scan, err := o.scanner.Scan(ctx, o.root)
	if err != nil {
		return nil, err
	}
	report.Scan = scan.Stats
	report.Scanned = scan.Paths.Len()

	delta := Diff(scan.Paths, catalogPaths)
	report.Added = delta.ToAdd.Len()
	report.Removed = delta.ToRemove.Len()
	report.Total = scan.Paths.Len()

	if opts.DryRun {
		report.Duration = time.Since(report.StartedAt)
		log.Info("Dry run, catalog left unchanged", "would_add", report.Added, "would_remove", report.Removed)
		return report, nil
	}

	additions := NewVideos(delta.ToAdd)

	if opts.SingleTransaction {
		if report.Added > 0 || report.Removed > 0 {
			log.Info("Applying changes in one transaction", "add", report.Added, "remove", report.Removed)
		}
		if _, err := o.catalog.Apply(ctx, additions, delta.ToRemove); err != nil {
			return nil, err
		}
	} else {
		if report.Added > 0 {
			log.Info("Adding new videos to the database", "count", report.Added)
			if err := o.catalog.InsertMany(ctx, additions); err != nil {
				return nil, err
			}
		}
		if report.Removed > 0 {
			log.Info("Removing old video entries", "count", report.Removed)
			if _, err := o.catalog.DeleteByPaths(ctx, delta.ToRemove); err != nil {
				return nil, err
			}
		}
	}

	report.Duration = time.Since(report.StartedAt)
	log.Info("Database synchronization complete",
		"added", report.Added,
		"removed", report.Removed,
		"total", report.Total,
		"duration", report.Duration)
	return report, nil
}

// Delta is the change set that makes the catalog equal the disk set.
// ToAdd and ToRemove never share a member.
type Delta struct {
	ToAdd    types.PathSet
	ToRemove types.PathSet
}

// Diff computes disk−catalog and catalog−disk.
func Diff(disk, catalog types.PathSet) Delta {
	return Delta{
		ToAdd:    disk.Difference(catalog),
		ToRemove: catalog.Difference(disk),
	}
}

// NewVideo derives a fresh record for a relative path: the title is the
// file name without extension, the container folder is the parent directory
// ("" for files directly in the media root) and tags start empty.
func NewVideo(relPath string) database.Video {
	base := path.Base(relPath)
	folder := path.Dir(relPath)
	if folder == "." {
		folder = ""
	}

	return database.Video{
		Title:           strings.TrimSuffix(base, scanner.Ext(base)),
		Path:            relPath,
		ContainerFolder: folder,
		Tags:            "",
	}
}

// NewVideos derives records for every path, in path order.
func NewVideos(paths types.PathSet) []database.Video {
	videos := make([]database.Video, 0, paths.Len())
	for _, p := range paths.Sorted() {
		videos = append(videos, NewVideo(p))
	}
	return videos
}
