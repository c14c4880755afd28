// Package scanner enumerates the eligible video files below a media root.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/mantonx/vidindex/internal/types"
)

// Stats summarises a single scan.
type Stats struct {
	Directories int `json:"directories"`
	Pruned      int `json:"pruned"`
	Files       int `json:"files"`
	Eligible    int `json:"eligible"`
	Warnings    int `json:"warnings"`
}

// Result is the disk set produced by Scan together with its statistics.
type Result struct {
	Paths types.PathSet
	Stats Stats
}

// FileSystemScanner walks a media root applying a PathFilter.
type FileSystemScanner struct {
	filter *PathFilter
	log    hclog.Logger
}

// NewFileSystemScanner creates a scanner using the given filter.
func NewFileSystemScanner(filter *PathFilter) *FileSystemScanner {
	return &FileSystemScanner{
		filter: filter,
		log:    logger.Named("scanner"),
	}
}

// Scan returns the set of eligible paths below root, relative to root and
// using '/' separators. It fails with ErrRootNotFound before any traversal
// when root is unusable. Errors on individual entries are logged and the
// entry is skipped.
func (s *FileSystemScanner) Scan(ctx context.Context, root string) (*Result, error) {
	walkRoot, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	s.log.Info("Starting scan", "root", root)

	res := &Result{Paths: make(types.PathSet)}
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == walkRoot {
				return fmt.Errorf("%w: %v", ErrRootNotFound, walkErr)
			}
			s.warn(res, &FileAccessError{Path: path, Err: walkErr})
			return nil
		}

		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if path != walkRoot && s.filter.SkipDir(d.Name()) {
				res.Stats.Pruned++
				s.log.Debug("Skipping folder", "path", path)
				return filepath.SkipDir
			}
			res.Stats.Directories++
			return nil
		}

		res.Stats.Files++
		if !s.filter.Eligible(d.Name()) {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil {
				s.warn(res, &FileAccessError{Path: path, Err: err})
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			s.warn(res, &FileAccessError{Path: path, Err: err})
			return nil
		}

		res.Paths.Add(filepath.ToSlash(rel))
		res.Stats.Eligible++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Scan complete",
		"videos", res.Stats.Eligible,
		"directories", res.Stats.Directories,
		"pruned", res.Stats.Pruned,
		"warnings", res.Stats.Warnings)
	return res, nil
}

func (s *FileSystemScanner) warn(res *Result, err *FileAccessError) {
	res.Stats.Warnings++
	s.log.Warn("Could not process file", "path", err.Path, "error", err.Err)
}

// checkRoot verifies root is a readable directory and returns the path to
// walk, with a symlinked root resolved.
func checkRoot(root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
	}

	return resolved, nil
}
