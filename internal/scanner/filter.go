package scanner

import (
	"path/filepath"
	"strings"

	"github.com/mantonx/vidindex/internal/config"
)

// PathFilter decides which directory entries take part in a scan.
// It is a pure function of the configured rule sets.
type PathFilter struct {
	skipDirs     map[string]struct{}
	extensions   map[string]struct{}
	junkPrefixes []string
	junkNames    map[string]struct{}
}

// NewPathFilter builds a filter from scanner configuration. Extensions are
// normalised to lower case with a leading dot.
func NewPathFilter(cfg config.ScannerConfig) *PathFilter {
	f := &PathFilter{
		skipDirs:   make(map[string]struct{}, len(cfg.SkipFolders)),
		extensions: make(map[string]struct{}, len(cfg.VideoExtensions)),
		junkNames:  make(map[string]struct{}, len(cfg.JunkNames)),
	}

	for _, name := range cfg.SkipFolders {
		if name != "" {
			f.skipDirs[name] = struct{}{}
		}
	}
	for _, ext := range cfg.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = struct{}{}
	}
	for _, prefix := range cfg.JunkPrefixes {
		if prefix != "" {
			f.junkPrefixes = append(f.junkPrefixes, prefix)
		}
	}
	for _, name := range cfg.JunkNames {
		if name != "" {
			f.junkNames[name] = struct{}{}
		}
	}

	return f
}

// SkipDir reports whether a directory with this name must not be descended
// into. Matching is exact and case-sensitive.
func (f *PathFilter) SkipDir(name string) bool {
	_, skip := f.skipDirs[name]
	return skip
}

// IsJunk reports whether name is a reserved metadata file.
func (f *PathFilter) IsJunk(name string) bool {
	if _, ok := f.junkNames[name]; ok {
		return true
	}
	for _, prefix := range f.junkPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Eligible reports whether a file with this name should be indexed.
// Junk names are rejected before the extension is considered.
func (f *PathFilter) Eligible(name string) bool {
	if f.IsJunk(name) {
		return false
	}
	_, ok := f.extensions[strings.ToLower(Ext(name))]
	return ok
}

// Ext returns the extension of a file name. Leading dots belong to the
// stem, so ".mp4" has no extension while ".clip.mp4" has ".mp4".
func Ext(name string) string {
	return filepath.Ext(strings.TrimLeft(name, "."))
}
