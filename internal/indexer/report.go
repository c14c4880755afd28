package indexer

import (
	"fmt"
	"io"
	"time"

	"github.com/mantonx/vidindex/internal/scanner"
)

// Report summarises one synchronization run.
type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`
	Scanned   int           `json:"scanned"`
	Added     int           `json:"added"`
	Removed   int           `json:"removed"`
	Total     int           `json:"total"`
	Scan      scanner.Stats `json:"scan"`
}

// WriteSummary prints the human-readable end-of-run summary.
func (r *Report) WriteSummary(w io.Writer) error {
	header := "--- Sync Summary ---"
	if r.DryRun {
		header = "--- Sync Summary (dry run) ---"
	}

	_, err := fmt.Fprintf(w,
		"\n%s\nScanned: %d video files on disk\nAdded:   %d new videos\nRemoved: %d old entries\nTotal:   %d videos in catalog.\n",
		header, r.Scanned, r.Added, r.Removed, r.Total)
	if err != nil {
		return err
	}
	if r.Scan.Warnings > 0 {
		_, err = fmt.Fprintf(w, "Skipped: %d unreadable entries (see warnings above)\n", r.Scan.Warnings)
	}
	return err
}
