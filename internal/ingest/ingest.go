package ingest

import (
	"context"
	"time"
)

// DownloadResult is the per-message download outcome.
type DownloadResult struct {
	MessageID string
	Filename  string
	Path      string
	Bytes     int
	Skipped   bool // file already present on disk
	SavedAt   time.Time
	Err       string
}

// DownloadStats summarizes one mailbox download.
type DownloadStats struct {
	Scanned uint32
	Saved   uint32
	Skipped uint32
	NoHTML  uint32
	Failed  uint32
}

// FileResult is one attachment found on disk.
type FileResult struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
}

// Downloader is the behavior the fetch command depends on.
type Downloader interface {
	// Download saves the HTML attachment of every message matching query.
	Download(ctx context.Context, query string) ([]DownloadResult, DownloadStats, error)
}
