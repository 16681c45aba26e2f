package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/broker-reports/internal/mail"
)

// MailDownloader saves report attachments from a mailbox into a directory.
type MailDownloader struct {
	src    mail.Source
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewMailDownloader creates a downloader writing into dir.
func NewMailDownloader(src mail.Source, dir string, logger *slog.Logger) *MailDownloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailDownloader{src: src, dir: dir, logger: logger, now: time.Now}
}

// Download saves the HTML attachment of every message matching query.
// Attachments already present on disk are not fetched again. Per-message
// failures are recorded in the results; only listing errors and context
// cancellation abort the run.
func (d *MailDownloader) Download(ctx context.Context, query string) ([]DownloadResult, DownloadStats, error) {
	var stats DownloadStats
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return nil, stats, fmt.Errorf("create attachments dir: %w", err)
	}

	msgs, err := d.src.ListMessages(ctx, query)
	if err != nil {
		return nil, stats, err
	}
	d.logger.Info("download.start", "query", query, "messages", len(msgs), "dir", d.dir)

	results := make([]DownloadResult, 0, len(msgs))
	for _, m := range msgs {
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}
		stats.Scanned++
		res := d.downloadOne(ctx, m.ID)
		switch {
		case res.Err != "":
			stats.Failed++
		case res.Skipped:
			stats.Skipped++
		case res.Path == "":
			stats.NoHTML++
		default:
			stats.Saved++
		}
		results = append(results, res)
	}

	d.logger.Info("download.done",
		"scanned", stats.Scanned, "saved", stats.Saved, "skipped", stats.Skipped,
		"no_html", stats.NoHTML, "failed", stats.Failed)
	return results, stats, nil
}

func (d *MailDownloader) downloadOne(ctx context.Context, messageID string) DownloadResult {
	res := DownloadResult{MessageID: messageID}

	att, err := d.src.HTMLAttachment(ctx, messageID)
	if errors.Is(err, mail.ErrNoHTMLAttachment) {
		d.logger.Debug("download.no_html", "message_id", messageID)
		return res
	}
	if err != nil {
		d.logger.Warn("download.failed", "message_id", messageID, "error", err)
		res.Err = err.Error()
		return res
	}

	name := SafeFilename(att.Filename)
	if name == "" {
		name = messageID + ".html"
	}
	res.Filename = name
	res.Path = filepath.Join(d.dir, name)

	if _, err := os.Stat(res.Path); err == nil {
		res.Skipped = true
		d.logger.Debug("download.skip", "message_id", messageID, "path", res.Path)
		return res
	} else if !errors.Is(err, fs.ErrNotExist) {
		res.Err = err.Error()
		return res
	}

	data, err := d.src.AttachmentData(ctx, att)
	if err != nil {
		d.logger.Warn("download.failed", "message_id", messageID, "filename", name, "error", err)
		res.Err = err.Error()
		return res
	}
	if err := writeFileAtomic(res.Path, data); err != nil {
		d.logger.Warn("download.failed", "message_id", messageID, "path", res.Path, "error", err)
		res.Err = err.Error()
		return res
	}

	res.Bytes = len(data)
	res.SavedAt = d.now().UTC()
	d.logger.Info("download.ok", "message_id", messageID, "path", res.Path, "bytes", res.Bytes)
	return res
}

// writeFileAtomic writes through a temp file so a partial download never
// looks like a complete attachment on the next run.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
