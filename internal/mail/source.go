// Package mail lists broker report messages and downloads their HTML
// attachments.
package mail

import (
	"context"
	"errors"
)

// ErrNoHTMLAttachment is returned when a message carries no HTML part.
var ErrNoHTMLAttachment = errors.New("message has no html attachment")

// Message identifies one message in the mailbox.
type Message struct {
	ID       string
	ThreadID string
}

// Attachment identifies one attachment of a message.
type Attachment struct {
	MessageID string
	ID        string
	Filename  string
	MimeType  string
	Size      int64
}

// Source is the mailbox the report downloader reads from.
type Source interface {
	// ListMessages returns every message matching query, following pagination.
	ListMessages(ctx context.Context, query string) ([]Message, error)
	// HTMLAttachment returns the first attachment whose file name mentions html.
	HTMLAttachment(ctx context.Context, messageID string) (Attachment, error)
	// AttachmentData returns the decoded attachment bytes.
	AttachmentData(ctx context.Context, att Attachment) ([]byte, error)
}
