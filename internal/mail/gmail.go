package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/broker-reports/constants"
)

// Gmail is a Source backed by the Gmail API.
type Gmail struct {
	svc    *gmail.Service
	user   string
	logger *slog.Logger
}

// NewGmail builds a Gmail source for user ("me" for the authenticated
// account). Authentication is supplied through opts, usually
// option.WithHTTPClient with an OAuth2 client from Authorize.
func NewGmail(ctx context.Context, user string, logger *slog.Logger, opts ...option.ClientOption) (*Gmail, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if user == "" {
		user = "me"
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Gmail{svc: svc, user: user, logger: logger}, nil
}

func (g *Gmail) ListMessages(ctx context.Context, query string) ([]Message, error) {
	var out []Message
	pageToken := ""
	for {
		call := g.svc.Users.Messages.List(g.user).Q(query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			g.logger.Error("gmail.list.failed", "query", query, "error", err)
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range resp.Messages {
			out = append(out, Message{ID: m.Id, ThreadID: m.ThreadId})
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	g.logger.Debug("gmail.list.ok", "query", query, "messages", len(out))
	return out, nil
}

func (g *Gmail) HTMLAttachment(ctx context.Context, messageID string) (Attachment, error) {
	msg, err := g.svc.Users.Messages.Get(g.user, messageID).Context(ctx).Do()
	if err != nil {
		return Attachment{}, fmt.Errorf("get message %s: %w", messageID, err)
	}
	part := findHTMLPart(msg.Payload)
	if part == nil || part.Body == nil {
		return Attachment{}, fmt.Errorf("message %s: %w", messageID, ErrNoHTMLAttachment)
	}
	return Attachment{
		MessageID: messageID,
		ID:        part.Body.AttachmentId,
		Filename:  part.Filename,
		MimeType:  part.MimeType,
		Size:      part.Body.Size,
	}, nil
}

func (g *Gmail) AttachmentData(ctx context.Context, att Attachment) ([]byte, error) {
	body, err := g.svc.Users.Messages.Attachments.Get(g.user, att.MessageID, att.ID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get attachment %s of message %s: %w", att.Filename, att.MessageID, err)
	}
	data, err := decodeBase64URL(body.Data)
	if err != nil {
		return nil, fmt.Errorf("decode attachment %s: %w", att.Filename, err)
	}
	return data, nil
}

// findHTMLPart walks the MIME tree depth first.
func findHTMLPart(p *gmail.MessagePart) *gmail.MessagePart {
	if p == nil {
		return nil
	}
	if p.Filename != "" && constants.IsHTMLName(p.Filename) {
		return p
	}
	for _, c := range p.Parts {
		if found := findHTMLPart(c); found != nil {
			return found
		}
	}
	return nil
}

// decodeBase64URL accepts padded and unpadded URL-safe base64.
func decodeBase64URL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "=") {
		return base64.URLEncoding.DecodeString(s)
	}
	return base64.RawURLEncoding.DecodeString(s)
}
