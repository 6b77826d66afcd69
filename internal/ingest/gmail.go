package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// DefaultGmailQuery is used when a sync request does not carry a query of
// its own.
const DefaultGmailQuery = "resume OR cv OR application"

// GmailSource fetches PDF attachments from a connected Gmail mailbox.
type GmailSource struct {
	service *gmail.Service
	log     *zap.SugaredLogger
}

var _ Source = (*GmailSource)(nil)

func NewGmailSource(ctx context.Context, token *oauth2.Token) (*GmailSource, error) {
	srv, err := gmail.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	return &GmailSource{
		service: srv,
		log:     zap.S().Named("gmail_source"),
	}, nil
}

// Fetch searches the mailbox with the given query and downloads every PDF
// attachment of the matching messages. A message or attachment that cannot
// be retrieved is skipped, not fatal.
func (g *GmailSource) Fetch(ctx context.Context, opts FetchOptions) ([]File, error) {
	query := opts.Query
	if query == "" {
		query = DefaultGmailQuery
	}

	const user = "me"
	list, err := g.service.Users.Messages.List(user).Q(query + " has:attachment").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	files := []File{}
	for _, ref := range list.Messages {
		message, err := g.service.Users.Messages.Get(user, ref.Id).Context(ctx).Do()
		if err != nil {
			g.log.Warnf("failed to retrieve message %s: %v", ref.Id, err)
			continue
		}
		for _, part := range collectParts(message.Payload) {
			if part.Body == nil || part.Body.AttachmentId == "" || !isPdfName(part.Filename) {
				continue
			}
			attachment, err := g.service.Users.Messages.Attachments.Get(user, ref.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				g.log.Warnf("failed to retrieve attachment %q of message %s: %v", part.Filename, ref.Id, err)
				continue
			}
			data, err := base64.URLEncoding.DecodeString(attachment.Data)
			if err != nil {
				g.log.Warnf("failed to decode attachment %q of message %s: %v", part.Filename, ref.Id, err)
				continue
			}
			files = append(files, File{Name: part.Filename, Data: data})
		}
	}

	return files, nil
}

// collectParts flattens a possibly nested MIME tree into a single list.
func collectParts(payload *gmail.MessagePart) []*gmail.MessagePart {
	if payload == nil {
		return nil
	}
	parts := []*gmail.MessagePart{payload}
	for _, p := range payload.Parts {
		parts = append(parts, collectParts(p)...)
	}
	return parts
}

func isPdfName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
