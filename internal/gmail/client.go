package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/assistkit/inboxbridge/internal/bridge"
)

const defaultCallTimeout = 30 * time.Second

// metadataHeaders are the headers fetched for message listings.
var metadataHeaders = []string{"From", "To", "Subject", "Date"}

// Recorder observes one completed provider call. A nil error means the call
// succeeded.
type Recorder func(ctx context.Context, operation string, duration time.Duration, err error)

// Client wraps the Gmail Users service for a single access token. Clients
// are cheap and bound to one session's token; they hold no other state.
type Client struct {
	svc     *gmail.UsersService
	timeout time.Duration
	record  Recorder
}

// NewClient creates a Gmail client authenticated with the given token.
func NewClient(ctx context.Context, token *oauth2.Token) (*Client, error) {
	svc, err := gmail.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, timeout: defaultCallTimeout}, nil
}

// SetTimeout overrides the per-call timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// SetRecorder installs a recorder invoked after every provider operation.
func (c *Client) SetRecorder(r Recorder) {
	c.record = r
}

// observe reports one finished operation to the recorder. Meant to run
// deferred with start captured at method entry.
func (c *Client) observe(ctx context.Context, operation string, start time.Time, err *error) {
	if c.record != nil {
		c.record(ctx, operation, time.Since(start), *err)
	}
}

// ListMessages returns up to maxResults inbox messages, newest first.
func (c *Client) ListMessages(ctx context.Context, maxResults int64) (_ []EmailSummary, err error) {
	defer c.observe(ctx, "gmail.list", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.svc.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(maxResults).
		Context(callCtx).Do()
	if err != nil {
		return nil, bridge.FromGoogleAPI("gmail.list", err)
	}
	return c.fetchSummaries(callCtx, res.Messages)
}

// SearchMessages returns up to maxResults messages matching a Gmail search
// query.
func (c *Client) SearchMessages(ctx context.Context, query string, maxResults int64) (_ []EmailSummary, err error) {
	defer c.observe(ctx, "gmail.search", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.svc.Messages.List("me").
		Q(query).
		MaxResults(maxResults).
		Context(callCtx).Do()
	if err != nil {
		return nil, bridge.FromGoogleAPI("gmail.search", err)
	}
	return c.fetchSummaries(callCtx, res.Messages)
}

func (c *Client) fetchSummaries(ctx context.Context, refs []*gmail.Message) ([]EmailSummary, error) {
	summaries := make([]EmailSummary, 0, len(refs))
	for _, ref := range refs {
		msg, err := c.svc.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).Do()
		if err != nil {
			return nil, bridge.FromGoogleAPI("gmail.get", err)
		}
		summaries = append(summaries, toSummary(msg))
	}
	return summaries, nil
}

// GetMessage retrieves a full message. When includeThread is set the
// surrounding conversation is fetched as well.
func (c *Client) GetMessage(ctx context.Context, id string, includeThread bool) (_ *Email, err error) {
	defer c.observe(ctx, "gmail.get", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.svc.Messages.Get("me", id).Format("full").Context(callCtx).Do()
	if err != nil {
		return nil, bridge.FromGoogleAPI("gmail.get", err)
	}

	email := toEmail(msg)
	if includeThread && msg.ThreadId != "" {
		thread, err := c.svc.Threads.Get("me", msg.ThreadId).Format("full").Context(callCtx).Do()
		if err != nil {
			return nil, bridge.FromGoogleAPI("gmail.thread", err)
		}
		for _, m := range thread.Messages {
			email.Thread = append(email.Thread, toEmail(m))
		}
	}
	return &email, nil
}

// SendMessage sends a message and returns the created message id. Timeouts
// here are ambiguous: the provider may already have accepted the send.
func (c *Client) SendMessage(ctx context.Context, out OutgoingMessage) (_ string, err error) {
	defer c.observe(ctx, "gmail.send", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw := base64.URLEncoding.EncodeToString([]byte(buildRFC822(out)))
	msg := &gmail.Message{Raw: raw}
	if out.ThreadID != "" {
		msg.ThreadId = out.ThreadID
	}

	sent, err := c.svc.Messages.Send("me", msg).Context(callCtx).Do()
	if err != nil {
		return "", bridge.FromGoogleAPISideEffect("gmail.send", err)
	}
	return sent.Id, nil
}

// buildRFC822 assembles a plain-text RFC 822 message with optional reply
// threading headers.
func buildRFC822(out OutgoingMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", out.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", out.Subject)
	if out.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", out.InReplyTo)
	}
	if out.References != "" {
		fmt.Fprintf(&b, "References: %s\r\n", out.References)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(out.Body)
	return b.String()
}

func toSummary(msg *gmail.Message) EmailSummary {
	s := EmailSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				s.From = h.Value
			case "To":
				s.To = h.Value
			case "Subject":
				s.Subject = h.Value
			case "Date":
				s.Date = h.Value
			}
		}
	}
	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			s.Unread = true
			break
		}
	}
	return s
}

func toEmail(msg *gmail.Message) Email {
	email := Email{EmailSummary: toSummary(msg)}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			if h.Name == "Message-ID" || h.Name == "Message-Id" {
				email.MessageID = h.Value
				break
			}
		}
		email.Body = extractBody(msg.Payload)
	}
	return email
}

// extractBody walks the MIME tree preferring text/plain over text/html.
func extractBody(payload *gmail.MessagePart) string {
	var parts []*gmail.MessagePart
	collectParts(payload, &parts)

	for _, mimeType := range []string{"text/plain", "text/html"} {
		for _, part := range parts {
			if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
				if decoded, ok := decodeBody(part.Body.Data); ok {
					return decoded
				}
			}
		}
	}
	return ""
}

// decodeBody handles both padded and unpadded base64url message bodies.
func decodeBody(data string) (string, bool) {
	if decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(decoded), true
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded), true
	}
	return "", false
}

func collectParts(part *gmail.MessagePart, out *[]*gmail.MessagePart) {
	if part == nil {
		return
	}
	if len(part.Parts) > 0 {
		for _, p := range part.Parts {
			collectParts(p, out)
		}
		return
	}
	*out = append(*out, part)
}
