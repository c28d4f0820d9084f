package gmail_tools

import (
	"context"
	"fmt"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/format"
	"github.com/assistkit/inboxbridge/internal/gmail"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/server"
	"github.com/assistkit/inboxbridge/internal/tools/common"
)

func handleListEmails(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		maxResults, err := common.IntInRange(args, "max_results", defaultMaxResults, minMaxResults, maxMaxResults)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.GmailClientForSession(ctx, sessionID, google.ScopeGmailReadonly)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		emails, err := client.ListMessages(ctx, int64(maxResults))
		if err != nil {
			return bridge.ToolResult{}, err
		}
		return bridge.Success(format.EmailList(emails)), nil
	}
}

func handleGetEmail(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		emailID, err := common.RequiredString(args, "email_id")
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.GmailClientForSession(ctx, sessionID, google.ScopeGmailReadonly)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		email, err := client.GetMessage(ctx, emailID, true)
		if err != nil {
			return bridge.ToolResult{}, err
		}
		return bridge.Success(format.FullEmail(email)), nil
	}
}

func handleSearchEmails(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		query, err := common.RequiredString(args, "query")
		if err != nil {
			return bridge.ToolResult{}, err
		}
		maxResults, err := common.IntInRange(args, "max_results", defaultMaxResults, minMaxResults, maxMaxResults)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.GmailClientForSession(ctx, sessionID, google.ScopeGmailReadonly)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		emails, err := client.SearchMessages(ctx, query, int64(maxResults))
		if err != nil {
			return bridge.ToolResult{}, err
		}
		return bridge.Success(format.EmailList(emails)), nil
	}
}

func handleDraftReply(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		emailID, err := common.RequiredString(args, "email_id")
		if err != nil {
			return bridge.ToolResult{}, err
		}
		instructions, err := common.RequiredString(args, "instructions")
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.GmailClientForSession(ctx, sessionID, google.ScopeGmailReadonly)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		email, err := client.GetMessage(ctx, emailID, false)
		if err != nil {
			return bridge.ToolResult{}, err
		}
		return bridge.Success(buildDraftReply(email, instructions)), nil
	}
}

func handleSendEmail(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		to, err := common.RequiredString(args, "to")
		if err != nil {
			return bridge.ToolResult{}, err
		}
		if err := common.ValidEmail("to", to); err != nil {
			return bridge.ToolResult{}, err
		}
		body, err := common.RequiredString(args, "body")
		if err != nil {
			return bridge.ToolResult{}, err
		}
		subject := common.OptionalString(args, "subject", "")
		replyToID := common.OptionalString(args, "reply_to_id", "")
		if subject == "" && replyToID == "" {
			return bridge.ToolResult{}, bridge.InvalidArgumentf("subject is required unless replying to an existing email")
		}

		client, err := sc.GmailClientForSession(ctx, sessionID, google.ScopeGmailSend)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		out := gmail.OutgoingMessage{
			To:      to,
			Subject: subject,
			Body:    body,
		}
		if replyToID != "" {
			// Reading the original only needs the readonly scope, which
			// the send scope check above does not cover. Resolve it
			// explicitly so a send-only grant still fails cleanly.
			readClient, err := sc.GmailClientForSession(ctx, sessionID, google.ScopeGmailReadonly)
			if err != nil {
				return bridge.ToolResult{}, err
			}
			original, err := readClient.GetMessage(ctx, replyToID, false)
			if err != nil {
				return bridge.ToolResult{}, err
			}
			out.ThreadID = original.ThreadID
			out.InReplyTo = original.MessageID
			out.References = original.MessageID
			if out.Subject == "" {
				out.Subject = replySubject(original.Subject)
			}
		}

		id, err := client.SendMessage(ctx, out)
		if err != nil {
			return bridge.ToolResult{}, err
		}
		return bridge.Success(fmt.Sprintf("Email sent. ID: %s", id)), nil
	}
}
