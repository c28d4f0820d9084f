package gmail_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/server"
	"github.com/assistkit/inboxbridge/internal/tools/common"
)

const (
	defaultMaxResults = 10
	minMaxResults     = 1
	maxMaxResults     = 100
)

// RegisterGmailTools binds the email tool handlers into the dispatch
// registry and exposes them on the MCP server.
func RegisterGmailTools(s *mcpserver.MCPServer, reg *bridge.Registry, sc *server.ServerContext) error {
	listEmailsTool := mcp.NewTool(string(bridge.ToolListEmails),
		mcp.WithDescription("List recent emails from the user's Gmail inbox"),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of emails to return (1-100, default: 10)"),
		),
	)
	if err := common.AddTool(s, reg, sc, listEmailsTool, bridge.ToolListEmails, handleListEmails(sc)); err != nil {
		return err
	}

	getEmailTool := mcp.NewTool(string(bridge.ToolGetEmail),
		mcp.WithDescription("Get the full content of a specific email by ID, including the conversation thread"),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("The ID of the email to fetch"),
		),
	)
	if err := common.AddTool(s, reg, sc, getEmailTool, bridge.ToolGetEmail, handleGetEmail(sc)); err != nil {
		return err
	}

	searchEmailsTool := mcp.NewTool(string(bridge.ToolSearchEmails),
		mcp.WithDescription("Search emails by query (sender, subject, content). Uses Gmail search syntax."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query (e.g., 'from:user@example.com', 'subject:invoice')"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (1-100, default: 10)"),
		),
	)
	if err := common.AddTool(s, reg, sc, searchEmailsTool, bridge.ToolSearchEmails, handleSearchEmails(sc)); err != nil {
		return err
	}

	draftReplyTool := mcp.NewTool(string(bridge.ToolDraftReply),
		mcp.WithDescription("Generate a reply draft for an email based on user instructions"),
		mcp.WithString("email_id",
			mcp.Required(),
			mcp.Description("The ID of the email to reply to"),
		),
		mcp.WithString("instructions",
			mcp.Required(),
			mcp.Description("What the reply should say"),
		),
	)
	if err := common.AddTool(s, reg, sc, draftReplyTool, bridge.ToolDraftReply, handleDraftReply(sc)); err != nil {
		return err
	}

	sendEmailTool := mcp.NewTool(string(bridge.ToolSendEmail),
		mcp.WithDescription("Send an email or reply. If reply_to_id is provided, sends as a reply to that email thread."),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Description("Email subject. Derived from the original when replying."),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Email body text"),
		),
		mcp.WithString("reply_to_id",
			mcp.Description("ID of the email being replied to, for thread continuity"),
		),
	)
	if err := common.AddTool(s, reg, sc, sendEmailTool, bridge.ToolSendEmail, handleSendEmail(sc)); err != nil {
		return err
	}

	return nil
}
