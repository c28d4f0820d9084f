package gmail

// EmailSummary is the read-only projection of a Gmail message the bridge
// exposes to the agent.
type EmailSummary struct {
	ID       string
	ThreadID string
	From     string
	To       string
	Subject  string
	Date     string
	Snippet  string
	Unread   bool
}

// Email is a full message including the decoded body and, when requested,
// the surrounding thread.
type Email struct {
	EmailSummary

	// MessageID is the RFC 5322 Message-ID header, used for reply threading.
	MessageID string
	Body      string
	Thread    []Email
}

// OutgoingMessage describes a message to send. ThreadID, InReplyTo and
// References are set when the message continues an existing thread.
type OutgoingMessage struct {
	To         string
	Subject    string
	Body       string
	ThreadID   string
	InReplyTo  string
	References string
}
