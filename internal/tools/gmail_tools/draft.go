package gmail_tools

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/assistkit/inboxbridge/internal/gmail"
)

// buildDraftReply renders a reply draft for the agent to present to the
// user. Nothing is sent; the draft quotes the original so the user can
// review it before a follow-up send_email call.
func buildDraftReply(email *gmail.Email, instructions string) string {
	recipient := email.From
	greeting := "there"
	if addr, err := mail.ParseAddress(email.From); err == nil {
		recipient = addr.Address
		if addr.Name != "" {
			greeting = addr.Name
		} else {
			greeting = addr.Address
		}
	}

	var b strings.Builder
	b.WriteString("Draft reply:\n")
	fmt.Fprintf(&b, "To: %s\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\n\n", replySubject(email.Subject))
	fmt.Fprintf(&b, "Hi %s,\n\n%s\n\nBest,\n\n", greeting, strings.TrimSpace(instructions))
	b.WriteString("--- Original ---\n")
	fmt.Fprintf(&b, "From: %s\n", email.From)
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "Date: %s\n\n", email.Date)
	b.WriteString(email.Body)
	return strings.TrimSpace(b.String())
}

// replySubject prefixes "Re:" unless the subject already carries one.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return strings.TrimSpace("Re: " + subject)
}
