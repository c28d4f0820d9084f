package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/assistkit/inboxbridge/internal/calendar"
	"github.com/assistkit/inboxbridge/internal/gmail"
)

const (
	// SnippetBudget bounds any single body or snippet so the agent context
	// stays small.
	SnippetBudget = 500

	ellipsis    = "…"
	placeholder = "(unknown)"
)

// Truncate cuts s to at most SnippetBudget characters, appending an ellipsis
// marker when anything was dropped. Multi-byte runes are never split.
func Truncate(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= SnippetBudget {
		return s
	}
	return string(runes[:SnippetBudget]) + ellipsis
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// EmailList renders message summaries as a numbered listing.
func EmailList(emails []gmail.EmailSummary) string {
	if len(emails) == 0 {
		return "No emails found."
	}

	var b strings.Builder
	for i, email := range emails {
		status := "read"
		if email.Unread {
			status = "unread"
		}
		snippet := Truncate(strings.ReplaceAll(email.Snippet, "\n", " "))
		fmt.Fprintf(&b, "%d. [ID: %s] From: %s | Subject: %s | Date: %s | %s | Preview: %s\n",
			i+1,
			orPlaceholder(email.ID),
			orPlaceholder(email.From),
			orPlaceholder(email.Subject),
			orPlaceholder(email.Date),
			status,
			snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FullEmail renders a message with its body and, when present, the
// surrounding thread.
func FullEmail(email *gmail.Email) string {
	if email == nil {
		return "Email: " + placeholder
	}

	var b strings.Builder
	b.WriteString("Email:\n")
	fmt.Fprintf(&b, "From: %s\n", orPlaceholder(email.From))
	fmt.Fprintf(&b, "To: %s\n", orPlaceholder(email.To))
	fmt.Fprintf(&b, "Date: %s\n", orPlaceholder(email.Date))
	fmt.Fprintf(&b, "Subject: %s\n", orPlaceholder(email.Subject))
	b.WriteString("\n--- Body ---\n")
	b.WriteString(Truncate(email.Body))

	if len(email.Thread) > 0 {
		b.WriteString("\n\n--- Thread ---")
		for i, item := range email.Thread {
			fmt.Fprintf(&b, "\n%d. From: %s | Subject: %s | Date: %s",
				i+1,
				orPlaceholder(item.From),
				orPlaceholder(item.Subject),
				orPlaceholder(item.Date))
			if body := Truncate(item.Body); body != "" {
				b.WriteString("\n" + body)
			}
		}
	}
	return b.String()
}

// EventList renders events as one line per event.
func EventList(events []calendar.EventSummary) string {
	if len(events) == 0 {
		return "No events found."
	}

	var b strings.Builder
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s", i+1, Event(event))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Event renders a single event summary.
func Event(event calendar.EventSummary) string {
	var parts []string
	switch {
	case event.AllDay && !event.Start.IsZero():
		parts = append(parts, "All day on "+event.Start.Format("2006-01-02"))
	case !event.Start.IsZero() && !event.End.IsZero():
		parts = append(parts, fmt.Sprintf("%s to %s",
			event.Start.Format(time.RFC3339), event.End.Format(time.RFC3339)))
	default:
		parts = append(parts, placeholder)
	}
	parts = append(parts, orPlaceholder(event.Title))
	if len(event.Attendees) > 0 {
		parts = append(parts, "attendees: "+strings.Join(event.Attendees, ", "))
	}
	if event.Location != "" {
		parts = append(parts, "location: "+event.Location)
	}
	if event.ID != "" {
		parts = append(parts, "id: "+event.ID)
	}
	return strings.Join(parts, " - ")
}

// BusyRanges renders conflicts for an availability check.
func BusyRanges(busy []calendar.TimeRange) string {
	if len(busy) == 0 {
		return ""
	}
	items := make([]string, 0, len(busy))
	for _, r := range busy {
		items = append(items, fmt.Sprintf("%s to %s",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339)))
	}
	return strings.Join(items, ", ")
}

// FreeSlots renders available slots one per line.
func FreeSlots(slots []calendar.FreeSlot) string {
	lines := make([]string, 0, len(slots))
	for _, slot := range slots {
		lines = append(lines, fmt.Sprintf("%s to %s",
			slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339)))
	}
	return strings.Join(lines, "\n")
}
