package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistkit/inboxbridge/internal/calendar"
	"github.com/assistkit/inboxbridge/internal/gmail"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("  short  "))
	assert.Equal(t, "", Truncate("   "))

	long := strings.Repeat("a", SnippetBudget+50)
	got := Truncate(long)
	assert.Equal(t, SnippetBudget+1, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))

	exact := strings.Repeat("b", SnippetBudget)
	assert.Equal(t, exact, Truncate(exact))
}

func TestTruncate_MultiByte(t *testing.T) {
	// Runes are never split mid-sequence.
	long := strings.Repeat("ü", SnippetBudget+10)
	got := Truncate(long)
	assert.Equal(t, SnippetBudget+1, len([]rune(got)))
	assert.Equal(t, strings.Repeat("ü", SnippetBudget)+"…", got)
}

func TestEmailList(t *testing.T) {
	assert.Equal(t, "No emails found.", EmailList(nil))

	emails := []gmail.EmailSummary{
		{
			ID:      "m-1",
			From:    "Ana Souza <ana@example.com>",
			Subject: "Quick question",
			Date:    "Mon, 05 Jan 2026 09:30:00 +0000",
			Snippet: "Do you have\na minute?",
			Unread:  true,
		},
		{
			ID:      "m-2",
			Subject: "Weekly digest",
		},
	}

	out := EmailList(emails)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[0], "1. [ID: m-1]"))
	assert.Contains(t, lines[0], "unread")
	assert.Contains(t, lines[0], "Preview: Do you have a minute?", "newlines collapse to spaces")

	assert.True(t, strings.HasPrefix(lines[1], "2. [ID: m-2]"))
	assert.Contains(t, lines[1], "From: (unknown)")
	assert.Contains(t, lines[1], "read")
}

func TestFullEmail(t *testing.T) {
	assert.Equal(t, "Email: (unknown)", FullEmail(nil))

	email := &gmail.Email{
		EmailSummary: gmail.EmailSummary{
			From:    "ana@example.com",
			To:      "me@example.com",
			Date:    "Mon, 05 Jan 2026 09:30:00 +0000",
			Subject: "Quick question",
		},
		Body: "Do you have a minute today?",
	}

	out := FullEmail(email)
	assert.Contains(t, out, "From: ana@example.com")
	assert.Contains(t, out, "--- Body ---\nDo you have a minute today?")
	assert.NotContains(t, out, "--- Thread ---")
}

func TestFullEmail_WithThread(t *testing.T) {
	email := &gmail.Email{
		EmailSummary: gmail.EmailSummary{From: "ana@example.com", Subject: "Re: plans"},
		Body:         "Final answer.",
		Thread: []gmail.Email{
			{EmailSummary: gmail.EmailSummary{From: "me@example.com", Subject: "plans"}, Body: "First message."},
			{EmailSummary: gmail.EmailSummary{From: "ana@example.com", Subject: "Re: plans"}},
		},
	}

	out := FullEmail(email)
	assert.Contains(t, out, "--- Thread ---")
	assert.Contains(t, out, "1. From: me@example.com")
	assert.Contains(t, out, "First message.")
	assert.Contains(t, out, "2. From: ana@example.com")
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestEvent(t *testing.T) {
	timed := calendar.EventSummary{
		ID:        "ev-1",
		Title:     "Team sync",
		Start:     mustTime(t, "2026-01-05T10:00:00Z"),
		End:       mustTime(t, "2026-01-05T10:30:00Z"),
		Location:  "Room 4",
		Attendees: []string{"ana@example.com", "bo@example.com"},
	}
	out := Event(timed)
	assert.Contains(t, out, "2026-01-05T10:00:00Z to 2026-01-05T10:30:00Z")
	assert.Contains(t, out, "Team sync")
	assert.Contains(t, out, "attendees: ana@example.com, bo@example.com")
	assert.Contains(t, out, "location: Room 4")
	assert.Contains(t, out, "id: ev-1")

	allDay := calendar.EventSummary{
		Title:  "Holiday",
		Start:  mustTime(t, "2026-01-06T00:00:00Z"),
		AllDay: true,
	}
	assert.Contains(t, Event(allDay), "All day on 2026-01-06")

	bare := calendar.EventSummary{}
	out = Event(bare)
	assert.Contains(t, out, "(unknown)")
}

func TestEventList(t *testing.T) {
	assert.Equal(t, "No events found.", EventList(nil))

	events := []calendar.EventSummary{
		{Title: "One", Start: mustTime(t, "2026-01-05T10:00:00Z"), End: mustTime(t, "2026-01-05T11:00:00Z")},
		{Title: "Two", Start: mustTime(t, "2026-01-05T12:00:00Z"), End: mustTime(t, "2026-01-05T13:00:00Z")},
	}
	out := EventList(events)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1. "))
	assert.True(t, strings.HasPrefix(lines[1], "2. "))
}

func TestBusyRanges(t *testing.T) {
	assert.Equal(t, "", BusyRanges(nil))

	busy := []calendar.TimeRange{
		{Start: mustTime(t, "2026-01-05T10:00:00Z"), End: mustTime(t, "2026-01-05T11:00:00Z")},
		{Start: mustTime(t, "2026-01-05T14:00:00Z"), End: mustTime(t, "2026-01-05T15:00:00Z")},
	}
	assert.Equal(t,
		"2026-01-05T10:00:00Z to 2026-01-05T11:00:00Z, 2026-01-05T14:00:00Z to 2026-01-05T15:00:00Z",
		BusyRanges(busy))
}

func TestFreeSlots(t *testing.T) {
	assert.Equal(t, "", FreeSlots(nil))

	slots := []calendar.FreeSlot{
		{Start: mustTime(t, "2026-01-05T09:00:00Z"), End: mustTime(t, "2026-01-05T10:00:00Z")},
		{Start: mustTime(t, "2026-01-05T11:00:00Z"), End: mustTime(t, "2026-01-05T18:00:00Z")},
	}
	out := FreeSlots(slots)
	assert.Equal(t,
		"2026-01-05T09:00:00Z to 2026-01-05T10:00:00Z\n2026-01-05T11:00:00Z to 2026-01-05T18:00:00Z",
		out)
}
