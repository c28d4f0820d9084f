package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/calendar"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/server"
	"github.com/assistkit/inboxbridge/internal/tools/common"
)

func handleCreateEvent(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		title, err := common.RequiredString(args, "title")
		if err != nil {
			return bridge.ToolResult{}, err
		}
		start, end, err := common.TimeRangeArgs(args, "start_time", "end_time")
		if err != nil {
			return bridge.ToolResult{}, err
		}
		attendees, err := common.StringList(args, "attendees")
		if err != nil {
			return bridge.ToolResult{}, err
		}
		for _, attendee := range attendees {
			if err := common.ValidEmail("attendees", attendee); err != nil {
				return bridge.ToolResult{}, err
			}
		}

		client, err := sc.CalendarClientForSession(ctx, sessionID, google.ScopeCalendarEvents)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		created, err := client.CreateEvent(ctx, calendar.EventInput{
			Title:       title,
			Description: common.OptionalString(args, "description", ""),
			Location:    common.OptionalString(args, "location", ""),
			Start:       start,
			End:         end,
			Attendees:   attendees,
		})
		if err != nil {
			return bridge.ToolResult{}, err
		}

		result := fmt.Sprintf("Event created: %s (%s to %s)",
			title, start.Format(time.RFC3339), end.Format(time.RFC3339))
		if len(attendees) > 0 {
			result += " with attendees: " + strings.Join(attendees, ", ")
		}
		if created.ID != "" {
			result += ". Event ID: " + created.ID + "."
		}
		return bridge.Success(result), nil
	}
}

func handleDeleteEvent(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		eventID, err := common.RequiredString(args, "event_id")
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.CalendarClientForSession(ctx, sessionID, google.ScopeCalendarEvents)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		if err := client.DeleteEvent(ctx, eventID); err != nil {
			return bridge.ToolResult{}, err
		}
		return bridge.Success(fmt.Sprintf("Deleted event %s.", eventID)), nil
	}
}
