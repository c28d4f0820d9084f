package calendar_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/format"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/server"
	"github.com/assistkit/inboxbridge/internal/tools/common"
)

func handleGetSchedule(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		date, err := common.OptionalDate(args, "date", time.Time{})
		if err != nil {
			return bridge.ToolResult{}, err
		}
		if date.IsZero() {
			return bridge.ToolResult{}, bridge.InvalidArgumentf("date is required")
		}
		days, err := common.IntInRange(args, "days", defaultScheduleDays, 1, maxScheduleDays)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.CalendarClientForSession(ctx, sessionID, google.ScopeCalendarEvents)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, days)
		events, err := client.ListEvents(ctx, start, end)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		if len(events) == 0 {
			return bridge.Success(fmt.Sprintf("No events found from %s for %d day(s).", start.Format("2006-01-02"), days)), nil
		}
		header := fmt.Sprintf("Schedule from %s for %d day(s):", start.Format("2006-01-02"), days)
		return bridge.Success(header + "\n" + format.EventList(events)), nil
	}
}

func handleCheckAvailability(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		start, end, err := common.TimeRangeArgs(args, "start_time", "end_time")
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.CalendarClientForSession(ctx, sessionID, google.ScopeCalendar)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		busy, err := client.QueryFreeBusy(ctx, nil, start, end)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		if len(busy) == 0 {
			return bridge.Success(fmt.Sprintf("Free from %s to %s.",
				start.Format(time.RFC3339), end.Format(time.RFC3339))), nil
		}
		return bridge.Success("Not available. Conflicts: " + format.BusyRanges(busy) + "."), nil
	}
}

func handleFindFreeSlots(sc *server.ServerContext) bridge.Handler {
	return func(ctx context.Context, sessionID string, args map[string]interface{}) (bridge.ToolResult, error) {
		date, err := common.OptionalDate(args, "date", time.Time{})
		if err != nil {
			return bridge.ToolResult{}, err
		}
		if date.IsZero() {
			return bridge.ToolResult{}, bridge.InvalidArgumentf("date is required")
		}
		minutes, err := common.IntInRange(args, "duration_minutes", defaultSlotMinutes, minSlotMinutes, maxSlotMinutes)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		client, err := sc.CalendarClientForSession(ctx, sessionID, google.ScopeCalendar)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		windowStart := time.Date(date.Year(), date.Month(), date.Day(), workingHourStart, 0, 0, 0, time.UTC)
		windowEnd := time.Date(date.Year(), date.Month(), date.Day(), workingHourEnd, 0, 0, 0, time.UTC)
		slots, err := client.FindFreeSlots(ctx, nil, windowStart, windowEnd, time.Duration(minutes)*time.Minute)
		if err != nil {
			return bridge.ToolResult{}, err
		}

		day := date.Format("2006-01-02")
		if len(slots) == 0 {
			return bridge.Success(fmt.Sprintf("No free slots on %s for %d minutes.", day, minutes)), nil
		}
		header := fmt.Sprintf("Free slots on %s for %d minutes:", day, minutes)
		return bridge.Success(header + "\n" + format.FreeSlots(slots)), nil
	}
}
