package calendar_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/server"
	"github.com/assistkit/inboxbridge/internal/tools/common"
)

const (
	defaultScheduleDays = 1
	maxScheduleDays     = 31

	defaultSlotMinutes = 30
	minSlotMinutes     = 1
	maxSlotMinutes     = 480
)

// Working hours bound find_free_slots. Times are UTC.
const (
	workingHourStart = 9
	workingHourEnd   = 18
)

// RegisterCalendarTools binds the scheduling tool handlers into the dispatch
// registry and exposes them on the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, reg *bridge.Registry, sc *server.ServerContext) error {
	getScheduleTool := mcp.NewTool(string(bridge.ToolGetSchedule),
		mcp.WithDescription("Get calendar events for a specific date or date range. Date format: YYYY-MM-DD"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Start date in YYYY-MM-DD form"),
		),
		mcp.WithNumber("days",
			mcp.Description("Number of days to cover (default: 1)"),
		),
	)
	if err := common.AddTool(s, reg, sc, getScheduleTool, bridge.ToolGetSchedule, handleGetSchedule(sc)); err != nil {
		return err
	}

	checkAvailabilityTool := mcp.NewTool(string(bridge.ToolCheckAvailability),
		mcp.WithDescription("Check if a specific time slot is free or has conflicts. Time format: RFC 3339 (e.g., 2026-01-15T14:00:00Z)"),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Slot start as an RFC 3339 timestamp"),
		),
		mcp.WithString("end_time",
			mcp.Required(),
			mcp.Description("Slot end as an RFC 3339 timestamp"),
		),
	)
	if err := common.AddTool(s, reg, sc, checkAvailabilityTool, bridge.ToolCheckAvailability, handleCheckAvailability(sc)); err != nil {
		return err
	}

	findFreeSlotsTool := mcp.NewTool(string(bridge.ToolFindFreeSlots),
		mcp.WithDescription("Find available time slots on a given date for a meeting of specified duration"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date to search in YYYY-MM-DD form"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description("Minimum slot length in minutes (default: 30)"),
		),
	)
	if err := common.AddTool(s, reg, sc, findFreeSlotsTool, bridge.ToolFindFreeSlots, handleFindFreeSlots(sc)); err != nil {
		return err
	}

	createEventTool := mcp.NewTool(string(bridge.ToolCreateEvent),
		mcp.WithDescription("Create a new calendar event. Optionally invite attendees by email."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Event start as an RFC 3339 timestamp"),
		),
		mcp.WithString("end_time",
			mcp.Required(),
			mcp.Description("Event end as an RFC 3339 timestamp"),
		),
		mcp.WithArray("attendees",
			mcp.Description("Attendee email addresses to invite"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
	)
	if err := common.AddTool(s, reg, sc, createEventTool, bridge.ToolCreateEvent, handleCreateEvent(sc)); err != nil {
		return err
	}

	deleteEventTool := mcp.NewTool(string(bridge.ToolDeleteEvent),
		mcp.WithDescription("Delete or cancel a calendar event by ID"),
		mcp.WithString("event_id",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
	)
	if err := common.AddTool(s, reg, sc, deleteEventTool, bridge.ToolDeleteEvent, handleDeleteEvent(sc)); err != nil {
		return err
	}

	return nil
}
