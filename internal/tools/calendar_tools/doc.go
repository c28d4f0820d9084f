// Package calendar_tools implements the scheduling half of the tool
// surface: reading the user's schedule, checking availability, finding
// free slots, and creating or deleting events in Google Calendar.
package calendar_tools
