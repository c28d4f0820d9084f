package calendar

import (
	"sort"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventInput describes a new calendar event.
type EventInput struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// EventSummary is the read-only projection of a calendar event the bridge
// exposes to the agent.
type EventSummary struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	AllDay    bool
	Location  string
	Attendees []string
}

// TimeRange is a half-open [Start, End) interval.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two ranges intersect.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// FreeSlot is an open interval during which all queried attendees are free.
type FreeSlot struct {
	Start time.Time
	End   time.Time
}

// Duration returns the slot length.
func (s FreeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}
	s := EventSummary{
		ID:       event.Id,
		Title:    event.Summary,
		Location: event.Location,
	}
	if event.Start != nil {
		switch {
		case event.Start.DateTime != "":
			if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
				s.Start = t
			}
		case event.Start.Date != "":
			if t, err := time.Parse("2006-01-02", event.Start.Date); err == nil {
				s.Start = t
				s.AllDay = true
			}
		}
	}
	if event.End != nil {
		switch {
		case event.End.DateTime != "":
			if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
				s.End = t
			}
		case event.End.Date != "":
			if t, err := time.Parse("2006-01-02", event.End.Date); err == nil {
				s.End = t
			}
		}
	}
	for _, att := range event.Attendees {
		if att != nil && att.Email != "" {
			s.Attendees = append(s.Attendees, att.Email)
		}
	}
	return s
}

// mergeBusy sorts and coalesces overlapping busy ranges into a disjoint,
// ordered list.
func mergeBusy(busy []TimeRange) []TimeRange {
	if len(busy) == 0 {
		return nil
	}
	sorted := make([]TimeRange, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// gapsBetween derives the free slots of at least minDuration inside
// [windowStart, windowEnd) given a merged busy list.
func gapsBetween(busy []TimeRange, windowStart, windowEnd time.Time, minDuration time.Duration) []FreeSlot {
	var slots []FreeSlot
	cursor := windowStart
	for _, b := range busy {
		if b.Start.After(cursor) && b.Start.Sub(cursor) >= minDuration {
			slots = append(slots, FreeSlot{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if windowEnd.After(cursor) && windowEnd.Sub(cursor) >= minDuration {
		slots = append(slots, FreeSlot{Start: cursor, End: windowEnd})
	}
	return slots
}
