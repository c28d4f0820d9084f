package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/assistkit/inboxbridge/internal/bridge"
)

const (
	defaultCallTimeout = 30 * time.Second

	// primaryCalendar is the only calendar the bridge operates on.
	primaryCalendar = "primary"
)

// Recorder observes one completed provider call. A nil error means the call
// succeeded.
type Recorder func(ctx context.Context, operation string, duration time.Duration, err error)

// Client wraps the Calendar service for a single access token.
type Client struct {
	svc     *calendar.Service
	timeout time.Duration
	record  Recorder
}

// NewClient creates a Calendar client authenticated with the given token.
func NewClient(ctx context.Context, token *oauth2.Token) (*Client, error) {
	svc, err := calendar.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, timeout: defaultCallTimeout}, nil
}

// SetTimeout overrides the per-call timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// SetRecorder installs a recorder invoked after every provider operation.
func (c *Client) SetRecorder(r Recorder) {
	c.record = r
}

// observe reports one finished operation to the recorder. Meant to run
// deferred with start captured at method entry.
func (c *Client) observe(ctx context.Context, operation string, start time.Time, err *error) {
	if c.record != nil {
		c.record(ctx, operation, time.Since(start), *err)
	}
}

// ListEvents lists the primary calendar's events in [timeMin, timeMax),
// expanded to single instances and ordered by start time.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) (_ []EventSummary, err error) {
	defer c.observe(ctx, "calendar.list", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.svc.Events.List(primaryCalendar).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(callCtx).Do()
	if err != nil {
		return nil, bridge.FromGoogleAPI("calendar.list", err)
	}

	summaries := make([]EventSummary, 0, len(res.Items))
	for _, event := range res.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// CreateEvent inserts a new event on the primary calendar and returns its
// summary. Attendees are invited with updates sent. Timeouts here are
// ambiguous: the event may already have been created.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (_ *EventSummary, err error) {
	defer c.observe(ctx, "calendar.create", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Location:    input.Location,
		Start:       &calendar.EventDateTime{DateTime: input.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: input.End.Format(time.RFC3339)},
	}
	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	call := c.svc.Events.Insert(primaryCalendar, event)
	if len(input.Attendees) > 0 {
		call = call.SendUpdates("all")
	}

	created, err := call.Context(callCtx).Do()
	if err != nil {
		return nil, bridge.FromGoogleAPISideEffect("calendar.create", err)
	}
	summary := toEventSummary(created)
	return &summary, nil
}

// DeleteEvent removes an event from the primary calendar. Deleting an id
// that is already gone succeeds: the desired state holds either way.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (err error) {
	defer c.observe(ctx, "calendar.delete", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err = c.svc.Events.Delete(primaryCalendar, eventID).
		SendUpdates("all").
		Context(callCtx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
			return nil
		}
		return bridge.FromGoogleAPISideEffect("calendar.delete", err)
	}
	return nil
}

// QueryFreeBusy returns the merged busy ranges across the given attendee
// calendars in [timeMin, timeMax). The session's primary calendar is always
// included.
func (c *Client) QueryFreeBusy(ctx context.Context, attendees []string, timeMin, timeMax time.Time) (_ []TimeRange, err error) {
	defer c.observe(ctx, "calendar.freebusy", time.Now(), &err)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	items := []*calendar.FreeBusyRequestItem{{Id: primaryCalendar}}
	for _, a := range attendees {
		items = append(items, &calendar.FreeBusyRequestItem{Id: a})
	}

	res, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}).Context(callCtx).Do()
	if err != nil {
		return nil, bridge.FromGoogleAPI("calendar.freebusy", err)
	}

	var busy []TimeRange
	for _, cal := range res.Calendars {
		for _, b := range cal.Busy {
			start, err := time.Parse(time.RFC3339, b.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, b.End)
			if err != nil {
				continue
			}
			busy = append(busy, TimeRange{Start: start, End: end})
		}
	}
	return mergeBusy(busy), nil
}

// FindFreeSlots derives the gaps of at least minDuration where every queried
// attendee is free within [windowStart, windowEnd).
func (c *Client) FindFreeSlots(ctx context.Context, attendees []string, windowStart, windowEnd time.Time, minDuration time.Duration) ([]FreeSlot, error) {
	busy, err := c.QueryFreeBusy(ctx, attendees, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return gapsBetween(busy, windowStart, windowEnd, minDuration), nil
}
