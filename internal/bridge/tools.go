package bridge

import (
	"context"
	"fmt"
	"sort"
)

// Name identifies a tool in the closed tool set exposed to the agent runtime.
type Name string

const (
	ToolListEmails        Name = "list_emails"
	ToolGetEmail          Name = "get_email"
	ToolSearchEmails      Name = "search_emails"
	ToolDraftReply        Name = "draft_reply"
	ToolSendEmail         Name = "send_email"
	ToolGetSchedule       Name = "get_schedule"
	ToolCheckAvailability Name = "check_availability"
	ToolFindFreeSlots     Name = "find_free_slots"
	ToolCreateEvent       Name = "create_event"
	ToolDeleteEvent       Name = "delete_event"
)

var knownTools = map[Name]bool{
	ToolListEmails:        true,
	ToolGetEmail:          true,
	ToolSearchEmails:      true,
	ToolDraftReply:        true,
	ToolSendEmail:         true,
	ToolGetSchedule:       true,
	ToolCheckAvailability: true,
	ToolFindFreeSlots:     true,
	ToolCreateEvent:       true,
	ToolDeleteEvent:       true,
}

// KnownTool reports whether name is part of the fixed tool enumeration.
func KnownTool(name string) bool {
	return knownTools[Name(name)]
}

// SideEffecting reports whether the tool mutates provider state. These tools
// are never retried on ambiguous failure.
func (n Name) SideEffecting() bool {
	return n == ToolSendEmail || n == ToolCreateEvent || n == ToolDeleteEvent
}

// Tools returns the closed tool set in stable order.
func Tools() []Name {
	names := make([]Name, 0, len(knownTools))
	for n := range knownTools {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Handler executes one tool call for a session. Arguments arrive as the
// decoded JSON object from the agent runtime. Handlers return a ToolResult
// for every outcome the agent should see; an error return is reserved for
// internal failures that the instrumented wrapper turns into a failure
// string.
type Handler func(ctx context.Context, sessionID string, args map[string]interface{}) (ToolResult, error)

// Registry maps the closed tool enumeration to strongly typed handlers.
// Registration of a name outside the enumeration fails; dispatch of an
// unknown name never reaches a handler.
type Registry struct {
	handlers map[Name]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Name]Handler)}
}

// Register binds a handler to a tool name.
func (r *Registry) Register(name Name, h Handler) error {
	if !knownTools[name] {
		return fmt.Errorf("unknown tool name %q", name)
	}
	if h == nil {
		return fmt.Errorf("nil handler for tool %q", name)
	}
	if _, dup := r.handlers[name]; dup {
		return fmt.Errorf("tool %q registered twice", name)
	}
	r.handlers[name] = h
	return nil
}

// Dispatch validates the name against the enumeration and invokes the bound
// handler. Unknown or unregistered names yield InvalidArgument without any
// provider contact.
func (r *Registry) Dispatch(ctx context.Context, name, sessionID string, args map[string]interface{}) (ToolResult, error) {
	h, ok := r.handlers[Name(name)]
	if !ok || !knownTools[Name(name)] {
		return ToolResult{}, InvalidArgumentf("unknown tool %q", name)
	}
	return h(ctx, sessionID, args)
}

// Registered returns the names with bound handlers, in stable order.
func (r *Registry) Registered() []Name {
	names := make([]Name, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
