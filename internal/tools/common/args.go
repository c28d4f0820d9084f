package common

import (
	"net/mail"
	"time"

	"github.com/assistkit/inboxbridge/internal/bridge"
)

// RequiredString returns the named argument, failing when it is missing or
// empty.
func RequiredString(args map[string]interface{}, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", bridge.InvalidArgumentf("%s is required", key)
	}
	return value, nil
}

// OptionalString returns the named argument or the default when absent.
func OptionalString(args map[string]interface{}, key, def string) string {
	if value, ok := args[key].(string); ok && value != "" {
		return value
	}
	return def
}

// IntInRange returns the named numeric argument clamped by validation: a
// value outside [min, max] is an error, an absent value yields the
// default. JSON numbers arrive as float64.
func IntInRange(args map[string]interface{}, key string, def, min, max int) (int, error) {
	raw, ok := args[key]
	if !ok {
		return def, nil
	}

	var value int
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, bridge.InvalidArgumentf("%s must be an integer", key)
		}
		value = int(v)
	case int:
		value = v
	default:
		return 0, bridge.InvalidArgumentf("%s must be an integer", key)
	}

	if value < min || value > max {
		return 0, bridge.InvalidArgumentf("%s must be between %d and %d", key, min, max)
	}
	return value, nil
}

// RequiredTime parses the named argument as an RFC 3339 timestamp.
func RequiredTime(args map[string]interface{}, key string) (time.Time, error) {
	value, err := RequiredString(args, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, bridge.InvalidArgumentf("%s must be an RFC 3339 timestamp, got %q", key, value)
	}
	return t, nil
}

// OptionalDate parses the named argument as a calendar date (YYYY-MM-DD),
// returning the default when absent.
func OptionalDate(args map[string]interface{}, key string, def time.Time) (time.Time, error) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return def, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, bridge.InvalidArgumentf("%s must be a date in YYYY-MM-DD form, got %q", key, value)
	}
	return t, nil
}

// ValidEmail checks that the value parses as an email address.
func ValidEmail(key, value string) error {
	if _, err := mail.ParseAddress(value); err != nil {
		return bridge.InvalidArgumentf("%s is not a valid email address: %q", key, value)
	}
	return nil
}

// TimeRangeArgs parses and orders a start/end timestamp pair.
func TimeRangeArgs(args map[string]interface{}, startKey, endKey string) (time.Time, time.Time, error) {
	start, err := RequiredTime(args, startKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := RequiredTime(args, endKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, bridge.InvalidArgumentf(
			"%s must be before %s (%s >= %s)",
			startKey, endKey, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

// StringList coerces a JSON array argument into a string slice.
func StringList(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, bridge.InvalidArgumentf("%s must be a list of strings", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, bridge.InvalidArgumentf("%s must be a list of strings, got %T", key, item)
		}
		out = append(out, s)
	}
	return out, nil
}
