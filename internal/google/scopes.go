package google

import "strings"

// Scope is a Google OAuth permission the bridge may require for a tool call.
type Scope string

const (
	ScopeGmailReadonly  Scope = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeGmailModify    Scope = "https://www.googleapis.com/auth/gmail.modify"
	ScopeGmailSend      Scope = "https://www.googleapis.com/auth/gmail.send"
	ScopeCalendar       Scope = "https://www.googleapis.com/auth/calendar"
	ScopeCalendarEvents Scope = "https://www.googleapis.com/auth/calendar.events"

	// scopeGmailFull is the umbrella Gmail scope; tokens granted it satisfy
	// every gmail.* requirement.
	scopeGmailFull = "https://mail.google.com/"
)

// DefaultOAuthScopes are requested during authorization. They cover every
// tool the bridge exposes plus the OIDC scopes needed for user info.
var DefaultOAuthScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	string(ScopeGmailReadonly),
	string(ScopeGmailModify),
	string(ScopeGmailSend),
	string(ScopeCalendar),
	string(ScopeCalendarEvents),
}

// implies maps a granted scope to the required scopes it satisfies beyond
// itself. Gmail's umbrella and modify scopes subsume the read-only scope;
// the full calendar scope subsumes the events scope.
var implies = map[string][]Scope{
	scopeGmailFull:           {ScopeGmailReadonly, ScopeGmailModify, ScopeGmailSend},
	string(ScopeGmailModify): {ScopeGmailReadonly},
	string(ScopeCalendar):    {ScopeCalendarEvents},
}

// Satisfies reports whether the granted scope set covers required. The
// granted string is the space-separated scope list as returned by Google's
// token endpoint. An empty granted set means the grant is unknown, and the
// check passes; the provider call will fail with Unauthorized if the token
// really lacks the scope.
func Satisfies(granted string, required Scope) bool {
	if strings.TrimSpace(granted) == "" {
		return true
	}
	for _, s := range strings.Fields(granted) {
		if s == string(required) {
			return true
		}
		for _, imp := range implies[s] {
			if imp == required {
				return true
			}
		}
	}
	return false
}
