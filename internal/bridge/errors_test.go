package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestFromGoogleAPI_Nil(t *testing.T) {
	if err := FromGoogleAPI("gmail.list", nil); err != nil {
		t.Errorf("Expected nil for nil error, got %v", err)
	}
	if err := FromGoogleAPISideEffect("gmail.send", nil); err != nil {
		t.Errorf("Expected nil for nil error, got %v", err)
	}
}

func TestFromGoogleAPI_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		code int
		want Kind
	}{
		{"unauthorized", http.StatusUnauthorized, KindUnauthorized},
		{"forbidden", http.StatusForbidden, KindUnauthorized},
		{"not found", http.StatusNotFound, KindNotFound},
		{"gone", http.StatusGone, KindNotFound},
		{"too many requests", http.StatusTooManyRequests, KindRateLimited},
		{"bad request", http.StatusBadRequest, KindInvalidArgument},
		{"server error", http.StatusInternalServerError, KindUnavailable},
		{"bad gateway", http.StatusBadGateway, KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromGoogleAPI("calendar.list", &googleapi.Error{Code: tt.code})
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf(%d) = %s, want %s", tt.code, got, tt.want)
			}
		})
	}
}

func TestFromGoogleAPI_QuotaForbidden(t *testing.T) {
	quota := &googleapi.Error{
		Code: http.StatusForbidden,
		Errors: []googleapi.ErrorItem{
			{Reason: "userRateLimitExceeded"},
		},
	}
	if got := KindOf(FromGoogleAPI("gmail.search", quota)); got != KindRateLimited {
		t.Errorf("Expected rate_limited for quota 403, got %s", got)
	}

	permission := &googleapi.Error{
		Code: http.StatusForbidden,
		Errors: []googleapi.ErrorItem{
			{Reason: "insufficientPermissions"},
		},
	}
	if got := KindOf(FromGoogleAPI("gmail.search", permission)); got != KindUnauthorized {
		t.Errorf("Expected unauthorized for permission 403, got %s", got)
	}
}

func TestFromGoogleAPI_Timeout(t *testing.T) {
	// A timeout on a read maps to unavailable; the same timeout on a
	// side-effecting call maps to ambiguous_side_effect because the
	// provider may already have acted.
	cause := fmt.Errorf("list: %w", context.DeadlineExceeded)

	if got := KindOf(FromGoogleAPI("calendar.list", cause)); got != KindUnavailable {
		t.Errorf("Expected unavailable for read timeout, got %s", got)
	}
	if got := KindOf(FromGoogleAPISideEffect("gmail.send", cause)); got != KindAmbiguousSideEffect {
		t.Errorf("Expected ambiguous_side_effect for send timeout, got %s", got)
	}
}

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "connection reset" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return true }

func TestFromGoogleAPISideEffect_NetworkFailure(t *testing.T) {
	err := FromGoogleAPISideEffect("calendar.create", &fakeNetError{})
	if got := KindOf(err); got != KindAmbiguousSideEffect {
		t.Errorf("Expected ambiguous_side_effect for mid-flight network failure, got %s", got)
	}

	// The same network failure on a read stays retryable.
	err = FromGoogleAPI("calendar.list", &fakeNetError{})
	if got := KindOf(err); got != KindUnavailable {
		t.Errorf("Expected unavailable for read network failure, got %s", got)
	}
}

func TestFromGoogleAPI_WrapsCause(t *testing.T) {
	cause := &googleapi.Error{Code: http.StatusNotFound}
	err := FromGoogleAPI("gmail.get", cause)

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Fatal("Expected errors.As to recover the googleapi.Error cause")
	}
	if gerr.Code != http.StatusNotFound {
		t.Errorf("Expected code 404, got %d", gerr.Code)
	}
}

func TestKindOf_UnnormalizedError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnavailable {
		t.Errorf("Expected unavailable for unnormalized error, got %s", got)
	}
}

func TestIsUnauthorized(t *testing.T) {
	if !IsUnauthorized(NewError(KindUnauthorized, "gmail.list", "token rejected")) {
		t.Error("Expected IsUnauthorized for unauthorized kind")
	}
	if IsUnauthorized(InvalidArgumentf("bad args")) {
		t.Error("Expected !IsUnauthorized for invalid_argument kind")
	}
}

func TestError_Message(t *testing.T) {
	err := InvalidArgumentf("max_results must be between %d and %d", 1, 100)
	if err.Error() != "max_results must be between 1 and 100" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
	if err.Op != "" {
		t.Errorf("Validation errors must not carry an op, got %q", err.Op)
	}
}
