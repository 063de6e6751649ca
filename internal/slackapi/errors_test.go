package slackapi

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"testing"

	"github.com/slack-go/slack"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
		wantAuth      bool
	}{
		{
			name: "nil stays nil",
			err:  nil,
		},
		{
			name:     "invalid auth is fatal",
			err:      slack.SlackErrorResponse{Err: "invalid_auth"},
			wantAuth: true,
		},
		{
			name:     "revoked token is fatal",
			err:      slack.SlackErrorResponse{Err: "token_revoked"},
			wantAuth: true,
		},
		{
			name:          "server hiccup is transient",
			err:           slack.SlackErrorResponse{Err: "internal_error"},
			wantTransient: true,
		},
		{
			name:          "rate limit is transient",
			err:           &slack.RateLimitedError{},
			wantTransient: true,
		},
		{
			name:          "network failure is transient",
			err:           &url.Error{Op: "Post", URL: "https://slack.com/api/x", Err: errors.New("connection refused")},
			wantTransient: true,
		},
		{
			name:          "unknown error is transient",
			err:           fmt.Errorf("something odd"),
			wantTransient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("Classify(nil) = %v, want nil", got)
				}
				return
			}
			if IsTransient(got) != tt.wantTransient {
				t.Errorf("IsTransient = %v, want %v", IsTransient(got), tt.wantTransient)
			}
			if IsAuth(got) != tt.wantAuth {
				t.Errorf("IsAuth = %v, want %v", IsAuth(got), tt.wantAuth)
			}
			if !errors.Is(got, tt.err) && !wrapsSame(got, tt.err) {
				t.Errorf("classified error does not wrap the original: %v", got)
			}
		})
	}
}

// wrapsSame checks the original error is reachable through Unwrap for
// error values that do not support errors.Is comparison.
func wrapsSame(wrapped, original error) bool {
	for e := wrapped; e != nil; e = errors.Unwrap(e) {
		if t := reflect.TypeOf(e); t != nil && t.Comparable() && e == original {
			return true
		}
		if e.Error() == original.Error() {
			return true
		}
	}
	return false
}

func TestClassifiedErrorsUnwrap(t *testing.T) {
	inner := errors.New("boom")

	if got := errors.Unwrap(&ConnError{Err: inner}); got != inner {
		t.Errorf("ConnError.Unwrap() = %v, want %v", got, inner)
	}
	if got := errors.Unwrap(&AuthError{Err: inner}); got != inner {
		t.Errorf("AuthError.Unwrap() = %v, want %v", got, inner)
	}
}
