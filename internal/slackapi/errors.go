package slackapi

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/slack-go/slack"
)

// ConnError is a transient network or transport fault. The session loop
// retries these under its flap-detection policy.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// AuthError is a rejected or invalid credential. It is fatal: the
// session terminates immediately with the service's error text.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// API error strings Slack returns for credential problems.
var authErrorCodes = map[string]bool{
	"invalid_auth":     true,
	"not_authed":       true,
	"account_inactive": true,
	"token_revoked":    true,
	"token_expired":    true,
	"no_permission":    true,
	"missing_scope":    true,
}

// Classify maps a raw slack-go error into the dashboard's taxonomy.
// Credential rejections become AuthError; everything else, including
// rate limits and server-side hiccups, becomes ConnError so the outer
// retry loop handles it. A nil error stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		if authErrorCodes[apiErr.Err] {
			return &AuthError{Err: err}
		}
		return &ConnError{Err: err}
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return &ConnError{Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &ConnError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ConnError{Err: err}
	}

	return &ConnError{Err: err}
}

// IsTransient reports whether err is a retryable connection fault.
func IsTransient(err error) bool {
	var connErr *ConnError
	return errors.As(err, &connErr)
}

// IsAuth reports whether err is a fatal credential rejection.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
