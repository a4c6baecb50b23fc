package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v50/github"

	"github.com/douhashi/steward/internal/tracker"
)

// ErrorType represents the type of GitHub API error
type ErrorType int

const (
	// ErrorTypeRateLimit indicates rate limit exceeded
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeNetworkTimeout indicates network timeout
	ErrorTypeNetworkTimeout
	// ErrorTypeAuthentication indicates authentication failure
	ErrorTypeAuthentication
	// ErrorTypeNotFound indicates resource not found
	ErrorTypeNotFound
	// ErrorTypeServerError indicates server error (5xx)
	ErrorTypeServerError
	// ErrorTypeUnknown indicates unknown error type
	ErrorTypeUnknown
)

// String returns the string representation of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "RateLimit"
	case ErrorTypeNetworkTimeout:
		return "NetworkTimeout"
	case ErrorTypeAuthentication:
		return "Authentication"
	case ErrorTypeNotFound:
		return "NotFound"
	case ErrorTypeServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// APIError represents a classified GitHub API error
type APIError struct {
	Type        ErrorType
	StatusCode  int
	Message     string
	RetryAfter  time.Duration
	OriginalErr error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("GitHub API error [%s]: %s (original: %v)", e.Type, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("GitHub API error [%s]: %s", e.Type, e.Message)
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.OriginalErr
}

// Is は NotFound を tracker.ErrNotFound として扱う
func (e *APIError) Is(target error) bool {
	return target == tracker.ErrNotFound && e.Type == ErrorTypeNotFound
}

// IsRetryable returns true if the error is worth retrying by the caller.
// The adapter itself never retries.
func (e *APIError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeNetworkTimeout, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRateLimitError checks if the error is a rate limit error
func IsRateLimitError(err error) bool {
	return hasType(err, ErrorTypeRateLimit)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsAuthenticationError checks if the error is an authentication error
func IsAuthenticationError(err error) bool {
	return hasType(err, ErrorTypeAuthentication)
}

func hasType(err error, t ErrorType) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == t
	}
	return false
}

// ClassifyError converts an error returned by go-github into an *APIError.
// Structured responses are classified by status code; anything else falls
// back to the message text.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		e := &APIError{
			Type:        ErrorTypeRateLimit,
			StatusCode:  statusOf(rateErr.Response),
			Message:     rateErr.Message,
			OriginalErr: err,
		}
		if reset := rateErr.Rate.Reset.Time; !reset.IsZero() {
			if d := time.Until(reset); d > 0 {
				e.RetryAfter = d
			}
		}
		return e
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		e := &APIError{
			Type:        ErrorTypeRateLimit,
			StatusCode:  statusOf(abuseErr.Response),
			Message:     abuseErr.Message,
			OriginalErr: err,
		}
		if abuseErr.RetryAfter != nil {
			e.RetryAfter = *abuseErr.RetryAfter
		}
		return e
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		status := statusOf(respErr.Response)
		return &APIError{
			Type:        typeFromStatus(status),
			StatusCode:  status,
			Message:     respErr.Message,
			OriginalErr: err,
		}
	}

	return ParseError(err.Error(), err)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func typeFromStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorTypeAuthentication
	case status == http.StatusNotFound || status == http.StatusGone:
		return ErrorTypeNotFound
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTypeNetworkTimeout
	case status >= 500 && status < 600:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
