package github

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Regular expressions for classifying unstructured error messages
	rateLimitRegex   = regexp.MustCompile(`(?i)(rate limit|API rate limit exceeded|You have exceeded a secondary rate limit)`)
	notFoundRegex    = regexp.MustCompile(`(?i)(not found|could not resolve to)`)
	authRegex        = regexp.MustCompile(`(?i)(authentication|unauthorized|bad credentials|requires authentication)`)
	networkRegex     = regexp.MustCompile(`(?i)(timeout|connection refused|connection reset|no such host|dial tcp)`)
	serverErrorRegex = regexp.MustCompile(`(?i)(internal server error|server error|bad gateway|service unavailable)`)
	httpStatusRegex  = regexp.MustCompile(`\b([1-5]\d{2})\b`)
	retryAfterRegex  = regexp.MustCompile(`(?i)retry.?after:\s*(\d+)`)
)

// ParseError classifies an error by its message. It is the fallback for
// transport errors that carry no HTTP response.
func ParseError(message string, err error) *APIError {
	apiErr := &APIError{
		Message:     strings.TrimSpace(message),
		OriginalErr: err,
	}

	if matches := httpStatusRegex.FindStringSubmatch(message); len(matches) > 1 {
		if code, convErr := strconv.Atoi(matches[1]); convErr == nil && code >= 400 {
			apiErr.StatusCode = code
		}
	}

	switch {
	case rateLimitRegex.MatchString(message):
		apiErr.Type = ErrorTypeRateLimit
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = 429
		}
		if matches := retryAfterRegex.FindStringSubmatch(message); len(matches) > 1 {
			if seconds, convErr := strconv.Atoi(matches[1]); convErr == nil {
				apiErr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}

	case authRegex.MatchString(message):
		apiErr.Type = ErrorTypeAuthentication
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = 401
		}

	case notFoundRegex.MatchString(message):
		apiErr.Type = ErrorTypeNotFound
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = 404
		}

	case networkRegex.MatchString(message):
		apiErr.Type = ErrorTypeNetworkTimeout

	case serverErrorRegex.MatchString(message):
		apiErr.Type = ErrorTypeServerError
		if apiErr.StatusCode == 0 {
			apiErr.StatusCode = 500
		}

	default:
		apiErr.Type = typeFromStatus(apiErr.StatusCode)
	}

	return apiErr
}
