package github

import (
	"net/http"
	"strings"
	"time"

	"github.com/douhashi/steward/internal/logger"
)

// loggingRoundTripper はGitHub APIとの通信をデバッグログに出力するラウンドトリッパー
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logger.Logger
	now    func() time.Time
}

func newLoggingRoundTripper(base http.RoundTripper, log logger.Logger) *loggingRoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = logger.Nop()
	}
	return &loggingRoundTripper{base: base, logger: log, now: time.Now}
}

// RoundTrip はリクエストを実行し、リクエストとレスポンスの概要をログ出力する
func (rt *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := rt.now()
	rt.logRequest(req)

	resp, err := rt.base.RoundTrip(req)
	elapsed := rt.now().Sub(start)

	if err != nil {
		rt.logger.Debug("GitHub API request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	rt.logResponse(req, resp, elapsed)
	return resp, nil
}

func (rt *loggingRoundTripper) logRequest(req *http.Request) {
	fields := []interface{}{
		"method", req.Method,
		"url", req.URL.String(),
	}
	if auth := req.Header.Get("Authorization"); auth != "" {
		fields = append(fields, "authorization", maskAuthHeader(auth))
	}
	if ua := req.Header.Get("User-Agent"); ua != "" {
		fields = append(fields, "user_agent", ua)
	}
	rt.logger.Debug("GitHub API request", fields...)
}

func (rt *loggingRoundTripper) logResponse(req *http.Request, resp *http.Response, elapsed time.Duration) {
	fields := []interface{}{
		"method", req.Method,
		"url", req.URL.String(),
		"status_code", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		fields = append(fields, "rate_limit_remaining", remaining)
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		fields = append(fields, "rate_limit_reset", reset)
	}
	rt.logger.Debug("GitHub API response", fields...)
}

// maskAuthHeader はAuthorizationヘッダーのスキームだけを残してマスキングする
func maskAuthHeader(auth string) string {
	if auth == "" {
		return ""
	}
	if scheme, _, ok := strings.Cut(auth, " "); ok {
		return scheme + " [REDACTED]"
	}
	return "[REDACTED]"
}
