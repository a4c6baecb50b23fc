package helpers

import (
	"sync"
	"testing"
	"time"
)

// MustParseTime parses a time string using RFC3339 format and fails the test on error.
func MustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsedTime, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", s, err)
	}
	return parsedTime
}

// TimePtr returns a pointer to the given time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// DaysAgo は now から n 日前の時刻を返す
func DaysAgo(now time.Time, n int) time.Time {
	return now.Add(-time.Duration(n) * 24 * time.Hour)
}

// Clock is a settable clock. Its Now method can be passed wherever a
// func() time.Time is expected.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock は指定時刻で止まった時計を作成する
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now は現在の時刻を返す
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance は時計を d だけ進める
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
