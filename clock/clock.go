// Package clock is a leaf package with no internal dependencies. It provides
// the monotonic instant source used for exact time accounting and the
// wall-clock helpers used for minute-bucketing and day-sharding.
package clock

import "time"

// Instant is an opaque monotonic point in time, comparable only to other
// Instants produced by the same Clock. It must never be serialized or
// derived from wall-clock arithmetic.
type Instant struct {
	t time.Time
}

// Sub returns the duration elapsed between two instants (i - other).
// Negative durations are possible if other is after i; callers that need
// only forward elapsed time should clamp to zero.
func (i Instant) Sub(other Instant) time.Duration {
	return i.t.Sub(other.t)
}

// IsZero reports whether this is the zero Instant (process-start sentinel).
func (i Instant) IsZero() bool {
	return i.t.IsZero()
}

// Clock is the sole source of time for the collector core. Production code
// uses the real system clock; tests inject a fake to drive deterministic
// scenarios without sleeping.
type Clock interface {
	// Now returns the current monotonic instant.
	Now() Instant
	// NowMs returns the current UTC wall-clock time in milliseconds.
	NowMs() int64
	// CurrentMinute returns the current local-time minute bucket key in the
	// form "YYYY-MM-DD HH:MM".
	CurrentMinute() string
	// CurrentDate returns the current local calendar date in the form
	// "YYYY-MM-DD", used for daily shard file names.
	CurrentDate() string
}

// SystemClock is the production Clock backed by the Go runtime's monotonic
// and wall clocks.
type SystemClock struct{}

// NewSystemClock returns the production Clock.
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now returns the current monotonic instant.
func (SystemClock) Now() Instant {
	return Instant{t: time.Now()}
}

// NowMs returns the current UTC wall-clock time in milliseconds.
func (SystemClock) NowMs() int64 {
	return time.Now().UTC().UnixMilli()
}

// CurrentMinute returns the current local-time minute bucket key.
func (SystemClock) CurrentMinute() string {
	return time.Now().Local().Format("2006-01-02 15:04")
}

// CurrentDate returns the current local calendar date.
func (SystemClock) CurrentDate() string {
	return time.Now().Local().Format("2006-01-02")
}

// MsToLocalDate converts a UTC millisecond timestamp to its local calendar
// date, used to group persisted rows and chunks by day for sharding.
func MsToLocalDate(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02")
}
