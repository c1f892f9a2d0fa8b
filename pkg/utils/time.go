package utils

import (
	"fmt"
	"time"
)

// time.go - timestamp helpers used to stamp opportunities and format
// durations in logs.

// UnixMillis returns the current time as Unix milliseconds.
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis converts Unix milliseconds to a UTC time.Time.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// UnixMicros returns the current time as Unix microseconds.
func UnixMicros() int64 {
	return time.Now().UnixMicro()
}

// FromUnixMicros converts Unix microseconds to a UTC time.Time.
func FromUnixMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// ToUTC normalizes t to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// FormatDuration renders d in a compact human form (e.g. "1h2m3s",
// "450ms") suitable for log lines.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}
