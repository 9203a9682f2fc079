package state

import (
	"fmt"
	"strconv"
	"time"
)

// FormatMillis encodes t as epoch milliseconds, the format used for every stored expiry
func FormatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// ParseMillis decodes an epoch milliseconds string written by FormatMillis
func ParseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing epoch millis %q: %w", s, err)
	}
	return time.UnixMilli(ms), nil
}
