package util

import (
	"time"
)

func IntPtr(i int) *int {
	return &i
}

// TruncateString cuts s to at most n bytes, marking the cut.
func TruncateString(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// SleepCtx waits for d or until done is closed; it reports false when interrupted.
func SleepCtx(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-done:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-done:
		return false
	case <-t.C:
		return true
	}
}
