package upstream

import (
	"time"

	"github.com/hiverpc/hiverpc/common"
)

// BackoffFunc returns the delay to wait before the given retry. It receives the round
// number for multi node pools and the attempt number for a single node.
type BackoffFunc func(tries int) time.Duration

// DefaultBackoff grows quadratically, min((tries*10)^2 ms, 10s).
func DefaultBackoff(tries int) time.Duration {
	if tries <= 0 {
		return 0
	}
	// the cap is reached at 10 tries already; past this the square would overflow
	if tries > 1<<15 {
		return common.DefaultBackoffMaxDelay
	}
	ms := tries * 10
	d := time.Duration(ms*ms) * time.Millisecond
	if d > common.DefaultBackoffMaxDelay || d < 0 {
		return common.DefaultBackoffMaxDelay
	}
	return d
}

// NewBackoff builds the same quadratic curve from config: min(Delay*tries^2, MaxDelay).
func NewBackoff(cfg *common.BackoffConfig) BackoffFunc {
	if cfg == nil {
		return DefaultBackoff
	}
	delay := cfg.Delay.WithDefault(common.DefaultBackoffDelay)
	maxDelay := cfg.MaxDelay.WithDefault(common.DefaultBackoffMaxDelay)
	return func(tries int) time.Duration {
		if tries <= 0 {
			return 0
		}
		// stop multiplying once the cap is reached so large tries cannot overflow
		if tries > 1<<15 {
			return maxDelay
		}
		d := delay * time.Duration(tries*tries)
		if d > maxDelay || d < 0 {
			return maxDelay
		}
		return d
	}
}

// ReadAttemptTimeout bounds attempt n of a read to (n+1)*step.
func ReadAttemptTimeout(step time.Duration) BackoffFunc {
	return func(tries int) time.Duration {
		return time.Duration(tries+1) * step
	}
}
