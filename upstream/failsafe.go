package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/timeout"
	"github.com/hiverpc/hiverpc/clients"
	"github.com/hiverpc/hiverpc/common"
)

// executeWithTimeout runs one attempt under a failsafe timeout policy. The attempt sees a
// context that is canceled when the policy fires, so the HTTP call is torn down too.
func executeWithTimeout(
	ctx context.Context,
	d time.Duration,
	fn func(ctx context.Context) (*clients.Response, error),
) (*clients.Response, error) {
	if d <= 0 {
		return fn(ctx)
	}

	policy := timeout.Builder[*clients.Response](d).Build()
	resp, err := failsafe.NewExecutor[*clients.Response](policy).
		WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[*clients.Response]) (*clients.Response, error) {
			return fn(exec.Context())
		})

	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	return resp, translateFailsafeError(d, err)
}

func translateFailsafeError(d time.Duration, execErr error) error {
	if execErr == nil {
		return nil
	}
	if errors.Is(execErr, timeout.ErrExceeded) {
		return common.NewErrEndpointRequestTimeout(d, execErr)
	}
	// the parent is still alive, so the cancellation came from the policy
	if common.HasErrorCode(execErr, common.ErrCodeEndpointRequestCanceled) {
		return common.NewErrEndpointRequestTimeout(d, execErr)
	}
	return execErr
}
