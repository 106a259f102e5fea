package upstream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hiverpc/hiverpc/clients"
	"github.com/hiverpc/hiverpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithTimeout(t *testing.T) {
	t.Run("NoLimit", func(t *testing.T) {
		resp, err := executeWithTimeout(context.Background(), 0, func(ctx context.Context) (*clients.Response, error) {
			_, hasDeadline := ctx.Deadline()
			assert.False(t, hasDeadline)
			return &clients.Response{StatusCode: 200}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("FastAttempt", func(t *testing.T) {
		resp, err := executeWithTimeout(context.Background(), time.Second, func(ctx context.Context) (*clients.Response, error) {
			return &clients.Response{StatusCode: 200}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("SlowAttemptBecomesTimeout", func(t *testing.T) {
		_, err := executeWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (*clients.Response, error) {
			<-ctx.Done()
			return nil, common.NewErrEndpointRequestCanceled(ctx.Err())
		})
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, common.ErrCodeEndpointRequestTimeout))
		assert.Equal(t, common.KindTimeout, common.KindOf(err))
	})

	t.Run("ParentCancelIsNotATimeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := executeWithTimeout(ctx, time.Second, func(ctx context.Context) (*clients.Response, error) {
			<-ctx.Done()
			return nil, common.NewErrEndpointRequestCanceled(ctx.Err())
		})
		require.Error(t, err)
		assert.False(t, common.HasErrorCode(err, common.ErrCodeEndpointRequestTimeout))
	})

	t.Run("AttemptErrorPassesThrough", func(t *testing.T) {
		boom := common.NewErrEndpointHttpStatus(502, "Bad Gateway", nil)
		_, err := executeWithTimeout(context.Background(), time.Second, func(ctx context.Context) (*clients.Response, error) {
			return nil, boom
		})
		assert.True(t, errors.Is(err, boom))
	})
}
