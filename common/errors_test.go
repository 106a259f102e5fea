package common

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasErrorCode_NestedErrors(t *testing.T) {
	t.Run("FindsCodeInNestedError", func(t *testing.T) {
		inner := NewErrEndpointHttpStatus(502, "Bad Gateway", nil)
		exhausted := NewErrNodesExhausted([]string{"https://a"}, 3, inner)

		assert.True(t, HasErrorCode(exhausted, ErrCodeNodesExhausted))
		assert.True(t, HasErrorCode(exhausted, ErrCodeEndpointHttpStatus))
		assert.False(t, HasErrorCode(exhausted, ErrCodeRPC))
	})

	t.Run("WalksThroughFmtWrapping", func(t *testing.T) {
		err := fmt.Errorf("calling node: %w", NewErrMalformedResponse(errors.New("eof"), "https://a"))
		assert.True(t, HasErrorCode(err, ErrCodeRPC, ErrCodeMalformedResponse))
	})

	t.Run("NilError", func(t *testing.T) {
		assert.False(t, HasErrorCode(nil, ErrCodeRPC))
	})
}

func TestBaseError_Rendering(t *testing.T) {
	err := NewErrFailoverTimeout(2*time.Second, 4, NewErrEndpointHttpStatus(503, "Service Unavailable", nil))

	assert.Contains(t, err.Error(), "ErrFailoverTimeout: gave up after 4 attempts")
	assert.Contains(t, err.Error(), "-> ErrEndpointHttpStatus")

	var se StandardError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "ErrFailoverTimeout <- ErrEndpointHttpStatus", se.Base().CodeChain())
}

func TestErrRPC_MessageOnly(t *testing.T) {
	err := NewErrRPC(-32000, "Bad Cast: Invalid cast from string_type to Array", map[string]interface{}{"code": 7})

	assert.Equal(t, "Bad Cast: Invalid cast from string_type to Array", err.Error())
	var rpcErr *ErrRPC
	assert.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, -32000, rpcErr.RpcCode)
	assert.Equal(t, 7, rpcErr.Data["code"])
}

func TestErrNodesExhausted_Summary(t *testing.T) {
	tests := []struct {
		name    string
		lastErr error
		want    string
	}{
		{
			name:    "TransportCode",
			lastErr: NewErrEndpointTransportFailure(&url.URL{Host: "a"}, KindPreConnection, "ECONNREFUSED", errors.New("refused")),
			want:    "[ECONNREFUSED] tried 2 rounds with https://a,https://b",
		},
		{
			name:    "Timeout",
			lastErr: NewErrEndpointRequestTimeout(time.Second, nil),
			want:    "[timeout] tried 2 rounds with https://a,https://b",
		},
		{
			name:    "HttpStatus",
			lastErr: NewErrEndpointHttpStatus(500, "Internal Server Error", nil),
			want:    "[HTTP 500: Internal Server Error] tried 2 rounds",
		},
		{
			name:    "NoLastError",
			lastErr: nil,
			want:    "[unknown] tried 2 rounds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewErrNodesExhausted([]string{"https://a", "https://b"}, 2, tt.lastErr)
			assert.Contains(t, err.Error(), tt.want)

			var withStatus ErrorWithStatusCode
			assert.True(t, errors.As(err, &withStatus))
			assert.Equal(t, 503, withStatus.ErrorStatusCode())
		})
	}
}

func TestErrEndpointTransportFailure_Details(t *testing.T) {
	u, _ := url.Parse("https://api.hive.blog/rpc")
	err := NewErrEndpointTransportFailure(u, KindConnectionReset, "ECONNRESET", errors.New("reset by peer"))

	var tf *ErrEndpointTransportFailure
	assert.True(t, errors.As(err, &tf))
	assert.Equal(t, "api.hive.blog", tf.Details["host"])
	assert.Equal(t, "connection-reset", tf.Details["kind"])
	assert.Equal(t, "ECONNRESET", tf.NetworkCode)
}
