package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindForCode(t *testing.T) {
	tests := []struct {
		code string
		want ErrorKind
	}{
		{"", KindHttpStatus},
		{"ENOTFOUND", KindPreConnection},
		{"ECONNREFUSED", KindPreConnection},
		{"EAI_AGAIN", KindPreConnection},
		{"ETIMEDOUT", KindTimeout},
		{"timeout", KindTimeout},
		{"ECONNRESET", KindConnectionReset},
		{"EPIPE", KindConnectionReset},
		{"CERT_HAS_EXPIRED", KindTLS},
		{"EPROTO", KindProtocol},
		{"database lock", KindProtocol},
		{"EWHATEVER", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, KindForCode(tt.code))
		})
	}
}

func TestErrorKind_Eligibility(t *testing.T) {
	assert.True(t, KindPreConnection.IsPreConnection())
	assert.False(t, KindTimeout.IsPreConnection())
	assert.False(t, KindHttpStatus.IsPreConnection())

	for _, k := range []ErrorKind{KindPreConnection, KindTimeout, KindConnectionReset, KindTLS, KindProtocol, KindHttpStatus, KindMalformedResponse} {
		assert.True(t, k.IsFailoverEligible(), k.String())
	}
	for _, k := range []ErrorKind{KindNone, KindCanceled, KindUnknown} {
		assert.False(t, k.IsFailoverEligible(), k.String())
	}
}

func TestPreConnectionCodesAreFailoverCodes(t *testing.T) {
	for code := range PreConnectionErrorCodes {
		_, ok := FailoverErrorCodes[code]
		assert.True(t, ok, "%s missing from failover codes", code)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindTLS, KindOf(NewErrEndpointTransportFailure(nil, KindTLS, "CERT_HAS_EXPIRED", nil)))
	assert.Equal(t, KindTimeout, KindOf(NewErrEndpointRequestTimeout(time.Second, nil)))
	assert.Equal(t, KindHttpStatus, KindOf(NewErrEndpointHttpStatus(502, "Bad Gateway", nil)))
	assert.Equal(t, KindMalformedResponse, KindOf(NewErrMalformedResponse(errors.New("eof"), "n")))
	assert.Equal(t, KindCanceled, KindOf(NewErrEndpointRequestCanceled(nil)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
}

func TestErrorCodeOf(t *testing.T) {
	assert.Equal(t, "", ErrorCodeOf(nil))
	assert.Equal(t, "ECONNRESET", ErrorCodeOf(NewErrEndpointTransportFailure(nil, KindConnectionReset, "ECONNRESET", nil)))
	assert.Equal(t, "timeout", ErrorCodeOf(NewErrEndpointRequestTimeout(time.Second, nil)))
	assert.Equal(t, ErrCodeRPC, ErrorCodeOf(NewErrRPC(-32000, "x", nil)))
	assert.Equal(t, "", ErrorCodeOf(errors.New("plain")))
}
