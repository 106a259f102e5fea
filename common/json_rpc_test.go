package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJsonRpcResponse(t *testing.T) {
	t.Run("Result", func(t *testing.T) {
		resp, err := ParseJsonRpcResponse([]byte(`{"jsonrpc":"2.0","id":0,"result":{"head_block_number":42}}`))
		require.NoError(t, err)
		assert.Nil(t, resp.Error)
		assert.JSONEq(t, `{"head_block_number":42}`, string(resp.Result))
		assert.True(t, resp.IdMatches(0))
	})

	t.Run("NullResultIsKept", func(t *testing.T) {
		resp, err := ParseJsonRpcResponse([]byte(`{"jsonrpc":"2.0","id":0,"result":null}`))
		require.NoError(t, err)
		assert.Equal(t, "null", string(resp.Result))
	})

	t.Run("ErrorWithData", func(t *testing.T) {
		resp, err := ParseJsonRpcResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"Assert Exception","data":{"code":10,"stack":[]}}}`))
		require.NoError(t, err)
		require.NotNil(t, resp.Error)
		assert.Equal(t, -32000, resp.Error.Code)
		assert.Equal(t, "Assert Exception", resp.Error.Message)
		assert.Equal(t, `{"code":10,"stack":[]}`, resp.Error.RawData())
		assert.Contains(t, resp.Error.Data, "stack")
	})

	t.Run("ErrorDataNotAnObject", func(t *testing.T) {
		resp, err := ParseJsonRpcResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"bad","data":"details here"}}`))
		require.NoError(t, err)
		assert.Equal(t, `"details here"`, resp.Error.Data["value"])
	})

	t.Run("ErrorNotAnObject", func(t *testing.T) {
		resp, err := ParseJsonRpcResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":"node is syncing"}`))
		require.NoError(t, err)
		assert.Equal(t, JsonRpcErrorServerSide, resp.Error.Code)
		assert.Equal(t, `"node is syncing"`, resp.Error.Message)
	})

	t.Run("NullErrorIsIgnored", func(t *testing.T) {
		resp, err := ParseJsonRpcResponse([]byte(`{"jsonrpc":"2.0","id":1,"error":null,"result":[]}`))
		require.NoError(t, err)
		assert.Nil(t, resp.Error)
	})

	t.Run("Rejects", func(t *testing.T) {
		for _, body := range []string{
			``,
			`<html>502 Bad Gateway</html>`,
			`[{"jsonrpc":"2.0","id":0,"result":1}]`,
			`{"jsonrpc":"2.0","id":0}`,
			`{"jsonrpc":"2.0","id":0,"error":{"code":"abc"}}`,
		} {
			_, err := ParseJsonRpcResponse([]byte(body))
			assert.Error(t, err, body)
		}
	})
}

func TestJsonRpcResponse_IdMatches(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		reqId interface{}
		want  bool
	}{
		{"SameInt", `{"jsonrpc":"2.0","id":0,"result":1}`, 0, true},
		{"IntAndFloat", `{"jsonrpc":"2.0","id":7.0,"result":1}`, 7, true},
		{"StringVsNumber", `{"jsonrpc":"2.0","id":"0","result":1}`, 0, false},
		{"SameString", `{"jsonrpc":"2.0","id":"abc","result":1}`, "abc", true},
		{"Different", `{"jsonrpc":"2.0","id":2,"result":1}`, 1, false},
		{"MissingId", `{"jsonrpc":"2.0","result":1}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseJsonRpcResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.IdMatches(tt.reqId))
		})
	}
}

func TestIsEnvelope(t *testing.T) {
	assert.True(t, IsEnvelope([]byte(`{"jsonrpc":"2.0","id":0,"result":null}`)))
	assert.True(t, IsEnvelope([]byte(`{"jsonrpc":"2.0","id":0,"error":{"code":-32603,"message":"x"}}`)))
	assert.False(t, IsEnvelope([]byte(`{"jsonrpc":"1.0","id":0,"result":1}`)))
	assert.False(t, IsEnvelope([]byte(`{"jsonrpc":"2.0","id":0}`)))
	assert.False(t, IsEnvelope([]byte(`Internal Server Error`)))
	assert.False(t, IsEnvelope([]byte(`"2.0"`)))
}

func TestHasJsonRpcError(t *testing.T) {
	assert.True(t, HasJsonRpcError([]byte(`{"jsonrpc":"2.0","id":0,"error":{"code":-32601,"message":"Could not find API bridge"}}`)))
	assert.True(t, HasJsonRpcError([]byte(`{"jsonrpc":"2.0","id":0,"error":"boom"}`)))
	assert.False(t, HasJsonRpcError([]byte(`{"jsonrpc":"2.0","id":0,"result":{"error":1}}`)))
	assert.False(t, HasJsonRpcError([]byte(`{"jsonrpc":"2.0","id":0,"result":1,"error":null}`)))
	assert.False(t, HasJsonRpcError([]byte(`[{"error":1}]`)))
	assert.False(t, HasJsonRpcError([]byte(`not json`)))
}
