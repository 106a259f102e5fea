package rpc

import (
	"errors"
	"testing"

	"github.com/hiverpc/hiverpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseError(t *testing.T, body string) *common.JsonRpcError {
	t.Helper()
	resp, err := common.ParseJsonRpcResponse([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestRenderRpcError(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "NoStackUsesMessage",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"Assert Exception"}}`,
			want: "Assert Exception",
		},
		{
			name: "FormatWithPlaceholders",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"raw","data":{"stack":[{"format":"${name} has ${amount}","data":{"name":"alice","amount":"1.000 HIVE"}}]}}}`,
			want: "alice has 1.000 HIVE",
		},
		{
			name: "MissingKeyKeepsPlaceholder",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"raw","data":{"stack":[{"format":"unknown ${who}","data":{}}]}}}`,
			want: "unknown ${who}",
		},
		{
			name: "LeftoversInNodeOrder",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"raw","data":{"stack":[{"format":"missing authority","data":{"zeta":"z","alpha":1,"mid":true}}]}}}`,
			want: "missing authority zeta=z alpha=1 mid=true",
		},
		{
			name: "ObjectsAreCompactJson",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"raw","data":{"stack":[{"format":"op ${op}","data":{"op":{"a": [1, 2],  "b":null}}}]}}}`,
			want: `op {"a":[1,2],"b":null}`,
		},
		{
			name: "FalsyValuesAreSubstituted",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"raw","data":{"stack":[{"format":"[${n}][${s}][${b}]","data":{"n":0,"s":"","b":false}}]}}}`,
			want: "[0][][false]",
		},
		{
			name: "RepeatedPlaceholder",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"raw","data":{"stack":[{"format":"${x} and ${x}","data":{"x":"y"}}]}}}`,
			want: "y and y",
		},
		{
			name: "EmptyStackUsesMessage",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"plain","data":{"stack":[]}}}`,
			want: "plain",
		},
		{
			name: "NonObjectDataUsesMessage",
			body: `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"plain","data":"oops"}}`,
			want: "plain",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := renderRpcError(parseError(t, tc.body))
			var rpcErr *common.ErrRPC
			require.True(t, errors.As(err, &rpcErr))
			assert.Equal(t, tc.want, err.Error())
			assert.Equal(t, -32000, rpcErr.RpcCode)
		})
	}

	t.Run("RawDataAttached", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"raw","data":{"code":10,"name":"assert_exception","stack":[{"format":"x","data":{}}]}}}`
		err := renderRpcError(parseError(t, body))
		var rpcErr *common.ErrRPC
		require.True(t, errors.As(err, &rpcErr))
		assert.Equal(t, "assert_exception", rpcErr.Data["name"])
		assert.True(t, common.HasErrorCode(err, common.ErrCodeRPC))
	})
}
