package util

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactEndpoint(t *testing.T) {
	t.Run("PlainHostIsKept", func(t *testing.T) {
		assert.Equal(t, "https://api.hive.blog", RedactEndpoint("https://api.hive.blog"))
		assert.Equal(t, "https://api.hive.blog", RedactEndpoint("https://api.hive.blog/"))
	})

	t.Run("QueryIsHashed", func(t *testing.T) {
		out := RedactEndpoint("https://rpc.example.com/?apikey=secret")
		assert.NotContains(t, out, "secret")
		assert.Contains(t, out, "https://rpc.example.com#hash=")
	})

	t.Run("SameInputSameHash", func(t *testing.T) {
		a := RedactEndpoint("https://user:pw@rpc.example.com/x")
		b := RedactEndpoint("https://user:pw@rpc.example.com/x")
		assert.Equal(t, a, b)
		assert.NotContains(t, a, "pw")
	})

	t.Run("GarbageReturnsHashOnly", func(t *testing.T) {
		out := RedactEndpoint("not a url")
		assert.Len(t, out, 16)
	})
}

func TestGzipRoundTrip(t *testing.T) {
	in := []byte(`{"jsonrpc":"2.0","id":0,"result":{"head_block_number":1}}`)
	compressed, err := GzipCompress(in)
	assert.NoError(t, err)

	r, err := GzipReader(bytes.NewReader(compressed))
	assert.NoError(t, err)
	defer r.Close()

	out, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, in, out)
}
