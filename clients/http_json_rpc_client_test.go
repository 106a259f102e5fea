package clients

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/util"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	util.ConfigureTestLogger()
}

const testNode = "http://rpc1.localhost:8090"

var testBody = []byte(`{"id":0,"jsonrpc":"2.0","method":"condenser_api.get_dynamic_global_properties","params":[]}`)

func TestHttpJsonRpcClient_SendRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			MatchHeader("Content-Type", "application/json").
			BodyString(string(testBody)).
			Reply(200).
			JSON(map[string]interface{}{"jsonrpc": "2.0", "id": 0, "result": map[string]interface{}{"head_block_number": 100}})

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		resp, err := client.SendRequest(context.Background(), testNode, testBody)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, testNode, resp.Node)
		assert.Contains(t, string(resp.Body), `"head_block_number":100`)
		assert.True(t, gock.IsDone())
	})

	t.Run("CustomHeadersAndUserAgent", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			MatchHeader("X-Api-Key", "secret").
			MatchHeader("User-Agent", "my-app/1.0").
			Reply(200).
			BodyString(`{"jsonrpc":"2.0","id":0,"result":true}`)

		client := NewGenericHttpJsonRpcClient(&log.Logger, &common.HttpClientConfig{
			Headers:   map[string]string{"X-Api-Key": "secret"},
			UserAgent: "my-app/1.0",
		})
		_, err := client.SendRequest(context.Background(), testNode, testBody)
		require.NoError(t, err)
		assert.True(t, gock.IsDone())
	})

	t.Run("GzipRequestBody", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			MatchHeader("Content-Encoding", "gzip").
			Reply(200).
			BodyString(`{"jsonrpc":"2.0","id":0,"result":true}`)

		client := NewGenericHttpJsonRpcClient(&log.Logger, &common.HttpClientConfig{EnableGzip: true})
		_, err := client.SendRequest(context.Background(), testNode, testBody)
		require.NoError(t, err)
	})

	t.Run("GzipResponseBody", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		compressed, err := util.GzipCompress([]byte(`{"jsonrpc":"2.0","id":0,"result":"ok"}`))
		require.NoError(t, err)
		gock.New(testNode).
			Post("/").
			Reply(200).
			SetHeader("Content-Encoding", "gzip").
			Body(bytes.NewReader(compressed))

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		resp, err := client.SendRequest(context.Background(), testNode, testBody)
		require.NoError(t, err)
		assert.Equal(t, `{"jsonrpc":"2.0","id":0,"result":"ok"}`, string(resp.Body))
	})

	t.Run("Http500WithEnvelopeIsSuccess", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			Reply(500).
			BodyString(`{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"Assert Exception"}}`)

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		resp, err := client.SendRequest(context.Background(), testNode, testBody)
		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	})

	t.Run("Http500WithoutEnvelopeIsHttpStatus", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			Reply(500).
			BodyString(`<html>Internal Server Error</html>`)

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		_, err := client.SendRequest(context.Background(), testNode, testBody)
		require.Error(t, err)
		assert.Equal(t, common.KindHttpStatus, common.KindOf(err))
		assert.Contains(t, err.Error(), "HTTP 500")
	})

	t.Run("Http503IsHttpStatus", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			Reply(503).
			BodyString(`{"jsonrpc":"2.0","id":0,"error":{"code":-32000,"message":"overloaded"}}`)

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		_, err := client.SendRequest(context.Background(), testNode, testBody)

		var hs *common.ErrEndpointHttpStatus
		require.True(t, errors.As(err, &hs))
		assert.Equal(t, 503, hs.StatusCode)
		assert.True(t, common.KindOf(err).IsFailoverEligible())
		assert.False(t, common.KindOf(err).IsPreConnection())
	})

	t.Run("ConnectionRefusedIsPreConnection", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			ReplyError(&net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)})

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		_, err := client.SendRequest(context.Background(), testNode, testBody)

		require.Error(t, err)
		assert.Equal(t, common.KindPreConnection, common.KindOf(err))
		assert.Equal(t, "ECONNREFUSED", common.ErrorCodeOf(err))
	})

	t.Run("ContextTimeoutIsTimeout", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			Reply(200).
			Delay(500 * time.Millisecond).
			BodyString(`{"jsonrpc":"2.0","id":0,"result":true}`)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		_, err := client.SendRequest(ctx, testNode, testBody)

		require.Error(t, err)
		assert.Equal(t, common.KindTimeout, common.KindOf(err))
		assert.True(t, common.HasErrorCode(err, common.ErrCodeEndpointRequestTimeout))
	})

	t.Run("CanceledContextIsCanceled", func(t *testing.T) {
		util.ResetGock()
		defer util.ResetGock()

		gock.New(testNode).
			Post("/").
			Reply(200).
			Delay(500 * time.Millisecond).
			BodyString(`{"jsonrpc":"2.0","id":0,"result":true}`)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		client := NewGenericHttpJsonRpcClient(&log.Logger, nil)
		_, err := client.SendRequest(ctx, testNode, testBody)

		require.Error(t, err)
		assert.Equal(t, common.KindCanceled, common.KindOf(err))
		assert.False(t, common.KindOf(err).IsFailoverEligible())
	})
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind common.ErrorKind
		code string
	}{
		{"Nil", nil, common.KindNone, ""},
		{"DnsNotFound", &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true}, common.KindPreConnection, "ENOTFOUND"},
		{"DnsTemporary", &net.DNSError{Err: "server misbehaving", Name: "x", IsTemporary: true}, common.KindPreConnection, "EAI_AGAIN"},
		{"Refused", &url.Error{Op: "Post", URL: testNode, Err: syscall.ECONNREFUSED}, common.KindPreConnection, "ECONNREFUSED"},
		{"HostUnreachable", fmt.Errorf("dial: %w", syscall.EHOSTUNREACH), common.KindPreConnection, "EHOSTUNREACH"},
		{"NetUnreachable", fmt.Errorf("dial: %w", syscall.ENETUNREACH), common.KindPreConnection, "ENETUNREACH"},
		{"Reset", fmt.Errorf("read: %w", syscall.ECONNRESET), common.KindConnectionReset, "ECONNRESET"},
		{"BrokenPipe", fmt.Errorf("write: %w", syscall.EPIPE), common.KindConnectionReset, "EPIPE"},
		{"UnexpectedEOF", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), common.KindConnectionReset, "ECONNRESET"},
		{"ContextDeadline", context.DeadlineExceeded, common.KindTimeout, "timeout"},
		{"Canceled", context.Canceled, common.KindCanceled, ""},
		{"CertExpired", x509.CertificateInvalidError{Reason: x509.Expired}, common.KindTLS, "CERT_HAS_EXPIRED"},
		{"UnknownAuthority", x509.UnknownAuthorityError{}, common.KindTLS, "UNABLE_TO_VERIFY_LEAF_SIGNATURE"},
		{"MalformedHttp", errors.New("net/http: HTTP/1.x transport connection broken: malformed HTTP response"), common.KindProtocol, "EPROTO"},
		{"Unknown", errors.New("unsupported protocol scheme \"ftp\""), common.KindUnknown, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, code := ClassifyError(tc.err)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.code, code)
		})
	}
}
