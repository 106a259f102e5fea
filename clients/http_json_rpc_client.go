package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/util"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBodySize = 64 * 1024 * 1024

// HttpJsonRpcClient performs exactly one POST of a JSON-RPC body to one node.
type HttpJsonRpcClient interface {
	SendRequest(ctx context.Context, node string, body []byte) (*Response, error)
}

// Response is the raw body of a successful attempt.
type Response struct {
	Node       string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

type GenericHttpJsonRpcClient struct {
	logger          *zerolog.Logger
	httpClient      *http.Client
	headers         map[string]string
	userAgent       string
	enableGzip      bool
	isLogLevelTrace bool
}

func NewGenericHttpJsonRpcClient(logger *zerolog.Logger, cfg *common.HttpClientConfig) *GenericHttpJsonRpcClient {
	c := common.HttpClientConfig{}
	if cfg != nil {
		c = *cfg
	}
	c.SetDefaults()

	lg := logger.With().Str("component", "httpJsonRpcClient").Logger()
	client := &GenericHttpJsonRpcClient{
		logger:          &lg,
		headers:         c.Headers,
		userAgent:       c.UserAgent,
		enableGzip:      c.EnableGzip,
		isLogLevelTrace: lg.GetLevel() == zerolog.TraceLevel,
	}

	if util.IsTest() {
		client.httpClient = &http.Client{}
	} else {
		client.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        256,
				MaxIdleConnsPerHost: c.MaxIdleConnsPerHost,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return client
}

// SendRequest posts body to node. A 2xx answer is a success; so is an HTTP 500 whose body
// is a well formed JSON-RPC envelope, since some node software reports application errors
// that way. Every other outcome is returned as an error that already carries its ErrorKind.
func (c *GenericHttpJsonRpcClient) SendRequest(ctx context.Context, node string, body []byte) (*Response, error) {
	ctx, span := common.StartSpan(ctx, "HttpJsonRpcClient.SendRequest",
		trace.WithAttributes(
			attribute.String("node", util.RedactEndpoint(node)),
		),
	)
	defer span.End()

	parsedUrl, err := url.Parse(node)
	if err != nil {
		err = common.NewErrEndpointTransportFailure(nil, common.KindUnknown, "", err)
		common.SetTraceSpanError(span, err)
		return nil, err
	}

	httpReq, err := c.prepareRequest(ctx, parsedUrl, body)
	if err != nil {
		err = common.NewErrEndpointTransportFailure(parsedUrl, common.KindUnknown, "", err)
		common.SetTraceSpanError(span, err)
		return nil, err
	}

	if c.isLogLevelTrace {
		c.logger.Trace().Str("host", parsedUrl.Host).RawJSON("request", body).Msg("sending json rpc POST request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = c.normalizeTransportError(ctx, parsedUrl, start, err)
		common.SetTraceSpanError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := readResponseBody(resp)
	dur := time.Since(start)
	if err != nil {
		kind, code := ClassifyError(err)
		if kind == common.KindUnknown {
			kind, code = common.KindMalformedResponse, ""
		}
		err = common.NewErrEndpointTransportFailure(parsedUrl, kind, code, fmt.Errorf("cannot read response body: %w", err))
		common.SetTraceSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug().Str("host", parsedUrl.Host).Int("statusCode", resp.StatusCode).
		Int("bodySize", len(respBody)).Dur("duration", dur).Msg("received json rpc response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{Node: node, StatusCode: resp.StatusCode, Body: respBody, Duration: dur}, nil
	}

	if resp.StatusCode == http.StatusInternalServerError && common.IsEnvelope(respBody) {
		c.logger.Debug().Str("host", parsedUrl.Host).Msg("accepting json-rpc envelope returned with HTTP 500")
		return &Response{Node: node, StatusCode: resp.StatusCode, Body: respBody, Duration: dur}, nil
	}

	err = common.NewErrEndpointHttpStatus(resp.StatusCode, resp.Status, respBody)
	common.SetTraceSpanError(span, err)
	return nil, err
}

func (c *GenericHttpJsonRpcClient) normalizeTransportError(ctx context.Context, u *url.URL, start time.Time, err error) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ctx.Err()
	}
	c.logger.Debug().Err(err).AnErr("contextError", cause).Str("host", u.Host).Msg("transport failure while sending request")

	kind, code := ClassifyError(err)
	switch kind {
	case common.KindCanceled:
		return common.NewErrEndpointRequestCanceled(err)
	case common.KindTimeout:
		if code == "timeout" {
			return common.NewErrEndpointRequestTimeout(time.Since(start), err)
		}
	}
	return common.NewErrEndpointTransportFailure(u, kind, code, err)
}

func (c *GenericHttpJsonRpcClient) prepareRequest(ctx context.Context, u *url.URL, body []byte) (*http.Request, error) {
	var bodyReader io.Reader = bytes.NewReader(body)

	if c.enableGzip {
		compressed, err := util.GzipCompress(body)
		if err != nil {
			return nil, err
		}
		if c.isLogLevelTrace {
			c.logger.Trace().
				Int("originalSize", len(body)).
				Int("compressedSize", len(compressed)).
				Msg("compressed request body")
		}
		bodyReader = bytes.NewReader(compressed)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	httpReq.Header.Set("Accept-Encoding", "gzip")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if c.enableGzip {
		httpReq.Header.Set("Content-Encoding", "gzip")
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	common.InjectHTTPRequestTraceContext(ctx, httpReq)

	return httpReq, nil
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		zr, err := util.GzipReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error creating gzip reader: %w", err)
		}
		defer zr.Close()
		reader = zr
	}
	return io.ReadAll(io.LimitReader(reader, maxResponseBodySize))
}
