package rpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic/ast"
	"github.com/hiverpc/hiverpc/clients"
	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/health"
	"github.com/hiverpc/hiverpc/upstream"
	"github.com/hiverpc/hiverpc/util"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Every request carries the same id; responses are checked against it.
const requestId = 0

type Option func(*Client)

// WithTracker shares a health tracker between clients. By default every client owns one.
func WithTracker(t *health.Tracker) Option {
	return func(c *Client) {
		c.tracker = t
	}
}

// WithHttpClient replaces the single attempt transport.
func WithHttpClient(h clients.HttpJsonRpcClient) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

func WithFailoverOptions(opts ...upstream.FailoverOption) Option {
	return func(c *Client) {
		c.failoverOpts = append(c.failoverOpts, opts...)
	}
}

// Client issues JSON-RPC calls against a pool of Hive nodes.
type Client struct {
	logger       *zerolog.Logger
	cfg          *common.ClientConfig
	chainId      []byte
	tracker      *health.Tracker
	httpClient   clients.HttpJsonRpcClient
	failover     *upstream.Failover
	failoverOpts []upstream.FailoverOption
	limiter      *rate.Limiter
	backoff      upstream.BackoffFunc

	mu             sync.RWMutex
	currentAddress string
}

func NewClient(logger *zerolog.Logger, cfg *common.ClientConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, common.NewErrInvalidConfig("client config is required")
	}
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chainId, err := hex.DecodeString(cfg.ChainId)
	if err != nil || len(chainId) != 32 {
		return nil, common.NewErrInvalidConfig("invalid chain id")
	}

	lg := logger.With().Str("component", "rpcClient").Logger()
	c := &Client{
		logger:         &lg,
		cfg:            cfg,
		chainId:        chainId,
		currentAddress: cfg.Nodes[0],
		backoff:        upstream.NewBackoff(cfg.Backoff),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tracker == nil {
		c.tracker = health.NewTracker(logger, cfg.Health)
	}
	if c.httpClient == nil {
		c.httpClient = clients.NewGenericHttpJsonRpcClient(logger, cfg.Http)
	}
	c.failover = upstream.NewFailover(logger, c.httpClient, c.failoverOpts...)

	if cfg.RateLimit != nil {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), burst)
	}

	lg.Debug().Object("config", cfg).Msg("rpc client initialized")
	return c, nil
}

// Testnet returns a client for the public test network. Nodes given in cfg win over the
// default testnet node.
func Testnet(logger *zerolog.Logger, cfg *common.ClientConfig, opts ...Option) (*Client, error) {
	c := common.ClientConfig{}
	if cfg != nil {
		c = *cfg
	}
	if len(c.Nodes) == 0 {
		c.Nodes = []string{common.TestnetNode}
	}
	c.ChainId = common.TestnetChainId
	c.AddressPrefix = common.TestnetAddressPrefix
	return NewClient(logger, &c, opts...)
}

func (c *Client) ChainId() []byte {
	return append([]byte(nil), c.chainId...)
}

func (c *Client) AddressPrefix() string {
	return c.cfg.AddressPrefix
}

func (c *Client) Tracker() *health.Tracker {
	return c.tracker
}

func (c *Client) Config() *common.ClientConfig {
	return c.cfg
}

// CurrentAddress is the node that answered the last successful call.
func (c *Client) CurrentAddress() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentAddress
}

// Call sends api.method with params and returns the raw JSON result. Broadcast methods
// are recognized through the configured patterns.
func (c *Client) Call(ctx context.Context, api, method string, params interface{}) ([]byte, error) {
	return c.Send(ctx, NewRequest(c.cfg.BroadcastMethods, api, method, params))
}

// CallInto is Call followed by decoding the result into out.
func (c *Client) CallInto(ctx context.Context, api, method string, params interface{}, out interface{}) error {
	result, err := c.Call(ctx, api, method, params)
	if err != nil {
		return err
	}
	return decodeResult(result, out)
}

// SendInto is Send followed by decoding the result into out.
func (c *Client) SendInto(ctx context.Context, req Request, out interface{}) error {
	result, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	return decodeResult(result, out)
}

func decodeResult(result []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	if err := common.SonicCfg.Unmarshal(result, out); err != nil {
		return fmt.Errorf("cannot decode rpc result: %w", err)
	}
	return nil
}

// Send performs one logical request through the failover transport.
func (c *Client) Send(ctx context.Context, req Request) ([]byte, error) {
	method := fullMethod(req)
	ctx, span := common.StartSpan(ctx, "Client.Send",
		trace.WithAttributes(
			attribute.String("request.method", method),
			attribute.Bool("request.broadcast", req.IsBroadcast()),
		),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			err = common.NewErrEndpointRequestCanceled(err)
			common.SetTraceSpanError(span, err)
			return nil, err
		}
	}

	body, err := c.buildEnvelope(req)
	if err != nil {
		common.SetTraceSpanError(span, err)
		return nil, err
	}
	if common.IsTracingDetailed {
		span.SetAttributes(attribute.String("request.body", util.TruncateString(string(body), 1024)))
	}

	freq := &upstream.FailoverRequest{
		CurrentAddress:    c.CurrentAddress(),
		Addresses:         c.cfg.Nodes,
		Body:              body,
		Timeout:           c.cfg.Timeout.Duration(),
		FailoverThreshold: *c.cfg.FailoverThreshold,
		Backoff:           c.backoff,
		Retry: upstream.RetryContext{
			Tracker:           c.tracker,
			Api:               req.Api(),
			IsBroadcast:       req.IsBroadcast(),
			ConsoleOnFailover: c.cfg.ConsoleOnFailover,
		},
	}
	if !req.IsBroadcast() && !c.cfg.AttemptTimeout.Disabled {
		freq.FetchTimeout = upstream.ReadAttemptTimeout(c.cfg.AttemptTimeout.Step.Duration())
	}

	res, err := c.failover.Execute(ctx, freq)
	if err != nil {
		common.SetTraceSpanError(span, err)
		return nil, err
	}

	if common.IsTracingDetailed {
		span.SetAttributes(attribute.String("node", util.RedactEndpoint(res.CurrentAddress)))
	}

	c.mu.Lock()
	if res.CurrentAddress != c.currentAddress {
		c.logger.Debug().Str("previous", util.RedactEndpoint(c.currentAddress)).
			Str("current", util.RedactEndpoint(res.CurrentAddress)).Msg("active node changed")
		c.currentAddress = res.CurrentAddress
	}
	c.mu.Unlock()

	result, err := c.interpret(req, res.CurrentAddress, res.Response.Body)
	if err != nil {
		common.SetTraceSpanError(span, err)
		return nil, err
	}
	return result, nil
}

func (c *Client) buildEnvelope(req Request) ([]byte, error) {
	params := req.Params()
	if params == nil {
		params = []interface{}{}
	}
	body, err := common.SonicCfg.Marshal(&common.JsonRpcRequest{
		ID:      requestId,
		JSONRPC: common.JsonRpcVersion,
		Method:  fullMethod(req),
		Params:  common.HexifyParams(params),
	})
	if err != nil {
		return nil, common.NewErrRequestPreparation(err, fullMethod(req))
	}
	return body, nil
}

// interpret unwraps a response body that the transport already accepted.
func (c *Client) interpret(req Request, node string, body []byte) ([]byte, error) {
	resp, err := common.ParseJsonRpcResponse(body)
	if err != nil {
		return nil, common.NewErrMalformedResponse(err, util.RedactEndpoint(node))
	}

	if resp.Error != nil {
		if isApiUnavailable(resp.Error) {
			c.tracker.RecordApiFailure(node, req.Api())
		}
		c.logger.Debug().Str("node", util.RedactEndpoint(node)).Str("method", fullMethod(req)).
			Object("response", resp).Msg("node returned json-rpc error")
		return nil, renderRpcError(resp.Error)
	}

	if !resp.IdMatches(requestId) {
		return nil, common.NewErrResponseIdMismatch(requestId, resp.ID)
	}

	if strings.HasSuffix(req.Method(), "get_dynamic_global_properties") {
		c.observeHeadBlock(node, resp.Result)
	}

	return resp.Result, nil
}

func (c *Client) observeHeadBlock(node string, result []byte) {
	head, err := headBlockNumber(result)
	if err != nil {
		c.logger.Trace().Err(err).Msg("could not read head_block_number from dynamic global properties")
		return
	}
	c.tracker.UpdateHeadBlock(node, head)
}

func headBlockNumber(result []byte) (int64, error) {
	n, err := ast.NewSearcher(string(result)).GetByPath("head_block_number")
	if err != nil {
		return 0, err
	}
	return n.Int64()
}

var apiUnavailableMessages = []string{
	"could not find api",
	"could not find method",
	"plugin not enabled",
	"method not found",
}

// isApiUnavailable reports errors meaning the node does not serve this api at all,
// as opposed to the request itself being wrong.
func isApiUnavailable(jrErr *common.JsonRpcError) bool {
	if jrErr.Code == common.JsonRpcErrorMethodNotFound {
		return true
	}
	msg := strings.ToLower(jrErr.Message)
	for _, m := range apiUnavailableMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
