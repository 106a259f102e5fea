package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestClientConfig_SetDefaults(t *testing.T) {
	cfg := &ClientConfig{Nodes: []string{"https://api.hive.blog"}}
	require.NoError(t, cfg.SetDefaults())

	assert.Equal(t, DefaultChainId, cfg.ChainId)
	assert.Equal(t, DefaultAddressPrefix, cfg.AddressPrefix)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Duration())
	assert.Equal(t, DefaultFailoverThreshold, *cfg.FailoverThreshold)
	assert.Equal(t, DefaultBackoffDelay, cfg.Backoff.Delay.Duration())
	assert.Equal(t, DefaultBackoffMaxDelay, cfg.Backoff.MaxDelay.Duration())
	assert.Equal(t, DefaultAttemptTimeoutStep, cfg.AttemptTimeout.Step.Duration())
	assert.Equal(t, DefaultMaxFailuresBeforeCooldown, cfg.Health.MaxFailuresBeforeCooldown)
	assert.Equal(t, int64(DefaultStaleBlockThreshold), cfg.Health.StaleBlockThreshold)
	assert.Equal(t, DefaultBroadcastMethods, cfg.BroadcastMethods)
	assert.Nil(t, cfg.RateLimit)
	assert.NoError(t, cfg.Validate())
}

func TestClientConfig_ExplicitZeroIsKept(t *testing.T) {
	var cfg ClientConfig
	require.NoError(t, yaml.Unmarshal([]byte(`
nodes:
  - https://api.hive.blog
timeout: 0
failoverThreshold: 0
`), &cfg))
	require.NoError(t, cfg.SetDefaults())

	assert.Equal(t, time.Duration(0), cfg.Timeout.Duration())
	assert.Equal(t, 0, *cfg.FailoverThreshold)
}

func TestClientConfig_Yaml(t *testing.T) {
	var cfg ClientConfig
	require.NoError(t, yaml.Unmarshal([]byte(`
logLevel: debug
nodes:
  - https://api.hive.blog
  - https://api.deathwing.me
timeout: 10s
failoverThreshold: 5
consoleOnFailover: true
backoff:
  delay: 50ms
  maxDelay: 2s
attemptTimeout:
  disabled: true
health:
  nodeCooldown: 5s
  staleBlockThreshold: 10
rateLimit:
  requestsPerSecond: 20
  burst: 5
http:
  enableGzip: true
  headers:
    X-Api-Key: secret
`), &cfg))
	require.NoError(t, cfg.SetDefaults())
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Nodes, 2)
	assert.Equal(t, 10*time.Second, cfg.Timeout.Duration())
	assert.Equal(t, 5, *cfg.FailoverThreshold)
	assert.True(t, cfg.ConsoleOnFailover)
	assert.Equal(t, 50*time.Millisecond, cfg.Backoff.Delay.Duration())
	assert.True(t, cfg.AttemptTimeout.Disabled)
	assert.Equal(t, 5*time.Second, cfg.Health.NodeCooldown.Duration())
	assert.Equal(t, DefaultApiCooldown, cfg.Health.ApiCooldown.Duration())
	assert.Equal(t, int64(10), cfg.Health.StaleBlockThreshold)
	assert.Equal(t, 20.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "secret", cfg.Http.Headers["X-Api-Key"])
	assert.True(t, cfg.Http.EnableGzip)
}

func TestClientConfig_Validate(t *testing.T) {
	valid := func() *ClientConfig {
		c := &ClientConfig{Nodes: []string{"https://api.hive.blog"}}
		_ = c.SetDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *ClientConfig)
		want   string
	}{
		{"NoNodes", func(c *ClientConfig) { c.Nodes = nil }, "at least one address"},
		{"BadScheme", func(c *ClientConfig) { c.Nodes = []string{"ws://api.hive.blog"} }, "http or https"},
		{"NoHost", func(c *ClientConfig) { c.Nodes = []string{"https://"} }, "no host"},
		{"Duplicate", func(c *ClientConfig) { c.Nodes = []string{"https://a.io", "https://a.io"} }, "listed twice"},
		{"ShortChainId", func(c *ClientConfig) { c.ChainId = "beeab0de" }, "chainId"},
		{"NegativeThreshold", func(c *ClientConfig) { th := -1; c.FailoverThreshold = &th }, "failoverThreshold"},
		{"BackoffOrder", func(c *ClientConfig) { c.Backoff.Delay = Duration(time.Minute) }, "backoff.delay"},
		{"NegativeStale", func(c *ClientConfig) { c.Health.StaleBlockThreshold = -1 }, "staleBlockThreshold"},
		{"EmptyPattern", func(c *ClientConfig) { c.BroadcastMethods = []string{" "} }, "empty patterns"},
		{"RateLimit", func(c *ClientConfig) { c.RateLimit = &RateLimitConfig{} }, "requestsPerSecond"},
		{"TracingEndpoint", func(c *ClientConfig) { c.Tracing = &TracingConfig{Enabled: true, Protocol: TracingProtocolGrpc} }, "tracing.endpoint"},
		{"TracingProtocol", func(c *ClientConfig) {
			c.Tracing = &TracingConfig{Enabled: true, Endpoint: "localhost:4317", Protocol: "udp"}
		}, "tracing.protocol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, HasErrorCode(err, ErrCodeInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTracingConfig_SetDefaults(t *testing.T) {
	tc := &TracingConfig{Enabled: true, Endpoint: "localhost:4317"}
	tc.SetDefaults()

	assert.Equal(t, TracingProtocolGrpc, tc.Protocol)
	assert.Equal(t, "hiverpc", tc.ServiceName)
	assert.Equal(t, 1.0, tc.SampleRate)
	assert.NoError(t, tc.Validate())

	disabled := &TracingConfig{}
	disabled.SetDefaults()
	assert.Equal(t, 0.0, disabled.SampleRate)
	assert.NoError(t, disabled.Validate())
}
