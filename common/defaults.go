package common

import (
	"time"
)

const (
	DefaultTimeout                      = 60 * time.Second
	DefaultFailoverThreshold            = 3
	DefaultBackoffDelay                 = 100 * time.Millisecond
	DefaultBackoffMaxDelay              = 10 * time.Second
	DefaultAttemptTimeoutStep           = 500 * time.Millisecond
	DefaultNodeCooldown                 = 30 * time.Second
	DefaultApiCooldown                  = 60 * time.Second
	DefaultMaxFailuresBeforeCooldown    = 3
	DefaultMaxApiFailuresBeforeCooldown = 2
	DefaultStaleBlockThreshold          = 30
	DefaultHeadBlockTTL                 = 120 * time.Second
)

// DefaultBroadcastMethods are the "<api>.<method>" patterns treated as transaction broadcasts.
var DefaultBroadcastMethods = []string{
	"network_broadcast_api.*",
	"*.broadcast_transaction*",
}

func (c *ClientConfig) SetDefaults() error {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.ChainId == "" {
		c.ChainId = DefaultChainId
	}
	if c.AddressPrefix == "" {
		c.AddressPrefix = DefaultAddressPrefix
	}
	if c.Timeout == nil {
		c.Timeout = Duration(DefaultTimeout).Ptr()
	}
	if c.FailoverThreshold == nil {
		th := DefaultFailoverThreshold
		c.FailoverThreshold = &th
	}
	if c.Backoff == nil {
		c.Backoff = &BackoffConfig{}
	}
	c.Backoff.SetDefaults()
	if c.AttemptTimeout == nil {
		c.AttemptTimeout = &AttemptTimeoutConfig{}
	}
	c.AttemptTimeout.SetDefaults()
	if c.Health == nil {
		c.Health = &HealthTrackerConfig{}
	}
	c.Health.SetDefaults()
	if len(c.BroadcastMethods) == 0 {
		c.BroadcastMethods = append([]string{}, DefaultBroadcastMethods...)
	}
	if c.Http == nil {
		c.Http = &HttpClientConfig{}
	}
	c.Http.SetDefaults()
	if c.Tracing != nil {
		c.Tracing.SetDefaults()
	}

	return nil
}

func (b *BackoffConfig) SetDefaults() {
	if b.Delay == 0 {
		b.Delay = Duration(DefaultBackoffDelay)
	}
	if b.MaxDelay == 0 {
		b.MaxDelay = Duration(DefaultBackoffMaxDelay)
	}
}

func (a *AttemptTimeoutConfig) SetDefaults() {
	if a.Step == 0 {
		a.Step = Duration(DefaultAttemptTimeoutStep)
	}
}

func (h *HealthTrackerConfig) SetDefaults() {
	if h.NodeCooldown == 0 {
		h.NodeCooldown = Duration(DefaultNodeCooldown)
	}
	if h.ApiCooldown == 0 {
		h.ApiCooldown = Duration(DefaultApiCooldown)
	}
	if h.MaxFailuresBeforeCooldown == 0 {
		h.MaxFailuresBeforeCooldown = DefaultMaxFailuresBeforeCooldown
	}
	if h.MaxApiFailuresBeforeCooldown == 0 {
		h.MaxApiFailuresBeforeCooldown = DefaultMaxApiFailuresBeforeCooldown
	}
	if h.StaleBlockThreshold == 0 {
		h.StaleBlockThreshold = DefaultStaleBlockThreshold
	}
	if h.HeadBlockTTL == 0 {
		h.HeadBlockTTL = Duration(DefaultHeadBlockTTL)
	}
}

func (h *HttpClientConfig) SetDefaults() {
	if h.MaxIdleConnsPerHost == 0 {
		h.MaxIdleConnsPerHost = 16
	}
	if h.UserAgent == "" {
		h.UserAgent = "hiverpc/" + HiveRpcVersion
	}
}

func (t *TracingConfig) SetDefaults() {
	if t.Protocol == "" {
		t.Protocol = TracingProtocolGrpc
	}
	if t.ServiceName == "" {
		t.ServiceName = "hiverpc"
	}
	if t.Enabled && t.SampleRate == 0 {
		t.SampleRate = 1.0
	}
}
