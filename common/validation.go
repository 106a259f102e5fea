package common

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IGLOU-EU/go-wildcard/v2"
)

func (c *ClientConfig) Validate() error {
	if len(c.Nodes) == 0 {
		return NewErrInvalidConfig("nodes must contain at least one address")
	}
	seen := make(map[string]struct{}, len(c.Nodes))
	for _, n := range c.Nodes {
		u, err := url.Parse(n)
		if err != nil {
			return NewErrInvalidConfig(fmt.Sprintf("node %q is not a valid url: %v", n, err))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return NewErrInvalidConfig(fmt.Sprintf("node %q must use http or https", n))
		}
		if u.Host == "" {
			return NewErrInvalidConfig(fmt.Sprintf("node %q has no host", n))
		}
		if _, ok := seen[n]; ok {
			return NewErrInvalidConfig(fmt.Sprintf("node %q is listed twice", n))
		}
		seen[n] = struct{}{}
	}
	if len(c.ChainId) != 64 {
		return NewErrInvalidConfig("chainId must be 32 bytes of hex")
	}
	if c.Timeout != nil && *c.Timeout < 0 {
		return NewErrInvalidConfig("timeout cannot be negative")
	}
	if c.FailoverThreshold != nil && *c.FailoverThreshold < 0 {
		return NewErrInvalidConfig("failoverThreshold cannot be negative")
	}
	if c.Backoff != nil {
		if err := c.Backoff.Validate(); err != nil {
			return err
		}
	}
	if c.Health != nil {
		if err := c.Health.Validate(); err != nil {
			return err
		}
	}
	for _, p := range c.BroadcastMethods {
		if strings.TrimSpace(p) == "" {
			return NewErrInvalidConfig("broadcastMethods cannot contain empty patterns")
		}
		// a pattern must at least match itself
		if !wildcard.Match(p, p) {
			return NewErrInvalidConfig(fmt.Sprintf("broadcastMethods pattern %q is invalid", p))
		}
	}
	if c.RateLimit != nil {
		if err := c.RateLimit.Validate(); err != nil {
			return err
		}
	}
	if c.Tracing != nil {
		if err := c.Tracing.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (b *BackoffConfig) Validate() error {
	if b.Delay < 0 || b.MaxDelay < 0 {
		return NewErrInvalidConfig("backoff delays cannot be negative")
	}
	if b.MaxDelay > 0 && b.Delay > b.MaxDelay {
		return NewErrInvalidConfig("backoff.delay cannot be greater than backoff.maxDelay")
	}
	return nil
}

func (h *HealthTrackerConfig) Validate() error {
	if h.MaxFailuresBeforeCooldown < 0 || h.MaxApiFailuresBeforeCooldown < 0 {
		return NewErrInvalidConfig("health failure limits cannot be negative")
	}
	if h.StaleBlockThreshold < 0 {
		return NewErrInvalidConfig("health.staleBlockThreshold cannot be negative")
	}
	if h.NodeCooldown < 0 || h.ApiCooldown < 0 || h.HeadBlockTTL < 0 {
		return NewErrInvalidConfig("health durations cannot be negative")
	}
	return nil
}

func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return NewErrInvalidConfig("rateLimit.requestsPerSecond must be positive")
	}
	if r.Burst < 0 {
		return NewErrInvalidConfig("rateLimit.burst cannot be negative")
	}
	return nil
}

func (t *TracingConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.Endpoint == "" {
		return NewErrInvalidConfig("tracing.endpoint is required when tracing is enabled")
	}
	if t.Protocol != TracingProtocolGrpc && t.Protocol != TracingProtocolHttp {
		return NewErrInvalidConfig(fmt.Sprintf("tracing.protocol must be grpc or http, got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return NewErrInvalidConfig("tracing.sampleRate must be between 0 and 1")
	}
	return nil
}
