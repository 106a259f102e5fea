package common

import (
	"github.com/rs/zerolog"
)

var (
	HiveRpcVersion   = "dev"
	HiveRpcCommitSha = "none"
)

// Main network chain id and address prefix.
const (
	DefaultChainId       = "beeab0de00000000000000000000000000000000000000000000000000000000"
	DefaultAddressPrefix = "STM"
	TestnetChainId       = "18dcf0a285365fc58b71f18b3d3fec954aa0c141c44e4e5cb4cf777b9eab274e"
	TestnetAddressPrefix = "TST"
	TestnetNode          = "https://testnet.openhive.network"
)

// ClientConfig configures one rpc client and the node pool behind it.
type ClientConfig struct {
	LogLevel      string   `yaml:"logLevel" json:"logLevel"`
	Nodes         []string `yaml:"nodes" json:"nodes"`
	ChainId       string   `yaml:"chainId" json:"chainId"`
	AddressPrefix string   `yaml:"addressPrefix" json:"addressPrefix"`

	// Wall-clock budget for one call across all rounds. Explicit 0 retries forever.
	Timeout *Duration `yaml:"timeout" json:"timeout"`
	// Full passes over the node list before giving up. Explicit 0 means unlimited.
	FailoverThreshold *int `yaml:"failoverThreshold" json:"failoverThreshold"`
	ConsoleOnFailover bool `yaml:"consoleOnFailover" json:"consoleOnFailover"`

	Backoff          *BackoffConfig        `yaml:"backoff" json:"backoff"`
	AttemptTimeout   *AttemptTimeoutConfig `yaml:"attemptTimeout" json:"attemptTimeout"`
	Health           *HealthTrackerConfig  `yaml:"health" json:"health"`
	BroadcastMethods []string              `yaml:"broadcastMethods" json:"broadcastMethods"`
	RateLimit        *RateLimitConfig      `yaml:"rateLimit" json:"rateLimit"`
	Http             *HttpClientConfig     `yaml:"http" json:"http"`
	Tracing          *TracingConfig        `yaml:"tracing" json:"tracing"`
}

// BackoffConfig shapes the delay between rounds: min(Delay*tries^2, MaxDelay).
type BackoffConfig struct {
	Delay    Duration `yaml:"delay" json:"delay"`
	MaxDelay Duration `yaml:"maxDelay" json:"maxDelay"`
}

// AttemptTimeoutConfig bounds a single read attempt to (tries+1)*Step. Broadcasts never
// get a per-attempt timeout.
type AttemptTimeoutConfig struct {
	Step     Duration `yaml:"step" json:"step"`
	Disabled bool     `yaml:"disabled" json:"disabled"`
}

type HealthTrackerConfig struct {
	NodeCooldown                 Duration `yaml:"nodeCooldown" json:"nodeCooldown"`
	ApiCooldown                  Duration `yaml:"apiCooldown" json:"apiCooldown"`
	MaxFailuresBeforeCooldown    int      `yaml:"maxFailuresBeforeCooldown" json:"maxFailuresBeforeCooldown"`
	MaxApiFailuresBeforeCooldown int      `yaml:"maxApiFailuresBeforeCooldown" json:"maxApiFailuresBeforeCooldown"`
	StaleBlockThreshold          int64    `yaml:"staleBlockThreshold" json:"staleBlockThreshold"`
	HeadBlockTTL                 Duration `yaml:"headBlockTtl" json:"headBlockTtl"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst" json:"burst"`
}

type HttpClientConfig struct {
	Headers             map[string]string `yaml:"headers" json:"headers"`
	EnableGzip          bool              `yaml:"enableGzip" json:"enableGzip"`
	MaxIdleConnsPerHost int               `yaml:"maxIdleConnsPerHost" json:"maxIdleConnsPerHost"`
	UserAgent           string            `yaml:"userAgent" json:"userAgent"`
}

type TracingProtocol string

const (
	TracingProtocolGrpc TracingProtocol = "grpc"
	TracingProtocolHttp TracingProtocol = "http"
)

// TracingConfig controls the OTLP exporter installed by InitializeTracing.
type TracingConfig struct {
	Enabled     bool              `yaml:"enabled" json:"enabled"`
	Endpoint    string            `yaml:"endpoint" json:"endpoint"`
	Protocol    TracingProtocol   `yaml:"protocol" json:"protocol"`
	ServiceName string            `yaml:"serviceName" json:"serviceName"`
	SampleRate  float64           `yaml:"sampleRate" json:"sampleRate"`
	Insecure    bool              `yaml:"insecure" json:"insecure"`
	Headers     map[string]string `yaml:"headers" json:"headers"`
	// Detailed puts request bodies and node urls on spans.
	Detailed bool `yaml:"detailed" json:"detailed"`
}

func (c *ClientConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Strs("nodes", c.Nodes).
		Str("chainId", c.ChainId).
		Str("addressPrefix", c.AddressPrefix).
		Bool("consoleOnFailover", c.ConsoleOnFailover)
	if c.Timeout != nil {
		e.Dur("timeout", c.Timeout.Duration())
	}
	if c.FailoverThreshold != nil {
		e.Int("failoverThreshold", *c.FailoverThreshold)
	}
}
