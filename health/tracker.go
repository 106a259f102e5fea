package health

import (
	"sync"
	"time"

	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/util"
	"github.com/rs/zerolog"
)

type apiFailure struct {
	count         int
	lastFailureAt time.Time
}

type nodeState struct {
	apiFailures         map[string]*apiFailure
	consecutiveFailures int
	lastFailureAt       time.Time
	headBlock           int64
	headBlockUpdatedAt  time.Time
	latency             *QuantileTracker
}

// NodeSnapshot is a read-only copy of one node's health, for diagnostics.
type NodeSnapshot struct {
	ConsecutiveFailures int            `json:"consecutiveFailures"`
	HeadBlock           int64          `json:"headBlock"`
	ApiFailures         map[string]int `json:"apiFailures"`
	Healthy             bool           `json:"healthy"`
	LatencySamples      int64          `json:"latencySamples"`
	LatencyP50          time.Duration  `json:"latencyP50"`
	LatencyP90          time.Duration  `json:"latencyP90"`
}

type Option func(*Tracker)

// WithClock replaces time.Now, mostly for tests that need to move past cooldowns.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker keeps per-node and per-(node, api) failure state and the best known head
// block, and orders nodes healthy-first. It is safe for concurrent use; a single
// instance is meant to be shared by every call of a client.
type Tracker struct {
	logger *zerolog.Logger
	cfg    common.HealthTrackerConfig
	now    func() time.Time

	mu            sync.RWMutex
	nodes         map[string]*nodeState
	bestHeadBlock int64
	bestHeadAt    time.Time
}

func NewTracker(logger *zerolog.Logger, cfg *common.HealthTrackerConfig, opts ...Option) *Tracker {
	c := common.HealthTrackerConfig{}
	if cfg != nil {
		c = *cfg
	}
	c.SetDefaults()

	lg := logger.With().Str("component", "healthTracker").Logger()
	t := &Tracker{
		logger: &lg,
		cfg:    c,
		now:    time.Now,
		nodes:  make(map[string]*nodeState),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// getOrCreate must be called with mu held for writing.
func (t *Tracker) getOrCreate(node string) *nodeState {
	st, ok := t.nodes[node]
	if !ok {
		st = &nodeState{
			apiFailures: make(map[string]*apiFailure),
			latency:     NewQuantileTracker(),
		}
		t.nodes[node] = st
	}
	return st
}

// RecordSuccess clears the node's consecutive failures and its failures for api.
func (t *Tracker) RecordSuccess(node, api string) {
	t.mu.Lock()
	st := t.getOrCreate(node)
	st.consecutiveFailures = 0
	delete(st.apiFailures, api)
	t.mu.Unlock()

	MetricNodeSuccessTotal.WithLabelValues(util.RedactEndpoint(node), api).Inc()
	MetricNodeConsecutiveFailures.WithLabelValues(util.RedactEndpoint(node)).Set(0)
}

// RecordReachable notes that the node answered at the transport level without saying
// anything about the api. Api failure counts are left for the caller to judge from the body.
func (t *Tracker) RecordReachable(node string) {
	t.mu.Lock()
	st := t.getOrCreate(node)
	st.consecutiveFailures = 0
	t.mu.Unlock()

	MetricNodeConsecutiveFailures.WithLabelValues(util.RedactEndpoint(node)).Set(0)
}

// RecordFailure records a network level failure: the node as a whole and the api on it
// both become suspect.
func (t *Tracker) RecordFailure(node, api string) {
	now := t.now()

	t.mu.Lock()
	st := t.getOrCreate(node)
	st.consecutiveFailures++
	st.lastFailureAt = now
	apiCount := t.incrementApiFailure(st, api, now)
	consecutive := st.consecutiveFailures
	t.mu.Unlock()

	redacted := util.RedactEndpoint(node)
	MetricNodeFailureTotal.WithLabelValues(redacted, api).Inc()
	MetricNodeConsecutiveFailures.WithLabelValues(redacted).Set(float64(consecutive))

	if consecutive == t.cfg.MaxFailuresBeforeCooldown {
		t.logger.Debug().Str("node", redacted).Int("consecutiveFailures", consecutive).
			Dur("cooldown", t.cfg.NodeCooldown.Duration()).
			Msg("node entered cooldown after consecutive failures")
	}
	if apiCount == t.cfg.MaxApiFailuresBeforeCooldown {
		t.logger.Debug().Str("node", redacted).Str("api", api).Int("apiFailures", apiCount).
			Msg("node deprioritized for api")
	}
}

// RecordApiFailure records an application level failure such as a disabled plugin.
// Other apis on the same node are unaffected.
func (t *Tracker) RecordApiFailure(node, api string) {
	now := t.now()

	t.mu.Lock()
	st := t.getOrCreate(node)
	apiCount := t.incrementApiFailure(st, api, now)
	t.mu.Unlock()

	redacted := util.RedactEndpoint(node)
	MetricNodeApiFailureTotal.WithLabelValues(redacted, api).Inc()
	if apiCount == t.cfg.MaxApiFailuresBeforeCooldown {
		t.logger.Debug().Str("node", redacted).Str("api", api).Int("apiFailures", apiCount).
			Msg("node deprioritized for api after api level failures")
	}
}

func (t *Tracker) incrementApiFailure(st *nodeState, api string, now time.Time) int {
	af, ok := st.apiFailures[api]
	if !ok {
		af = &apiFailure{}
		st.apiFailures[api] = af
	}
	af.count++
	af.lastFailureAt = now
	return af.count
}

// RecordLatency feeds the node's latency distribution; it has no effect on health.
func (t *Tracker) RecordLatency(node string, d time.Duration) {
	t.mu.Lock()
	st := t.getOrCreate(node)
	t.mu.Unlock()

	st.latency.Add(d)
	MetricNodeAttemptDuration.WithLabelValues(util.RedactEndpoint(node)).Observe(d.Seconds())
}

// UpdateHeadBlock stores the head block a node reported. Non-positive values are ignored.
// The best known head block only ever increases.
func (t *Tracker) UpdateHeadBlock(node string, headBlock int64) {
	if headBlock <= 0 {
		return
	}
	now := t.now()

	t.mu.Lock()
	st := t.getOrCreate(node)
	st.headBlock = headBlock
	st.headBlockUpdatedAt = now
	raised := headBlock > t.bestHeadBlock
	if raised {
		t.bestHeadBlock = headBlock
		t.bestHeadAt = now
	}
	t.mu.Unlock()

	MetricNodeHeadBlock.WithLabelValues(util.RedactEndpoint(node)).Set(float64(headBlock))
	if raised {
		MetricBestKnownHeadBlock.Set(float64(headBlock))
	}
}

// IsNodeHealthy reports whether node should be preferred for api. An empty api only
// checks node wide state. Nodes never seen before are healthy.
func (t *Tracker) IsNodeHealthy(node, api string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isHealthyLocked(node, api, t.now())
}

func (t *Tracker) isHealthyLocked(node, api string, now time.Time) bool {
	st, ok := t.nodes[node]
	if !ok {
		return true
	}

	if st.consecutiveFailures >= t.cfg.MaxFailuresBeforeCooldown &&
		now.Sub(st.lastFailureAt) < t.cfg.NodeCooldown.Duration() {
		return false
	}

	if api != "" {
		if af, ok := st.apiFailures[api]; ok &&
			af.count >= t.cfg.MaxApiFailuresBeforeCooldown &&
			now.Sub(af.lastFailureAt) < t.cfg.ApiCooldown.Duration() {
			return false
		}
	}

	ttl := t.cfg.HeadBlockTTL.Duration()
	if st.headBlock > 0 && t.bestHeadBlock > 0 &&
		now.Sub(st.headBlockUpdatedAt) < ttl &&
		now.Sub(t.bestHeadAt) < ttl &&
		t.bestHeadBlock-st.headBlock > t.cfg.StaleBlockThreshold {
		return false
	}

	return true
}

// GetOrderedNodes returns every input node exactly once, healthy ones first. Relative
// order inside the healthy and unhealthy groups is preserved.
func (t *Tracker) GetOrderedNodes(nodes []string, api string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	ordered := make([]string, 0, len(nodes))
	var unhealthy []string
	for _, n := range nodes {
		if t.isHealthyLocked(n, api, now) {
			ordered = append(ordered, n)
		} else {
			unhealthy = append(unhealthy, n)
		}
	}
	if len(unhealthy) > 0 && t.logger.GetLevel() <= zerolog.TraceLevel {
		t.logger.Trace().Strs("deprioritized", unhealthy).Str("api", api).Msg("reordered nodes by health")
	}
	return append(ordered, unhealthy...)
}

// BestKnownHeadBlock returns the highest head block seen from any node.
func (t *Tracker) BestKnownHeadBlock() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bestHeadBlock
}

// Reset forgets everything the tracker has learned.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.nodes = make(map[string]*nodeState)
	t.bestHeadBlock = 0
	t.bestHeadAt = time.Time{}
	t.mu.Unlock()

	MetricNodeConsecutiveFailures.Reset()
	MetricNodeHeadBlock.Reset()
	MetricBestKnownHeadBlock.Set(0)
}

// GetHealthSnapshot copies the current state of every known node. Healthy is the api-less check.
func (t *Tracker) GetHealthSnapshot() map[string]NodeSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	out := make(map[string]NodeSnapshot, len(t.nodes))
	for node, st := range t.nodes {
		apis := make(map[string]int, len(st.apiFailures))
		for api, af := range st.apiFailures {
			apis[api] = af.count
		}
		snap := NodeSnapshot{
			ConsecutiveFailures: st.consecutiveFailures,
			HeadBlock:           st.headBlock,
			ApiFailures:         apis,
			Healthy:             t.isHealthyLocked(node, "", now),
		}
		if st.latency != nil {
			snap.LatencySamples = st.latency.Count()
			snap.LatencyP50 = st.latency.P50()
			snap.LatencyP90 = st.latency.P90()
		}
		out[node] = snap
	}
	return out
}

func (s NodeSnapshot) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("healthy", s.Healthy).
		Int("consecutiveFailures", s.ConsecutiveFailures).
		Int64("headBlock", s.HeadBlock)
	for api, c := range s.ApiFailures {
		e.Int("apiFailures."+api, c)
	}
}
