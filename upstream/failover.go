package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/hiverpc/hiverpc/clients"
	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/health"
	"github.com/hiverpc/hiverpc/util"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RetryContext carries what the failover loop needs to know about the logical call.
type RetryContext struct {
	Tracker           *health.Tracker
	Api               string
	IsBroadcast       bool
	ConsoleOnFailover bool
}

// FailoverRequest is one logical request against a pool of nodes.
type FailoverRequest struct {
	CurrentAddress string
	// A single element degenerates to same-node retries.
	Addresses []string
	Body      []byte
	// Wall-clock budget across all rounds, checked at round boundaries. 0 means none.
	Timeout time.Duration
	// Full rounds before giving up. 0 means unlimited.
	FailoverThreshold int
	Backoff           BackoffFunc
	// Optional per-attempt timeout, keyed by attempt number.
	FetchTimeout BackoffFunc
	Retry        RetryContext
}

type FailoverResult struct {
	Response       *clients.Response
	CurrentAddress string
	Attempts       int
	Rounds         int
}

type failoverState int

const (
	stateAttempting failoverState = iota
	stateRoundComplete
	stateExhausted
	stateSuccess
	stateFatalError
)

func (s failoverState) String() string {
	switch s {
	case stateAttempting:
		return "attempting"
	case stateRoundComplete:
		return "roundComplete"
	case stateExhausted:
		return "exhausted"
	case stateSuccess:
		return "success"
	case stateFatalError:
		return "fatalError"
	}
	return "unknown"
}

// session is the state of one Execute call.
type session struct {
	state             failoverState
	orderedNodes      []string
	nodeIndex         int
	nodesTriedInRound int
	round             int
	attempts          int
	startTime         time.Time
	lastErr           error
	result            *clients.Response
}

type FailoverOption func(*Failover)

// WithSleeper replaces the backoff sleep, which must return early with an error when ctx ends.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) FailoverOption {
	return func(f *Failover) {
		f.sleep = sleep
	}
}

func WithNow(now func() time.Time) FailoverOption {
	return func(f *Failover) {
		f.now = now
	}
}

// Failover sends a request to nodes in health order until one answers, honoring the
// broadcast rule that only a failure which never reached a server may be retried.
type Failover struct {
	logger *zerolog.Logger
	client clients.HttpJsonRpcClient
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

func NewFailover(logger *zerolog.Logger, client clients.HttpJsonRpcClient, opts ...FailoverOption) *Failover {
	lg := logger.With().Str("component", "failover").Logger()
	f := &Failover{
		logger: &lg,
		client: client,
		sleep:  sleepCtx,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if !util.SleepCtx(ctx.Done(), d) {
		return ctx.Err()
	}
	return nil
}

func (f *Failover) Execute(ctx context.Context, req *FailoverRequest) (*FailoverResult, error) {
	if len(req.Addresses) == 0 {
		return nil, common.NewErrInvalidConfig("no node addresses given")
	}
	ctx, span := common.StartSpan(ctx, "Failover.Execute",
		trace.WithAttributes(
			attribute.String("api", req.Retry.Api),
			attribute.Bool("broadcast", req.Retry.IsBroadcast),
			attribute.Int("nodes", len(req.Addresses)),
		),
	)
	defer span.End()

	backoff := req.Backoff
	if backoff == nil {
		backoff = DefaultBackoff
	}

	s := &session{
		state:        stateAttempting,
		orderedNodes: f.orderNodes(req),
		startTime:    f.now(),
	}
	single := len(s.orderedNodes) == 1
	if req.CurrentAddress != "" && req.CurrentAddress != s.orderedNodes[0] {
		f.logger.Trace().Str("current", util.RedactEndpoint(req.CurrentAddress)).
			Str("first", util.RedactEndpoint(s.orderedNodes[0])).Msg("starting from the healthiest node")
	}

	for {
		switch s.state {
		case stateAttempting:
			if err := ctx.Err(); err != nil {
				s.lastErr = common.NewErrEndpointRequestCanceled(err)
				s.state = stateFatalError
				continue
			}
			node := s.orderedNodes[s.nodeIndex]
			resp, err := f.attempt(ctx, req, node, s.attempts)
			s.attempts++
			if err == nil {
				s.result = resp
				s.state = stateSuccess
				continue
			}
			s.lastErr = err

			kind := common.KindOf(err)
			if !isRetryable(kind, req.Retry.IsBroadcast) {
				if req.Retry.IsBroadcast && kind.IsFailoverEligible() {
					f.logger.Warn().Err(err).Str("node", util.RedactEndpoint(node)).Str("kind", kind.String()).
						Msg("broadcast may or may not have reached the node; delivery status is unknown, not resending")
				}
				f.logger.Debug().Err(err).Str("node", util.RedactEndpoint(node)).Str("kind", kind.String()).
					Bool("broadcast", req.Retry.IsBroadcast).Msg("not retrying failed attempt")
				s.state = stateFatalError
				continue
			}

			if single {
				if req.Timeout > 0 && f.now().Sub(s.startTime) >= req.Timeout {
					s.lastErr = common.NewErrFailoverTimeout(req.Timeout, s.attempts, err)
					s.state = stateFatalError
					continue
				}
				if err := f.sleep(ctx, f.clampToBudget(req, s, backoff(s.attempts))); err != nil {
					s.lastErr = common.NewErrEndpointRequestCanceled(err)
					s.state = stateFatalError
				}
				continue
			}

			s.nodesTriedInRound++
			if s.nodesTriedInRound >= len(s.orderedNodes) {
				s.state = stateRoundComplete
				continue
			}
			s.nodeIndex++
			f.logFailover(req, node, s.orderedNodes[s.nodeIndex], kind)

		case stateRoundComplete:
			s.round++
			if req.Retry.IsBroadcast {
				// every node failed before connecting; stop here and report the last error
				s.state = stateFatalError
				continue
			}
			if req.FailoverThreshold > 0 && s.round >= req.FailoverThreshold {
				s.state = stateExhausted
				continue
			}
			if req.Timeout > 0 && f.now().Sub(s.startTime) >= req.Timeout {
				s.lastErr = common.NewErrFailoverTimeout(req.Timeout, s.attempts, s.lastErr)
				s.state = stateFatalError
				continue
			}
			f.logger.Debug().Int("round", s.round).Err(s.lastErr).Msg("failover round completed without success")
			if err := f.sleep(ctx, f.clampToBudget(req, s, backoff(s.round))); err != nil {
				s.lastErr = common.NewErrEndpointRequestCanceled(err)
				s.state = stateFatalError
				continue
			}
			prev := s.orderedNodes[s.nodeIndex]
			s.nodeIndex = 0
			s.nodesTriedInRound = 0
			f.logFailover(req, prev, s.orderedNodes[0], common.KindOf(s.lastErr))
			s.state = stateAttempting

		case stateExhausted:
			health.MetricRoundsExhaustedTotal.WithLabelValues(req.Retry.Api).Inc()
			err := common.NewErrNodesExhausted(s.orderedNodes, s.round, s.lastErr)
			common.SetTraceSpanError(span, err)
			return nil, err

		case stateSuccess:
			node := s.orderedNodes[s.nodeIndex]
			span.SetAttributes(
				attribute.Int("attempts", s.attempts),
				attribute.Int("rounds", s.round),
			)
			return &FailoverResult{
				Response:       s.result,
				CurrentAddress: node,
				Attempts:       s.attempts,
				Rounds:         s.round,
			}, nil

		case stateFatalError:
			common.SetTraceSpanError(span, s.lastErr)
			return nil, s.lastErr

		default:
			return nil, fmt.Errorf("unexpected failover state %s", s.state)
		}
	}
}

// orderNodes asks the tracker for a health order when there is more than one node.
func (f *Failover) orderNodes(req *FailoverRequest) []string {
	if len(req.Addresses) > 1 && req.Retry.Tracker != nil {
		return req.Retry.Tracker.GetOrderedNodes(req.Addresses, req.Retry.Api)
	}
	return append([]string(nil), req.Addresses...)
}

func (f *Failover) attempt(ctx context.Context, req *FailoverRequest, node string, tries int) (*clients.Response, error) {
	var attemptTimeout time.Duration
	if req.FetchTimeout != nil {
		attemptTimeout = req.FetchTimeout(tries)
	}

	start := f.now()
	resp, err := executeWithTimeout(ctx, attemptTimeout, func(ctx context.Context) (*clients.Response, error) {
		return f.client.SendRequest(ctx, node, req.Body)
	})

	tracker := req.Retry.Tracker
	if tracker == nil {
		return resp, err
	}
	tracker.RecordLatency(node, f.now().Sub(start))
	if err != nil {
		// the caller giving up says nothing about the node
		if common.KindOf(err) != common.KindCanceled {
			tracker.RecordFailure(node, req.Retry.Api)
		}
		return nil, err
	}
	if resp != nil && common.HasJsonRpcError(resp.Body) {
		// the node answered, but whether it serves the api is decided from the error itself
		tracker.RecordReachable(node)
		return resp, nil
	}
	tracker.RecordSuccess(node, req.Retry.Api)
	return resp, nil
}

// isRetryable applies the broadcast rule: a broadcast may only move on when the request
// provably never left the client. Reads move on for any transport level failure.
func isRetryable(kind common.ErrorKind, isBroadcast bool) bool {
	if isBroadcast {
		return kind.IsPreConnection()
	}
	return kind.IsFailoverEligible()
}

// clampToBudget keeps a backoff sleep from running past the overall timeout.
func (f *Failover) clampToBudget(req *FailoverRequest, s *session, d time.Duration) time.Duration {
	if req.Timeout <= 0 {
		return d
	}
	remaining := req.Timeout - f.now().Sub(s.startTime)
	if remaining < 0 {
		return 0
	}
	if d > remaining {
		return remaining
	}
	return d
}

func (f *Failover) logFailover(req *FailoverRequest, from, to string, kind common.ErrorKind) {
	if from == to {
		return
	}
	health.MetricFailoverTotal.WithLabelValues(util.RedactEndpoint(from), util.RedactEndpoint(to), kind.String()).Inc()
	ev := f.logger.Debug()
	if req.Retry.ConsoleOnFailover {
		ev = f.logger.Info()
	}
	ev.Str("previous", util.RedactEndpoint(from)).Str("api", req.Retry.Api).Str("kind", kind.String()).
		Msgf("switched hive rpc node to %s", util.RedactEndpoint(to))
}
