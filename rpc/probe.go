package rpc

import (
	"context"
	"time"

	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/util"
	"golang.org/x/sync/errgroup"
)

const probeConcurrency = 8

type ProbeResult struct {
	Node      string
	HeadBlock int64
	Latency   time.Duration
	Err       error
}

// ProbeNodes asks every configured node for its dynamic global properties, once each and
// without failover. Outcomes feed the tracker so the next call starts from a warm state.
func (c *Client) ProbeNodes(ctx context.Context) []ProbeResult {
	req := NewReadCall("condenser_api", "get_dynamic_global_properties", []interface{}{})
	body, err := c.buildEnvelope(req)

	nodes := c.cfg.Nodes
	results := make([]ProbeResult, len(nodes))
	if err != nil {
		for i, n := range nodes {
			results[i] = ProbeResult{Node: n, Err: err}
		}
		return results
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(probeConcurrency)
	for i, node := range nodes {
		i, node := i, node
		eg.Go(func() error {
			results[i] = c.probeNode(ctx, req, node, body)
			// a failing node must not cancel the others
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (c *Client) probeNode(ctx context.Context, req Request, node string, body []byte) ProbeResult {
	res := ProbeResult{Node: node}
	start := time.Now()
	resp, err := c.httpClient.SendRequest(ctx, node, body)
	res.Latency = time.Since(start)
	c.tracker.RecordLatency(node, res.Latency)
	if err != nil {
		if common.KindOf(err) != common.KindCanceled {
			c.tracker.RecordFailure(node, req.Api())
		}
		res.Err = err
		c.logger.Debug().Err(err).Str("node", util.RedactEndpoint(node)).Msg("node probe failed")
		return res
	}
	if common.HasJsonRpcError(resp.Body) {
		c.tracker.RecordReachable(node)
	} else {
		c.tracker.RecordSuccess(node, req.Api())
	}

	result, err := c.interpret(req, node, resp.Body)
	if err != nil {
		res.Err = err
		return res
	}
	head, err := headBlockNumber(result)
	if err != nil {
		res.Err = common.NewErrMalformedResponse(err, util.RedactEndpoint(node))
		return res
	}
	res.HeadBlock = head
	return res
}
