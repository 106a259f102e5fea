package rpc

import (
	"github.com/IGLOU-EU/go-wildcard/v2"
)

// Request is one logical call. The two implementations decide at the type level whether
// the failover layer may re-send it.
type Request interface {
	Api() string
	Method() string
	Params() interface{}
	IsBroadcast() bool
}

// ReadCall is an idempotent query, safe to send to any number of nodes.
type ReadCall struct {
	api    string
	method string
	params interface{}
}

func NewReadCall(api, method string, params interface{}) *ReadCall {
	return &ReadCall{api: api, method: method, params: params}
}

func (r *ReadCall) Api() string         { return r.api }
func (r *ReadCall) Method() string      { return r.method }
func (r *ReadCall) Params() interface{} { return r.params }
func (r *ReadCall) IsBroadcast() bool   { return false }

// BroadcastCall submits a signed transaction. It is only re-sent when the previous
// attempt provably never reached a server.
type BroadcastCall struct {
	api    string
	method string
	params interface{}
}

func NewBroadcastCall(api, method string, params interface{}) *BroadcastCall {
	return &BroadcastCall{api: api, method: method, params: params}
}

func (b *BroadcastCall) Api() string         { return b.api }
func (b *BroadcastCall) Method() string      { return b.method }
func (b *BroadcastCall) Params() interface{} { return b.params }
func (b *BroadcastCall) IsBroadcast() bool   { return true }

// NewRequest picks the variant by matching "<api>.<method>" against broadcast patterns.
func NewRequest(broadcastPatterns []string, api, method string, params interface{}) Request {
	if IsBroadcastMethod(broadcastPatterns, api, method) {
		return NewBroadcastCall(api, method, params)
	}
	return NewReadCall(api, method, params)
}

func IsBroadcastMethod(patterns []string, api, method string) bool {
	full := api + "." + method
	for _, p := range patterns {
		if wildcard.Match(p, full) {
			return true
		}
	}
	return false
}

func fullMethod(r Request) string {
	return r.Api() + "." + r.Method()
}
