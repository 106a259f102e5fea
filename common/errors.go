package common

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

//
// Base Types
//

type BaseError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause"`
	Details map[string]interface{} `json:"details"`
}

func (e *BaseError) Unwrap() error {
	return e.Cause
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s -> %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) CodeChain() string {
	if e.Cause != nil {
		var be StandardError
		if errors.As(e.Cause, &be) {
			return fmt.Sprintf("%s <- %s", e.Code, be.Base().CodeChain())
		}
	}

	return e.Code
}

func (e *BaseError) Base() *BaseError {
	return e
}

func (e *BaseError) ErrorCode() string {
	return e.Code
}

type StandardError interface {
	error
	Base() *BaseError
	ErrorCode() string
}

// HasErrorCode reports whether err or any error in its chain carries one of the given codes.
func HasErrorCode(err error, codes ...string) bool {
	for err != nil {
		if se, ok := err.(StandardError); ok {
			for _, code := range codes {
				if se.ErrorCode() == code {
					return true
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

type ErrorWithStatusCode interface {
	ErrorStatusCode() int
}

//
// Configuration
//

const ErrCodeInvalidConfig = "ErrInvalidConfig"

type ErrInvalidConfig struct{ BaseError }

var NewErrInvalidConfig = func(message string) error {
	return &ErrInvalidConfig{
		BaseError{
			Code:    ErrCodeInvalidConfig,
			Message: message,
		},
	}
}

//
// Endpoint (single attempt towards one node)
//

const ErrCodeEndpointTransportFailure = "ErrEndpointTransportFailure"

// ErrEndpointTransportFailure is a network level failure of one attempt. Kind is assigned
// once by the client at the network boundary; NetworkCode keeps the raw code it was derived from.
type ErrEndpointTransportFailure struct {
	BaseError
	Kind        ErrorKind
	NetworkCode string
}

var NewErrEndpointTransportFailure = func(u *url.URL, kind ErrorKind, networkCode string, cause error) error {
	host := ""
	if u != nil {
		host = u.Host
	}
	return &ErrEndpointTransportFailure{
		BaseError: BaseError{
			Code:    ErrCodeEndpointTransportFailure,
			Message: "failure when sending request to node",
			Cause:   cause,
			Details: map[string]interface{}{
				"host": host,
				"kind": kind.String(),
				"code": networkCode,
			},
		},
		Kind:        kind,
		NetworkCode: networkCode,
	}
}

const ErrCodeEndpointRequestTimeout = "ErrEndpointRequestTimeout"

type ErrEndpointRequestTimeout struct{ BaseError }

var NewErrEndpointRequestTimeout = func(dur time.Duration, cause error) error {
	return &ErrEndpointRequestTimeout{
		BaseError{
			Code:    ErrCodeEndpointRequestTimeout,
			Message: "remote node request timeout",
			Cause:   cause,
			Details: map[string]interface{}{
				"durationMs": dur.Milliseconds(),
			},
		},
	}
}

const ErrCodeEndpointRequestCanceled = "ErrEndpointRequestCanceled"

type ErrEndpointRequestCanceled struct{ BaseError }

var NewErrEndpointRequestCanceled = func(cause error) error {
	return &ErrEndpointRequestCanceled{
		BaseError{
			Code:    ErrCodeEndpointRequestCanceled,
			Message: "remote node request canceled",
			Cause:   cause,
		},
	}
}

const ErrCodeEndpointHttpStatus = "ErrEndpointHttpStatus"

// ErrEndpointHttpStatus is a non-2xx answer that was not a disguised JSON-RPC success.
// It carries no network code, which makes it failover eligible for reads.
type ErrEndpointHttpStatus struct {
	BaseError
	StatusCode int
}

var NewErrEndpointHttpStatus = func(statusCode int, status string, body []byte) error {
	details := map[string]interface{}{
		"statusCode": statusCode,
	}
	if len(body) > 0 {
		if len(body) > 512 {
			body = body[:512]
		}
		details["body"] = string(body)
	}
	return &ErrEndpointHttpStatus{
		BaseError: BaseError{
			Code:    ErrCodeEndpointHttpStatus,
			Message: fmt.Sprintf("HTTP %d: %s", statusCode, strings.TrimSpace(strings.TrimPrefix(status, fmt.Sprintf("%d", statusCode)))),
			Details: details,
		},
		StatusCode: statusCode,
	}
}

func (e *ErrEndpointHttpStatus) ErrorStatusCode() int {
	return e.StatusCode
}

const ErrCodeMalformedResponse = "ErrMalformedResponse"

type ErrMalformedResponse struct{ BaseError }

var NewErrMalformedResponse = func(cause error, node string) error {
	return &ErrMalformedResponse{
		BaseError{
			Code:    ErrCodeMalformedResponse,
			Message: "malformed response from node",
			Cause:   cause,
			Details: map[string]interface{}{
				"node": node,
			},
		},
	}
}

//
// Failover
//

const ErrCodeNodesExhausted = "ErrNodesExhausted"

// ErrNodesExhausted is returned once the failover threshold of full rounds has been spent.
type ErrNodesExhausted struct {
	BaseError
	Nodes  []string
	Rounds int
}

var NewErrNodesExhausted = func(nodes []string, rounds int, lastErr error) error {
	code := ErrorCodeOf(lastErr)
	if code == "" {
		code = "unknown"
	}
	return &ErrNodesExhausted{
		BaseError: BaseError{
			Code:    ErrCodeNodesExhausted,
			Message: fmt.Sprintf("[%s] tried %d rounds with %s", code, rounds, strings.Join(nodes, ",")),
			Cause:   lastErr,
			Details: map[string]interface{}{
				"nodes":  nodes,
				"rounds": rounds,
			},
		},
		Nodes:  nodes,
		Rounds: rounds,
	}
}

func (e *ErrNodesExhausted) ErrorStatusCode() int {
	return 503
}

const ErrCodeFailoverTimeout = "ErrFailoverTimeout"

type ErrFailoverTimeout struct{ BaseError }

var NewErrFailoverTimeout = func(timeout time.Duration, attempts int, lastErr error) error {
	return &ErrFailoverTimeout{
		BaseError{
			Code:    ErrCodeFailoverTimeout,
			Message: fmt.Sprintf("gave up after %d attempts, timeout of %s exceeded", attempts, timeout),
			Cause:   lastErr,
			Details: map[string]interface{}{
				"timeoutMs": timeout.Milliseconds(),
				"attempts":  attempts,
			},
		},
	}
}

//
// JSON-RPC
//

const ErrCodeRPC = "ErrRPC"

// ErrRPC is a well-formed JSON-RPC error answer rendered into a readable message.
// Data keeps the node's raw machine-readable payload.
type ErrRPC struct {
	BaseError
	RpcCode int
	Data    map[string]interface{}
}

var NewErrRPC = func(rpcCode int, message string, data map[string]interface{}) error {
	return &ErrRPC{
		BaseError: BaseError{
			Code:    ErrCodeRPC,
			Message: message,
			Details: map[string]interface{}{
				"rpcCode": rpcCode,
			},
		},
		RpcCode: rpcCode,
		Data:    data,
	}
}

func (e *ErrRPC) Error() string {
	return e.Message
}

const ErrCodeResponseIdMismatch = "ErrResponseIdMismatch"

type ErrResponseIdMismatch struct{ BaseError }

var NewErrResponseIdMismatch = func(expected, got interface{}) error {
	return &ErrResponseIdMismatch{
		BaseError{
			Code:    ErrCodeResponseIdMismatch,
			Message: "got invalid response id",
			Details: map[string]interface{}{
				"expected": expected,
				"got":      got,
			},
		},
	}
}

const ErrCodeRequestPreparation = "ErrRequestPreparation"

type ErrRequestPreparation struct{ BaseError }

var NewErrRequestPreparation = func(cause error, method string) error {
	return &ErrRequestPreparation{
		BaseError{
			Code:    ErrCodeRequestPreparation,
			Message: "failed to prepare json-rpc request",
			Cause:   cause,
			Details: map[string]interface{}{
				"method": method,
			},
		},
	}
}
