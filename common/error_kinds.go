package common

import (
	"errors"
)

// ErrorKind is the closed set of attempt failure classes. It is assigned once where the
// network call happens so retry decisions never look at raw error text again.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// Request never left the client (DNS, refused, unreachable). Safe to resend anywhere.
	KindPreConnection
	KindTimeout
	KindConnectionReset
	KindTLS
	KindProtocol
	// Non-2xx answer without a machine-readable code.
	KindHttpStatus
	// Body could not be read or parsed as a JSON-RPC envelope.
	KindMalformedResponse
	KindCanceled
	// Has a code that is in none of the tables below.
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPreConnection:
		return "pre-connection"
	case KindTimeout:
		return "timeout"
	case KindConnectionReset:
		return "connection-reset"
	case KindTLS:
		return "tls"
	case KindProtocol:
		return "protocol"
	case KindHttpStatus:
		return "http-status"
	case KindMalformedResponse:
		return "malformed-response"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsPreConnection reports whether the failure proves the request never reached a server.
func (k ErrorKind) IsPreConnection() bool {
	return k == KindPreConnection
}

// IsFailoverEligible reports whether an idempotent read may be sent to another node.
func (k ErrorKind) IsFailoverEligible() bool {
	switch k {
	case KindPreConnection, KindTimeout, KindConnectionReset, KindTLS, KindProtocol, KindHttpStatus, KindMalformedResponse:
		return true
	}
	return false
}

// PreConnectionErrorCodes may be retried on another node even for broadcasts.
var PreConnectionErrorCodes = map[string]ErrorKind{
	"ENOTFOUND":    KindPreConnection,
	"ECONNREFUSED": KindPreConnection,
	"EHOSTUNREACH": KindPreConnection,
	"ENETUNREACH":  KindPreConnection,
	"EAI_AGAIN":    KindPreConnection,
}

// FailoverErrorCodes is the superset that may be retried on another node for reads only.
var FailoverErrorCodes = map[string]ErrorKind{
	"ENOTFOUND":                       KindPreConnection,
	"ECONNREFUSED":                    KindPreConnection,
	"EHOSTUNREACH":                    KindPreConnection,
	"ENETUNREACH":                     KindPreConnection,
	"EAI_AGAIN":                       KindPreConnection,
	"timeout":                         KindTimeout,
	"ETIMEDOUT":                       KindTimeout,
	"ESOCKETTIMEDOUT":                 KindTimeout,
	"ECONNRESET":                      KindConnectionReset,
	"ECONNABORTED":                    KindConnectionReset,
	"EPIPE":                           KindConnectionReset,
	"CERT_HAS_EXPIRED":                KindTLS,
	"UNABLE_TO_VERIFY_LEAF_SIGNATURE": KindTLS,
	"DEPTH_ZERO_SELF_SIGNED_CERT":     KindTLS,
	"EPROTO":                          KindProtocol,
	"database lock":                   KindProtocol,
}

// KindForCode maps a network error code to its kind. An empty code means the error has
// no machine-readable code (e.g. an HTTP status), which is failover eligible for reads.
func KindForCode(code string) ErrorKind {
	if code == "" {
		return KindHttpStatus
	}
	if k, ok := PreConnectionErrorCodes[code]; ok {
		return k
	}
	if k, ok := FailoverErrorCodes[code]; ok {
		return k
	}
	return KindUnknown
}

// KindOf extracts the kind recorded on an attempt error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var tf *ErrEndpointTransportFailure
	if errors.As(err, &tf) {
		return tf.Kind
	}
	var te *ErrEndpointRequestTimeout
	if errors.As(err, &te) {
		return KindTimeout
	}
	var hs *ErrEndpointHttpStatus
	if errors.As(err, &hs) {
		return KindHttpStatus
	}
	var mr *ErrMalformedResponse
	if errors.As(err, &mr) {
		return KindMalformedResponse
	}
	var ce *ErrEndpointRequestCanceled
	if errors.As(err, &ce) {
		return KindCanceled
	}
	return KindUnknown
}

// ErrorCodeOf returns the most specific code known for err, used in user facing summaries.
func ErrorCodeOf(err error) string {
	if err == nil {
		return ""
	}
	var tf *ErrEndpointTransportFailure
	if errors.As(err, &tf) && tf.NetworkCode != "" {
		return tf.NetworkCode
	}
	var te *ErrEndpointRequestTimeout
	if errors.As(err, &te) {
		return "timeout"
	}
	var hs *ErrEndpointHttpStatus
	if errors.As(err, &hs) {
		return hs.Message
	}
	var se StandardError
	if errors.As(err, &se) {
		return se.ErrorCode()
	}
	return ""
}
