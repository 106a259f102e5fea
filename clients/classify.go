package clients

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/hiverpc/hiverpc/common"
)

// ClassifyError turns an error returned by the http client into an error kind and the
// network code it corresponds to. It is the only place raw transport errors are inspected.
func ClassifyError(err error) (common.ErrorKind, string) {
	if err == nil {
		return common.KindNone, ""
	}

	if errors.Is(err, context.Canceled) {
		return common.KindCanceled, ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.KindTimeout, "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTemporary || dnsErr.IsTimeout {
			return common.KindForCode("EAI_AGAIN"), "EAI_AGAIN"
		}
		return common.KindForCode("ENOTFOUND"), "ENOTFOUND"
	}

	for errno, code := range errnoCodes {
		if errors.Is(err, errno) {
			return common.KindForCode(code), code
		}
	}

	if code := tlsCode(err); code != "" {
		return common.KindForCode(code), code
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return common.KindForCode("ETIMEDOUT"), "ETIMEDOUT"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		// the connection was never established
		return common.KindPreConnection, "ECONNREFUSED"
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return common.KindForCode("ECONNRESET"), "ECONNRESET"
	}

	msg := err.Error()
	if strings.Contains(msg, "malformed HTTP") || strings.Contains(msg, "server gave HTTP response to HTTPS client") {
		return common.KindForCode("EPROTO"), "EPROTO"
	}

	return common.KindUnknown, ""
}

var errnoCodes = map[syscall.Errno]string{
	syscall.ECONNREFUSED: "ECONNREFUSED",
	syscall.EHOSTUNREACH: "EHOSTUNREACH",
	syscall.ENETUNREACH:  "ENETUNREACH",
	syscall.ECONNRESET:   "ECONNRESET",
	syscall.ECONNABORTED: "ECONNABORTED",
	syscall.EPIPE:        "EPIPE",
	syscall.ETIMEDOUT:    "ETIMEDOUT",
}

func tlsCode(err error) string {
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		if certInvalid.Reason == x509.Expired {
			return "CERT_HAS_EXPIRED"
		}
		return "UNABLE_TO_VERIFY_LEAF_SIGNATURE"
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		if unknownAuthority.Cert != nil && unknownAuthority.Cert.Subject.String() == unknownAuthority.Cert.Issuer.String() {
			return "DEPTH_ZERO_SELF_SIGNED_CERT"
		}
		return "UNABLE_TO_VERIFY_LEAF_SIGNATURE"
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return "UNABLE_TO_VERIFY_LEAF_SIGNATURE"
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return "UNABLE_TO_VERIFY_LEAF_SIGNATURE"
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return "EPROTO"
	}
	return ""
}
