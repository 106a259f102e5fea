package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// RedactEndpoint keeps scheme and host of a node address and replaces credentials, path
// and query (where api keys usually live) with a short hash of the full address.
func RedactEndpoint(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	hash := hex.EncodeToString(sum[:8])

	parsedURL, err := url.Parse(endpoint)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return hash
	}
	if parsedURL.User == nil && parsedURL.RawQuery == "" && (parsedURL.Path == "" || parsedURL.Path == "/") {
		return parsedURL.Scheme + "://" + parsedURL.Host
	}

	return parsedURL.Scheme + "://" + parsedURL.Host + "#hash=" + hash
}
