package protocol

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // the chain's key checksum is ripemd160
)

const (
	publicKeySize = 33
	checksumSize  = 4
	prefixSize    = 3
)

// PublicKey is a compressed secp256k1 key in its "<PREFIX><base58>" text form.
// The zero key is the chain's null key.
type PublicKey struct {
	Prefix string
	Key    [publicKeySize]byte
}

// NullPublicKey clears a witness signing key.
var NullPublicKey = PublicKey{Prefix: "STM"}

func ParsePublicKey(s string) (PublicKey, error) {
	if len(s) <= prefixSize {
		return PublicKey{}, fmt.Errorf("public key %q is too short", s)
	}
	prefix, encoded := s[:prefixSize], s[prefixSize:]
	raw, err := base58.Decode(encoded)
	if err != nil {
		return PublicKey{}, fmt.Errorf("base58 decode: %w", err)
	}
	if len(raw) != publicKeySize+checksumSize {
		return PublicKey{}, fmt.Errorf("public key %q has %d bytes, expected %d", s, len(raw), publicKeySize+checksumSize)
	}
	key, sum := raw[:publicKeySize], raw[publicKeySize:]
	if !bytes.Equal(sum, keyChecksum(key)) {
		return PublicKey{}, fmt.Errorf("public key %q has an invalid checksum", s)
	}
	pk := PublicKey{Prefix: prefix}
	copy(pk.Key[:], key)
	return pk, nil
}

func keyChecksum(key []byte) []byte {
	h := ripemd160.New()
	h.Write(key)
	return h.Sum(nil)[:checksumSize]
}

func (k PublicKey) IsNull() bool {
	return k.Key == [publicKeySize]byte{}
}

func (k PublicKey) String() string {
	raw := make([]byte, 0, publicKeySize+checksumSize)
	raw = append(raw, k.Key[:]...)
	raw = append(raw, keyChecksum(k.Key[:])...)
	return k.Prefix + base58.Encode(raw)
}

func (k PublicKey) EncodeTo(e *Encoder) {
	e.WriteFixed(k.Key[:])
}

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(k.String())), nil
}

func (k *PublicKey) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("public key must be a json string: %w", err)
	}
	parsed, err := ParsePublicKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
