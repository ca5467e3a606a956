package pgp

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"

	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// Offsets into the packet cache. The cache mirrors the version-4
// fingerprint preimage exactly: 0x99, a two-octet big-endian body length,
// one version octet, a four-octet big-endian creation timestamp, one
// algorithm octet, then the algorithm-specific public key material.
const (
	cacheTimestampStart = 4
	cacheTimestampEnd   = 8
)

// Backend owns one generated primary key and the byte-level cache its
// fingerprint is computed from. It supports cheap timestamp mutation for
// vanity-fingerprint search and one-shot finalization into an armored
// certificate.
//
// A Backend is exclusively owned by its caller and performs no internal
// locking. Parallel search shards across independent Backend instances.
type Backend struct {
	suite     CipherSuite
	primary   *packet.PrivateKey
	timestamp uint32
	cache     []byte
	finalized bool

	// mangleTSK, when set, rewrites the serialized transferable secret
	// key before validation. Test hook for the assembly validation path.
	mangleTSK func([]byte) []byte
}

// ArmoredKey is the pair of ASCII-armored text blocks produced by
// finalization: the public certificate and the full transferable secret
// key.
type ArmoredKey struct {
	Public  string
	Private string
}

// New generates a primary signing key for the suite's signing algorithm
// and builds the packet cache from it. Generation failure aborts with no
// backend produced.
func New(suite CipherSuite) (*Backend, error) {
	primary, err := generateKey(suite.SigningAlgorithm(), true)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := primary.PublicKey.SerializeForHash(&buf); err != nil {
		return nil, wrapError(KindKeyGeneration, "serializing public key packet", err)
	}
	cache := buf.Bytes()

	// The serialized creation time is the authoritative timestamp; the
	// cache bytes [4,8) mirror it from here on.
	return &Backend{
		suite:     suite,
		primary:   primary,
		timestamp: binary.BigEndian.Uint32(cache[cacheTimestampStart:cacheTimestampEnd]),
		cache:     cache,
	}, nil
}

// Fingerprint returns the SHA-1 digest of the packet cache as 40 lowercase
// hex characters. Pure: calling it repeatedly without an intervening
// Shuffle yields identical values.
func (b *Backend) Fingerprint() string {
	sum := sha1.Sum(b.cache)
	return hex.EncodeToString(sum[:])
}

// Shuffle decrements the authoritative timestamp by one second and
// rewrites only the four timestamp bytes of the cache in place. Each
// search step is therefore an O(1) edit plus one hash, independent of key
// size. The search walks strictly backward from the generation time; no
// lower bound is enforced, so drivers must stop before the timestamp
// underflows.
func (b *Backend) Shuffle() error {
	if b.finalized {
		return newError(KindConsumed, "backend already finalized")
	}
	b.timestamp--
	binary.BigEndian.PutUint32(b.cache[cacheTimestampStart:cacheTimestampEnd], b.timestamp)
	return nil
}

// Timestamp returns the authoritative creation timestamp the next
// finalization would commit.
func (b *Backend) Timestamp() uint32 { return b.timestamp }

// Finalize commits the current timestamp into the primary key, builds the
// self-signatures and the encryption subkey, validates the assembled
// certificate, and renders both armored blocks. An empty userID emits no
// identity packet. Finalize consumes the backend: every later Shuffle or
// Finalize fails with KindConsumed, whether or not this call succeeded.
func (b *Backend) Finalize(userID string) (*ArmoredKey, error) {
	if b.finalized {
		return nil, newError(KindConsumed, "backend already finalized")
	}
	b.finalized = true
	return assembleCertificate(b.primary, b.suite, b.timestamp, userID, b.mangleTSK)
}
