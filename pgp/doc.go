// Package pgp synthesizes OpenPGP certificates with searchable vanity
// fingerprints.
//
// A Backend pays for asymmetric key generation once, then lets a search
// driver scan candidate fingerprints cheaply: Shuffle walks the key's
// creation timestamp backward one second at a time with an O(1) in-place
// rewrite of the cached version-4 public-key packet, and Fingerprint
// hashes that cache. Finalize commits the chosen timestamp, binds the
// mandatory self-signatures (direct-key, optional identity certification,
// subkey binding), and emits the public certificate and transferable
// secret key as armored text.
//
// The brute-force loop itself, its matching predicate, and any parallel
// sharding live in the caller (see cmd/vanitypgp); this package only
// provides the primitives.
package pgp
