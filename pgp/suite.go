package pgp

import "fmt"

// Algorithm names an asymmetric key algorithm usable in a cipher suite.
//
// RSA variants are general purpose. Curve variants are constrained:
// Ed25519 signs only, Cv25519 encrypts only, and the NIST curves carry
// either role (ECDSA for signing, ECDH for encryption).
type Algorithm string

const (
	AlgoRSA2048  Algorithm = "rsa2048"
	AlgoRSA3072  Algorithm = "rsa3072"
	AlgoRSA4096  Algorithm = "rsa4096"
	AlgoEd25519  Algorithm = "ed25519"
	AlgoCv25519  Algorithm = "cv25519"
	AlgoNistP256 Algorithm = "nistp256"
	AlgoNistP384 Algorithm = "nistp384"
	AlgoNistP521 Algorithm = "nistp521"
)

// rsaBits returns the modulus size for RSA variants and 0 otherwise.
func (a Algorithm) rsaBits() int {
	switch a {
	case AlgoRSA2048:
		return 2048
	case AlgoRSA3072:
		return 3072
	case AlgoRSA4096:
		return 4096
	}
	return 0
}

// CanSign reports whether the algorithm supports a signing role.
func (a Algorithm) CanSign() bool {
	return a != AlgoCv25519 && a.known()
}

// CanEncrypt reports whether the algorithm supports an encryption role.
func (a Algorithm) CanEncrypt() bool {
	return a != AlgoEd25519 && a.known()
}

func (a Algorithm) known() bool {
	switch a {
	case AlgoRSA2048, AlgoRSA3072, AlgoRSA4096,
		AlgoEd25519, AlgoCv25519,
		AlgoNistP256, AlgoNistP384, AlgoNistP521:
		return true
	}
	return false
}

// CipherSuite pairs a signing-key algorithm with an encryption-key
// algorithm for one certificate.
type CipherSuite struct {
	signing    Algorithm
	encryption Algorithm
}

// SigningAlgorithm returns the algorithm used for the primary signing key.
func (s CipherSuite) SigningAlgorithm() Algorithm { return s.signing }

// EncryptionAlgorithm returns the algorithm used for the encryption subkey.
func (s CipherSuite) EncryptionAlgorithm() Algorithm { return s.encryption }

// NewCipherSuite builds an explicit suite from a signing and an encryption
// algorithm, rejecting role-incapable pairings up front.
func NewCipherSuite(signing, encryption Algorithm) (CipherSuite, error) {
	if !signing.CanSign() {
		return CipherSuite{}, newError(KindSuite, fmt.Sprintf("algorithm %q cannot sign", signing))
	}
	if !encryption.CanEncrypt() {
		return CipherSuite{}, newError(KindSuite, fmt.Sprintf("algorithm %q cannot encrypt", encryption))
	}
	return CipherSuite{signing: signing, encryption: encryption}, nil
}

// Named suite presets. Callers that treat the suite as an opaque
// configuration value go through ParseSuite instead.
var suitePresets = map[string]CipherSuite{
	"ed25519":  {signing: AlgoEd25519, encryption: AlgoCv25519},
	"nistp256": {signing: AlgoNistP256, encryption: AlgoNistP256},
	"nistp384": {signing: AlgoNistP384, encryption: AlgoNistP384},
	"nistp521": {signing: AlgoNistP521, encryption: AlgoNistP521},
	"rsa2048":  {signing: AlgoRSA2048, encryption: AlgoRSA2048},
	"rsa3072":  {signing: AlgoRSA3072, encryption: AlgoRSA3072},
	"rsa4096":  {signing: AlgoRSA4096, encryption: AlgoRSA4096},
}

// ParseSuite resolves a preset name like "ed25519" or "rsa4096" to its
// cipher suite.
func ParseSuite(name string) (CipherSuite, error) {
	s, ok := suitePresets[name]
	if !ok {
		return CipherSuite{}, newError(KindSuite, fmt.Sprintf("unknown cipher suite %q", name))
	}
	return s, nil
}

// SuiteNames lists the preset names accepted by ParseSuite.
func SuiteNames() []string {
	return []string{"ed25519", "nistp256", "nistp384", "nistp521", "rsa2048", "rsa3072", "rsa4096"}
}
