package pgp

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// generateKey produces fresh secret key material for the given algorithm
// and role. RSA variants ignore forSigning (general purpose). Curve
// variants pick the signing (EdDSA/ECDSA) or encryption (ECDH) generation
// path; a role the curve cannot serve fails instead of downgrading.
//
// No partial state survives a failure: the returned key is either complete
// or nil.
func generateKey(alg Algorithm, forSigning bool) (*packet.PrivateKey, error) {
	if bits := alg.rsaBits(); bits > 0 {
		key, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, wrapError(KindKeyGeneration, fmt.Sprintf("generating %s key", alg), err)
		}
		return packet.NewRSAPrivateKey(time.Now(), key), nil
	}

	var curve packet.Curve
	var sigAlgo packet.PublicKeyAlgorithm
	switch alg {
	case AlgoEd25519, AlgoCv25519:
		curve = packet.Curve25519
		sigAlgo = packet.PubKeyAlgoEdDSA
	case AlgoNistP256:
		curve = packet.CurveNistP256
		sigAlgo = packet.PubKeyAlgoECDSA
	case AlgoNistP384:
		curve = packet.CurveNistP384
		sigAlgo = packet.PubKeyAlgoECDSA
	case AlgoNistP521:
		curve = packet.CurveNistP521
		sigAlgo = packet.PubKeyAlgoECDSA
	default:
		return nil, newError(KindKeyGeneration, fmt.Sprintf("unknown algorithm %q", alg))
	}

	if forSigning && !alg.CanSign() {
		return nil, newError(KindKeyGeneration, fmt.Sprintf("algorithm %q cannot sign", alg))
	}
	if !forSigning && !alg.CanEncrypt() {
		return nil, newError(KindKeyGeneration, fmt.Sprintf("algorithm %q cannot encrypt", alg))
	}

	// go-crypto only exposes curve key generation through entity
	// construction, so generate a throwaway entity and keep the key for
	// the requested role: the EdDSA/ECDSA primary when signing, the ECDH
	// subkey when encrypting.
	cfg := &packet.Config{Algorithm: sigAlgo, Curve: curve}
	entity, err := openpgp.NewEntity("ephemeral", "", "", cfg)
	if err != nil {
		return nil, wrapError(KindKeyGeneration, fmt.Sprintf("generating %s key", alg), err)
	}
	if forSigning {
		if entity.PrivateKey == nil {
			return nil, newError(KindKeyGeneration, fmt.Sprintf("no signing key generated for %q", alg))
		}
		return entity.PrivateKey, nil
	}
	for _, sub := range entity.Subkeys {
		if sub.PrivateKey != nil && sub.PrivateKey.PubKeyAlgo == packet.PubKeyAlgoECDH {
			return sub.PrivateKey, nil
		}
	}
	return nil, newError(KindKeyGeneration, fmt.Sprintf("no encryption key generated for %q", alg))
}
