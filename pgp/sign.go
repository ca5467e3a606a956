package pgp

import (
	"bytes"
	"crypto"
	"crypto/sha1"
	"encoding/binary"
	"io"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// Protocol-mandated preference lists and usage flags. These are literals,
// not derived values; reordering them breaks interoperability.

// RFC 4880 hash algorithm IDs: SHA-512 then SHA-256.
func preferredHashes() []uint8 {
	return []uint8{10, 8}
}

func preferredCiphers() []uint8 {
	return []uint8{uint8(packet.CipherAES256), uint8(packet.CipherAES128)}
}

// stampKey commits a creation time into the key and refreshes the derived
// fingerprint and key ID, which go-crypto computes only at construction
// or parse time. Signatures embed both, so they must never go stale.
func stampKey(key *packet.PrivateKey, t time.Time) error {
	key.CreationTime = t
	var buf bytes.Buffer
	if err := key.PublicKey.SerializeForHash(&buf); err != nil {
		return wrapError(KindSigning, "serializing key for fingerprint", err)
	}
	sum := sha1.Sum(buf.Bytes())
	key.Fingerprint = sum[:]
	key.KeyId = binary.BigEndian.Uint64(sum[12:20])
	return nil
}

// assembleCertificate builds the finished certificate for a primary key at
// the chosen timestamp: direct-key self-signature, optional identity
// certification, freshly generated encryption subkey, and its binding
// signature, in the packet order every conformant consumer expects. The
// result is validated and rendered as two armored blocks.
func assembleCertificate(primary *packet.PrivateKey, suite CipherSuite, timestamp uint32, userID string, mangle func([]byte) []byte) (*ArmoredKey, error) {
	t := time.Unix(int64(timestamp), 0).UTC()
	if err := stampKey(primary, t); err != nil {
		return nil, err
	}
	cfg := &packet.Config{
		Time:        func() time.Time { return t },
		DefaultHash: crypto.SHA512,
	}

	// Direct-key signature: certifies the primary key's own capabilities
	// independent of any identity.
	direct := &packet.Signature{
		Version:            4,
		SigType:            packet.SigTypeDirectSignature,
		PubKeyAlgo:         primary.PubKeyAlgo,
		Hash:               crypto.SHA512,
		CreationTime:       t,
		SEIPDv1:            true,
		FlagsValid:         true,
		FlagCertify:        true,
		FlagSign:           true,
		PreferredHash:      preferredHashes(),
		PreferredSymmetric: preferredCiphers(),
	}
	if err := direct.SignDirectKeyBinding(&primary.PublicKey, primary, cfg); err != nil {
		return nil, wrapError(KindSigning, "signing direct-key signature", err)
	}

	// Identity certification, only when an identity string was supplied.
	// It inherits the direct-key signature's preference lists and carries
	// no revocation-key subpacket.
	var uid *packet.UserId
	var uidSig *packet.Signature
	if userID != "" {
		uid = &packet.UserId{Id: userID}
		uidSig = &packet.Signature{
			Version:            4,
			SigType:            packet.SigTypePositiveCert,
			PubKeyAlgo:         primary.PubKeyAlgo,
			Hash:               crypto.SHA512,
			CreationTime:       t,
			SEIPDv1:            true,
			FlagsValid:         true,
			FlagCertify:        true,
			FlagSign:           true,
			PreferredHash:      append([]uint8(nil), direct.PreferredHash...),
			PreferredSymmetric: append([]uint8(nil), direct.PreferredSymmetric...),
		}
		if err := uidSig.SignUserId(uid.Id, &primary.PublicKey, primary, cfg); err != nil {
			return nil, wrapError(KindSigning, "signing identity certification", err)
		}
	}

	// Encryption subkey, stamped with the same creation time as the
	// primary key, bound for storage encryption only.
	subkey, err := generateKey(suite.EncryptionAlgorithm(), false)
	if err != nil {
		return nil, err
	}
	subkey.IsSubkey = true
	if err := stampKey(subkey, t); err != nil {
		return nil, err
	}
	binding := &packet.Signature{
		Version:            4,
		SigType:            packet.SigTypeSubkeyBinding,
		PubKeyAlgo:         primary.PubKeyAlgo,
		Hash:               crypto.SHA512,
		CreationTime:       t,
		SEIPDv1:            true,
		FlagsValid:         true,
		FlagEncryptStorage: true,
	}
	if err := binding.SignKey(&subkey.PublicKey, primary, cfg); err != nil {
		return nil, wrapError(KindSigning, "signing subkey binding", err)
	}

	// Each signature packet immediately follows the subject it certifies.
	var tsk bytes.Buffer
	if err := serializeAll(&tsk,
		primary.Serialize,
		direct.Serialize,
		uidSerializer(uid),
		sigSerializer(uidSig),
		subkey.Serialize,
		binding.Serialize,
	); err != nil {
		return nil, wrapError(KindSigning, "serializing transferable secret key", err)
	}

	var pub bytes.Buffer
	if err := serializeAll(&pub,
		primary.PublicKey.Serialize,
		direct.Serialize,
		uidSerializer(uid),
		sigSerializer(uidSig),
		subkey.PublicKey.Serialize,
		binding.Serialize,
	); err != nil {
		return nil, wrapError(KindSigning, "serializing public certificate", err)
	}

	raw := tsk.Bytes()
	if mangle != nil {
		raw = mangle(raw)
	}
	if err := validatePackets(raw); err != nil {
		return nil, err
	}

	armoredPublic, err := armorBlock(openpgp.PublicKeyType, pub.Bytes())
	if err != nil {
		return nil, err
	}
	armoredPrivate, err := armorBlock(openpgp.PrivateKeyType, raw)
	if err != nil {
		return nil, err
	}
	return &ArmoredKey{Public: armoredPublic, Private: armoredPrivate}, nil
}

func serializeAll(w io.Writer, steps ...func(io.Writer) error) error {
	for _, step := range steps {
		if step == nil {
			continue
		}
		if err := step(w); err != nil {
			return err
		}
	}
	return nil
}

func uidSerializer(uid *packet.UserId) func(io.Writer) error {
	if uid == nil {
		return nil
	}
	return uid.Serialize
}

func sigSerializer(sig *packet.Signature) func(io.Writer) error {
	if sig == nil {
		return nil
	}
	return sig.Serialize
}

// validatePackets re-reads the serialized certificate and rejects it if
// any packet is structurally unreadable or of an unrecognized type. A
// failure here is an assembly defect; the artifact is never emitted.
func validatePackets(raw []byte) error {
	reader := packet.NewOpaqueReader(bytes.NewReader(raw))
	n := 0
	for {
		op, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return wrapError(KindInvalidKey, "unreadable packet in assembled certificate", err)
		}
		if _, err := op.Parse(); err != nil {
			return wrapError(KindInvalidKey, "unparseable packet in assembled certificate", err)
		}
		n++
	}
	if n < 4 {
		return newError(KindInvalidKey, "assembled certificate is incomplete")
	}
	return nil
}

func armorBlock(blockType string, raw []byte) (string, error) {
	var buf bytes.Buffer
	w, err := armor.Encode(&buf, blockType, nil)
	if err != nil {
		return "", wrapError(KindEncoding, "starting armor block", err)
	}
	if _, err := w.Write(raw); err != nil {
		return "", wrapError(KindEncoding, "writing armor block", err)
	}
	if err := w.Close(); err != nil {
		return "", wrapError(KindEncoding, "closing armor block", err)
	}
	return buf.String(), nil
}
