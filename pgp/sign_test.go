package pgp

import (
	"bytes"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// readBlockPackets decodes one armored block and returns its packets in
// serialization order.
func readBlockPackets(t *testing.T, block, wantType string) []packet.Packet {
	t.Helper()
	decoded, err := armor.Decode(strings.NewReader(block))
	if err != nil {
		t.Fatalf("armor.Decode: %v", err)
	}
	if decoded.Type != wantType {
		t.Fatalf("armor block type = %q, want %q", decoded.Type, wantType)
	}
	reader := packet.NewReader(decoded.Body)
	var packets []packet.Packet
	for {
		p, err := reader.Next()
		if err == io.EOF {
			return packets
		}
		if err != nil {
			t.Fatalf("reading packet %d: %v", len(packets), err)
		}
		packets = append(packets, p)
	}
}

func TestFinalizeWithoutIdentity(t *testing.T) {
	b := mustBackend(t)
	fp := b.Fingerprint()
	ak, err := b.Finalize("")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	packets := readBlockPackets(t, ak.Public, openpgp.PublicKeyType)
	if len(packets) != 4 {
		t.Fatalf("public certificate has %d packets, want 4", len(packets))
	}
	primary, ok := packets[0].(*packet.PublicKey)
	if !ok || primary.IsSubkey {
		t.Fatalf("packet 0 = %T (subkey=%v), want primary public key", packets[0], ok && primary.IsSubkey)
	}
	direct, ok := packets[1].(*packet.Signature)
	if !ok || direct.SigType != packet.SigTypeDirectSignature {
		t.Fatalf("packet 1 = %T, want direct-key signature", packets[1])
	}
	sub, ok := packets[2].(*packet.PublicKey)
	if !ok || !sub.IsSubkey {
		t.Fatalf("packet 2 = %T, want public subkey", packets[2])
	}
	binding, ok := packets[3].(*packet.Signature)
	if !ok || binding.SigType != packet.SigTypeSubkeyBinding {
		t.Fatalf("packet 3 = %T, want subkey-binding signature", packets[3])
	}
	for _, p := range packets {
		if _, isUID := p.(*packet.UserId); isUID {
			t.Fatal("no-identity certificate must not contain a user id packet")
		}
	}
	if got := hex.EncodeToString(primary.Fingerprint); got != fp {
		t.Fatalf("parsed fingerprint %q, backend reported %q", got, fp)
	}
}

func TestDirectKeySignaturePreferences(t *testing.T) {
	b := mustBackend(t)
	ak, err := b.Finalize("")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	packets := readBlockPackets(t, ak.Public, openpgp.PublicKeyType)
	direct, ok := packets[1].(*packet.Signature)
	if !ok || direct.SigType != packet.SigTypeDirectSignature {
		t.Fatalf("packet 1 = %T, want direct-key signature", packets[1])
	}
	// RFC 4880 IDs: SHA-512 (10), SHA-256 (8); AES-256 (9), AES-128 (7).
	if got, want := direct.PreferredHash, []uint8{10, 8}; !bytes.Equal(got, want) {
		t.Fatalf("preferred hashes = %v, want %v", got, want)
	}
	if got, want := direct.PreferredSymmetric, []uint8{9, 7}; !bytes.Equal(got, want) {
		t.Fatalf("preferred symmetric algorithms = %v, want %v", got, want)
	}
	if direct.KeyLifetimeSecs != nil {
		t.Fatal("direct-key signature must not carry an expiry")
	}
}

func TestFinalizeBindsIdentity(t *testing.T) {
	const uid = "Alice <alice@example.com>"
	b := mustBackend(t)
	ak, err := b.Finalize(uid)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	packets := readBlockPackets(t, ak.Public, openpgp.PublicKeyType)
	if len(packets) != 6 {
		t.Fatalf("public certificate has %d packets, want 6", len(packets))
	}
	uidPkt, ok := packets[2].(*packet.UserId)
	if !ok {
		t.Fatalf("packet 2 = %T, want user id", packets[2])
	}
	if uidPkt.Id != uid {
		t.Fatalf("user id = %q, want the literal %q", uidPkt.Id, uid)
	}
	certSig, ok := packets[3].(*packet.Signature)
	if !ok || certSig.SigType != packet.SigTypePositiveCert {
		t.Fatalf("packet 3 = %T, want positive certification", packets[3])
	}
	direct := packets[1].(*packet.Signature)
	if direct.SigType != packet.SigTypeDirectSignature {
		t.Fatalf("packet 1 sig type = %v, want direct-key signature", direct.SigType)
	}
}

func TestFinalizeRoundTripsThroughReader(t *testing.T) {
	const uid = "Search Result <vanity@example.com>"
	b := mustBackend(t)
	for i := 0; i < 42; i++ {
		if err := b.Shuffle(); err != nil {
			t.Fatalf("Shuffle: %v", err)
		}
	}
	fp := b.Fingerprint()
	ts := b.Timestamp()

	ak, err := b.Finalize(uid)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(ak.Private))
	if err != nil {
		t.Fatalf("ReadArmoredKeyRing: %v", err)
	}
	if len(keyring) != 1 {
		t.Fatalf("keyring has %d entities, want 1", len(keyring))
	}
	entity := keyring[0]
	if entity.PrivateKey == nil {
		t.Fatal("private block lost the primary secret key")
	}
	if got := hex.EncodeToString(entity.PrimaryKey.Fingerprint); got != fp {
		t.Fatalf("round-tripped fingerprint %q, want %q", got, fp)
	}
	if got := uint32(entity.PrimaryKey.CreationTime.Unix()); got != ts {
		t.Fatalf("round-tripped creation time %d, want %d", got, ts)
	}
	if len(entity.Subkeys) != 1 {
		t.Fatalf("entity has %d subkeys, want 1", len(entity.Subkeys))
	}
	if entity.Subkeys[0].PrivateKey == nil {
		t.Fatal("private block lost the subkey secret material")
	}
	if got := uint32(entity.Subkeys[0].PublicKey.CreationTime.Unix()); got != ts {
		t.Fatalf("subkey creation time %d, want %d", got, ts)
	}
	if _, ok := entity.Identities[uid]; !ok {
		t.Fatalf("identity %q missing; have %v", uid, identityNames(entity))
	}
}

func identityNames(e *openpgp.Entity) []string {
	names := make([]string, 0, len(e.Identities))
	for name := range e.Identities {
		names = append(names, name)
	}
	return names
}

func TestMangledAssemblyRejected(t *testing.T) {
	b := mustBackend(t)
	b.mangleTSK = func(raw []byte) []byte {
		out := append([]byte(nil), raw...)
		out[0] = 0xff
		return out
	}
	ak, err := b.Finalize("")
	if !IsKind(err, KindInvalidKey) {
		t.Fatalf("mangled assembly: got %v, want KindInvalidKey", err)
	}
	if ak != nil {
		t.Fatal("malformed artifact must not be returned")
	}
}
