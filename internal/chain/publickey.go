package chain

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Algorithm is the one-byte tag prefixed to hex-encoded keys and signatures.
type Algorithm byte

const (
	AlgorithmEd25519   Algorithm = 1
	AlgorithmSecp256k1 Algorithm = 2
)

const (
	Ed25519PublicKeyLength   = 32
	Secp256k1PublicKeyLength = 33
	SignatureLength          = 64
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmEd25519:
		return "ed25519"
	case AlgorithmSecp256k1:
		return "secp256k1"
	default:
		return fmt.Sprintf("unknown(%d)", byte(a))
	}
}

func (a Algorithm) publicKeyLength() (int, bool) {
	switch a {
	case AlgorithmEd25519:
		return Ed25519PublicKeyLength, true
	case AlgorithmSecp256k1:
		return Secp256k1PublicKeyLength, true
	default:
		return 0, false
	}
}

// PublicKey is an algorithm-tagged public key.
type PublicKey struct {
	Algorithm Algorithm
	Raw       []byte
}

func NewPublicKey(algo Algorithm, raw []byte) (PublicKey, error) {
	want, ok := algo.publicKeyLength()
	if !ok {
		return PublicKey{}, fmt.Errorf("unsupported key algorithm tag %d", byte(algo))
	}
	if len(raw) != want {
		return PublicKey{}, fmt.Errorf("%s public key must be %d bytes, got %d", algo, want, len(raw))
	}
	if algo == AlgorithmSecp256k1 && raw[0] != 0x02 && raw[0] != 0x03 {
		return PublicKey{}, fmt.Errorf("secp256k1 public key must be compressed")
	}
	return PublicKey{Algorithm: algo, Raw: append([]byte(nil), raw...)}, nil
}

// ParsePublicKeyHex parses a tag-prefixed hex public key such as "01<64 hex chars>".
func ParsePublicKeyHex(raw string) (PublicKey, error) {
	buf, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid public key hex: %w", err)
	}
	if len(buf) == 0 {
		return PublicKey{}, fmt.Errorf("empty public key")
	}
	return NewPublicKey(Algorithm(buf[0]), buf[1:])
}

func (k PublicKey) IsZero() bool {
	return len(k.Raw) == 0
}

func (k PublicKey) Hex() string {
	return fmt.Sprintf("%02x%s", byte(k.Algorithm), hex.EncodeToString(k.Raw))
}

func (k PublicKey) String() string {
	return k.Hex()
}

func (k PublicKey) Equal(other PublicKey) bool {
	return k.Algorithm == other.Algorithm && bytes.Equal(k.Raw, other.Raw)
}

// AccountHash derives the account hash owned by this key.
func (k PublicKey) AccountHash() AccountHash {
	return AccountHash(Blake2b256([]byte(k.Algorithm.String()), []byte{0}, k.Raw))
}

func (k PublicKey) Encode(e *Encoder) {
	e.PutU8(byte(k.Algorithm))
	e.PutRaw(k.Raw)
}

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Hex())
}

func (k *PublicKey) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePublicKeyHex(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Signature is an algorithm-tagged 64-byte signature.
type Signature struct {
	Algorithm Algorithm
	Raw       []byte
}

func ParseSignatureHex(raw string) (Signature, error) {
	buf, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return Signature{}, fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(buf) != SignatureLength+1 {
		return Signature{}, fmt.Errorf("signature must be %d bytes, got %d", SignatureLength+1, len(buf))
	}
	algo := Algorithm(buf[0])
	if _, ok := algo.publicKeyLength(); !ok {
		return Signature{}, fmt.Errorf("unsupported signature algorithm tag %d", buf[0])
	}
	return Signature{Algorithm: algo, Raw: buf[1:]}, nil
}

func (s Signature) Hex() string {
	return fmt.Sprintf("%02x%s", byte(s.Algorithm), hex.EncodeToString(s.Raw))
}

func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Hex())
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSignatureHex(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
