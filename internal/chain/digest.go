package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const DigestLength = 32

// Digest is a blake2b-256 hash.
type Digest [DigestLength]byte

// Blake2b256 hashes the concatenation of parts.
func Blake2b256(parts ...[]byte) Digest {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func ParseDigest(raw string) (Digest, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	buf, err := hex.DecodeString(clean)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid digest hex: %w", err)
	}
	if len(buf) != DigestLength {
		return Digest{}, fmt.Errorf("digest must be %d bytes, got %d", DigestLength, len(buf))
	}
	var d Digest
	copy(d[:], buf)
	return d, nil
}

func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

func (d *Digest) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDigest(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
