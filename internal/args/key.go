package args

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/chain"
)

type KeyKind byte

const (
	KeyAccount KeyKind = 0
	KeyHash    KeyKind = 1
	KeyURef    KeyKind = 2
)

// Key is a global state key: an account, a contract hash or a URef.
type Key struct {
	Kind         KeyKind
	Addr         [chain.DigestLength]byte
	AccessRights byte
}

// ParseKey accepts "account-hash-<hex>", "hash-<hex>" or "uref-<hex>-<rights>".
func ParseKey(raw string) (Key, error) {
	clean := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(clean, "account-hash-"):
		hash, err := chain.ParseAccountHash(clean)
		if err != nil {
			return Key{}, err
		}
		return Key{Kind: KeyAccount, Addr: hash}, nil
	case strings.HasPrefix(clean, "hash-"):
		d, err := chain.ParseDigest(strings.TrimPrefix(clean, "hash-"))
		if err != nil {
			return Key{}, fmt.Errorf("invalid hash key: %w", err)
		}
		return Key{Kind: KeyHash, Addr: d}, nil
	case strings.HasPrefix(clean, "uref-"):
		if err := chain.ValidateURef(clean); err != nil {
			return Key{}, err
		}
		body := strings.TrimPrefix(clean, "uref-")
		addrHex, rightsRaw := body[:chain.DigestLength*2], body[chain.DigestLength*2+1:]
		addr, err := hex.DecodeString(addrHex)
		if err != nil {
			return Key{}, fmt.Errorf("invalid uref address: %w", err)
		}
		rights, err := strconv.ParseUint(rightsRaw, 8, 8)
		if err != nil {
			return Key{}, fmt.Errorf("invalid uref access rights: %w", err)
		}
		k := Key{Kind: KeyURef, AccessRights: byte(rights)}
		copy(k.Addr[:], addr)
		return k, nil
	default:
		return Key{}, fmt.Errorf("key %q must start with account-hash-, hash- or uref-", raw)
	}
}

func (k Key) Encode(e *chain.Encoder) {
	e.PutU8(byte(k.Kind))
	e.PutRaw(k.Addr[:])
	if k.Kind == KeyURef {
		e.PutU8(k.AccessRights)
	}
}

func (k Key) String() string {
	switch k.Kind {
	case KeyAccount:
		return chain.AccountHash(k.Addr).String()
	case KeyHash:
		return "hash-" + hex.EncodeToString(k.Addr[:])
	default:
		return fmt.Sprintf("uref-%s-%03o", hex.EncodeToString(k.Addr[:]), k.AccessRights)
	}
}
