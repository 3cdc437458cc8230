package chain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	accountHashPrefix     = "account-hash-"
	entityAccountPrefix   = "entity-account-"
	entityContractPrefix  = "entity-contract-"
	entitySystemPrefix    = "entity-system-"
	uRefPrefix            = "uref-"
	formattedHashHexChars = DigestLength * 2
)

var uRefPattern = regexp.MustCompile(`^uref-([0-9a-fA-F]{64})-([0-7]{3})$`)

// AccountHash identifies an account independently of its key algorithm.
type AccountHash [DigestLength]byte

func ParseAccountHash(raw string) (AccountHash, error) {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, accountHashPrefix) {
		return AccountHash{}, fmt.Errorf("account hash must start with %q", accountHashPrefix)
	}
	buf, err := decodeHash(strings.TrimPrefix(clean, accountHashPrefix))
	if err != nil {
		return AccountHash{}, fmt.Errorf("invalid account hash: %w", err)
	}
	return AccountHash(buf), nil
}

func (a AccountHash) String() string {
	return accountHashPrefix + hex.EncodeToString(a[:])
}

func (a AccountHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccountHash) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAccountHash(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

type EntityKind string

const (
	EntityKindAccount  EntityKind = "account"
	EntityKindContract EntityKind = "contract"
	EntityKindSystem   EntityKind = "system"
)

// EntityAddr is the formatted address of an addressable entity.
type EntityAddr struct {
	Kind EntityKind
	Hash [DigestLength]byte
}

func ParseEntityAddr(raw string) (EntityAddr, error) {
	clean := strings.TrimSpace(raw)
	var kind EntityKind
	var rest string
	switch {
	case strings.HasPrefix(clean, entityAccountPrefix):
		kind, rest = EntityKindAccount, strings.TrimPrefix(clean, entityAccountPrefix)
	case strings.HasPrefix(clean, entityContractPrefix):
		kind, rest = EntityKindContract, strings.TrimPrefix(clean, entityContractPrefix)
	case strings.HasPrefix(clean, entitySystemPrefix):
		kind, rest = EntityKindSystem, strings.TrimPrefix(clean, entitySystemPrefix)
	default:
		return EntityAddr{}, fmt.Errorf("entity address must start with %q, %q or %q", entityAccountPrefix, entityContractPrefix, entitySystemPrefix)
	}
	buf, err := decodeHash(rest)
	if err != nil {
		return EntityAddr{}, fmt.Errorf("invalid entity address: %w", err)
	}
	return EntityAddr{Kind: kind, Hash: buf}, nil
}

func (a EntityAddr) String() string {
	return "entity-" + string(a.Kind) + "-" + hex.EncodeToString(a.Hash[:])
}

// InitiatorAddr is the identity under whose authority a transaction runs.
// Exactly one of PublicKey or AccountHash is set.
type InitiatorAddr struct {
	PublicKey   *PublicKey
	AccountHash *AccountHash
}

func InitiatorFromPublicKey(k PublicKey) InitiatorAddr {
	return InitiatorAddr{PublicKey: &k}
}

func InitiatorFromAccountHash(a AccountHash) InitiatorAddr {
	return InitiatorAddr{AccountHash: &a}
}

// ParseInitiatorAddr tries, in order, a hex public key, a formatted account hash and a
// formatted entity address. The first format that parses wins.
func ParseInitiatorAddr(raw string) (InitiatorAddr, error) {
	clean := strings.TrimSpace(raw)
	if key, err := ParsePublicKeyHex(clean); err == nil {
		return InitiatorFromPublicKey(key), nil
	}
	if hash, err := ParseAccountHash(clean); err == nil {
		return InitiatorFromAccountHash(hash), nil
	}
	if entity, err := ParseEntityAddr(clean); err == nil {
		if entity.Kind != EntityKindAccount {
			return InitiatorAddr{}, fmt.Errorf("entity address %s is not an account and cannot initiate transactions", entity)
		}
		return InitiatorFromAccountHash(AccountHash(entity.Hash)), nil
	}
	return InitiatorAddr{}, fmt.Errorf("%q is not a hex public key, account hash or entity address", clean)
}

func (i InitiatorAddr) IsZero() bool {
	return i.PublicKey == nil && i.AccountHash == nil
}

func (i InitiatorAddr) String() string {
	switch {
	case i.PublicKey != nil:
		return i.PublicKey.Hex()
	case i.AccountHash != nil:
		return i.AccountHash.String()
	default:
		return ""
	}
}

func (i InitiatorAddr) Encode(e *Encoder) {
	switch {
	case i.PublicKey != nil:
		e.PutU8(0)
		i.PublicKey.Encode(e)
	case i.AccountHash != nil:
		e.PutU8(1)
		e.PutRaw(i.AccountHash[:])
	}
}

type initiatorJSON struct {
	PublicKey   *PublicKey   `json:"PublicKey,omitempty"`
	AccountHash *AccountHash `json:"AccountHash,omitempty"`
}

func (i InitiatorAddr) MarshalJSON() ([]byte, error) {
	if i.IsZero() {
		return nil, fmt.Errorf("initiator address is empty")
	}
	return json.Marshal(initiatorJSON{PublicKey: i.PublicKey, AccountHash: i.AccountHash})
}

func (i *InitiatorAddr) UnmarshalJSON(data []byte) error {
	var raw initiatorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if (raw.PublicKey == nil) == (raw.AccountHash == nil) {
		return fmt.Errorf("initiator address must hold exactly one of PublicKey or AccountHash")
	}
	*i = InitiatorAddr{PublicKey: raw.PublicKey, AccountHash: raw.AccountHash}
	return nil
}

// ValidateURef checks the "uref-<hex>-<access rights>" form.
func ValidateURef(raw string) error {
	if !uRefPattern.MatchString(strings.TrimSpace(raw)) {
		return fmt.Errorf("uref must look like %s<64 hex chars>-<three octal digits>", uRefPrefix)
	}
	return nil
}

func decodeHash(raw string) ([DigestLength]byte, error) {
	var out [DigestLength]byte
	if len(raw) != formattedHashHexChars {
		return out, fmt.Errorf("expected %d hex chars, got %d", formattedHashHexChars, len(raw))
	}
	buf, err := hex.DecodeString(raw)
	if err != nil {
		return out, err
	}
	copy(out[:], buf)
	return out, nil
}
