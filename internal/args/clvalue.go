package args

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ggonzalez94/casper-cli/internal/chain"
)

// CLValue is a typed runtime value: its serialized bytes, type and a JSON rendering
// of the value for humans.
type CLValue struct {
	Type   CLType
	Bytes  []byte
	Parsed json.RawMessage
}

func (v CLValue) Encode(e *chain.Encoder) {
	e.PutBytes(v.Bytes)
	v.Type.Encode(e)
}

type clValueJSON struct {
	CLType CLType          `json:"cl_type"`
	Bytes  string          `json:"bytes"`
	Parsed json.RawMessage `json:"parsed,omitempty"`
}

func (v CLValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(clValueJSON{CLType: v.Type, Bytes: hex.EncodeToString(v.Bytes), Parsed: v.Parsed})
}

func (v *CLValue) UnmarshalJSON(data []byte) error {
	var raw clValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	buf, err := hex.DecodeString(raw.Bytes)
	if err != nil {
		return fmt.Errorf("decode cl value bytes: %w", err)
	}
	*v = CLValue{Type: raw.CLType, Bytes: buf, Parsed: raw.Parsed}
	return nil
}

func newValue(t CLType, fill func(*chain.Encoder), parsed any) CLValue {
	e := chain.NewEncoder()
	fill(e)
	rendered, _ := json.Marshal(parsed)
	return CLValue{Type: t, Bytes: append([]byte(nil), e.Bytes()...), Parsed: rendered}
}

func BoolValue(v bool) CLValue {
	return newValue(Simple(TagBool), func(e *chain.Encoder) { e.PutBool(v) }, v)
}

func I32Value(v int32) CLValue {
	return newValue(Simple(TagI32), func(e *chain.Encoder) { e.PutI32(v) }, v)
}

func I64Value(v int64) CLValue {
	return newValue(Simple(TagI64), func(e *chain.Encoder) { e.PutI64(v) }, v)
}

func U8Value(v uint8) CLValue {
	return newValue(Simple(TagU8), func(e *chain.Encoder) { e.PutU8(v) }, v)
}

func U32Value(v uint32) CLValue {
	return newValue(Simple(TagU32), func(e *chain.Encoder) { e.PutU32(v) }, v)
}

func U64Value(v uint64) CLValue {
	return newValue(Simple(TagU64), func(e *chain.Encoder) { e.PutU64(v) }, v)
}

// BigUintValue builds a U128, U256 or U512 value. Range checking is the caller's job.
func BigUintValue(tag CLTypeTag, v *big.Int) CLValue {
	return newValue(Simple(tag), func(e *chain.Encoder) { e.PutBigUint(v) }, v.String())
}

func U512Value(v *big.Int) CLValue {
	return BigUintValue(TagU512, v)
}

func UnitValue() CLValue {
	return newValue(Simple(TagUnit), func(*chain.Encoder) {}, nil)
}

func StringValue(v string) CLValue {
	return newValue(Simple(TagString), func(e *chain.Encoder) { e.PutString(v) }, v)
}

func PublicKeyValue(k chain.PublicKey) CLValue {
	return newValue(Simple(TagPublicKey), k.Encode, k.Hex())
}

func AccountHashValue(a chain.AccountHash) CLValue {
	return newValue(ByteArray(chain.DigestLength), func(e *chain.Encoder) { e.PutRaw(a[:]) }, hex.EncodeToString(a[:]))
}

func KeyValue(k Key) CLValue {
	return newValue(Simple(TagKey), k.Encode, k.String())
}

// OptionU64Value builds an Option(U64); a nil v is None.
func OptionU64Value(v *uint64) CLValue {
	var parsed any
	if v != nil {
		parsed = *v
	}
	return newValue(Option(Simple(TagU64)), func(e *chain.Encoder) {
		e.PutOption(v != nil, func(e *chain.Encoder) { e.PutU64(*v) })
	}, parsed)
}
