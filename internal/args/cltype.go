package args

import (
	"encoding/json"
	"fmt"

	"github.com/ggonzalez94/casper-cli/internal/chain"
)

// CLTypeTag is the one-byte discriminant of a CLType in the canonical encoding.
type CLTypeTag byte

const (
	TagBool      CLTypeTag = 0
	TagI32       CLTypeTag = 1
	TagI64       CLTypeTag = 2
	TagU8        CLTypeTag = 3
	TagU32       CLTypeTag = 4
	TagU64       CLTypeTag = 5
	TagU128      CLTypeTag = 6
	TagU256      CLTypeTag = 7
	TagU512      CLTypeTag = 8
	TagUnit      CLTypeTag = 9
	TagString    CLTypeTag = 10
	TagKey       CLTypeTag = 11
	TagURef      CLTypeTag = 12
	TagOption    CLTypeTag = 13
	TagByteArray CLTypeTag = 15
	TagPublicKey CLTypeTag = 22
)

var simpleTypeNames = map[CLTypeTag]string{
	TagBool:      "Bool",
	TagI32:       "I32",
	TagI64:       "I64",
	TagU8:        "U8",
	TagU32:       "U32",
	TagU64:       "U64",
	TagU128:      "U128",
	TagU256:      "U256",
	TagU512:      "U512",
	TagUnit:      "Unit",
	TagString:    "String",
	TagKey:       "Key",
	TagURef:      "URef",
	TagPublicKey: "PublicKey",
}

// CLType describes the type of a CLValue. Size is used by ByteArray, Inner by Option.
type CLType struct {
	Tag   CLTypeTag
	Size  uint32
	Inner *CLType
}

func Simple(tag CLTypeTag) CLType { return CLType{Tag: tag} }

func ByteArray(size uint32) CLType { return CLType{Tag: TagByteArray, Size: size} }

func Option(inner CLType) CLType { return CLType{Tag: TagOption, Inner: &inner} }

func (t CLType) Encode(e *chain.Encoder) {
	e.PutU8(byte(t.Tag))
	switch t.Tag {
	case TagByteArray:
		e.PutU32(t.Size)
	case TagOption:
		t.Inner.Encode(e)
	}
}

func (t CLType) String() string {
	switch t.Tag {
	case TagByteArray:
		return fmt.Sprintf("ByteArray(%d)", t.Size)
	case TagOption:
		return fmt.Sprintf("Option(%s)", t.Inner)
	default:
		if name, ok := simpleTypeNames[t.Tag]; ok {
			return name
		}
		return fmt.Sprintf("Unknown(%d)", t.Tag)
	}
}

func (t CLType) MarshalJSON() ([]byte, error) {
	switch t.Tag {
	case TagByteArray:
		return json.Marshal(map[string]uint32{"ByteArray": t.Size})
	case TagOption:
		if t.Inner == nil {
			return nil, fmt.Errorf("option type without inner type")
		}
		return json.Marshal(map[string]CLType{"Option": *t.Inner})
	default:
		name, ok := simpleTypeNames[t.Tag]
		if !ok {
			return nil, fmt.Errorf("unsupported cl type tag %d", t.Tag)
		}
		return json.Marshal(name)
	}
}

func (t *CLType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		for tag, candidate := range simpleTypeNames {
			if candidate == name {
				*t = Simple(tag)
				return nil
			}
		}
		return fmt.Errorf("unsupported cl type %q", name)
	}
	var compound map[string]json.RawMessage
	if err := json.Unmarshal(data, &compound); err != nil {
		return fmt.Errorf("decode cl type: %w", err)
	}
	if raw, ok := compound["ByteArray"]; ok {
		var size uint32
		if err := json.Unmarshal(raw, &size); err != nil {
			return fmt.Errorf("decode byte array size: %w", err)
		}
		*t = ByteArray(size)
		return nil
	}
	if raw, ok := compound["Option"]; ok {
		var inner CLType
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		*t = Option(inner)
		return nil
	}
	return fmt.Errorf("unsupported cl type %s", string(data))
}
