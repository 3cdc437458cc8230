package args

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ggonzalez94/casper-cli/internal/chain"
	clierr "github.com/ggonzalez94/casper-cli/internal/errors"
)

type NamedArg struct {
	Name  string
	Value CLValue
}

// RuntimeArgs is an ordered list of named arguments passed to session or payment code.
type RuntimeArgs []NamedArg

func (a RuntimeArgs) Encode(e *chain.Encoder) {
	e.PutU32(uint32(len(a)))
	for _, arg := range a {
		e.PutString(arg.Name)
		arg.Value.Encode(e)
	}
}

// Get returns the value stored under name.
func (a RuntimeArgs) Get(name string) (CLValue, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return CLValue{}, false
}

func (a RuntimeArgs) With(name string, value CLValue) RuntimeArgs {
	return append(a, NamedArg{Name: name, Value: value})
}

// MarshalJSON renders args as [[name, value], ...].
func (a RuntimeArgs) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, 0, len(a))
	for _, arg := range a {
		pairs = append(pairs, [2]any{arg.Name, arg.Value})
	}
	return json.Marshal(pairs)
}

func (a *RuntimeArgs) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("decode runtime args: %w", err)
	}
	out := make(RuntimeArgs, 0, len(pairs))
	for _, pair := range pairs {
		var arg NamedArg
		if err := json.Unmarshal(pair[0], &arg.Name); err != nil {
			return fmt.Errorf("decode runtime arg name: %w", err)
		}
		if err := json.Unmarshal(pair[1], &arg.Value); err != nil {
			return fmt.Errorf("decode runtime arg %q: %w", arg.Name, err)
		}
		out = append(out, arg)
	}
	*a = out
	return nil
}

// ParseSimpleArgs parses a list of `name:type='value'` strings, rejecting duplicate names.
func ParseSimpleArgs(raw []string) (RuntimeArgs, error) {
	out := make(RuntimeArgs, 0, len(raw))
	seen := map[string]struct{}{}
	for _, item := range raw {
		if strings.TrimSpace(item) == "" {
			continue
		}
		arg, err := ParseSimpleArg(item)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[arg.Name]; dup {
			return nil, clierr.Newf(clierr.CodeInvalidArgument, "duplicate runtime arg %q", arg.Name)
		}
		seen[arg.Name] = struct{}{}
		out = append(out, arg)
	}
	return out, nil
}

// ParseSimpleArg parses one `name:type='value'` argument.
func ParseSimpleArg(raw string) (NamedArg, error) {
	name, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return NamedArg{}, clierr.Newf(clierr.CodeInvalidArgument, "arg %q must look like name:type='value'", raw)
	}
	typ, quoted, ok := strings.Cut(rest, "=")
	if !ok {
		return NamedArg{}, clierr.Newf(clierr.CodeInvalidArgument, "arg %q must look like name:type='value'", raw)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return NamedArg{}, clierr.Newf(clierr.CodeInvalidArgument, "arg %q has an empty name", raw)
	}
	quoted = strings.TrimSpace(quoted)
	if len(quoted) < 2 || quoted[0] != '\'' || quoted[len(quoted)-1] != '\'' {
		return NamedArg{}, clierr.Newf(clierr.CodeInvalidArgument, "value of arg %q must be wrapped in single quotes", name)
	}
	value, err := ParseValue(strings.TrimSpace(typ), quoted[1:len(quoted)-1])
	if err != nil {
		return NamedArg{}, clierr.Wrap(clierr.CodeInvalidArgument, fmt.Sprintf("invalid value for arg %q", name), err)
	}
	return NamedArg{Name: name, Value: value}, nil
}

var bigUintBits = map[string]struct {
	tag  CLTypeTag
	bits int
}{
	"u128": {TagU128, 128},
	"u256": {TagU256, 256},
	"u512": {TagU512, 512},
}

// ParseValue converts a simple-arg type name and raw value into a CLValue.
func ParseValue(typ, value string) (CLValue, error) {
	switch strings.ToLower(typ) {
	case "bool":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return CLValue{}, err
		}
		return BoolValue(v), nil
	case "i32":
		v, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return CLValue{}, err
		}
		return I32Value(int32(v)), nil
	case "i64":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return CLValue{}, err
		}
		return I64Value(v), nil
	case "u8":
		v, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return CLValue{}, err
		}
		return U8Value(uint8(v)), nil
	case "u32":
		v, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return CLValue{}, err
		}
		return U32Value(uint32(v)), nil
	case "u64":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return CLValue{}, err
		}
		return U64Value(v), nil
	case "u128", "u256", "u512":
		width := bigUintBits[strings.ToLower(typ)]
		v, err := ParseBigUint(value, width.bits)
		if err != nil {
			return CLValue{}, err
		}
		return BigUintValue(width.tag, v), nil
	case "unit":
		if value != "" {
			return CLValue{}, fmt.Errorf("unit value must be empty")
		}
		return UnitValue(), nil
	case "string":
		return StringValue(value), nil
	case "public_key":
		k, err := chain.ParsePublicKeyHex(value)
		if err != nil {
			return CLValue{}, err
		}
		return PublicKeyValue(k), nil
	case "account_hash":
		a, err := chain.ParseAccountHash(value)
		if err != nil {
			return CLValue{}, err
		}
		return AccountHashValue(a), nil
	case "key":
		k, err := ParseKey(value)
		if err != nil {
			return CLValue{}, err
		}
		return KeyValue(k), nil
	default:
		return CLValue{}, fmt.Errorf("unsupported simple arg type %q", typ)
	}
}

// ParseBigUint parses a non-negative decimal integer that fits in bits.
func ParseBigUint(raw string, bits int) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", raw)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q must not be negative", raw)
	}
	if v.BitLen() > bits {
		return nil, fmt.Errorf("%q does not fit in %d bits", raw, bits)
	}
	return v, nil
}
