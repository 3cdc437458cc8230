package rpc

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID is a JSON-RPC request id: a number when the caller supplied digits, a string
// otherwise. Uniqueness across concurrent requests is up to the caller.
type ID struct {
	num *int64
	str string
}

// ParseID turns a --id value into a request id. Empty input yields a random UUID.
func ParseID(raw string) ID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ID{str: uuid.NewString()}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ID{num: &n}
	}
	return ID{str: raw}
}

func NumberID(n int64) ID { return ID{num: &n} }

func (id ID) String() string {
	if id.num != nil {
		return strconv.FormatInt(*id.num, 10)
	}
	return id.str
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.num != nil {
		return json.Marshal(*id.num)
	}
	return json.Marshal(id.str)
}

// matches reports whether a raw id echoed by the node equals id. Values are compared
// after decoding, so escaping differences in the echo do not matter.
func (id ID) matches(raw json.RawMessage) bool {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var echoed any
	if err := dec.Decode(&echoed); err != nil {
		return false
	}
	switch v := echoed.(type) {
	case json.Number:
		n, err := v.Int64()
		return err == nil && id.num != nil && n == *id.num
	case string:
		return id.num == nil && v == id.str
	default:
		return false
	}
}
