package chain

import (
	"bytes"
	"encoding/binary"
	"math/big"
)

// Encoder produces the canonical little-endian byte form used for hashing artifacts.
// Variable-length values carry a u32 length prefix.
type Encoder struct {
	buf bytes.Buffer
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) PutU8(v uint8) {
	e.buf.WriteByte(v)
}

func (e *Encoder) PutBool(v bool) {
	if v {
		e.buf.WriteByte(1)
		return
	}
	e.buf.WriteByte(0)
}

func (e *Encoder) PutU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) PutI32(v int32) {
	e.PutU32(uint32(v))
}

func (e *Encoder) PutU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) PutI64(v int64) {
	e.PutU64(uint64(v))
}

// PutBigUint writes an unsigned big integer as a length byte followed by its
// minimal little-endian magnitude.
func (e *Encoder) PutBigUint(v *big.Int) {
	if v == nil || v.Sign() == 0 {
		e.buf.WriteByte(0)
		return
	}
	be := v.Bytes()
	le := make([]byte, len(be))
	for i := range be {
		le[len(be)-1-i] = be[i]
	}
	e.buf.WriteByte(byte(len(le)))
	e.buf.Write(le)
}

// PutRaw writes fixed-size bytes without a length prefix.
func (e *Encoder) PutRaw(b []byte) {
	e.buf.Write(b)
}

func (e *Encoder) PutBytes(b []byte) {
	e.PutU32(uint32(len(b)))
	e.buf.Write(b)
}

func (e *Encoder) PutString(s string) {
	e.PutBytes([]byte(s))
}

// PutOption writes the option tag and, when present, the value via fn.
func (e *Encoder) PutOption(present bool, fn func(*Encoder)) {
	if !present {
		e.PutU8(0)
		return
	}
	e.PutU8(1)
	fn(e)
}

func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}
