package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Encoder writes values in the chain's little-endian binary format.
type Encoder struct {
	buf bytes.Buffer
	err error
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) WriteUint8(v uint8) {
	e.buf.WriteByte(v)
}

func (e *Encoder) WriteInt8(v int8) {
	e.buf.WriteByte(byte(v))
}

func (e *Encoder) WriteUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteInt16(v int16) {
	e.WriteUint16(uint16(v))
}

func (e *Encoder) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

func (e *Encoder) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteVarint32 writes an unsigned LEB128 value, the length prefix used by every
// variable sized field.
func (e *Encoder) WriteVarint32(v uint32) {
	var b [binary.MaxVarintLen32]byte
	n := binary.PutUvarint(b[:], uint64(v))
	e.buf.Write(b[:n])
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *Encoder) WriteString(s string) {
	e.WriteVarint32(uint32(len(s)))
	e.buf.WriteString(s)
}

// WriteBytes writes a length prefixed byte string.
func (e *Encoder) WriteBytes(b []byte) {
	e.WriteVarint32(uint32(len(b)))
	e.buf.Write(b)
}

// WriteFixed writes b as is, for fixed size fields like keys and symbols.
func (e *Encoder) WriteFixed(b []byte) {
	e.buf.Write(b)
}

// WriteTime writes t as uint32 seconds since the epoch.
func (e *Encoder) WriteTime(t time.Time) {
	e.WriteUint32(uint32(t.Unix()))
}

// WriteOptional writes a presence flag and, when present, the value.
func (e *Encoder) WriteOptional(present bool, write func(*Encoder)) {
	e.WriteBool(present)
	if present {
		write(e)
	}
}

// WriteArray writes a count followed by n elements.
func (e *Encoder) WriteArray(n int, write func(e *Encoder, i int)) {
	e.WriteVarint32(uint32(n))
	for i := 0; i < n; i++ {
		write(e, i)
	}
}

func (e *Encoder) WriteStrings(items []string) {
	e.WriteArray(len(items), func(e *Encoder, i int) {
		e.WriteString(items[i])
	})
}

// Fail records the first serialization error; later writes are still accepted and
// Err reports it once the caller is done.
func (e *Encoder) Fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

func (e *Encoder) Hex() string {
	return hex.EncodeToString(e.buf.Bytes())
}

func (e *Encoder) Len() int {
	return e.buf.Len()
}
