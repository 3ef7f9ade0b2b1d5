package lattice

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// The wire format is compact and positional, not self-describing:
//   - integers are fixed-width little-endian
//   - bool is a single byte, 0x00 or 0x01
//   - byte slices and strings carry a uint32 little-endian length prefix
//   - optional values carry a tag byte, 0x00 absent or 0x01 present
//   - enum-like values carry a single discriminant byte then the active
//     variant's payload
//
// Composite values encode their parts in declaration order with no
// padding or framing. decode(encode(v)) == v for every value this
// package writes.

// maxPreallocLen caps slice preallocation from untrusted length
// prefixes. Longer sequences still decode; they just grow the slice
// incrementally instead of trusting the prefix.
const maxPreallocLen = 4096

// Encoder appends values to a growing buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Bytes returns the encoded buffer. The slice aliases the encoder's
// internal storage; further writes may invalidate it.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset truncates the encoder for reuse.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// WriteBool writes a bool as one byte.
func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

// WriteUint8 writes one byte.
func (e *Encoder) WriteUint8(v uint8) {
	e.buf = append(e.buf, v)
}

// WriteUint16 writes a little-endian uint16.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// WriteUint32 writes a little-endian uint32.
func (e *Encoder) WriteUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// WriteUint64 writes a little-endian uint64.
func (e *Encoder) WriteUint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// WriteInt32 writes a little-endian int32 (two's complement).
func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

// WriteInt64 writes a little-endian int64 (two's complement).
func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteByteSlice writes a uint32 length prefix followed by the bytes.
func (e *Encoder) WriteByteSlice(b []byte) {
	e.WriteUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

// WriteString writes a string as a length-prefixed byte slice.
func (e *Encoder) WriteString(s string) {
	e.WriteUint32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteRaw appends bytes with no length prefix. Use for fixed-width
// values whose size is implied by the type.
func (e *Encoder) WriteRaw(b []byte) {
	e.buf = append(e.buf, b...)
}

// WriteHash writes a 32-byte hash with no prefix.
func (e *Encoder) WriteHash(h common.Hash) {
	e.buf = append(e.buf, h[:]...)
}

// WriteOptionTag writes the presence tag for an optional value. The
// caller writes the payload after a true tag.
func (e *Encoder) WriteOptionTag(present bool) {
	e.WriteBool(present)
}

// WriteVariant writes an enum discriminant byte. The caller writes the
// active variant's payload next.
func (e *Encoder) WriteVariant(tag uint8) {
	e.buf = append(e.buf, tag)
}

// Decoder reads values from a byte slice with strict bounds checking.
// It never panics on malformed input: every read returns a *DecodeError
// when the input is truncated or otherwise inconsistent.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder returns a decoder positioned at the start of data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

// Offset returns the current read position.
func (d *Decoder) Offset() int {
	return d.off
}

// need verifies n more bytes are available.
func (d *Decoder) need(n int, want string) error {
	if d.Remaining() < n {
		return &DecodeError{Offset: d.off, Want: want, Err: ErrTruncated}
	}
	return nil
}

// ReadBool reads one byte as a bool, rejecting values other than 0 and 1.
func (d *Decoder) ReadBool() (bool, error) {
	if err := d.need(1, "bool"); err != nil {
		return false, err
	}
	b := d.data[d.off]
	if b > 1 {
		return false, &DecodeError{
			Offset: d.off,
			Want:   "bool",
			Err:    fmt.Errorf("invalid bool byte 0x%02x", b),
		}
	}
	d.off++
	return b == 1, nil
}

// ReadUint8 reads one byte.
func (d *Decoder) ReadUint8() (uint8, error) {
	if err := d.need(1, "uint8"); err != nil {
		return 0, err
	}
	v := d.data[d.off]
	d.off++
	return v, nil
}

// ReadUint16 reads a little-endian uint16.
func (d *Decoder) ReadUint16() (uint16, error) {
	if err := d.need(2, "uint16"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.data[d.off:])
	d.off += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (d *Decoder) ReadUint32() (uint32, error) {
	if err := d.need(4, "uint32"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v, nil
}

// ReadUint64 reads a little-endian uint64.
func (d *Decoder) ReadUint64() (uint64, error) {
	if err := d.need(8, "uint64"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(d.data[d.off:])
	d.off += 8
	return v, nil
}

// ReadInt32 reads a little-endian int32.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads a little-endian int64.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadByteSlice reads a uint32 length prefix and that many bytes. The
// returned slice aliases the decoder's input.
func (d *Decoder) ReadByteSlice() ([]byte, error) {
	start := d.off
	n, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(d.Remaining()) {
		// Over-long prefix: malformed, not merely truncated, but the
		// caller sees the same typed error either way.
		return nil, &DecodeError{Offset: start, Want: "byte slice", Err: ErrTruncated}
	}
	b := d.data[d.off : d.off+int(n)]
	d.off += int(n)
	return b, nil
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	b, err := d.ReadByteSlice()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadRaw reads exactly n bytes with no prefix.
func (d *Decoder) ReadRaw(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, &DecodeError{
			Offset: d.off,
			Want:   fmt.Sprintf("%d raw bytes", n),
			Err:    ErrTruncated,
		}
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

// ReadHash reads a 32-byte hash.
func (d *Decoder) ReadHash() (common.Hash, error) {
	var h common.Hash
	if err := d.need(common.HashLength, "hash"); err != nil {
		return h, err
	}
	copy(h[:], d.data[d.off:])
	d.off += common.HashLength
	return h, nil
}

// ReadOptionTag reads the presence tag of an optional value.
func (d *Decoder) ReadOptionTag() (bool, error) {
	start := d.off
	present, err := d.ReadBool()
	if err != nil {
		return false, &DecodeError{Offset: start, Want: "option tag", Err: err}
	}
	return present, nil
}

// ReadVariant reads an enum discriminant, rejecting tags >= count.
func (d *Decoder) ReadVariant(count uint8) (uint8, error) {
	if err := d.need(1, "variant tag"); err != nil {
		return 0, err
	}
	tag := d.data[d.off]
	if tag >= count {
		return 0, &DecodeError{
			Offset: d.off,
			Want:   "variant tag",
			Err:    fmt.Errorf("discriminant %d out of range (have %d variants)", tag, count),
		}
	}
	d.off++
	return tag, nil
}

// Finish verifies the input was fully consumed. Called at the dispatch
// boundary after argument decoding so over-long payloads are rejected
// before any handler logic runs.
func (d *Decoder) Finish() error {
	if d.Remaining() != 0 {
		return &DecodeError{Offset: d.off, Want: "end of input", Err: ErrTrailingBytes}
	}
	return nil
}

// ValueCodec pairs the encode and decode halves for one value type.
// Cells and typed dispatch adapters are parameterized by it, so the
// packed-or-decomposed question never depends on a value instance.
type ValueCodec[T any] struct {
	Encode func(*Encoder, T)
	Decode func(*Decoder) (T, error)
}

// EncodeToBytes encodes a single value into a fresh buffer.
func (c ValueCodec[T]) EncodeToBytes(v T) []byte {
	enc := NewEncoder()
	c.Encode(enc, v)
	out := make([]byte, enc.Len())
	copy(out, enc.Bytes())
	return out
}

// DecodeFromBytes decodes a single value, requiring full consumption of
// the input.
func (c ValueCodec[T]) DecodeFromBytes(data []byte) (T, error) {
	dec := NewDecoder(data)
	v, err := c.Decode(dec)
	if err != nil {
		return v, err
	}
	if err := dec.Finish(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Bool is the codec for bool values.
func Bool() ValueCodec[bool] {
	return ValueCodec[bool]{
		Encode: (*Encoder).WriteBool,
		Decode: (*Decoder).ReadBool,
	}
}

// Uint8 is the codec for uint8 values.
func Uint8() ValueCodec[uint8] {
	return ValueCodec[uint8]{
		Encode: (*Encoder).WriteUint8,
		Decode: (*Decoder).ReadUint8,
	}
}

// Uint16 is the codec for uint16 values.
func Uint16() ValueCodec[uint16] {
	return ValueCodec[uint16]{
		Encode: (*Encoder).WriteUint16,
		Decode: (*Decoder).ReadUint16,
	}
}

// Uint32 is the codec for uint32 values.
func Uint32() ValueCodec[uint32] {
	return ValueCodec[uint32]{
		Encode: (*Encoder).WriteUint32,
		Decode: (*Decoder).ReadUint32,
	}
}

// Uint64 is the codec for uint64 values.
func Uint64() ValueCodec[uint64] {
	return ValueCodec[uint64]{
		Encode: (*Encoder).WriteUint64,
		Decode: (*Decoder).ReadUint64,
	}
}

// Int32 is the codec for int32 values.
func Int32() ValueCodec[int32] {
	return ValueCodec[int32]{
		Encode: (*Encoder).WriteInt32,
		Decode: (*Decoder).ReadInt32,
	}
}

// Int64 is the codec for int64 values.
func Int64() ValueCodec[int64] {
	return ValueCodec[int64]{
		Encode: (*Encoder).WriteInt64,
		Decode: (*Decoder).ReadInt64,
	}
}

// String is the codec for strings (length-prefixed).
func String() ValueCodec[string] {
	return ValueCodec[string]{
		Encode: (*Encoder).WriteString,
		Decode: (*Decoder).ReadString,
	}
}

// Bytes is the codec for byte slices (length-prefixed). Decoded slices
// are copied out of the input buffer.
func Bytes() ValueCodec[[]byte] {
	return ValueCodec[[]byte]{
		Encode: (*Encoder).WriteByteSlice,
		Decode: func(d *Decoder) ([]byte, error) {
			b, err := d.ReadByteSlice()
			if err != nil {
				return nil, err
			}
			out := make([]byte, len(b))
			copy(out, b)
			return out, nil
		},
	}
}

// Hash32 is the codec for 32-byte hashes.
func Hash32() ValueCodec[common.Hash] {
	return ValueCodec[common.Hash]{
		Encode: (*Encoder).WriteHash,
		Decode: (*Decoder).ReadHash,
	}
}

// Unit is the codec for the empty value. Handlers with no result encode
// zero bytes.
func Unit() ValueCodec[struct{}] {
	return ValueCodec[struct{}]{
		Encode: func(*Encoder, struct{}) {},
		Decode: func(*Decoder) (struct{}, error) { return struct{}{}, nil },
	}
}

// OptionOf wraps a codec so nil pointers encode as absent. The decoded
// pointer is non-nil exactly when the tag byte was 0x01.
func OptionOf[T any](elem ValueCodec[T]) ValueCodec[*T] {
	return ValueCodec[*T]{
		Encode: func(e *Encoder, v *T) {
			if v == nil {
				e.WriteOptionTag(false)
				return
			}
			e.WriteOptionTag(true)
			elem.Encode(e, *v)
		},
		Decode: func(d *Decoder) (*T, error) {
			present, err := d.ReadOptionTag()
			if err != nil {
				return nil, err
			}
			if !present {
				return nil, nil
			}
			v, err := elem.Decode(d)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
	}
}

// SliceOf encodes a slice as a uint32 length prefix followed by the
// elements in order.
func SliceOf[T any](elem ValueCodec[T]) ValueCodec[[]T] {
	return ValueCodec[[]T]{
		Encode: func(e *Encoder, vs []T) {
			e.WriteUint32(uint32(len(vs)))
			for _, v := range vs {
				elem.Encode(e, v)
			}
		},
		Decode: func(d *Decoder) ([]T, error) {
			start := d.Offset()
			n, err := d.ReadUint32()
			if err != nil {
				return nil, err
			}
			// A zero-length element could make a huge prefix cheap to
			// claim, so the prefix is only a capacity hint up to a cap.
			capHint := int(n)
			if capHint > maxPreallocLen {
				capHint = maxPreallocLen
			}
			vs := make([]T, 0, capHint)
			for i := uint32(0); i < n; i++ {
				v, err := elem.Decode(d)
				if err != nil {
					return nil, &DecodeError{
						Offset: start,
						Want:   fmt.Sprintf("slice element %d", i),
						Err:    err,
					}
				}
				vs = append(vs, v)
			}
			return vs, nil
		},
	}
}

// Pair encodes two values back to back, first then second.
func Pair[A, B any](first ValueCodec[A], second ValueCodec[B]) ValueCodec[struct {
	First  A
	Second B
}] {
	type pair = struct {
		First  A
		Second B
	}
	return ValueCodec[pair]{
		Encode: func(e *Encoder, v pair) {
			first.Encode(e, v.First)
			second.Encode(e, v.Second)
		},
		Decode: func(d *Decoder) (pair, error) {
			var v pair
			a, err := first.Decode(d)
			if err != nil {
				return v, err
			}
			b, err := second.Decode(d)
			if err != nil {
				return v, err
			}
			v.First = a
			v.Second = b
			return v, nil
		},
	}
}
