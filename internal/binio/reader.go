// Package binio reads the little-endian records shared by PMX and VMD.
package binio

import (
	"encoding/binary"
	"math"
)

// Reader walks a byte slice. Reads past the end return zero values and
// latch Short, so a parser can read a whole record and check once.
type Reader struct {
	data  []byte
	off   int
	short bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Short reports whether any read ran past the end of the data.
func (r *Reader) Short() bool { return r.short }

func (r *Reader) Offset() int { return r.off }

func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) take(n int) []byte {
	if n < 0 || r.off+n > len(r.data) {
		r.off = len(r.data)
		r.short = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) []byte { return r.take(n) }

func (r *Reader) Skip(n int) { r.take(n) }

// FixedString returns an n-byte field cut at its first NUL.
func (r *Reader) FixedString(n int) []byte {
	b := r.take(n)
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) I8() int8 { return int8(r.U8()) }

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) I16() int16 { return int16(r.U16()) }

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) I32() int32 { return int32(r.U32()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

func (r *Reader) Vec2() [2]float32 { return [2]float32{r.F32(), r.F32()} }

func (r *Reader) Vec3() [3]float32 { return [3]float32{r.F32(), r.F32(), r.F32()} }

func (r *Reader) Vec4() [4]float32 { return [4]float32{r.F32(), r.F32(), r.F32(), r.F32()} }
