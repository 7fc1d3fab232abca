package binio

import (
	"encoding/binary"
	"math"
)

// Writer is the inverse of Reader, used to build fixtures and to re-encode
// documents.
type Writer struct {
	buf []byte
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// FixedString writes b into an n-byte NUL-padded field, truncating if needed.
func (w *Writer) FixedString(b []byte, n int) {
	field := make([]byte, n)
	copy(field, b)
	w.buf = append(w.buf, field...)
}

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) I8(v int8) { w.U8(uint8(v)) }

func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) I16(v int16) { w.U16(uint16(v)) }

func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

func (w *Writer) Vec2(v [2]float32) {
	w.F32(v[0])
	w.F32(v[1])
}

func (w *Writer) Vec3(v [3]float32) {
	for _, f := range v {
		w.F32(f)
	}
}

func (w *Writer) Vec4(v [4]float32) {
	for _, f := range v {
		w.F32(f)
	}
}
