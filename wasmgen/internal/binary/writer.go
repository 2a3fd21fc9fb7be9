package binary

import "encoding/binary"

// Writer accumulates a WebAssembly binary encoding. Length-prefixed
// regions (sections, code entries, custom subsections) are written through
// Sized so callers never compute sizes themselves.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Byte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) WriteBytes(data []byte) { w.buf = append(w.buf, data...) }

// WriteU32 writes v as unsigned LEB128.
func (w *Writer) WriteU32(v uint32) { w.buf = AppendUleb128(w.buf, uint64(v)) }

// WriteS32 writes v as signed LEB128.
func (w *Writer) WriteS32(v int32) { w.buf = AppendSleb128(w.buf, int64(v)) }

// WriteS64 writes v as signed LEB128.
func (w *Writer) WriteS64(v int64) { w.buf = AppendSleb128(w.buf, v) }

// WriteU32LE writes v as 4 little-endian bytes.
func (w *Writer) WriteU32LE(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

// WriteU64LE writes v as 8 little-endian bytes.
func (w *Writer) WriteU64LE(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

// WriteName writes a length-prefixed UTF-8 name.
func (w *Writer) WriteName(s string) {
	w.WriteU32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Vec writes the element count n, then calls fn for each element.
func (w *Writer) Vec(n int, fn func(i int)) {
	w.WriteU32(uint32(n))
	for i := 0; i < n; i++ {
		fn(i)
	}
}

// Sized writes what fn produces, prefixed with its byte length.
func (w *Writer) Sized(fn func(*Writer)) {
	var inner Writer
	fn(&inner)
	w.WriteU32(uint32(len(inner.buf)))
	w.buf = append(w.buf, inner.buf...)
}

// Section writes section id with the body fn produces.
func (w *Writer) Section(id byte, fn func(*Writer)) {
	w.Byte(id)
	w.Sized(fn)
}

// AppendUleb128 appends the unsigned LEB128 encoding of v to dst.
func AppendUleb128(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendSleb128 appends the signed LEB128 encoding of v to dst.
func AppendSleb128(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}
