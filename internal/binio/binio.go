package binio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrShortRead is reported when a Reader runs out of data mid-field.
var ErrShortRead = errors.New("binio: short read")

// Order is the byte order of every .tex and .mesh field.
var Order = binary.LittleEndian

// Writer appends fixed-width little-endian fields to Dst.
// The first write error sticks in Err and turns later writes into no-ops.
type Writer struct {
	Dst io.Writer
	Err error
	buf [2]byte
}

func NewWriter(dst io.Writer) *Writer {
	return &Writer{Dst: dst}
}

func (bw *Writer) WriteBytes(p []byte) (ok bool) {
	if bw.Err != nil {
		return false
	}
	if _, err := bw.Dst.Write(p); err != nil {
		bw.Err = err
		return false
	}
	return true
}

func (bw *Writer) WriteUint16(v uint16) (ok bool) {
	Order.PutUint16(bw.buf[:2], v)
	return bw.WriteBytes(bw.buf[:2])
}

// Reader is a cursor over an in-memory byte slice. Like Writer, the first
// failure sticks in Err and later reads return zero values.
type Reader struct {
	data []byte
	off  int
	Err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) ReadUint16() uint16 {
	b := r.ReadBytes(2)
	if b == nil {
		return 0
	}
	return Order.Uint16(b)
}

func (r *Reader) ReadUint32() uint32 {
	b := r.ReadBytes(4)
	if b == nil {
		return 0
	}
	return Order.Uint32(b)
}

func (r *Reader) ReadInt16() int16 { return int16(r.ReadUint16()) }

func (r *Reader) ReadFloat32() float32 { return math.Float32frombits(r.ReadUint32()) }

// ReadBytes returns the next n bytes without copying, or nil once the
// data is exhausted.
func (r *Reader) ReadBytes(n int) []byte {
	if r.Err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.off = len(r.data)
		r.Err = ErrShortRead
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

func (r *Reader) Remaining() int { return len(r.data) - r.off }
