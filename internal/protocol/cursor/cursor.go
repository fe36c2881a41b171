package cursor

import (
	"bytes"
	"fmt"
)

// span tracks a position inside [0, limit].
type span struct {
	pos   int
	limit int
}

func (s *span) step(n int) {
	next := s.pos + n
	if next < 0 || next > s.limit {
		panic(fmt.Sprintf("cursor: step %d from %d leaves [0,%d]", n, s.pos, s.limit))
	}
	s.pos = next
}

func (s *span) resize(capacity, bufLen int) {
	if capacity < 0 || capacity > bufLen {
		panic(fmt.Sprintf("cursor: capacity %d outside buffer of %d bytes", capacity, bufLen))
	}
	s.pos = 0
	s.limit = capacity
}

// Processed returns the number of bytes between the start and the position.
func (s *span) Processed() int { return s.pos }

// Remaining returns the number of bytes between the position and the capacity.
func (s *span) Remaining() int { return s.limit - s.pos }

// Capacity returns the window size fixed at construction or the last ResetTo.
func (s *span) Capacity() int { return s.limit }

// Writer is a write cursor over a mutable buffer.
type Writer struct {
	span
	buf []byte
}

func NewWriter(buf []byte) *Writer {
	return &Writer{span: span{limit: len(buf)}, buf: buf}
}

// Step moves the position by n bytes in either direction.
func (w *Writer) Step(n int) *Writer {
	w.step(n)
	return w
}

// Reset rewinds to the start without changing capacity.
func (w *Writer) Reset() *Writer {
	w.pos = 0
	return w
}

// ResetTo rewinds to the start and reinterprets the capacity.
func (w *Writer) ResetTo(capacity int) *Writer {
	w.resize(capacity, len(w.buf))
	return w
}

// Available is the unwritten window. Writes through it must be followed by Step.
func (w *Writer) Available() []byte {
	return w.buf[w.pos:w.limit]
}

// Written is the window between the start and the position.
func (w *Writer) Written() []byte {
	return w.buf[:w.pos]
}

// Put copies p and advances, or writes nothing when p does not fit.
func (w *Writer) Put(p []byte) bool {
	if len(p) > w.Remaining() {
		return false
	}
	w.pos += copy(w.buf[w.pos:w.limit], p)
	return true
}

// PutString is Put for strings.
func (w *Writer) PutString(s string) bool {
	if len(s) > w.Remaining() {
		return false
	}
	w.pos += copy(w.buf[w.pos:w.limit], s)
	return true
}

// PutByte writes one byte, reporting false when the cursor is full.
func (w *Writer) PutByte(b byte) bool {
	if w.Remaining() < 1 {
		return false
	}
	w.buf[w.pos] = b
	w.pos++
	return true
}

// Reader is a read cursor over received bytes.
type Reader struct {
	span
	buf []byte
}

func NewReader(buf []byte) *Reader {
	return &Reader{span: span{limit: len(buf)}, buf: buf}
}

// Step moves the position by n bytes in either direction.
func (r *Reader) Step(n int) *Reader {
	r.step(n)
	return r
}

// Reset rewinds to the start without changing capacity.
func (r *Reader) Reset() *Reader {
	r.pos = 0
	return r
}

// ResetTo rewinds to the start and reinterprets the capacity, typically to
// the byte count a previous encode produced.
func (r *Reader) ResetTo(capacity int) *Reader {
	r.resize(capacity, len(r.buf))
	return r
}

// Unread returns the unread window without consuming it.
func (r *Reader) Unread() []byte {
	return r.buf[r.pos:r.limit]
}

// Consumed returns the bytes between the start and the position.
func (r *Reader) Consumed() []byte {
	return r.buf[:r.pos]
}

// IndexByte returns the offset of b in the unread window, or -1.
func (r *Reader) IndexByte(b byte) int {
	return bytes.IndexByte(r.buf[r.pos:r.limit], b)
}
