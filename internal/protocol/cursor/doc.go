// Package cursor owns bounds-tracked positions over caller-owned buffers.
//
// Ownership boundary:
// - write cursors over mutable buffers
// - read cursors over received bytes
//
// A cursor never owns or grows its buffer. Processed()+Remaining() always
// equals Capacity(); stepping outside [0, Capacity()] is a logic defect and
// panics.
package cursor
