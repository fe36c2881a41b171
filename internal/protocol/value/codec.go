package value

import (
	"bytes"
	"math"
	"strconv"

	"github.com/danmuck/fixwire/internal/protocol/cursor"
)

func SerializeInt(w *cursor.Writer, v int64, delim byte) error {
	var scratch [24]byte
	b := strconv.AppendInt(scratch[:0], v, 10)
	b = append(b, delim)
	if !w.Put(b) {
		return ErrBufferTooSmall
	}
	return nil
}

func DeserializeInt(r *cursor.Reader, delim byte) (int64, error) {
	token, err := next(r, delim)
	if err != nil {
		return 0, err
	}
	v, ok := parseInt(token)
	if !ok {
		return 0, ErrMalformedValue
	}
	r.Step(len(token) + 1)
	return v, nil
}

// SerializeFloat renders the shortest exact decimal form without an exponent.
func SerializeFloat(w *cursor.Writer, v float64, delim byte) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrMalformedValue
	}
	var scratch [64]byte
	b := strconv.AppendFloat(scratch[:0], v, 'f', -1, 64)
	b = append(b, delim)
	if !w.Put(b) {
		return ErrBufferTooSmall
	}
	return nil
}

func DeserializeFloat(r *cursor.Reader, delim byte) (float64, error) {
	token, err := next(r, delim)
	if err != nil {
		return 0, err
	}
	if !isDecimal(token) {
		return 0, ErrMalformedValue
	}
	v, err := strconv.ParseFloat(string(token), 64)
	if err != nil {
		return 0, ErrMalformedValue
	}
	r.Step(len(token) + 1)
	return v, nil
}

func SerializeChar(w *cursor.Writer, v byte, delim byte) error {
	if w.Remaining() < 2 {
		return ErrBufferTooSmall
	}
	w.PutByte(v)
	w.PutByte(delim)
	return nil
}

func DeserializeChar(r *cursor.Reader, delim byte) (byte, error) {
	token, err := next(r, delim)
	if err != nil {
		return 0, err
	}
	if len(token) != 1 {
		return 0, ErrMalformedValue
	}
	r.Step(2)
	return token[0], nil
}

// SerializeString writes v verbatim. v must not contain delim.
func SerializeString(w *cursor.Writer, v string, delim byte) error {
	if w.Remaining() < len(v)+1 {
		return ErrBufferTooSmall
	}
	w.PutString(v)
	w.PutByte(delim)
	return nil
}

func DeserializeString(r *cursor.Reader, delim byte) (string, error) {
	token, err := next(r, delim)
	if err != nil {
		return "", err
	}
	v := string(token)
	r.Step(len(token) + 1)
	return v, nil
}

// SerializeFixed zero-pads v to width digits. A negative sign takes one
// digit of the width.
func SerializeFixed(w *cursor.Writer, v int64, width int, delim byte) error {
	if width < 1 || width > MaxFixedWidth {
		return ErrWidthOverflow
	}
	neg := v < 0
	mag := uint64(v)
	if neg {
		mag = ^mag + 1
	}
	var scratch [24]byte
	digits := strconv.AppendUint(scratch[:0], mag, 10)
	pad := width - len(digits)
	if neg {
		pad--
	}
	if pad < 0 {
		return ErrWidthOverflow
	}
	if w.Remaining() < width+1 {
		return ErrBufferTooSmall
	}
	if neg {
		w.PutByte('-')
	}
	for ; pad > 0; pad-- {
		w.PutByte('0')
	}
	w.Put(digits)
	w.PutByte(delim)
	return nil
}

// DeserializeFixed accepts any integer; leading zeros are legal input.
func DeserializeFixed(r *cursor.Reader, delim byte) (int64, error) {
	return DeserializeInt(r, delim)
}

// SerializeTag writes the "TAG=" preamble.
func SerializeTag(w *cursor.Writer, tag int) error {
	return SerializeInt(w, int64(tag), TagDelimiter)
}

// DeserializeTag reads a "TAG=" preamble. Tags must be positive.
func DeserializeTag(r *cursor.Reader) (int, error) {
	token, err := next(r, TagDelimiter)
	if err != nil {
		return 0, err
	}
	v, ok := parseInt(token)
	if !ok || v <= 0 || v > math.MaxInt32 {
		return 0, ErrMalformedValue
	}
	r.Step(len(token) + 1)
	return int(v), nil
}

// Display substitutes symbol for every delimiter byte. Display output never
// goes back on the wire.
func Display(b []byte, delim, symbol byte) string {
	return string(bytes.ReplaceAll(b, []byte{delim}, []byte{symbol}))
}

func next(r *cursor.Reader, delim byte) ([]byte, error) {
	i := r.IndexByte(delim)
	if i < 0 {
		return nil, ErrDelimiterNotFound
	}
	return r.Unread()[:i], nil
}

func parseInt(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	neg := b[0] == '-'
	if neg {
		b = b[1:]
		if len(b) == 0 {
			return 0, false
		}
	}
	const cutoff = uint64(math.MaxInt64) + 1
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if n > (cutoff-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	if !neg && n == cutoff {
		return 0, false
	}
	if neg {
		return -int64(n), true
	}
	return int64(n), true
}

func isDecimal(b []byte) bool {
	if len(b) > 0 && b[0] == '-' {
		b = b[1:]
	}
	digits, dots := 0, 0
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
