package frame

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/danmuck/fixwire/internal/observability"
	"github.com/danmuck/fixwire/internal/protocol/cursor"
	"github.com/danmuck/fixwire/internal/protocol/message"
	"github.com/danmuck/fixwire/internal/protocol/value"
	"github.com/rs/zerolog/log"
)

// Limits constrains frame reads from untrusted streams.
type Limits struct {
	MaxBodyBytes     int
	MaxTrailerFields int
}

func DefaultLimits() Limits {
	return Limits{
		MaxBodyBytes:     1 << 20,
		MaxTrailerFields: 8,
	}
}

// ReadFrame splits the next complete frame off br. It returns io.EOF only
// when the stream ends cleanly between frames.
func (f *Framer) ReadFrame(br *bufio.Reader, limits Limits) ([]byte, error) {
	var out []byte
	tag, tok, err := f.readToken(br, &out)
	if err != nil {
		return nil, err
	}
	if tag != f.layout.BeginStringTag {
		return nil, fmt.Errorf("%w: frame starts with tag %d", ErrMalformedFrame, tag)
	}

	if tag, tok, err = f.readToken(br, &out); err != nil {
		return nil, err
	}
	if tag != f.layout.BodyLengthTag {
		return nil, fmt.Errorf("%w: tag %d where body length expected", ErrMalformedFrame, tag)
	}
	n, err := value.DeserializeInt(cursor.NewReader(tok), f.delim)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: body length value", ErrMalformedFrame)
	}
	if n > int64(limits.MaxBodyBytes) {
		return nil, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, n, limits.MaxBodyBytes)
	}

	head := len(out)
	out = slices.Grow(out, int(n))[:head+int(n)]
	if _, err := io.ReadFull(br, out[head:]); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrTruncated, err)
	}

	for i := 0; i < limits.MaxTrailerFields; i++ {
		if tag, _, err = f.readToken(br, &out); err != nil {
			return nil, err
		}
		if tag == f.layout.CheckSumTag {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: no checksum within %d trailer fields", ErrMalformedFrame, limits.MaxTrailerFields)
}

// readToken appends the next "TAG=VALUE<delim>" token to out and returns the
// tag and the value bytes including the delimiter.
func (f *Framer) readToken(br *bufio.Reader, out *[]byte) (int, []byte, error) {
	tok, err := br.ReadSlice(f.delim)
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return 0, nil, fmt.Errorf("%w: token exceeds %d bytes", ErrMalformedFrame, br.Size())
	case errors.Is(err, io.EOF) && len(tok) == 0 && len(*out) == 0:
		return 0, nil, io.EOF
	case err != nil:
		*out = append(*out, tok...)
		return 0, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	start := len(*out)
	*out = append(*out, tok...)
	r := cursor.NewReader((*out)[start:])
	tag, err := value.DeserializeTag(r)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return tag, r.Unread(), nil
}

// Encoder frames messages into a reusable buffer and writes them to w.
type Encoder struct {
	w      io.Writer
	framer *Framer
	buf    []byte
}

func NewEncoder(w io.Writer, framer *Framer, bufferSize int) *Encoder {
	return &Encoder{w: w, framer: framer, buf: make([]byte, bufferSize)}
}

func (e *Encoder) Encode(header, body, trailer *message.Message) error {
	wc := cursor.NewWriter(e.buf)
	if err := e.framer.Serialize(wc, header, body, trailer); err != nil {
		observability.RecordFrameError(observability.DirectionEncode, reason(err))
		log.Debug().Err(err).Str("body", body.Def().Name()).Msg("frame.Encode failed")
		return err
	}
	if _, err := e.w.Write(wc.Written()); err != nil {
		observability.RecordFrameError(observability.DirectionEncode, "io")
		return err
	}
	observability.RecordFrame(observability.DirectionEncode, wc.Processed())
	return nil
}

// Decoder reads, verifies and decodes frames from a stream.
type Decoder struct {
	br     *bufio.Reader
	framer *Framer
	limits Limits
}

func NewDecoder(r io.Reader, framer *Framer, limits Limits) *Decoder {
	return &Decoder{br: bufio.NewReader(r), framer: framer, limits: limits}
}

// Next returns the next verified raw frame.
func (d *Decoder) Next() ([]byte, error) {
	raw, err := d.framer.ReadFrame(d.br, d.limits)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			observability.RecordFrameError(observability.DirectionDecode, reason(err))
			log.Debug().Err(err).Msg("frame.Next read failed")
		}
		return nil, err
	}
	if _, err := d.framer.Verify(raw); err != nil {
		observability.RecordFrameError(observability.DirectionDecode, reason(err))
		log.Debug().Err(err).Str("frame", value.Display(raw, d.framer.delim, '|')).Msg("frame.Next verify failed")
		return nil, err
	}
	observability.RecordFrame(observability.DirectionDecode, len(raw))
	return raw, nil
}

// Decode reads the next frame and decodes it into header and trailer and the
// body chosen by pick.
func (d *Decoder) Decode(header, trailer *message.Message, pick BodyFunc) (*message.Message, error) {
	raw, err := d.Next()
	if err != nil {
		return nil, err
	}
	body, err := d.framer.decode(raw, header, trailer, pick)
	if err != nil {
		observability.RecordFrameError(observability.DirectionDecode, reason(err))
		return nil, err
	}
	return body, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, value.ErrBufferTooSmall):
		return "buffer_too_small"
	case errors.Is(err, value.ErrWidthOverflow):
		return "width_overflow"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, ErrBodyLengthMismatch):
		return "body_length"
	case errors.Is(err, ErrBodyTooLarge):
		return "too_large"
	case errors.Is(err, ErrTruncated):
		return "truncated"
	case errors.Is(err, ErrUnknownMessageType):
		return "unknown_msg_type"
	case errors.Is(err, ErrMalformedFrame),
		errors.Is(err, ErrTrailingBytes),
		errors.Is(err, value.ErrMalformedValue),
		errors.Is(err, value.ErrDelimiterNotFound):
		return "malformed"
	default:
		return "other"
	}
}
