// Package frame owns composed-message framing: BodyLength and CheckSum
// backpatching over header+body+trailer, verification of received frames,
// and splitting frames off a byte stream.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/fixwire/internal/protocol/cursor"
	"github.com/danmuck/fixwire/internal/protocol/message"
	"github.com/danmuck/fixwire/internal/protocol/schema"
	"github.com/danmuck/fixwire/internal/protocol/value"
)

var (
	ErrInvalidLayout      = errors.New("frame: invalid layout")
	ErrDefinitionMismatch = errors.New("frame: message definition mismatch")
	ErrMissingBeginString = errors.New("frame: begin string absent")
	ErrMalformedFrame     = errors.New("frame: malformed frame")
	ErrBodyLengthMismatch = errors.New("frame: body length mismatch")
	ErrChecksumMismatch   = errors.New("frame: checksum mismatch")
	ErrTrailingBytes      = errors.New("frame: trailing bytes after trailer")
	ErrBodyTooLarge       = errors.New("frame: body too large")
	ErrTruncated          = errors.New("frame: truncated frame")
	ErrUnknownMessageType = errors.New("frame: unknown message type")
)

// ChecksumWidth is the wire width of the checksum value.
const ChecksumWidth = 3

// Layout names the framing tags.
type Layout struct {
	BeginStringTag int
	BodyLengthTag  int
	CheckSumTag    int
}

func DefaultLayout() Layout {
	return Layout{BeginStringTag: 8, BodyLengthTag: 9, CheckSumTag: 10}
}

// Framer serializes and verifies composed messages of one header/trailer pair.
type Framer struct {
	header  *schema.MessageDef
	trailer *schema.MessageDef
	layout  Layout
	delim   byte

	lengthWidth   int
	checksumToken int
}

type Option func(*Framer)

func WithDelimiter(delim byte) Option {
	return func(f *Framer) { f.delim = delim }
}

func WithLayout(layout Layout) Option {
	return func(f *Framer) { f.layout = layout }
}

// NewFramer validates the header and trailer shapes the backpatch relies on:
// BeginString (string) then BodyLength (fixed width) as the first two header
// members, and CheckSum (fixed width 3) as the last trailer member.
func NewFramer(header, trailer *schema.MessageDef, opts ...Option) (*Framer, error) {
	f := &Framer{header: header, trailer: trailer, layout: DefaultLayout(), delim: value.SOH}
	for _, opt := range opts {
		opt(f)
	}
	if header == nil || trailer == nil {
		return nil, fmt.Errorf("%w: header and trailer required", ErrInvalidLayout)
	}
	if header.Len() < 2 {
		return nil, fmt.Errorf("%w: header needs begin string and body length", ErrInvalidLayout)
	}
	if m := header.Member(0); m.Tag != f.layout.BeginStringTag || m.Kind != value.KindString {
		return nil, fmt.Errorf("%w: first header member must be string tag %d", ErrInvalidLayout, f.layout.BeginStringTag)
	}
	length := header.Member(1)
	if length.Tag != f.layout.BodyLengthTag || length.Kind != value.KindFixed {
		return nil, fmt.Errorf("%w: second header member must be fixed-width tag %d", ErrInvalidLayout, f.layout.BodyLengthTag)
	}
	if trailer.Len() == 0 {
		return nil, fmt.Errorf("%w: trailer needs checksum", ErrInvalidLayout)
	}
	checksum := trailer.Member(trailer.Len() - 1)
	if checksum.Tag != f.layout.CheckSumTag || checksum.Kind != value.KindFixed {
		return nil, fmt.Errorf("%w: last trailer member must be fixed-width tag %d", ErrInvalidLayout, f.layout.CheckSumTag)
	}
	if checksum.Width != ChecksumWidth {
		return nil, fmt.Errorf("%w: checksum width must be %d", ErrInvalidLayout, ChecksumWidth)
	}
	f.lengthWidth = length.Width
	f.checksumToken = len(strconv.Itoa(checksum.Tag)) + 1 + ChecksumWidth + 1
	return f, nil
}

func (f *Framer) Delimiter() byte { return f.delim }

func (f *Framer) Layout() Layout { return f.layout }

func (f *Framer) Header() *schema.MessageDef { return f.header }

func (f *Framer) Trailer() *schema.MessageDef { return f.trailer }

// Checksum is the modulo-256 sum of b.
func Checksum(b []byte) int {
	var sum uint
	for _, c := range b {
		sum += uint(c)
	}
	return int(sum % 256)
}

// Serialize writes header, body and trailer and backpatches BodyLength and
// CheckSum in their fixed-width slots. header and trailer keep the computed
// values. On failure the cursor is rewound and the written bytes must not be
// sent.
func (f *Framer) Serialize(w *cursor.Writer, header, body, trailer *message.Message) error {
	if header.Def() != f.header || trailer.Def() != f.trailer {
		return ErrDefinitionMismatch
	}
	if !header.Present(f.layout.BeginStringTag) {
		return ErrMissingBeginString
	}
	start := w.Processed()
	if err := f.serialize(w, start, header, body, trailer); err != nil {
		w.Step(start - w.Processed())
		return err
	}
	return nil
}

func (f *Framer) serialize(w *cursor.Writer, start int, header, body, trailer *message.Message) error {
	header.SetInt(f.layout.BodyLengthTag, 0)
	if err := header.Serialize(w, f.delim); err != nil {
		return err
	}
	if err := body.Serialize(w, f.delim); err != nil {
		return err
	}

	region := w.Written()[start:]
	afterBegin := bytes.IndexByte(region, f.delim) + 1
	afterLength := afterBegin + bytes.IndexByte(region[afterBegin:], f.delim) + 1
	bodyLength := len(region) - afterLength
	header.SetInt(f.layout.BodyLengthTag, int64(bodyLength))
	if err := f.patch(region[afterBegin:afterLength], f.layout.BodyLengthTag, bodyLength, f.lengthWidth); err != nil {
		return fmt.Errorf("body length %d: %w", bodyLength, err)
	}

	trailer.SetInt(f.layout.CheckSumTag, 0)
	if err := trailer.Serialize(w, f.delim); err != nil {
		return err
	}
	slot := w.Processed() - f.checksumToken
	sum := Checksum(w.Written()[start:slot])
	trailer.SetInt(f.layout.CheckSumTag, int64(sum))
	return f.patch(w.Written()[slot:], f.layout.CheckSumTag, sum, ChecksumWidth)
}

// patch rewrites one fixed-width token in place through a cursor windowed
// over exactly its slot.
func (f *Framer) patch(slot []byte, tag, v, width int) error {
	pc := cursor.NewWriter(slot)
	if err := value.SerializeTag(pc, tag); err != nil {
		return err
	}
	if err := value.SerializeFixed(pc, int64(v), width, f.delim); err != nil {
		return err
	}
	if pc.Remaining() != 0 {
		return fmt.Errorf("%w: slot of tag %d not filled", ErrMalformedFrame, tag)
	}
	return nil
}
