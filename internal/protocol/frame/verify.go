package frame

import (
	"fmt"

	"github.com/danmuck/fixwire/internal/protocol/cursor"
	"github.com/danmuck/fixwire/internal/protocol/message"
	"github.com/danmuck/fixwire/internal/protocol/schema"
	"github.com/danmuck/fixwire/internal/protocol/value"
)

// Info describes a verified frame.
type Info struct {
	BeginString string
	BodyLength  int
	// BodyStart is the offset just after the BodyLength token.
	BodyStart int
	// ChecksumStart is the offset of the CheckSum token.
	ChecksumStart int
	CheckSum      int
}

// Verify checks that raw is exactly one frame whose BodyLength and CheckSum
// match its content.
func (f *Framer) Verify(raw []byte) (Info, error) {
	var info Info
	r := cursor.NewReader(raw)
	if err := f.expectTag(r, f.layout.BeginStringTag); err != nil {
		return info, err
	}
	begin, err := value.DeserializeString(r, f.delim)
	if err != nil {
		return info, fmt.Errorf("%w: begin string: %w", ErrMalformedFrame, err)
	}
	if err := f.expectTag(r, f.layout.BodyLengthTag); err != nil {
		return info, err
	}
	length, err := value.DeserializeInt(r, f.delim)
	if err != nil || length < 0 {
		return info, fmt.Errorf("%w: body length value", ErrMalformedFrame)
	}
	info.BeginString = begin
	info.BodyStart = r.Processed()
	if length > int64(len(raw)-info.BodyStart) {
		return info, fmt.Errorf("%w: declared %d, only %d bytes follow", ErrBodyLengthMismatch, length, len(raw)-info.BodyStart)
	}
	info.BodyLength = int(length)

	slot := len(raw) - f.checksumToken
	if slot < info.BodyStart || raw[slot-1] != f.delim {
		return info, fmt.Errorf("%w: checksum token not found", ErrMalformedFrame)
	}
	cr := cursor.NewReader(raw[slot:])
	if err := f.expectTag(cr, f.layout.CheckSumTag); err != nil {
		return info, err
	}
	sum, err := value.DeserializeInt(cr, f.delim)
	if err != nil || cr.Remaining() != 0 {
		return info, fmt.Errorf("%w: checksum value", ErrMalformedFrame)
	}
	info.ChecksumStart = slot
	info.CheckSum = int(sum)

	bodyEnd := info.BodyStart + info.BodyLength
	switch {
	case bodyEnd > slot,
		f.trailer.Len() == 1 && bodyEnd != slot,
		raw[bodyEnd-1] != f.delim:
		return info, fmt.Errorf("%w: declared %d, found %d", ErrBodyLengthMismatch, info.BodyLength, slot-info.BodyStart)
	}
	if got := Checksum(raw[:slot]); got != info.CheckSum {
		return info, fmt.Errorf("%w: declared %03d, computed %03d", ErrChecksumMismatch, info.CheckSum, got)
	}
	return info, nil
}

func (f *Framer) expectTag(r *cursor.Reader, want int) error {
	at := r.Processed()
	tag, err := value.DeserializeTag(r)
	if err != nil {
		return fmt.Errorf("%w: tag at offset %d: %w", ErrMalformedFrame, at, err)
	}
	if tag != want {
		return fmt.Errorf("%w: tag %d at offset %d, want %d", ErrMalformedFrame, tag, at, want)
	}
	return nil
}

// BodyFunc selects the body message once the header has been decoded.
type BodyFunc func(header *message.Message) (*message.Message, error)

// ByMsgType selects a fresh body message by the header's string value at tag.
func ByMsgType(tag int, lookup func(msgType string) (*schema.MessageDef, bool)) BodyFunc {
	return func(header *message.Message) (*message.Message, error) {
		msgType, ok := header.String(tag)
		if !ok {
			return nil, fmt.Errorf("%w: tag %d absent", ErrUnknownMessageType, tag)
		}
		def, ok := lookup(msgType)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, msgType)
		}
		return message.New(def), nil
	}
}

// Deserialize verifies raw and decodes it into header, body and trailer.
func (f *Framer) Deserialize(raw []byte, header, body, trailer *message.Message) error {
	_, err := f.Decode(raw, header, trailer, func(*message.Message) (*message.Message, error) {
		return body, nil
	})
	return err
}

// Decode verifies raw and decodes it, choosing the body through pick.
func (f *Framer) Decode(raw []byte, header, trailer *message.Message, pick BodyFunc) (*message.Message, error) {
	if _, err := f.Verify(raw); err != nil {
		return nil, err
	}
	return f.decode(raw, header, trailer, pick)
}

func (f *Framer) decode(raw []byte, header, trailer *message.Message, pick BodyFunc) (*message.Message, error) {
	if header.Def() != f.header || trailer.Def() != f.trailer {
		return nil, ErrDefinitionMismatch
	}
	r := cursor.NewReader(raw)
	if err := header.Deserialize(r, f.delim); err != nil {
		return nil, err
	}
	body, err := pick(header)
	if err != nil {
		return nil, err
	}
	if err := body.Deserialize(r, f.delim); err != nil {
		return nil, err
	}
	if err := trailer.Deserialize(r, f.delim); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes at offset %d", ErrTrailingBytes, r.Remaining(), r.Processed())
	}
	return body, nil
}
