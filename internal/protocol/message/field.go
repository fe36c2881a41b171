package message

import (
	"fmt"

	"github.com/danmuck/fixwire/internal/protocol/cursor"
	"github.com/danmuck/fixwire/internal/protocol/schema"
	"github.com/danmuck/fixwire/internal/protocol/value"
)

// Field is the storage of one declared member. Absent fields never touch the
// wire.
type Field struct {
	present bool
	num     int64
	flt     float64
	str     string
	group   *Group
}

// Present reports whether the field is emitted on serialize.
func (f *Field) Present() bool {
	if f.group != nil {
		return f.group.Len() > 0
	}
	return f.present
}

func (f *Field) clear() {
	if f.group != nil {
		f.group.Clear()
		return
	}
	*f = Field{}
}

// Serialize writes "TAG=VALUE<delim>" for mem. An absent field writes nothing.
// On failure the cursor is rewound to where the field started.
func (f *Field) Serialize(w *cursor.Writer, mem schema.Member, delim byte) error {
	if !f.Present() {
		return nil
	}
	start := w.Processed()
	err := value.SerializeTag(w, mem.Tag)
	if err == nil {
		err = f.serializeValue(w, mem, delim)
	}
	if err != nil {
		w.Step(start - w.Processed())
		return err
	}
	return nil
}

func (f *Field) serializeValue(w *cursor.Writer, mem schema.Member, delim byte) error {
	switch mem.Kind {
	case value.KindInt:
		return value.SerializeInt(w, f.num, delim)
	case value.KindFixed:
		return value.SerializeFixed(w, f.num, mem.Width, delim)
	case value.KindFloat:
		return value.SerializeFloat(w, f.flt, delim)
	case value.KindChar:
		return value.SerializeChar(w, byte(f.num), delim)
	case value.KindString:
		return value.SerializeString(w, f.str, delim)
	case value.KindGroup:
		return f.group.serialize(w, delim)
	default:
		panic(fmt.Sprintf("message: member %d has invalid kind", mem.Tag))
	}
}

func (f *Field) deserializeValue(r *cursor.Reader, mem schema.Member, delim byte) error {
	var err error
	switch mem.Kind {
	case value.KindInt:
		f.num, err = value.DeserializeInt(r, delim)
	case value.KindFixed:
		f.num, err = value.DeserializeFixed(r, delim)
	case value.KindFloat:
		f.flt, err = value.DeserializeFloat(r, delim)
	case value.KindChar:
		var c byte
		c, err = value.DeserializeChar(r, delim)
		f.num = int64(c)
	case value.KindString:
		f.str, err = value.DeserializeString(r, delim)
	case value.KindGroup:
		return f.group.deserialize(r, delim)
	default:
		panic(fmt.Sprintf("message: member %d has invalid kind", mem.Tag))
	}
	if err != nil {
		return err
	}
	f.present = true
	return nil
}

func (f *Field) equal(other *Field, mem schema.Member) bool {
	if f.Present() != other.Present() {
		return false
	}
	if !f.Present() {
		return true
	}
	switch mem.Kind {
	case value.KindFloat:
		return f.flt == other.flt
	case value.KindString:
		return f.str == other.str
	case value.KindGroup:
		return f.group.Equal(other.group)
	default:
		return f.num == other.num
	}
}

func (f *Field) text(mem schema.Member) string {
	switch mem.Kind {
	case value.KindFloat:
		return fmt.Sprint(f.flt)
	case value.KindString:
		return f.str
	case value.KindChar:
		return string(rune(byte(f.num)))
	case value.KindFixed:
		return fmt.Sprintf("%0*d", mem.Width, f.num)
	case value.KindGroup:
		return fmt.Sprint(f.group.Len())
	default:
		return fmt.Sprint(f.num)
	}
}
