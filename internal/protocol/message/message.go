package message

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/fixwire/internal/protocol/cursor"
	"github.com/danmuck/fixwire/internal/protocol/schema"
	"github.com/danmuck/fixwire/internal/protocol/value"
)

// Message holds one value per declared member of its definition.
type Message struct {
	def    *schema.MessageDef
	fields []Field
}

// New returns a message with every field absent.
func New(def *schema.MessageDef) *Message {
	m := &Message{def: def, fields: make([]Field, def.Len())}
	for i := range m.fields {
		if mem := def.Member(i); mem.Kind == value.KindGroup {
			m.fields[i].group = &Group{def: mem.Elem}
		}
	}
	return m
}

func (m *Message) Def() *schema.MessageDef { return m.def }

// field resolves tag to its storage. Addressing an undeclared tag or the
// wrong kind is a programming error and panics.
func (m *Message) field(tag int, kinds ...value.Kind) (*Field, schema.Member) {
	pos, ok := m.def.Position(tag)
	if !ok {
		panic(fmt.Sprintf("message: %s has no member with tag %d", m.def.Name(), tag))
	}
	mem := m.def.Member(pos)
	for _, k := range kinds {
		if mem.Kind == k {
			return &m.fields[pos], mem
		}
	}
	panic(fmt.Sprintf("message: %s tag %d is %s, not %v", m.def.Name(), tag, mem.Kind, kinds))
}

// SetInt sets an int or fixed-width member.
func (m *Message) SetInt(tag int, v int64) *Message {
	f, _ := m.field(tag, value.KindInt, value.KindFixed)
	f.num, f.present = v, true
	return m
}

func (m *Message) SetFloat(tag int, v float64) *Message {
	f, _ := m.field(tag, value.KindFloat)
	f.flt, f.present = v, true
	return m
}

func (m *Message) SetChar(tag int, v byte) *Message {
	f, _ := m.field(tag, value.KindChar)
	f.num, f.present = int64(v), true
	return m
}

// SetString sets a string member. v must not contain the delimiter.
func (m *Message) SetString(tag int, v string) *Message {
	f, _ := m.field(tag, value.KindString)
	f.str, f.present = v, true
	return m
}

// Clear marks a member absent. Groups lose all elements.
func (m *Message) Clear(tag int) *Message {
	f, _ := m.field(tag, value.KindInt, value.KindFixed, value.KindFloat, value.KindChar, value.KindString, value.KindGroup)
	f.clear()
	return m
}

// Reset marks every member absent.
func (m *Message) Reset() {
	for i := range m.fields {
		m.fields[i].clear()
	}
}

func (m *Message) Int(tag int) (int64, bool) {
	f, _ := m.field(tag, value.KindInt, value.KindFixed)
	return f.num, f.present
}

func (m *Message) Float(tag int) (float64, bool) {
	f, _ := m.field(tag, value.KindFloat)
	return f.flt, f.present
}

func (m *Message) Char(tag int) (byte, bool) {
	f, _ := m.field(tag, value.KindChar)
	return byte(f.num), f.present
}

func (m *Message) String(tag int) (string, bool) {
	f, _ := m.field(tag, value.KindString)
	return f.str, f.present
}

func (m *Message) Present(tag int) bool {
	pos, ok := m.def.Position(tag)
	return ok && m.fields[pos].Present()
}

// Group returns the repeating group declared at tag.
func (m *Message) Group(tag int) *Group {
	f, _ := m.field(tag, value.KindGroup)
	return f.group
}

// Serialize writes present members in declaration order.
func (m *Message) Serialize(w *cursor.Writer, delim byte) error {
	for i := range m.fields {
		mem := m.def.Member(i)
		if err := m.fields[i].Serialize(w, mem, delim); err != nil {
			return FieldError{Message: m.def.Name(), Tag: mem.Tag, Err: err}
		}
	}
	return nil
}

// Deserialize resets m and consumes tags it declares until the input ends or
// a foreign or repeated tag appears. In the latter case the reader is left at
// the start of that tag.
func (m *Message) Deserialize(r *cursor.Reader, delim byte) error {
	m.Reset()

	var inline [1]uint64
	seen := inline[:]
	if n := len(m.fields); n > 64 {
		seen = make([]uint64, (n+63)/64)
	}

	for r.Remaining() > 0 {
		start := r.Processed()
		tag, err := value.DeserializeTag(r)
		if err != nil {
			return FieldError{Message: m.def.Name(), Err: fmt.Errorf("tag at offset %d: %w", start, err)}
		}
		pos, ok := m.def.Position(tag)
		if !ok || seen[pos/64]&(1<<(pos%64)) != 0 {
			r.Step(start - r.Processed())
			return nil
		}
		seen[pos/64] |= 1 << (pos % 64)
		mem := m.def.Member(pos)
		if err := m.fields[pos].deserializeValue(r, mem, delim); err != nil {
			return FieldError{Message: m.def.Name(), Tag: tag, Err: err}
		}
	}
	return nil
}

// Equal compares definitions and every member value.
func (m *Message) Equal(other *Message) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil || m.def != other.def {
		return false
	}
	for i := range m.fields {
		if !m.fields[i].equal(&other.fields[i], m.def.Member(i)) {
			return false
		}
	}
	return true
}

// Dump writes present members as indented "Name(tag)=value" lines.
func (m *Message) Dump(w io.Writer) error {
	return m.dump(w, 0)
}

func (m *Message) dump(w io.Writer, depth int) error {
	indent := strings.Repeat("  ", depth)
	for i := range m.fields {
		f := &m.fields[i]
		if !f.Present() {
			continue
		}
		mem := m.def.Member(i)
		if _, err := fmt.Fprintf(w, "%s%s(%d)=%s\n", indent, mem.Name, mem.Tag, f.text(mem)); err != nil {
			return err
		}
		if mem.Kind != value.KindGroup {
			continue
		}
		for j := 0; j < f.group.Len(); j++ {
			if _, err := fmt.Fprintf(w, "%s  [%d]\n", indent, j); err != nil {
				return err
			}
			if err := f.group.At(j).dump(w, depth+2); err != nil {
				return err
			}
		}
	}
	return nil
}
