package message

import (
	"fmt"

	"github.com/danmuck/fixwire/internal/protocol/cursor"
	"github.com/danmuck/fixwire/internal/protocol/schema"
	"github.com/danmuck/fixwire/internal/protocol/value"
)

// Group is an ordered sequence of messages sharing one element definition.
// It is present iff it has elements; its wire value is the element count.
type Group struct {
	def   *schema.MessageDef
	elems []*Message
}

func (g *Group) Def() *schema.MessageDef { return g.def }

func (g *Group) Len() int { return len(g.elems) }

// Resize drops every element and replaces them with n absent ones.
func (g *Group) Resize(n int) *Group {
	g.Clear()
	if n <= 0 {
		return g
	}
	g.elems = make([]*Message, n)
	for i := range g.elems {
		g.elems[i] = New(g.def)
	}
	return g
}

func (g *Group) At(i int) *Message { return g.elems[i] }

// Append adds one absent element and returns it.
func (g *Group) Append() *Message {
	elem := New(g.def)
	g.elems = append(g.elems, elem)
	return elem
}

func (g *Group) Clear() {
	g.elems = nil
}

func (g *Group) Equal(other *Group) bool {
	if g.def != other.def || len(g.elems) != len(other.elems) {
		return false
	}
	for i := range g.elems {
		if !g.elems[i].Equal(other.elems[i]) {
			return false
		}
	}
	return true
}

// serialize writes the count value followed by every element. The caller has
// already written the group tag.
func (g *Group) serialize(w *cursor.Writer, delim byte) error {
	if err := value.SerializeInt(w, int64(len(g.elems)), delim); err != nil {
		return err
	}
	for i, elem := range g.elems {
		if err := elem.Serialize(w, delim); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// deserialize reads the count value and that many elements. Counts above the
// unread byte count are rejected before any allocation.
func (g *Group) deserialize(r *cursor.Reader, delim byte) error {
	n, err := value.DeserializeInt(r, delim)
	if err != nil {
		return err
	}
	if n < 0 || n > int64(r.Remaining()) {
		return fmt.Errorf("group count %d: %w", n, value.ErrMalformedValue)
	}
	g.Resize(int(n))
	for i, elem := range g.elems {
		if err := elem.Deserialize(r, delim); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
