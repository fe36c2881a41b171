package dict

import (
	"slices"

	"github.com/danmuck/fixwire/internal/protocol/schema"
)

// Dictionary is the schema set of one protocol revision.
type Dictionary struct {
	Name    string
	Header  *schema.MessageDef
	Trailer *schema.MessageDef
	bodies  map[string]*schema.MessageDef
}

// Body returns the body definition registered for a MsgType value.
func (d *Dictionary) Body(msgType string) (*schema.MessageDef, bool) {
	def, ok := d.bodies[msgType]
	return def, ok
}

// MsgTypes returns the registered MsgType values in sorted order.
func (d *Dictionary) MsgTypes() []string {
	out := make([]string, 0, len(d.bodies))
	for k := range d.bodies {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// MsgTypeTag returns the tag of the header member named MsgType, or
// TagMsgType when the header does not name one.
func (d *Dictionary) MsgTypeTag() int {
	if m, ok := d.Header.Lookup("MsgType"); ok {
		return m.Tag
	}
	return TagMsgType
}
