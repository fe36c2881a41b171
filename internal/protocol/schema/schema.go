// Package schema owns message definitions: the ordered member list of a
// message or group element, resolved once into a shared tag index.
package schema

import (
	"fmt"
	"slices"

	"github.com/danmuck/fixwire/internal/protocol/tagindex"
	"github.com/danmuck/fixwire/internal/protocol/value"
	"github.com/rs/zerolog/log"
)

// Member is one declared field or group of a message.
type Member struct {
	Tag  int
	Name string
	Kind value.Kind
	// Width is the zero-padded digit count of KindFixed members.
	Width int
	// Elem is the element definition of KindGroup members.
	Elem *MessageDef
}

func Int(tag int, name string) Member {
	return Member{Tag: tag, Name: name, Kind: value.KindInt}
}

func Float(tag int, name string) Member {
	return Member{Tag: tag, Name: name, Kind: value.KindFloat}
}

func Char(tag int, name string) Member {
	return Member{Tag: tag, Name: name, Kind: value.KindChar}
}

func String(tag int, name string) Member {
	return Member{Tag: tag, Name: name, Kind: value.KindString}
}

func Fixed(tag int, name string, width int) Member {
	return Member{Tag: tag, Name: name, Kind: value.KindFixed, Width: width}
}

func Group(tag int, name string, elem *MessageDef) Member {
	return Member{Tag: tag, Name: name, Kind: value.KindGroup, Elem: elem}
}

// DefinitionError reports a schema that cannot be used for encode/decode.
type DefinitionError struct {
	Message string
	Tag     int
	Reason  string
}

func (e DefinitionError) Error() string {
	if e.Tag == 0 {
		return fmt.Sprintf("schema: message=%s: %s", e.Message, e.Reason)
	}
	return fmt.Sprintf("schema: message=%s tag=%d: %s", e.Message, e.Tag, e.Reason)
}

// MessageDef is an immutable message shape. Wire order is declaration order;
// dispatch goes through the shared index of the sorted tag set.
type MessageDef struct {
	name    string
	members []Member
	index   *tagindex.Index
	// positions maps an index slot to the member's declaration position.
	positions []int
}

// Define validates members and resolves the dispatch table.
func Define(name string, members ...Member) (*MessageDef, error) {
	tags := make([]int, 0, len(members))
	for _, m := range members {
		if err := validateMember(name, m); err != nil {
			log.Error().Str("schema", name).Int("tag", m.Tag).Err(err).Msg("schema.Define rejected member")
			return nil, err
		}
		if slices.Contains(tags, m.Tag) {
			return nil, DefinitionError{Message: name, Tag: m.Tag, Reason: "duplicate tag"}
		}
		tags = append(tags, m.Tag)
	}

	index := tagindex.Shared(tags...)
	positions := make([]int, len(members))
	for pos, m := range members {
		slot, _ := index.IndexOf(m.Tag)
		positions[slot] = pos
	}

	return &MessageDef{
		name:      name,
		members:   slices.Clone(members),
		index:     index,
		positions: positions,
	}, nil
}

// MustDefine is Define for package-level dictionaries; it panics on error.
func MustDefine(name string, members ...Member) *MessageDef {
	def, err := Define(name, members...)
	if err != nil {
		panic(err)
	}
	return def
}

func validateMember(message string, m Member) error {
	if m.Tag <= 0 {
		return DefinitionError{Message: message, Tag: m.Tag, Reason: "tag must be positive"}
	}
	switch m.Kind {
	case value.KindInt, value.KindFloat, value.KindChar, value.KindString:
	case value.KindFixed:
		if m.Width < 1 || m.Width > value.MaxFixedWidth {
			return DefinitionError{Message: message, Tag: m.Tag, Reason: fmt.Sprintf("fixed width %d outside 1..%d", m.Width, value.MaxFixedWidth)}
		}
	case value.KindGroup:
		if m.Elem == nil {
			return DefinitionError{Message: message, Tag: m.Tag, Reason: "group without element definition"}
		}
	default:
		return DefinitionError{Message: message, Tag: m.Tag, Reason: "invalid kind"}
	}
	return nil
}

func (d *MessageDef) Name() string { return d.name }

func (d *MessageDef) Len() int { return len(d.members) }

// Member returns the member at declaration position i.
func (d *MessageDef) Member(i int) Member { return d.members[i] }

func (d *MessageDef) Members() []Member { return slices.Clone(d.members) }

func (d *MessageDef) Index() *tagindex.Index { return d.index }

// Position returns the declaration position of tag in O(log n).
func (d *MessageDef) Position(tag int) (int, bool) {
	slot, ok := d.index.IndexOf(tag)
	if !ok {
		return -1, false
	}
	return d.positions[slot], true
}

// Tags returns member tags in declaration order.
func (d *MessageDef) Tags() []int {
	tags := make([]int, len(d.members))
	for i, m := range d.members {
		tags[i] = m.Tag
	}
	return tags
}

// Lookup finds a member by name.
func (d *MessageDef) Lookup(name string) (Member, bool) {
	for _, m := range d.members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// DispatchCompatible reports whether both definitions share one sorted tag set.
func (d *MessageDef) DispatchCompatible(other *MessageDef) bool {
	return d.index.Equal(other.index)
}
