package value

import "errors"

// SOH is the default field delimiter.
const SOH byte = 0x01

// TagDelimiter separates a tag from its value.
const TagDelimiter byte = '='

// MaxFixedWidth is the widest zero-padded integer an int64 can fill.
const MaxFixedWidth = 19

var (
	ErrBufferTooSmall    = errors.New("value: buffer too small")
	ErrDelimiterNotFound = errors.New("value: delimiter not found")
	ErrMalformedValue    = errors.New("value: malformed value")
	ErrWidthOverflow     = errors.New("value: value exceeds fixed width")
)

// Kind is the closed set of member kinds a schema can declare.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindChar
	KindString
	KindFixed
	// KindGroup members carry an element count and nested messages.
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindFixed:
		return "fixed"
	case KindGroup:
		return "group"
	default:
		return "invalid"
	}
}

// ParseKind maps dictionary type names to kinds.
func ParseKind(raw string) (Kind, bool) {
	switch raw {
	case "int", "integer", "seqnum", "length", "numingroup":
		return KindInt, true
	case "float", "price", "qty", "amt":
		return KindFloat, true
	case "char", "boolean":
		return KindChar, true
	case "string":
		return KindString, true
	case "fixed":
		return KindFixed, true
	case "group":
		return KindGroup, true
	default:
		return KindInvalid, false
	}
}
