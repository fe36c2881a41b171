// Package message owns runtime field storage for schema-defined messages.
//
// Ownership boundary:
// - field presence and typed values
// - declared-order serialization
// - tag-dispatched deserialization with stop-at-foreign-tag semantics
// - repeating groups
//
// A Deserialize that meets a tag it does not declare, or a tag it already
// consumed, rewinds to that tag and returns nil so an enclosing scope can
// claim it. Callers compare Processed() against the bytes they expected to
// tell "end of message" from trailing data.
package message
