// Package value owns the per-kind text codecs of the tag=value wire format.
//
// Ownership boundary:
// - value rendering and parsing against cursors
// - tag preamble ("TAG=") encode/decode
// - delimiter display substitution
//
// Serialize checks capacity before writing; a failed serialize leaves the
// cursor and buffer untouched. Deserialize scans for the delimiter, parses the
// bytes before it, and advances past it only on success.
package value
