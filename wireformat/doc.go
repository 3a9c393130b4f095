// Package wireformat encodes and decodes the payloads exchanged between the
// core module and the host: tree snapshots, identifier lists and listener
// registrations.
//
// Three formats decode to the same entities.Snapshot:
//
//   - FormatFlat: line-feed separated fields. Each node record is
//     id, parent-or-NUL, tag-or-#text, text, then (name, value-or-NUL) pairs.
//     A field that validates as an identifier after the four fixed fields
//     starts the next record. Values containing LF or NUL cannot be
//     represented and are refused by the encoder; there is no escaping.
//   - FormatJSON: an array of node objects, lossless.
//   - FormatCBOR: the same shape in canonical CBOR, lossless.
//
// The structured formats carry text strings only: the encoders refuse
// invalid UTF-8 rather than replace it.
//
// Decoding never touches host state. Decoders check structure only; the
// reconciler validates node semantics so that a bad node in a well-formed
// payload is reported on its own.
package wireformat
