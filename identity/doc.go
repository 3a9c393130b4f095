// Package identity mints and validates node identifiers and owns the
// mapping between identifiers and live host elements.
//
// Identifiers are random RFC 4122 version 4 UUIDs rendered in the canonical
// 8-4-4-4-12 lowercase form. Validation is purely syntactic: grouping,
// length, hex digits, the version nibble and the variant nibble.
package identity
