// Package index provides the positional inverted index backing span
// retrieval: immutable segments mapping terms to per-document token
// positions, and markers (named pre-annotated span regions such as sentence
// boundaries) to per-document span lists.
//
// Segments are built through a Builder, sealed, and then read through the
// span.Iterator contract. Sealed segments are immutable and safe for
// concurrent readers; every iterator obtained from a segment carries its own
// cursor state.
//
// Segments can be persisted to and restored from a compact binary snapshot,
// optionally compressed with LZ4 or ZSTD.
package index
