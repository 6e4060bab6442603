// Package span provides the core data model and iterators for span-based
// full-text retrieval: token-offset spans, the lazy per-document iterator
// contract, the positional relation evaluator and the position-filtering
// merge iterator.
//
// # Iterator Contract
//
// An Iterator yields documents in non-decreasing order and, within one
// document, spans in strictly increasing (start, end) order. Both the
// producer and filter streams consumed by FilterSpans must uphold this
// ordering; the merge algorithm depends on it and does not verify it.
//
// # Thread Safety
//
// Iterators are single-reader. Relation values are pure and may be shared
// freely across concurrently running iterators.
package span
