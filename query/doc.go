// Package query provides the span query operators: terms, markers, adjacent
// sequences and the position filter. A query is an immutable tree; Rewrite
// produces a new, possibly optimized tree and Spans obtains a lazy
// span.Iterator over one index segment.
//
// The position filter keeps producer spans that stand in a positional
// relation (within, containing, starts-at, ends-at, matches) to filter
// spans, optionally inverted, with edge adjustments applied during matching
// only.
package query
