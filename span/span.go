package span

import "fmt"

// NoMoreDocs is the document sentinel returned once a stream is exhausted.
const NoMoreDocs = ^uint32(0)

const (
	// unpositioned marks a stream on which NextSpan has not been called yet.
	unpositioned = -1
	// exhausted marks a stream with no further spans in the current document.
	exhausted = int(^uint32(0) >> 1) // max int32
)

// Span is a half-open token interval within one document.
// Start and End are token positions with 0 <= Start <= End.
type Span struct {
	Start int
	End   int
}

// NoMoreSpans is returned by NextSpan once the current document is drained.
var NoMoreSpans = Span{Start: exhausted, End: exhausted}

// Less reports whether s sorts before o in (start, end) order.
func (s Span) Less(o Span) bool {
	if s.Start != o.Start {
		return s.Start < o.Start
	}
	return s.End < o.End
}

// Length returns the number of tokens covered by the span.
func (s Span) Length() int { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Iterator is the lazy per-document span stream contract.
//
// Usage: position on a document with NextDoc or AdvanceDoc, then pull spans
// with NextSpan until NoMoreSpans. AdvanceDoc targets must be non-decreasing
// across calls.
type Iterator interface {
	// Doc returns the current document, or NoMoreDocs if exhausted.
	Doc() uint32

	// NextDoc advances to the next document with at least one span.
	NextDoc() uint32

	// AdvanceDoc positions the stream on the first document >= target that
	// has at least one span, returning it or NoMoreDocs.
	AdvanceDoc(target uint32) uint32

	// NextSpan returns the next span in the current document, or NoMoreSpans.
	// Spans come back in strictly increasing (start, end) order.
	NextSpan() Span

	// Start returns the start offset of the most recently returned span,
	// or -1 if NextSpan has not been called for the current document.
	Start() int

	// End returns the end offset of the most recently returned span,
	// or -1 if NextSpan has not been called for the current document.
	End() int
}
