package query

import (
	"math"

	"github.com/hupe1980/spango/index"
	"github.com/hupe1980/spango/span"
)

// unboundedLength marks a clause without an upper length bound.
const unboundedLength = math.MaxInt32

// Query is one node of a span query tree. Implementations are immutable;
// Rewrite returns a new tree instead of editing in place.
type Query interface {
	// Rewrite returns an equivalent, possibly optimized query. It returns
	// the receiver when nothing changed.
	Rewrite() Query

	// MatchesEmpty reports whether the query can match the empty token
	// sequence.
	MatchesEmpty() bool

	// ConstantLength reports whether all hits have the same token length.
	ConstantLength() bool

	// MinLength returns the minimum hit length in tokens.
	MinLength() int

	// MaxLength returns the maximum hit length in tokens, or a very large
	// value when unbounded.
	MaxLength() int

	// Spans returns a lazy span stream over one segment, or nil when the
	// query cannot match anywhere in the segment.
	Spans(seg *index.Segment) span.Iterator

	// String renders the query for diagnostics. Not parseable.
	String() string
}

// combiner is implemented by operators that can absorb a preceding
// constant-length part during sequence rewriting.
type combiner interface {
	CombineWithPrecedingPart(prev Query) (Query, bool)
}
