package query

import (
	"fmt"

	"github.com/hupe1980/spango/index"
	"github.com/hupe1980/spango/span"
)

// Term matches single-token occurrences of one term.
type Term struct {
	term string
}

// NewTerm creates a query for one token. The term is matched against the
// index's lowercased token stream.
func NewTerm(term string) *Term {
	return &Term{term: term}
}

func (q *Term) Rewrite() Query       { return q }
func (q *Term) MatchesEmpty() bool   { return false }
func (q *Term) ConstantLength() bool { return true }
func (q *Term) MinLength() int       { return 1 }
func (q *Term) MaxLength() int       { return 1 }

func (q *Term) Spans(seg *index.Segment) span.Iterator {
	return seg.TermSpans(q.term)
}

func (q *Term) String() string {
	return fmt.Sprintf("TERM(%s)", q.term)
}

// Marker matches the spans recorded under a named marker, such as sentence
// or paragraph boundaries. Marker spans have arbitrary lengths.
type Marker struct {
	name string
}

// NewMarker creates a query over the named marker's spans.
func NewMarker(name string) *Marker {
	return &Marker{name: name}
}

func (q *Marker) Rewrite() Query       { return q }
func (q *Marker) MatchesEmpty() bool   { return false }
func (q *Marker) ConstantLength() bool { return false }
func (q *Marker) MinLength() int       { return 0 }
func (q *Marker) MaxLength() int       { return unboundedLength }

func (q *Marker) Spans(seg *index.Segment) span.Iterator {
	return seg.MarkerSpans(q.name)
}

func (q *Marker) String() string {
	return fmt.Sprintf("MARKER(%s)", q.name)
}
