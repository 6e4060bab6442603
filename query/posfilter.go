package query

import (
	"fmt"

	"github.com/hupe1980/spango/index"
	"github.com/hupe1980/spango/span"
)

// PositionFilter keeps hits from the producer query based on the positions
// of hits from the filter query: producer hits within a filter hit,
// containing one, starting or ending where one does, or identical to one.
// With invert set, producer hits matching no filter hit are kept instead.
//
// The edge adjustments shift the producer hit's boundaries while testing the
// relation; emitted hits always keep their original boundaries. Adjustments
// accumulate and must be configured before spans are obtained.
type PositionFilter struct {
	producer Query
	filter   Query

	rel         span.Relation
	invert      bool
	leftAdjust  int
	rightAdjust int
}

// NewPositionFilter creates a position filter over producer and filter.
// Returns *span.ErrInvalidRelation for an unknown relation kind; the
// operator refuses to build rather than fail during iteration.
func NewPositionFilter(producer, filter Query, rel span.Relation, invert bool) (*PositionFilter, error) {
	if !rel.Valid() {
		return nil, &span.ErrInvalidRelation{Relation: rel}
	}
	return &PositionFilter{
		producer: producer,
		filter:   filter,
		rel:      rel,
		invert:   invert,
	}, nil
}

// AdjustLeft shifts the producer hits' left matching edge by delta. The
// original producer hit is emitted, not the adjusted one.
func (q *PositionFilter) AdjustLeft(delta int) {
	q.leftAdjust += delta
}

// AdjustRight shifts the producer hits' right matching edge by delta. The
// original producer hit is emitted, not the adjusted one.
func (q *PositionFilter) AdjustRight(delta int) {
	q.rightAdjust += delta
}

func (q *PositionFilter) MatchesEmpty() bool   { return q.producer.MatchesEmpty() }
func (q *PositionFilter) ConstantLength() bool { return q.producer.ConstantLength() }
func (q *PositionFilter) MinLength() int       { return q.producer.MinLength() }
func (q *PositionFilter) MaxLength() int       { return q.producer.MaxLength() }

func (q *PositionFilter) Rewrite() Query {
	producer := q.producer.Rewrite()
	filter := q.filter.Rewrite()
	if producer == q.producer && filter == q.filter {
		return q
	}
	c := q.copy()
	c.producer = producer
	c.filter = filter
	return c
}

// CombineWithPrecedingPart gobbles up a constant-length predecessor: the
// producer becomes the concatenation of the two parts and the left matching
// edge moves right past the absorbed part. Filtering a longer producer
// stream is cheaper than filtering and then joining, since the combined
// stream usually carries fewer hits.
func (q *PositionFilter) CombineWithPrecedingPart(prev Query) (Query, bool) {
	if !prev.ConstantLength() {
		return nil, false
	}
	c := q.copy()
	c.producer = NewSequence(prev, q.producer)
	c.leftAdjust += prev.MinLength()
	return c, true
}

func (q *PositionFilter) copy() *PositionFilter {
	c := *q
	return &c
}

// Spans returns the filtered producer stream for one segment.
//
// A producer absent from the whole segment yields nil. A filter absent from
// the whole segment collapses the result: nothing can match a positive
// filter, while a negative filter passes the producer stream through
// unmodified. Both cases are decided here once, not per document.
func (q *PositionFilter) Spans(seg *index.Segment) span.Iterator {
	producer := q.producer.Spans(seg)
	if producer == nil {
		return nil
	}
	filter := q.filter.Spans(seg)
	if filter == nil {
		if q.invert {
			return producer
		}
		return nil
	}
	fs, err := span.NewFilterSpans(producer, filter, q.rel, q.invert, q.leftAdjust, q.rightAdjust)
	if err != nil {
		// The relation was validated at construction.
		return nil
	}
	return fs
}

func (q *PositionFilter) String() string {
	not := ""
	if q.invert {
		not = "NOT"
	}
	adj := ""
	if q.leftAdjust != 0 || q.rightAdjust != 0 {
		adj = fmt.Sprintf(", %d, %d", q.leftAdjust, q.rightAdjust)
	}
	return fmt.Sprintf("POSFILTER(%s, %s, %s%s%s)", q.producer, q.filter, not, q.rel, adj)
}
