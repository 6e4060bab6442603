package span

import "fmt"

// Relation is the positional test applied between a producer span and a
// filter span. Fixed for the lifetime of one filter.
type Relation int

const (
	// Within accepts producer spans that lie inside a filter span.
	Within Relation = iota
	// Containing accepts producer spans that enclose a filter span.
	Containing
	// StartsAt accepts producer spans sharing a start offset with a filter span.
	StartsAt
	// EndsAt accepts producer spans sharing an end offset with a filter span.
	EndsAt
	// Matches accepts producer spans identical to a filter span.
	Matches
)

// ErrInvalidRelation indicates an unknown relation kind.
//
// It is reported at construction time; evaluation never fails.
type ErrInvalidRelation struct {
	Relation Relation
}

func (e *ErrInvalidRelation) Error() string {
	return fmt.Sprintf("invalid span relation: %d", e.Relation)
}

// Valid reports whether r is one of the five defined relations.
func (r Relation) Valid() bool {
	return r >= Within && r <= Matches
}

// Holds reports whether the relation holds between the (already adjusted)
// producer span p and the filter span f. Pure function, safe for concurrent
// use.
func (r Relation) Holds(p, f Span) bool {
	switch r {
	case Within:
		return f.Start <= p.Start && p.End <= f.End
	case Containing:
		return p.Start <= f.Start && f.End <= p.End
	case StartsAt:
		return p.Start == f.Start
	case EndsAt:
		return p.End == f.End
	case Matches:
		return p.Start == f.Start && p.End == f.End
	}
	return false
}

// String returns the query-display keyword for the relation.
func (r Relation) String() string {
	switch r {
	case Within:
		return "WITHIN"
	case Containing:
		return "CONTAINING"
	case StartsAt:
		return "STARTS_AT"
	case EndsAt:
		return "ENDS_AT"
	case Matches:
		return "MATCHES"
	}
	return fmt.Sprintf("RELATION(%d)", int(r))
}
