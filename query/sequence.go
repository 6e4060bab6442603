package query

import (
	"strings"

	"github.com/hupe1980/spango/index"
	"github.com/hupe1980/spango/span"
)

// Sequence matches adjacent concatenations of its clauses, in order.
type Sequence struct {
	clauses []Query
}

// NewSequence builds a sequence query. A single clause is returned as-is.
func NewSequence(clauses ...Query) Query {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return &Sequence{clauses: clauses}
}

// NewPhrase builds a sequence of single-term clauses from whitespace
// separated text, tokenized the same way documents are.
func NewPhrase(text string) Query {
	tokens := index.Tokenize(text)
	clauses := make([]Query, 0, len(tokens))
	for _, tok := range tokens {
		clauses = append(clauses, NewTerm(tok))
	}
	return NewSequence(clauses...)
}

func (q *Sequence) MatchesEmpty() bool {
	for _, c := range q.clauses {
		if !c.MatchesEmpty() {
			return false
		}
	}
	return true
}

func (q *Sequence) ConstantLength() bool {
	for _, c := range q.clauses {
		if !c.ConstantLength() {
			return false
		}
	}
	return true
}

func (q *Sequence) MinLength() int {
	sum := 0
	for _, c := range q.clauses {
		sum += c.MinLength()
	}
	return sum
}

func (q *Sequence) MaxLength() int {
	sum := 0
	for _, c := range q.clauses {
		m := c.MaxLength()
		if m >= unboundedLength {
			return unboundedLength
		}
		sum += m
	}
	return sum
}

// Rewrite rewrites all clauses, flattens nested sequences and lets clauses
// that support it absorb their constant-length predecessor (the position
// filter uses this to shift its matching edge instead of filtering a longer
// producer stream). Returns the receiver unchanged when nothing applied.
func (q *Sequence) Rewrite() Query {
	changed := false

	flat := make([]Query, 0, len(q.clauses))
	for _, c := range q.clauses {
		r := c.Rewrite()
		if r != c {
			changed = true
		}
		if nested, ok := r.(*Sequence); ok {
			flat = append(flat, nested.clauses...)
			changed = true
		} else {
			flat = append(flat, r)
		}
	}

	for i := 1; i < len(flat); i++ {
		c, ok := flat[i].(combiner)
		if !ok {
			continue
		}
		combined, ok := c.CombineWithPrecedingPart(flat[i-1])
		if !ok {
			continue
		}
		flat = append(flat[:i-1], append([]Query{combined}, flat[i+1:]...)...)
		changed = true
		i--
	}

	if !changed {
		return q
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &Sequence{clauses: flat}
}

func (q *Sequence) Spans(seg *index.Segment) span.Iterator {
	it := q.clauses[0].Spans(seg)
	if it == nil {
		return nil
	}
	for _, c := range q.clauses[1:] {
		next := c.Spans(seg)
		if next == nil {
			return nil
		}
		it = span.NewSequence(it, next)
	}
	return it
}

func (q *Sequence) String() string {
	parts := make([]string, len(q.clauses))
	for i, c := range q.clauses {
		parts[i] = c.String()
	}
	return "SEQ(" + strings.Join(parts, ", ") + ")"
}
