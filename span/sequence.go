package span

import "sort"

// sequenceSpans joins two streams into adjacent concatenations: it yields a
// span (a.Start, b.End) for every pair of same-document spans a (left) and b
// (right) with a.End == b.Start.
//
// Concatenations are not naturally produced in (start, end) order when the
// left operand has variable length, so each document's results are buffered,
// sorted and deduplicated before being handed out.
type sequenceSpans struct {
	left  Iterator
	right Iterator

	doc  uint32
	out  []Span
	idx  int
	cur  Span
	rbuf []Span
}

// NewSequence returns an iterator over adjacent concatenations of left and
// right. Both operands are exclusively owned by the result.
func NewSequence(left, right Iterator) Iterator {
	return &sequenceSpans{
		left:  left,
		right: right,
		cur:   Span{Start: unpositioned, End: unpositioned},
	}
}

func (s *sequenceSpans) Doc() uint32 { return s.doc }

func (s *sequenceSpans) NextDoc() uint32 {
	if s.doc == NoMoreDocs {
		return NoMoreDocs
	}
	return s.settle(s.left.NextDoc())
}

func (s *sequenceSpans) AdvanceDoc(target uint32) uint32 {
	if s.doc == NoMoreDocs {
		return NoMoreDocs
	}
	return s.settle(s.left.AdvanceDoc(target))
}

func (s *sequenceSpans) NextSpan() Span {
	if s.idx < len(s.out) {
		s.cur = s.out[s.idx]
		s.idx++
	} else {
		s.cur = NoMoreSpans
	}
	return s.cur
}

func (s *sequenceSpans) Start() int { return s.cur.Start }
func (s *sequenceSpans) End() int   { return s.cur.End }

// settle leapfrogs the two operands to a common document with at least one
// adjacent pair.
func (s *sequenceSpans) settle(d uint32) uint32 {
	for {
		if d == NoMoreDocs {
			s.doc = NoMoreDocs
			s.cur = NoMoreSpans
			s.out = s.out[:0]
			s.idx = 0
			return NoMoreDocs
		}
		rd := s.right.AdvanceDoc(d)
		if rd == NoMoreDocs {
			d = NoMoreDocs
			continue
		}
		if rd > d {
			d = s.left.AdvanceDoc(rd)
			continue
		}
		if s.build() {
			s.doc = d
			s.idx = 0
			s.cur = Span{Start: unpositioned, End: unpositioned}
			return d
		}
		d = s.left.NextDoc()
	}
}

// build materializes the document's concatenations into out.
func (s *sequenceSpans) build() bool {
	s.rbuf = s.rbuf[:0]
	for b := s.right.NextSpan(); b != NoMoreSpans; b = s.right.NextSpan() {
		s.rbuf = append(s.rbuf, b)
	}
	s.out = s.out[:0]

	for a := s.left.NextSpan(); a != NoMoreSpans; a = s.left.NextSpan() {
		// rbuf is sorted by start; pick the run of spans starting at a.End.
		i := sort.Search(len(s.rbuf), func(i int) bool { return s.rbuf[i].Start >= a.End })
		for ; i < len(s.rbuf) && s.rbuf[i].Start == a.End; i++ {
			s.out = append(s.out, Span{Start: a.Start, End: s.rbuf[i].End})
		}
	}
	if len(s.out) == 0 {
		return false
	}

	sort.Slice(s.out, func(i, j int) bool { return s.out[i].Less(s.out[j]) })
	dedup := s.out[:1]
	for _, sp := range s.out[1:] {
		if sp != dedup[len(dedup)-1] {
			dedup = append(dedup, sp)
		}
	}
	s.out = dedup
	return true
}
