package span

// FilterSpans merges a producer span stream with a filter span stream and
// yields only the producer spans that stand in the configured Relation to at
// least one filter span of the same document (or to none, when inverted).
//
// Both input streams are exclusively owned by the FilterSpans and must yield
// spans in strictly increasing (start, end) order per document. Filter spans
// for the current document are pulled lazily into a lookahead buffer; spans
// that can no longer match any later producer span are dropped from the
// front, so the filter cursor moves monotonically across the document and
// matching is amortized linear in the sizes of the two streams.
//
// Edge adjustments widen or narrow the producer span while testing the
// relation only; emitted spans always carry the original offsets.
type FilterSpans struct {
	producer Iterator
	filter   Iterator

	rel         Relation
	invert      bool
	leftAdjust  int
	rightAdjust int

	doc uint32
	cur Span

	// first qualifying span of the current document, found while settling
	// on the document and handed out by the next NextSpan call.
	pending    Span
	hasPending bool

	filterStarted bool
	filterDoc     uint32
	docHasFilter  bool

	// lookahead window of filter spans for the current document.
	// buf[:dropped] is permanently irrelevant.
	buf         []Span
	dropped     int
	bufComplete bool
}

// NewFilterSpans creates a position-filtering merge iterator over the two
// streams. The relation, invert flag and edge adjustments are fixed for the
// lifetime of the iterator. Returns *ErrInvalidRelation for an unknown
// relation kind; no configuration error can surface later during iteration.
func NewFilterSpans(producer, filter Iterator, rel Relation, invert bool, leftAdjust, rightAdjust int) (*FilterSpans, error) {
	if !rel.Valid() {
		return nil, &ErrInvalidRelation{Relation: rel}
	}
	return &FilterSpans{
		producer:    producer,
		filter:      filter,
		rel:         rel,
		invert:      invert,
		leftAdjust:  leftAdjust,
		rightAdjust: rightAdjust,
		cur:         Span{Start: unpositioned, End: unpositioned},
	}, nil
}

// Doc returns the current document, or NoMoreDocs.
func (fs *FilterSpans) Doc() uint32 { return fs.doc }

// NextDoc advances to the next document with at least one qualifying
// producer span.
func (fs *FilterSpans) NextDoc() uint32 {
	if fs.doc == NoMoreDocs {
		return NoMoreDocs
	}
	return fs.settle(fs.producer.NextDoc())
}

// AdvanceDoc positions on the first document >= target with at least one
// qualifying producer span. Targets must be non-decreasing across calls.
func (fs *FilterSpans) AdvanceDoc(target uint32) uint32 {
	if fs.doc == NoMoreDocs {
		return NoMoreDocs
	}
	return fs.settle(fs.producer.AdvanceDoc(target))
}

// NextSpan returns the next qualifying producer span of the current
// document, unadjusted, or NoMoreSpans.
func (fs *FilterSpans) NextSpan() Span {
	if fs.hasPending {
		fs.hasPending = false
		fs.cur = fs.pending
		return fs.cur
	}
	fs.cur = fs.nextQualifying()
	return fs.cur
}

// Start returns the start offset of the most recently returned span, or -1.
func (fs *FilterSpans) Start() int { return fs.cur.Start }

// End returns the end offset of the most recently returned span, or -1.
func (fs *FilterSpans) End() int { return fs.cur.End }

// settle walks producer documents starting at d until one contributes a
// qualifying span, stashing that first span for the next NextSpan call.
func (fs *FilterSpans) settle(d uint32) uint32 {
	for {
		if d == NoMoreDocs {
			fs.doc = NoMoreDocs
			fs.cur = NoMoreSpans
			fs.hasPending = false
			return NoMoreDocs
		}
		fs.beginDoc(d)
		if first := fs.nextQualifying(); first != NoMoreSpans {
			fs.doc = d
			fs.pending = first
			fs.hasPending = true
			return d
		}
		d = fs.producer.NextDoc()
	}
}

// beginDoc resets per-document state and aligns the filter stream with
// document d. Filter documents are requested in non-decreasing order, so a
// filter positioned past d simply means d has no filter spans.
func (fs *FilterSpans) beginDoc(d uint32) {
	fs.buf = fs.buf[:0]
	fs.dropped = 0
	fs.bufComplete = false
	fs.cur = Span{Start: unpositioned, End: unpositioned}
	fs.hasPending = false

	if fs.filterDoc != NoMoreDocs {
		if !fs.filterStarted || fs.filterDoc < d {
			fs.filterDoc = fs.filter.AdvanceDoc(d)
			fs.filterStarted = true
		}
	}
	fs.docHasFilter = fs.filterDoc == d
}

// nextQualifying pulls producer spans until one passes the filter test.
func (fs *FilterSpans) nextQualifying() Span {
	for {
		p := fs.producer.NextSpan()
		if p == NoMoreSpans {
			return NoMoreSpans
		}
		if fs.qualifies(p) {
			return p
		}
	}
}

// qualifies decides whether producer span p is emitted, per the relation and
// invert semantics.
func (fs *FilterSpans) qualifies(p Span) bool {
	if !fs.docHasFilter {
		// No filter spans in this document: no producer span can satisfy
		// the relation, so everything fails (or, inverted, passes).
		return fs.invert
	}

	adj := Span{Start: p.Start + fs.leftAdjust, End: p.End + fs.rightAdjust}

	for fs.dropped < len(fs.buf) && fs.discardable(fs.buf[fs.dropped], p) {
		fs.dropped++
	}
	if fs.dropped > 32 && fs.dropped*2 > len(fs.buf) {
		fs.buf = append(fs.buf[:0], fs.buf[fs.dropped:]...)
		fs.dropped = 0
	}

	for i := fs.dropped; ; i++ {
		if i >= len(fs.buf) && !fs.fill() {
			break
		}
		f := fs.buf[i]
		if fs.pastWindow(f, adj) {
			break
		}
		if fs.rel.Holds(adj, f) {
			// Found a filter span in relation: accept, or reject when
			// inverted. Either way no further candidates matter.
			return !fs.invert
		}
	}
	return fs.invert
}

// discardable reports whether filter span f can never satisfy the relation
// for producer span p or any later producer span of this document. Producer
// starts are non-decreasing, which bounds every later adjusted span from
// below; anything falling short of that bound is dead.
func (fs *FilterSpans) discardable(f, p Span) bool {
	switch fs.rel {
	case Within, EndsAt:
		// Every later adjusted end is >= p.Start+rightAdjust.
		return f.End < p.Start+fs.rightAdjust
	default: // Containing, StartsAt, Matches
		// Every later adjusted start is >= p.Start+leftAdjust.
		return f.Start < p.Start+fs.leftAdjust
	}
}

// pastWindow reports whether filter span f, and by start-ordering every
// filter span after it, lies beyond the window that could still match the
// adjusted producer span. EndsAt has no such bound: filter ends are not
// ordered by the stream sort, so the whole document window is scanned.
func (fs *FilterSpans) pastWindow(f, adj Span) bool {
	switch fs.rel {
	case Within, StartsAt, Matches:
		return f.Start > adj.Start
	case Containing:
		return f.Start > adj.End
	}
	return false
}

// fill buffers one more filter span of the current document.
func (fs *FilterSpans) fill() bool {
	if fs.bufComplete {
		return false
	}
	s := fs.filter.NextSpan()
	if s == NoMoreSpans {
		fs.bufComplete = true
		return false
	}
	fs.buf = append(fs.buf, s)
	return true
}
