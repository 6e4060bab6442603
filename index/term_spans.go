package index

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/spango/span"
)

// termSpans streams one term's occurrences as one-token-wide spans, document
// by document, driven by the term's roaring doc bitmap.
type termSpans struct {
	positions map[uint32][]int32
	it        roaring.IntPeekable

	started bool
	doc     uint32
	pos     []int32
	idx     int
	cur     span.Span
}

func (t *termSpans) Doc() uint32 { return t.doc }

func (t *termSpans) NextDoc() uint32 {
	t.started = true
	if !t.it.HasNext() {
		return t.exhaust()
	}
	t.doc = t.it.Next()
	t.pos = t.positions[t.doc]
	t.idx = 0
	t.cur = span.Span{Start: -1, End: -1}
	return t.doc
}

func (t *termSpans) AdvanceDoc(target uint32) uint32 {
	if t.started && t.doc != span.NoMoreDocs && t.doc >= target {
		// Already at or past the target; keep the current document and any
		// unread spans.
		return t.doc
	}
	t.it.AdvanceIfNeeded(target)
	return t.NextDoc()
}

func (t *termSpans) NextSpan() span.Span {
	if t.idx >= len(t.pos) {
		t.cur = span.NoMoreSpans
		return t.cur
	}
	p := int(t.pos[t.idx])
	t.idx++
	t.cur = span.Span{Start: p, End: p + 1}
	return t.cur
}

func (t *termSpans) Start() int { return t.cur.Start }
func (t *termSpans) End() int   { return t.cur.End }

func (t *termSpans) exhaust() uint32 {
	t.doc = span.NoMoreDocs
	t.pos = nil
	t.idx = 0
	t.cur = span.NoMoreSpans
	return span.NoMoreDocs
}

// markerSpans streams one marker's recorded spans, document by document.
type markerSpans struct {
	spans map[uint32][]span.Span
	it    roaring.IntPeekable

	started bool
	doc     uint32
	cur     span.Span
	buf     []span.Span
	idx     int
}

func (m *markerSpans) Doc() uint32 { return m.doc }

func (m *markerSpans) NextDoc() uint32 {
	m.started = true
	if !m.it.HasNext() {
		return m.exhaust()
	}
	m.doc = m.it.Next()
	m.buf = m.spans[m.doc]
	m.idx = 0
	m.cur = span.Span{Start: -1, End: -1}
	return m.doc
}

func (m *markerSpans) AdvanceDoc(target uint32) uint32 {
	if m.started && m.doc != span.NoMoreDocs && m.doc >= target {
		return m.doc
	}
	m.it.AdvanceIfNeeded(target)
	return m.NextDoc()
}

func (m *markerSpans) NextSpan() span.Span {
	if m.idx >= len(m.buf) {
		m.cur = span.NoMoreSpans
		return m.cur
	}
	m.cur = m.buf[m.idx]
	m.idx++
	return m.cur
}

func (m *markerSpans) Start() int { return m.cur.Start }
func (m *markerSpans) End() int   { return m.cur.End }

func (m *markerSpans) exhaust() uint32 {
	m.doc = span.NoMoreDocs
	m.buf = nil
	m.idx = 0
	m.cur = span.NoMoreSpans
	return span.NoMoreDocs
}
