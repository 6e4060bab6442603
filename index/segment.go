package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/spango/span"
)

// ErrUnknownDoc indicates a reference to a document the builder has not seen.
type ErrUnknownDoc struct {
	Doc uint32
}

func (e *ErrUnknownDoc) Error() string {
	return fmt.Sprintf("unknown document: %d", e.Doc)
}

// postings holds one term's documents and per-document token positions.
type postings struct {
	docs      *roaring.Bitmap
	positions map[uint32][]int32
}

// spanPostings holds one marker's documents and per-document spans.
type spanPostings struct {
	docs  *roaring.Bitmap
	spans map[uint32][]span.Span
}

// Segment is an immutable positional inverted index over a batch of
// documents. Local document IDs run from 0 to NumDocs-1.
type Segment struct {
	numDocs uint32
	terms   map[string]*postings
	markers map[string]*spanPostings
}

// NumDocs returns the number of documents in the segment.
func (s *Segment) NumDocs() uint32 { return s.numDocs }

// TermSpans returns a span stream over all occurrences of term, each one
// token wide. Returns nil if the term occurs nowhere in the segment.
func (s *Segment) TermSpans(term string) span.Iterator {
	p, ok := s.terms[term]
	if !ok {
		return nil
	}
	return &termSpans{positions: p.positions, it: p.docs.Iterator()}
}

// MarkerSpans returns a span stream over all spans recorded under the named
// marker. Returns nil if the marker occurs nowhere in the segment.
func (s *Segment) MarkerSpans(name string) span.Iterator {
	p, ok := s.markers[name]
	if !ok {
		return nil
	}
	return &markerSpans{spans: p.spans, it: p.docs.Iterator()}
}

// Builder accumulates documents and markers and seals them into a Segment.
// Not safe for concurrent use.
type Builder struct {
	numDocs uint32
	terms   map[string]*postings
	markers map[string]*spanPostings
}

// NewBuilder creates an empty segment builder.
func NewBuilder() *Builder {
	return &Builder{
		terms:   make(map[string]*postings),
		markers: make(map[string]*spanPostings),
	}
}

// Tokenize lowercases text and splits it on whitespace. One token is one
// position.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// AddDocument tokenizes text and indexes its token positions, returning the
// new document's local ID.
func (b *Builder) AddDocument(text string) uint32 {
	doc := b.numDocs
	b.numDocs++

	for pos, tok := range Tokenize(text) {
		p, ok := b.terms[tok]
		if !ok {
			p = &postings{docs: roaring.New(), positions: make(map[uint32][]int32)}
			b.terms[tok] = p
		}
		p.docs.Add(doc)
		p.positions[doc] = append(p.positions[doc], int32(pos))
	}
	return doc
}

// AddMarkerSpans records named spans (for example sentence boundaries) on a
// previously added document. Spans may arrive unsorted; duplicates are kept.
func (b *Builder) AddMarkerSpans(doc uint32, name string, spans []span.Span) error {
	if doc >= b.numDocs {
		return &ErrUnknownDoc{Doc: doc}
	}
	if len(spans) == 0 {
		return nil
	}
	p, ok := b.markers[name]
	if !ok {
		p = &spanPostings{docs: roaring.New(), spans: make(map[uint32][]span.Span)}
		b.markers[name] = p
	}
	p.docs.Add(doc)
	p.spans[doc] = append(p.spans[doc], spans...)
	return nil
}

// NumDocs returns the number of documents added so far.
func (b *Builder) NumDocs() uint32 { return b.numDocs }

// Seal finalizes the builder into an immutable Segment. The builder must not
// be used afterwards.
func (b *Builder) Seal() *Segment {
	for _, p := range b.markers {
		for doc, spans := range p.spans {
			sort.Slice(spans, func(i, j int) bool { return spans[i].Less(spans[j]) })
			p.spans[doc] = spans
		}
		p.docs.RunOptimize()
	}
	for _, p := range b.terms {
		p.docs.RunOptimize()
	}

	seg := &Segment{numDocs: b.numDocs, terms: b.terms, markers: b.markers}
	b.terms = nil
	b.markers = nil
	return seg
}
