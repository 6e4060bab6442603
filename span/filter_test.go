package span

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFilter(t *testing.T, producer, filter Iterator, rel Relation, invert bool, left, right int) *FilterSpans {
	t.Helper()
	fs, err := NewFilterSpans(producer, filter, rel, invert, left, right)
	require.NoError(t, err)
	return fs
}

func TestFilterSpansWithin(t *testing.T) {
	producer := newStubSpans(stubDoc{1, []Span{{2, 2}, {5, 7}, {10, 10}}})
	filter := newStubSpans(stubDoc{1, []Span{{0, 9}}})
	fs := newFilter(t, producer, filter, Within, false, 0, 0)

	require.Equal(t, uint32(1), fs.NextDoc())
	assert.Equal(t, -1, fs.Start(), "accessors are unpositioned until NextSpan")
	assert.Equal(t, -1, fs.End())

	assert.Equal(t, []Span{{2, 2}, {5, 7}}, drainDoc(fs))
	assert.Equal(t, NoMoreDocs, fs.NextDoc())
}

func TestFilterSpansContainingNoMatch(t *testing.T) {
	producer := newStubSpans(stubDoc{1, []Span{{2, 2}, {5, 7}, {10, 10}}})
	filter := newStubSpans(stubDoc{1, []Span{{0, 9}}})
	fs := newFilter(t, producer, filter, Containing, false, 0, 0)

	// No producer span encloses (0,9); the document is skipped entirely.
	assert.Equal(t, NoMoreDocs, fs.NextDoc())
}

func TestFilterSpansContaining(t *testing.T) {
	producer := newStubSpans(stubDoc{4, []Span{{0, 3}, {1, 9}, {6, 7}}})
	filter := newStubSpans(stubDoc{4, []Span{{2, 3}, {6, 7}}})
	fs := newFilter(t, producer, filter, Containing, false, 0, 0)

	require.Equal(t, uint32(4), fs.NextDoc())
	assert.Equal(t, []Span{{0, 3}, {1, 9}, {6, 7}}, drainDoc(fs))
}

func TestFilterSpansMatchesInverted(t *testing.T) {
	producer := newStubSpans(stubDoc{1, []Span{{3, 3}}})
	filter := newStubSpans(stubDoc{1, []Span{{3, 3}}})
	fs := newFilter(t, producer, filter, Matches, true, 0, 0)

	assert.Equal(t, NoMoreDocs, fs.NextDoc())
}

func TestFilterSpansAdjustmentNeutralOnEmit(t *testing.T) {
	// Producer (3,5) tested as (2,5) which lies within (2,5); the span
	// handed out keeps the original offsets.
	producer := newStubSpans(stubDoc{1, []Span{{3, 5}}})
	filter := newStubSpans(stubDoc{1, []Span{{2, 5}}})
	fs := newFilter(t, producer, filter, Within, false, -1, 0)

	require.Equal(t, uint32(1), fs.NextDoc())
	assert.Equal(t, Span{3, 5}, fs.NextSpan())
	assert.Equal(t, 3, fs.Start())
	assert.Equal(t, 5, fs.End())
}

func TestFilterSpansAdjustmentExcludes(t *testing.T) {
	// Without adjustment (3,5) is within (3,5); widening the left edge by
	// one makes the tested span (2,5), which no longer fits.
	producer := newStubSpans(stubDoc{1, []Span{{3, 5}}})
	filter := newStubSpans(stubDoc{1, []Span{{3, 5}}})
	fs := newFilter(t, producer, filter, Within, false, -1, 0)

	assert.Equal(t, NoMoreDocs, fs.NextDoc())
}

func TestFilterSpansEmptyFilterDoc(t *testing.T) {
	producerSpans := []Span{{1, 2}, {4, 6}}

	t.Run("positive filter skips the document", func(t *testing.T) {
		producer := newStubSpans(stubDoc{7, producerSpans})
		filter := newStubSpans() // no documents at all
		fs := newFilter(t, producer, filter, Within, false, 0, 0)
		assert.Equal(t, NoMoreDocs, fs.NextDoc())
	})

	t.Run("negative filter passes everything through", func(t *testing.T) {
		producer := newStubSpans(stubDoc{7, producerSpans})
		filter := newStubSpans()
		fs := newFilter(t, producer, filter, Within, true, 0, 0)
		require.Equal(t, uint32(7), fs.NextDoc())
		assert.Equal(t, producerSpans, drainDoc(fs))
	})

	t.Run("filter present in other documents only", func(t *testing.T) {
		producer := newStubSpans(stubDoc{7, producerSpans})
		filter := newStubSpans(stubDoc{9, []Span{{0, 100}}})
		fs := newFilter(t, producer, filter, Within, true, 0, 0)
		require.Equal(t, uint32(7), fs.NextDoc())
		assert.Equal(t, producerSpans, drainDoc(fs))
	})
}

func TestFilterSpansEmptyProducer(t *testing.T) {
	for _, invert := range []bool{false, true} {
		producer := newStubSpans()
		filter := newStubSpans(stubDoc{1, []Span{{0, 9}}})
		fs := newFilter(t, producer, filter, Within, invert, 0, 0)
		assert.Equal(t, NoMoreDocs, fs.NextDoc())
	}
}

func TestFilterSpansInvertComplement(t *testing.T) {
	producerSpans := []Span{{0, 2}, {1, 1}, {2, 5}, {3, 4}, {3, 8}, {6, 7}, {9, 9}}
	filterSpans := []Span{{1, 4}, {2, 5}, {3, 3}, {6, 9}}

	for rel := Within; rel <= Matches; rel++ {
		kept := drainAll(newFilter(t,
			newStubSpans(stubDoc{1, producerSpans}),
			newStubSpans(stubDoc{1, filterSpans}),
			rel, false, 0, 0))
		dropped := drainAll(newFilter(t,
			newStubSpans(stubDoc{1, producerSpans}),
			newStubSpans(stubDoc{1, filterSpans}),
			rel, true, 0, 0))

		var merged []Span
		merged = append(merged, kept[1]...)
		merged = append(merged, dropped[1]...)
		assert.ElementsMatch(t, producerSpans, merged, "relation %s", rel)
	}
}

func TestFilterSpansMultiDocAdvance(t *testing.T) {
	producer := newStubSpans(
		stubDoc{1, []Span{{0, 1}}},
		stubDoc{3, []Span{{2, 3}}},
		stubDoc{5, []Span{{4, 5}}},
	)
	filter := newStubSpans(
		stubDoc{3, []Span{{0, 10}}},
		stubDoc{5, []Span{{0, 10}}},
	)
	fs := newFilter(t, producer, filter, Within, false, 0, 0)

	// Doc 1 has no filter spans, so AdvanceDoc(0) lands on 3.
	require.Equal(t, uint32(3), fs.AdvanceDoc(0))
	assert.Equal(t, []Span{{2, 3}}, drainDoc(fs))

	require.Equal(t, uint32(5), fs.AdvanceDoc(4))
	assert.Equal(t, []Span{{4, 5}}, drainDoc(fs))

	assert.Equal(t, NoMoreDocs, fs.NextDoc())
	assert.Equal(t, NoMoreDocs, fs.NextDoc(), "exhausted iterator stays exhausted")
}

func TestFilterSpansOrderPreserved(t *testing.T) {
	producer := newStubSpans(stubDoc{1, []Span{{0, 9}, {1, 2}, {1, 8}, {2, 2}, {4, 7}, {5, 6}}})
	filter := newStubSpans(stubDoc{1, []Span{{0, 9}, {1, 8}}})
	fs := newFilter(t, producer, filter, Within, false, 0, 0)

	require.Equal(t, uint32(1), fs.NextDoc())
	out := drainDoc(fs)
	require.NotEmpty(t, out)
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i-1].Less(out[i]), "output must stay strictly increasing: %v", out)
	}
}

func TestFilterSpansEndsAtUnorderedEnds(t *testing.T) {
	// Filter ends are not monotonic in stream order; EndsAt must scan the
	// whole per-document window rather than cut off early.
	producer := newStubSpans(stubDoc{2, []Span{{4, 9}, {5, 5}}})
	filter := newStubSpans(stubDoc{2, []Span{{0, 9}, {1, 5}}})
	fs := newFilter(t, producer, filter, EndsAt, false, 0, 0)

	require.Equal(t, uint32(2), fs.NextDoc())
	assert.Equal(t, []Span{{4, 9}, {5, 5}}, drainDoc(fs))
}

// Cross-check the merge iterator against a naive quadratic evaluation over
// randomized streams, for every relation, invert setting and a few edge
// adjustments.
func TestFilterSpansRandomizedAgainstNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	randomSpans := func() []Span {
		var spans []Span
		for s := 0; s < 12; s++ {
			for e := s; e < 12; e++ {
				if rng.Intn(12) == 0 {
					spans = append(spans, Span{s, e})
				}
			}
		}
		return spans
	}

	for trial := 0; trial < 50; trial++ {
		var prodDocs, filtDocs []stubDoc
		for d := uint32(0); d < 6; d++ {
			if ps := randomSpans(); len(ps) > 0 {
				prodDocs = append(prodDocs, stubDoc{d, ps})
			}
			if fsp := randomSpans(); len(fsp) > 0 {
				filtDocs = append(filtDocs, stubDoc{d, fsp})
			}
		}

		adjustments := [][2]int{{0, 0}, {-1, 0}, {0, 1}, {1, -1}}
		for rel := Within; rel <= Matches; rel++ {
			for _, invert := range []bool{false, true} {
				for _, adj := range adjustments {
					want := naiveFilter(prodDocs, filtDocs, rel, invert, adj[0], adj[1])
					got := drainAll(newFilter(t,
						newStubSpans(prodDocs...), newStubSpans(filtDocs...),
						rel, invert, adj[0], adj[1]))
					require.Equal(t, want, got,
						"trial=%d rel=%s invert=%v adj=%v", trial, rel, invert, adj)
				}
			}
		}
	}
}

func naiveFilter(prodDocs, filtDocs []stubDoc, rel Relation, invert bool, left, right int) map[uint32][]Span {
	filt := make(map[uint32][]Span)
	for _, d := range filtDocs {
		filt[d.doc] = d.spans
	}

	out := make(map[uint32][]Span)
	for _, d := range prodDocs {
		var kept []Span
		for _, p := range d.spans {
			adj := Span{p.Start + left, p.End + right}
			matched := false
			for _, f := range filt[d.doc] {
				if rel.Holds(adj, f) {
					matched = true
					break
				}
			}
			if matched != invert {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			out[d.doc] = kept
		}
	}
	return out
}
