// Package spango provides an embedded positional full-text index with
// span-based querying.
//
// Documents are tokenized into positions and indexed in immutable segments.
// Queries produce token spans rather than bare document matches, which makes
// structural search possible: find hits within a sentence, sentences
// containing a phrase, spans starting or ending at a boundary, and the
// inverted forms of each.
//
// Basic usage:
//
//	idx := spango.New()
//	doc, _ := idx.AddDocument("the quick brown fox")
//	_ = idx.AddMarkerSpans(doc, "sentence", []span.Span{{Start: 0, End: 4}})
//
//	q, _ := query.NewPositionFilter(
//	    query.NewPhrase("quick brown"),
//	    query.NewMarker("sentence"),
//	    span.Within,
//	    false,
//	)
//	hits, _ := idx.Search(ctx, q, 10)
//
// Indexes can be persisted to and loaded from a blobstore.Store, with
// local filesystem, S3 and MinIO backends.
package spango
