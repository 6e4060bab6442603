package spango

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/spango/index"
	"github.com/hupe1980/spango/query"
	"github.com/hupe1980/spango/span"
)

// Hit is a single matching span in a document.
type Hit struct {
	// Doc is the global document ID.
	Doc uint32

	// Span is the matching token range, start inclusive, end exclusive.
	Span span.Span
}

// Search runs a span query over all segments and returns up to limit hits,
// ordered by document and position. Segments are searched in parallel.
func (idx *Index) Search(ctx context.Context, q query.Query, limit int) ([]Hit, error) {
	start := time.Now()
	hits, err := idx.search(ctx, q, limit)
	idx.opts.metricsCollector.RecordSearch(len(hits), time.Since(start), err)
	idx.opts.logger.LogSearch(ctx, q.String(), len(hits), time.Since(start), err)
	return hits, err
}

func (idx *Index) search(ctx context.Context, q query.Query, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	segments, bases := idx.view()
	rewritten := q.Rewrite()

	perSegment := make([][]Hit, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.searchConcurrency)

	for i, seg := range segments {
		g.Go(func() error {
			hits, err := collectHits(gctx, rewritten, seg, bases[i], limit)
			if err != nil {
				return err
			}
			perSegment[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Segment doc ranges are disjoint and ascending, so concatenation in
	// segment order keeps hits globally sorted.
	var out []Hit
	for _, hits := range perSegment {
		out = append(out, hits...)
		if len(out) >= limit {
			out = out[:limit]
			break
		}
	}
	return out, nil
}

// collectHits drains a segment's span stream into at most limit hits.
func collectHits(ctx context.Context, q query.Query, seg *index.Segment, base uint32, limit int) ([]Hit, error) {
	spans := q.Spans(seg)
	if spans == nil {
		return nil, nil
	}

	var hits []Hit
	for doc := spans.NextDoc(); doc != span.NoMoreDocs; doc = spans.NextDoc() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for s := spans.NextSpan(); s != span.NoMoreSpans; s = spans.NextSpan() {
			hits = append(hits, Hit{Doc: base + doc, Span: s})
			if len(hits) >= limit {
				return hits, nil
			}
		}
	}
	return hits, nil
}
